package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/models"
)

func init() {
	rootCmd.AddCommand(whoamiCmd, loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", os.Getenv("A2A_PASSWORD"), "account password (or A2A_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("email")
}

var (
	loginEmail    string
	loginPassword string
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the session cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credentials()
		if err != nil {
			return err
		}
		id := access.NewResolver(newClient()).Resolve(cmd.Context(), creds)
		if !id.Authenticated() {
			return fmt.Errorf("not logged in")
		}
		return printIdentity(cmd.OutOrStdout(), id, policyFile)
	},
}

// printIdentity writes the account and the capabilities its role holds
// under the console's role policy
func printIdentity(w io.Writer, id models.Identity, policyPath string) error {
	policy, err := access.LoadPolicy(policyPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", id.Email, color.CyanString(string(id.Role)))
	for _, c := range policy.Capabilities(id.Role) {
		fmt.Fprintf(w, "  %s\n", c)
	}
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print the session cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginPassword == "" {
			return fmt.Errorf("password required: pass --password or set A2A_PASSWORD")
		}
		cookies, err := newClient().Login(cmd.Context(), models.LoginRequest{
			Email:    loginEmail,
			Password: loginPassword,
		})
		if err != nil {
			return fmt.Errorf("login: %s", backend.Describe(err, "login failed", "backend unreachable"))
		}
		if len(cookies) == 0 {
			return fmt.Errorf("login: backend set no session cookie")
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("Logged in as %s", loginEmail))
		fmt.Fprintln(cmd.OutOrStdout(), cookieHeader(cookies))
		return nil
	},
}
