// Command a2actl drives the console's log pipeline and identity calls
// against the A2A routing backend from the command line.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/config"
	"github.com/a2a-routing/console/internal/logger"
)

var (
	backendURL string
	cookieFlag string
	logLevel   string
	policyFile string
)

var rootCmd = &cobra.Command{
	Use:           "a2actl",
	Short:         "Command line companion of the A2A routing console",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitWithOutput(logLevel, os.Stderr)
	},
}

func init() {
	_ = godotenv.Load()

	defaultBackend := "http://localhost:8000"
	defaultPolicy := os.Getenv("ROLE_POLICY_FILE")
	if cfg, err := config.Load(); err == nil {
		defaultBackend = cfg.BackendURL
		defaultPolicy = cfg.RolePolicyFile
	}

	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", defaultBackend, "backend base URL")
	rootCmd.PersistentFlags().StringVar(&cookieFlag, "cookie", os.Getenv("A2A_SESSION_COOKIE"), "backend session cookies, as in a Cookie header")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "log level")
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", defaultPolicy, "role policy file used by the console (ROLE_POLICY_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func newClient() *backend.Client {
	return backend.New(strings.TrimRight(backendURL, "/"), 60*time.Second)
}

// parseCookies reads "name=value; other=value" into credentials
func parseCookies(header string) (backend.Credentials, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, fmt.Errorf("no session cookie: pass --cookie or set A2A_SESSION_COOKIE")
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie %q: %w", header, err)
	}
	return backend.Credentials(cookies), nil
}

func credentials() (backend.Credentials, error) {
	return parseCookies(cookieFlag)
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
