package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/logs"
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsExportCmd)

	f := logsExportCmd.Flags()
	f.StringVar(&exportOpts.kind, "kind", "conversation", "conversation, platform or all")
	f.StringSliceVar(&exportOpts.users, "users", nil, "emails of the users whose logs to fetch")
	f.StringVar(&exportOpts.start, "start", "", "first day, YYYY-MM-DD")
	f.StringVar(&exportOpts.end, "end", "", "last day, YYYY-MM-DD")
	f.StringVar(&exportOpts.userFilter, "user-filter", "", "keep records whose user contains this text")
	f.StringVar(&exportOpts.search, "search", "", "conversation logs: text in the user input or agent response")
	f.StringVar(&exportOpts.operation, "operation", "", "platform logs: text in the event name")
	f.BoolVar(&exportOpts.errorOnly, "error-only", false, "platform logs: failed operations only")
	f.StringVar(&exportOpts.format, "format", "json", "json or csv")
	f.StringVar(&exportOpts.out, "out", ".", "output directory")
	f.StringVar(&exportOpts.timezone, "timezone", "Local", "zone used for dates and CSV timestamps")
	_ = logsExportCmd.MarkFlagRequired("users")
}

type exportOptions struct {
	kind       string
	users      []string
	start      string
	end        string
	userFilter string
	search     string
	operation  string
	errorOnly  bool
	format     string
	out        string
	timezone   string
}

var exportOpts exportOptions

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Fetch and export logs",
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch logs for users and write them as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credentials()
		if err != nil {
			return err
		}
		written, err := runExport(cmd.Context(), newClient(), creds, exportOpts)
		for _, path := range written {
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("wrote %s", path))
		}
		return err
	},
}

// runExport fetches the requested kinds, concurrently for "all", and writes
// one file per kind
func runExport(ctx context.Context, src logs.Poster, creds backend.Credentials, o exportOptions) ([]string, error) {
	if o.format != "json" && o.format != "csv" {
		return nil, fmt.Errorf("unknown format %q", o.format)
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	var kinds []string
	switch o.kind {
	case "conversation", "platform":
		kinds = []string{o.kind}
	case "all":
		kinds = []string{"conversation", "platform"}
	default:
		return nil, fmt.Errorf("unknown kind %q", o.kind)
	}

	paths := make([]string, len(kinds))
	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			var (
				path string
				err  error
			)
			switch kind {
			case "conversation":
				path, err = exportKind(ctx, src, creds, logs.Conversations, logs.ConversationFilter{
					StartDate:  o.start,
					EndDate:    o.end,
					UserEmail:  o.userFilter,
					SearchText: o.search,
				}, o, loc)
			case "platform":
				path, err = exportKind(ctx, src, creds, logs.Platform, logs.PlatformFilter{
					StartDate: o.start,
					EndDate:   o.end,
					UserEmail: o.userFilter,
					Operation: o.operation,
					ErrorOnly: o.errorOnly,
				}, o, loc)
			}
			if err != nil {
				return fmt.Errorf("%s logs: %w", kind, err)
			}
			paths[i] = path
			return nil
		})
	}
	err = g.Wait()

	written := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, err
}

func exportKind[R any, F logs.Filter](ctx context.Context, src logs.Poster, creds backend.Credentials, kind *logs.Kind[R, F], filter F, o exportOptions, loc *time.Location) (string, error) {
	view := logs.NewView(kind, loc)
	if err := view.SetFilter(filter); err != nil {
		return "", err
	}
	if _, err := view.Fetch(ctx, src, creds, cleanUsers(o.users)); err != nil {
		return "", err
	}

	var (
		exp logs.Export
		err error
	)
	if o.format == "csv" {
		exp, err = view.ExportCSV()
	} else {
		exp, err = view.ExportJSON()
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(o.out, exp.Filename)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func cleanUsers(users []string) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
