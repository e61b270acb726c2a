package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/eventlog"
)

func (a *app) newLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View diagnostic event logs",
		Long: `View diagnostic event logs.

Event logs are NDJSON files written to logging.dir for every CLI or dashboard
session. They record conversation loads, evaluation requests and their
outcomes, chat exchanges, and failures.`,
	}

	cmd.AddCommand(a.newLogsListCommand())
	cmd.AddCommand(a.newLogsViewCommand())

	return cmd
}

func (a *app) logDir(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Logging.Dir
}

func (a *app) newLogsListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded event logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			files, err := eventlog.ListLogs(a.logDir(dir))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("listing event logs: %w", err)
			}

			if len(files) == 0 {
				fmt.Fprintln(out, "No event logs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s %-8s %s\n", "File", "Events", "Modified")
			fmt.Fprintln(out, "─────────────────────────────────────────────────────────────────")
			for _, f := range files {
				fmt.Fprintf(out, "%-40s %-8d %s\n", f.Name, f.NumEvents, f.ModTime.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to search for event logs (default: logging.dir)")

	return cmd
}

func (a *app) newLogsViewCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "view [log-file|latest]",
		Short: "View an event log as a timeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "latest"
			if len(args) == 1 {
				name = args[0]
			}
			path, err := eventlog.Resolve(a.logDir(dir), name)
			if err != nil {
				return err
			}

			events, err := eventlog.ReadEvents(path)
			if err != nil {
				return fmt.Errorf("reading event log: %w", err)
			}

			eventlog.RenderTimeline(cmd.OutOrStdout(), events)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory containing event logs (default: logging.dir)")

	return cmd
}
