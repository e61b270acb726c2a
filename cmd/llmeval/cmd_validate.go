package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/ingest"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
)

func (a *app) newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <conversation.json>",
		Short: "Check a conversation file without contacting the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening conversation file: %w", err)
			}
			defer f.Close() //nolint:errcheck

			entries, err := ingest.ParseConversationFile(ingest.DetectContentType(path, ""), f)
			if err != nil {
				printNotice(cmd.ErrOrStderr(), &state.Notice{Kind: state.NoticeAlert, Message: err.Error()})
				return &RequestFailureError{Err: fmt.Errorf("%s: %w", path, err)}
			}

			printSuccess(cmd.OutOrStdout(), "%s: %d turns, %d transcript entries", path, len(entries)/2, len(entries))
			return nil
		},
	}
}
