package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/evalclient"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/orchestration"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/spinner"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/wizard"
)

func (a *app) newChatCommand() *cobra.Command {
	var file, message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the evaluation service about a loaded conversation",
		Long: `Load a conversation file, then send chat messages to the evaluation service.

With --message a single message is sent. Otherwise messages are read from
stdin, one per line, until EOF or /quit. A failed request is answered with
a fallback reply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := a.newWorkflow("cli", "")
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			if file != "" {
				if err := loadConversationFile(wf, file); err != nil {
					printNotice(errOut, wf.Snapshot().Notice)
					return &RequestFailureError{Err: err}
				}
			}

			sp := spinner.New(errOut)
			wf.OnProgress(func(e orchestration.ProgressEvent) {
				switch e.Type {
				case orchestration.ProgressChatStart:
					sp.Start("Waiting for a reply...")
				case orchestration.ProgressChatComplete:
					sp.Stop()
				}
			})

			s := &chatSession{wf: wf, out: cmd.OutOrStdout(), errOut: errOut}
			if message != "" {
				return s.send(cmd, message)
			}
			return s.loop(cmd, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Conversation file to load before chatting")
	cmd.Flags().StringVar(&message, "message", "", "Send one message and exit")

	return cmd
}

type chatSession struct {
	wf     *orchestration.Workflow
	out    io.Writer
	errOut io.Writer
}

func (s *chatSession) send(cmd *cobra.Command, message string) error {
	reply, err := s.wf.SendChat(cmd.Context(), message)
	if reply != "" {
		fmt.Fprintf(s.out, "bot: %s\n", reply) //nolint:errcheck
	}
	if err != nil {
		if reply != "" {
			printNotice(s.errOut, &state.Notice{Kind: state.NoticeBanner, Message: evalclient.UserMessage(err)})
		}
		return &RequestFailureError{Err: err}
	}
	return nil
}

func (s *chatSession) loop(cmd *cobra.Command, in io.Reader) error {
	interactive := wizard.IsTerminal(in)
	sc := bufio.NewScanner(in)
	failed := 0
	for {
		if interactive {
			fmt.Fprint(s.errOut, "> ") //nolint:errcheck
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if err := s.send(cmd, line); err != nil {
			if errors.Is(err, orchestration.ErrNoConversation) {
				return err
			}
			failed++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading messages: %w", err)
	}
	if failed > 0 {
		return &RequestFailureError{Err: fmt.Errorf("%d chat request(s) failed", failed)}
	}
	return nil
}
