package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/evalclient"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/eventlog"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/logging"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/orchestration"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/projectconfig"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/tracing"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/webapi"
)

var version = "dev"

// app carries the global flags and everything set up from them.
type app struct {
	debug     bool
	configDir string
	trace     bool

	cfg      *projectconfig.ProjectConfig
	closers  []io.Closer
	shutdown tracing.ShutdownFunc
}

func newApp() *app {
	return &app{configDir: "."}
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llmeval",
		Short: "llmeval - evaluate LLM conversations against quality metrics",
		Long: `llmeval sends a recorded conversation to an evaluation service, which
scores every bot reply against the selected metrics.

Results are shown as an annotated transcript, a per-metric chart and a
benchmark table comparing models. The same workflow is available as a
local web dashboard (llmeval serve).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.configDir, "config", ".", "Directory to start the "+projectconfig.FileName+" search from")
	cmd.PersistentFlags().BoolVar(&a.trace, "trace", false, "Print OpenTelemetry spans for service calls to stderr")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.setup(cmd)
	}

	cmd.AddCommand(a.newEvaluateCommand())
	cmd.AddCommand(a.newChatCommand())
	cmd.AddCommand(a.newValidateCommand())
	cmd.AddCommand(a.newCompareCommand())
	cmd.AddCommand(a.newCatalogCommand())
	cmd.AddCommand(a.newServeCommand())
	cmd.AddCommand(a.newLogsCommand())

	return cmd
}

// setup loads configuration and installs logging and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := projectconfig.Load(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	closer, err := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Debug:      a.debug,
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	a.closers = append(a.closers, closer)

	if a.trace {
		shutdown, err := tracing.Enable(tracing.Config{Writer: cmd.ErrOrStderr()})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		a.shutdown = shutdown
	}

	webapi.Version = version
	slog.Debug("configuration loaded", "service_url", cfg.Service.URL, "log_dir", cfg.Logging.Dir)
	return nil
}

// newWorkflow builds a workflow against the configured service. surface
// names the caller in the event log.
func (a *app) newWorkflow(surface, transcriptDir string) (*orchestration.Workflow, error) {
	client := evalclient.New(
		evalclient.WithBaseURL(a.cfg.Service.URL),
		evalclient.WithTimeout(a.cfg.ServiceTimeout()),
		evalclient.WithLogger(slog.Default()),
	)

	var sink eventlog.Logger = eventlog.NopLogger{}
	if a.cfg.Logging.EventLog != nil && *a.cfg.Logging.EventLog {
		l, err := eventlog.Open(a.cfg.Logging.Dir)
		if err != nil {
			return nil, err
		}
		sink = l
	}
	rec := eventlog.NewRecorder(sink, slog.Default())
	rec.Record(eventlog.EventSessionStart, eventlog.SessionStartData(surface, a.cfg.Service.URL))
	a.closers = append(a.closers, closerFunc(func() error {
		rec.Record(eventlog.EventSessionEnd, nil)
		return rec.Close()
	}))

	opts := []orchestration.Option{
		orchestration.WithCatalog(a.cfg.ModelCatalog()),
		orchestration.WithRecorder(rec),
		orchestration.WithLogger(slog.Default()),
	}
	if transcriptDir != "" {
		opts = append(opts, orchestration.WithTranscriptDir(transcriptDir))
	}
	return orchestration.New(client, opts...), nil
}

// transcriptDir returns the directory evaluations are saved to, or "" when
// saving is off.
func (a *app) transcriptDir(override string) string {
	if override != "" {
		return override
	}
	if a.cfg.Output.SaveTranscripts != nil && *a.cfg.Output.SaveTranscripts {
		return a.cfg.Output.TranscriptDir
	}
	return ""
}

// close flushes spans and closes sinks in reverse order. Safe to call twice.
func (a *app) close() {
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.shutdown(ctx) //nolint:errcheck
		cancel()
		a.shutdown = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close() //nolint:errcheck
	}
	a.closers = nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// formatFlag is a --format value restricted to a fixed set of names.
type formatFlag struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*formatFlag)(nil)

func newFormatFlag(def string, allowed ...string) *formatFlag {
	return &formatFlag{value: def, allowed: allowed}
}

func (f *formatFlag) String() string { return f.value }

func (f *formatFlag) Set(v string) error {
	if !slices.Contains(f.allowed, v) {
		return fmt.Errorf("unsupported format %q: must be one of %s", v, strings.Join(f.allowed, ", "))
	}
	f.value = v
	return nil
}

func (f *formatFlag) Type() string { return "format" }

func (f *formatFlag) usage() string {
	return "Output format: " + strings.Join(f.allowed, " | ")
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	defer a.close()
	return a.rootCommand().ExecuteContext(ctx)
}
