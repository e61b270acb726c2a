package main

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/webserver"
)

func (a *app) newServeCommand() *cobra.Command {
	var (
		addr           string
		resultsDir     string
		noBrowser      bool
		allowRemote    bool
		allowedOrigins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation dashboard",
		Long: `Start the local web dashboard.

The dashboard shows the chat transcript, the evaluation form, the metric
chart and the benchmark table. It is backed by the same workflow as the CLI
and also exposes a JSON API under /api/.

The server binds to loopback by default. Use --allow-remote to bind to
all interfaces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ServerAddr()
			}
			addr = resolveListenAddr(addr, allowRemote, slog.Default())
			if resultsDir == "" {
				resultsDir = a.cfg.Output.TranscriptDir
			}

			wf, err := a.newWorkflow("dashboard", a.transcriptDir(""))
			if err != nil {
				return err
			}

			srv, err := webserver.New(webserver.Config{
				Addr:           addr,
				Workflow:       wf,
				ResultsDir:     resultsDir,
				ServiceURL:     a.cfg.Service.URL,
				AllowedOrigins: allowedOrigins,
				NoBrowser:      noBrowser,
				Logger:         slog.Default(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Dashboard running at http://%s (Ctrl+C to stop)\n", addr) //nolint:errcheck
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default: server.host:server.port from config)")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "", "Directory of saved results served under /api/results")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false,
		"Allow binding to non-loopback addresses (WARNING: exposes the dashboard to the network with no authentication)")
	cmd.Flags().StringArrayVar(&allowedOrigins, "allow-origin", nil, "Origin allowed to call the API cross-site (can be repeated)")

	return cmd
}

// resolveListenAddr keeps the dashboard on loopback unless allowRemote is set.
func resolveListenAddr(addr string, allowRemote bool, logger *slog.Logger) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// Likely just a port like "3000"; treat as ":3000".
		host = ""
		port = addr
	}

	if allowRemote {
		logger.Warn("dashboard binding to all interfaces; no authentication is provided", "address", addr)
		return addr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		return net.JoinHostPort("127.0.0.1", port)
	}
	return addr
}
