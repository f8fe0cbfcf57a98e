package main

import (
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/homelibrarian/homelibrarian/internal/di"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `Starts the HTTP API together with the scheduled backup check and, when
an inbox folder is configured, the CSV drop folder watcher.

Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector := a.container()
			defer func() { a.injector = nil }()

			if err := di.Bootstrap(injector); err != nil {
				_ = injector.Shutdown()
				return err
			}

			log := do.MustInvoke[*slog.Logger](injector)

			<-cmd.Context().Done()
			log.Info("shutting down gracefully")

			// The container shuts services down in reverse dependency order:
			// the HTTP server first, the store last.
			if err := shutdownErr(injector.Shutdown()); err != nil {
				log.Error("shutdown error", "error", err)
				return err
			}

			log.Info("goodbye")
			return nil
		},
	}
	cmd.Flags().StringVar(&a.flags.Addr, "addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().StringVar(&a.flags.InboxDir, "inbox", "", "folder watched for CSV imports")
	return cmd
}
