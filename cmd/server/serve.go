package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/debatehq/debate-service/internal/app"
	"github.com/debatehq/debate-service/internal/observability"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
			if err != nil {
				return err
			}
			runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := runtime.Shutdown(shutdownCtx); err != nil {
					logger.Warn("observability shutdown failed", "error", err.Error())
				}
			}()

			a, err := app.Build(ctx, cfg, logger, runtime)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}
