package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/debatehq/debate-service/internal/tools/loadgen"
)

func loadgenCommand() *cobra.Command {
	opts := loadgen.Options{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate synthetic traffic against a running instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadgen.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requests=%d errors=%d rate_limited=%d\n",
				stats.Requests, stats.Errors, stats.RateLimited)
			for class, n := range stats.StatusClasses {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", class, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&opts.Profile, "profile", "mixed", "traffic profile: read, vote or mixed")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "concurrent anonymous identities")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 30*time.Second, "run duration")
	cmd.Flags().IntVar(&opts.RequestRate, "rate", 10, "requests per second per worker")
	return cmd
}
