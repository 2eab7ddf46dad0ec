package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/debatehq/debate-service/internal/config"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:          "debate-service",
		Short:        "Anonymous Q&A and debate backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to an env file loaded before reading the environment")

	root.AddCommand(serveCommand())
	root.AddCommand(migrateCommand())
	root.AddCommand(hashPasswordCommand())
	root.AddCommand(loadgenCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	return config.Load()
}
