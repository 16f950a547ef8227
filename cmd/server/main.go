package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swipr-api/internal/config"
	"swipr-api/internal/logging"
)

var configFile string

func main() {
	if err := buildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "swipr-api",
		Short:         "Swipr recruiting and lead capture API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "config file path")

	rootCmd.AddCommand(buildServeCommand())
	rootCmd.AddCommand(buildInitDBCommand())
	rootCmd.AddCommand(buildCheckCommand())

	// Running without a subcommand starts the server
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cfg)
	}

	return rootCmd
}

// loadConfig reads configuration and brings up logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.InitializeLogging(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}
