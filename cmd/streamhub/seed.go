package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamhub-systems/streamhub/common/logging"
	"github.com/streamhub-systems/streamhub/internal/config"
	"github.com/streamhub-systems/streamhub/internal/engine"
	"github.com/streamhub-systems/streamhub/internal/repository"
	"github.com/streamhub-systems/streamhub/internal/seeder"
)

var scenarioFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic stream activity",
	Long: `Generate fake streams and advancement events against the configured
database. Intended for local development and load testing.

Examples:
  # Seed with the built-in scenario
  streamhub seed

  # Use a custom scenario
  streamhub seed --scenario ./scenario.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

		scenario := seeder.DefaultScenario()
		if scenarioFile != "" {
			scenario, err = seeder.LoadScenario(scenarioFile)
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		repo, err := repository.NewPostgresRepository(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer repo.Close()

		resolver := engine.NewResolver(engine.ResolverConfig{Repo: repo, Logger: logger})
		stats, err := seeder.NewRunner(scenario, resolver, logger).Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Seeded %d streams: %d applied, %d conflicts, %d failed\n",
			stats.Streams, stats.Applied, stats.Conflicts, stats.Failed)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario YAML file")
}
