package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifeline-ems/lifeline/app"
	"github.com/lifeline-ems/lifeline/config"
	"github.com/lifeline-ems/lifeline/infra/logger"
	"github.com/lifeline-ems/lifeline/infra/pgstore"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load hospitals and ambulances from a JSON file into the database",
	RunE:  seed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.json", "seed data file")
	rootCmd.AddCommand(seedCmd)
}

func seed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Backend != "postgres" {
		return fmt.Errorf("the seed command requires the postgres backend; the memory backend seeds at startup via seed.file")
	}

	ctx := context.Background()
	if err := pgstore.Migrate(cfg.Storage.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	pool, err := pgstore.NewPool(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	return app.Seed(ctx, pgstore.New(pool), seedFile, logger.New("seed"))
}
