package main

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/careconnect/backend/internal/adapters/database"
	"github.com/careconnect/backend/internal/application/services"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/careconnect/backend/internal/infrastructure/observability"
	"github.com/careconnect/backend/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		collections []string
		dryRun      bool
		envFile     string
	)

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Normalize stored documents to their current shape",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			supported := services.MigratableCollections()
			if len(collections) == 0 {
				collections = supported
			}
			for _, c := range collections {
				if !slices.Contains(supported, c) {
					return fmt.Errorf("unknown collection %q: must be one of %s", c, strings.Join(supported, ", "))
				}
			}

			var (
				cfg *config.Config
				err error
			)
			if envFile != "" {
				cfg, err = config.LoadFile(envFile)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			logger := observability.InitLogger("careconnect-migrate", cfg.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pgClient, err := postgres.NewClient(ctx, &cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			migrator := services.NewMigrationService(database.NewCollectionAdapter(pgClient), logger)

			var errored int
			for _, collection := range collections {
				tally, err := migrator.NormalizeCollection(ctx, collection, dryRun)
				if err != nil {
					return fmt.Errorf("%s: %w", collection, err)
				}
				errored += tally.Errored
				logger.Info().
					Str("collection", collection).
					Bool("dry_run", dryRun).
					Int("scanned", tally.Scanned).
					Int("updated", tally.Updated).
					Int("skipped", tally.Skipped).
					Int("errored", tally.Errored).
					Msg("collection normalized")
			}

			if errored > 0 {
				logger.Warn().Int("errored", errored).Msg("some documents could not be normalized and were left unchanged")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&collections, "collection", nil, "collections to normalize (default all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count the changes without writing them")
	cmd.Flags().StringVar(&envFile, "env-file", "", "read configuration from this env file")
	return cmd
}
