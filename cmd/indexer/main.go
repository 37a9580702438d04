package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/careconnect/backend/internal/adapters/database"
	"github.com/careconnect/backend/internal/adapters/search"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/careconnect/backend/internal/infrastructure/clients/typesense"
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
		reset    bool
		interval time.Duration
		envFile  string
	)

	cmd := &cobra.Command{
		Use:           "indexer",
		Short:         "Rebuild the doctor search index from the database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval == 0 {
				if raw := strings.TrimSpace(os.Getenv("REINDEX_INTERVAL")); raw != "" {
					parsed, err := time.ParseDuration(raw)
					if err != nil {
						return fmt.Errorf("invalid REINDEX_INTERVAL %q: %w", raw, err)
					}
					interval = parsed
				}
			}
			if interval < 0 {
				return fmt.Errorf("interval must be greater than zero")
			}

			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			logger := observability.InitLogger("careconnect-indexer", cfg.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reset = reset || os.Getenv("RESET_TYPESENSE") == "true"
			for {
				if err := indexOnce(ctx, cfg, reset, logger); err != nil {
					if interval <= 0 {
						logger.Error().Err(err).Msg("reindex failed")
						return err
					}
					logger.Error().Err(err).Msg("reindex failed, retrying next interval")
				}

				if interval <= 0 {
					return nil
				}

				reset = false
				logger.Info().Dur("next_in", interval).Msg("reindex complete")

				select {
				case <-ctx.Done():
					logger.Info().Msg("reindexer shutting down")
					return nil
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "delete the doctors collection before reindexing")
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat interval for reindexing (e.g. 6h, 30m)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "read configuration from this env file")
	return cmd
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile != "" {
		return config.LoadFile(envFile)
	}
	return config.Load()
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool, logger zerolog.Logger) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense, logger)
	if err != nil {
		return err
	}

	if reset {
		logger.Warn().Str("collection", typesense.DoctorsCollection).Msg("deleting collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.DoctorsCollection).Delete(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	users := database.NewUserAdapter(pgClient)
	listings, err := users.FindDoctors(ctx, repositories.DoctorListQuery{})
	if err != nil {
		return err
	}

	logger.Info().Int("doctors", len(listings)).Msg("indexing doctors")

	index := search.NewDoctorIndex(tsClient)
	var failed int
	for _, listing := range listings {
		if listing == nil || listing.Doctor == nil {
			continue
		}
		if err := index.Index(ctx, listing.Doctor, listing.User); err != nil {
			failed++
			logger.Warn().Err(err).Str("user_id", listing.Doctor.UserID).Msg("failed to index doctor")
		}
	}

	logger.Info().Int("indexed", len(listings)-failed).Int("failed", failed).Msg("indexing complete")
	if failed > 0 {
		return fmt.Errorf("%d of %d doctors failed to index", failed, len(listings))
	}
	return nil
}
