package main

import (
	"os"
	"os/signal"
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

type seedFlags struct {
	count         int
	counts        string
	collections   string
	clear         bool
	linkAuthUsers bool
	envFile       string
	seed          uint64
}

func newRootCmd() *cobra.Command {
	var flags seedFlags

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write synthetic users, profiles, appointments and notifications",
		Example: `  seed --count=25
  seed --clear --collections=users,doctor_profiles,patient_profiles --counts=users:40
  seed --link-auth-users --collections=appointments,notifications`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags.envFile)
			if err != nil {
				return err
			}
			logger := observability.InitLogger("careconnect-seed", cfg.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pgClient, err := postgres.NewClient(ctx, &cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			seeder := services.NewSeedService(
				database.NewUserAdapter(pgClient),
				database.NewAppointmentAdapter(pgClient),
				database.NewNotificationAdapter(pgClient),
				database.NewCollectionAdapter(pgClient),
				flags.seed,
				logger,
			)

			report, err := seeder.Seed(ctx, opts)
			if err != nil {
				logger.Error().Err(err).Msg("seeding failed")
				return err
			}

			logger.Info().
				Interface("cleared", report.Cleared).
				Interface("written", report.Written).
				Msg("seeding complete")
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.count, "count", services.DefaultSeedCount, "records per counted collection")
	f.StringVar(&flags.counts, "counts", "", "per-collection counts, e.g. users:40,appointments:200")
	f.StringVar(&flags.collections, "collections", "", "comma-separated collections to seed (default all)")
	f.BoolVar(&flags.clear, "clear", false, "delete existing documents of the selected collections first")
	f.BoolVar(&flags.linkAuthUsers, "link-auth-users", false, "also reference existing accounts in appointments and notifications")
	f.StringVar(&flags.envFile, "env-file", "", "read configuration from this env file")
	f.Uint64Var(&flags.seed, "seed", 0, "random seed for reproducible data (0 picks one)")
	return cmd
}

func (f seedFlags) options() (services.SeedOptions, error) {
	counts, err := services.ParseCounts(f.counts)
	if err != nil {
		return services.SeedOptions{}, err
	}
	collections, err := services.ParseCollections(f.collections)
	if err != nil {
		return services.SeedOptions{}, err
	}
	return services.SeedOptions{
		Count:         f.count,
		Counts:        counts,
		Collections:   collections,
		Clear:         f.clear,
		LinkAuthUsers: f.linkAuthUsers,
	}, nil
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile != "" {
		return config.LoadFile(envFile)
	}
	return config.Load()
}
