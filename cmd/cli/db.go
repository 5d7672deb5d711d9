package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/valuations/internal/adapter/repository/postgres"
	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/infrastructure/postgres"
)

// Commands that talk to the database directly instead of the API.

func databaseURLFlag(cmd *cobra.Command, target *string) {
	cmd.PersistentFlags().StringVar(target, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
}

func migrateCmd() *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	databaseURLFlag(cmd, &databaseURL)
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Directory holding migration files")

	migrator := func(cmd *cobra.Command) *postgres.Migrator {
		logger := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
		return postgres.NewMigrator(databaseURL, migrationsPath, logger)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator(cmd).Up()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator(cmd).Down()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := migrator(cmd).Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func ratesCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage automatic exchange rates",
	}
	databaseURLFlag(cmd, &databaseURL)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <from> <to> <date> <rate>",
		Short: "Store the rate converting one currency into another on a date",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parseRateArgs(args)
			if err != nil {
				return err
			}

			pool, err := postgres.NewPool(cmd.Context(), databaseURL, 1, 0)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgresRepo.NewExchangeRateRepository(pool).Upsert(cmd.Context(), rate); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s on %s = %s\n", rate.From, rate.To, rate.Date.Format(domain.DateLayout), rate.Rate)
			return nil
		},
	})

	return cmd
}

// parseRateArgs validates <from> <to> <date> <rate>.
func parseRateArgs(args []string) (*domain.ExchangeRate, error) {
	from, to := domain.NormalizeCurrency(args[0]), domain.NormalizeCurrency(args[1])
	if err := domain.ValidateCurrency(from); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("from and to must differ")
	}

	date, err := domain.ParseDate(args[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDate, args[2])
	}

	amount, err := domain.ParseAmount(args[3])
	if err != nil {
		return nil, err
	}
	rate, err := domain.NormalizeExchangeRate(amount)
	if err != nil {
		return nil, err
	}

	return &domain.ExchangeRate{From: from, To: to, Date: date, Rate: rate}, nil
}
