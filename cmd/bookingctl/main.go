package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/admin"
	"github.com/noah-isme/medibook-api/internal/repository"
	"github.com/noah-isme/medibook-api/pkg/config"
	"github.com/noah-isme/medibook-api/pkg/database"
	"github.com/noah-isme/medibook-api/pkg/events"
	"github.com/noah-isme/medibook-api/pkg/logger"
	"github.com/noah-isme/medibook-api/pkg/timezone"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookingctl",
		Short: "Administrative commands for the booking database and event stream",
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func load() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &env{cfg: cfg, logger: logr}, nil
}

func (e *env) db() (*sqlx.DB, error) {
	db, err := database.NewPostgres(e.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load()
			if err != nil {
				return err
			}
			defer e.logger.Sync() //nolint:errcheck
			db, err := e.db()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			e.logger.Info("schema applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo hospitals, users, doctors and tomorrow's slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			migrate, _ := cmd.Flags().GetBool("migrate")

			e, err := load()
			if err != nil {
				return err
			}
			defer e.logger.Sync() //nolint:errcheck
			tz, err := timezone.New(e.cfg.Booking.Timezone)
			if err != nil {
				return err
			}
			db, err := e.db()
			if err != nil {
				return err
			}
			defer db.Close()

			if migrate {
				if err := database.Migrate(cmd.Context(), db); err != nil {
					return err
				}
			}

			hash, err := admin.HashPassword(password, 0)
			if err != nil {
				return err
			}
			seeder := admin.NewSeeder(admin.SeedStores{
				Hospitals:   repository.NewHospitalRepository(db),
				Departments: repository.NewDepartmentRepository(db),
				Users:       repository.NewUserRepository(db),
				Doctors:     repository.NewDoctorRepository(db),
				Slots:       repository.NewSlotRepository(db, 3),
			}, e.logger)
			summary, err := seeder.Apply(cmd.Context(), admin.BuildDataset(time.Now(), tz.Location(), hash))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded %d rows (%d already present)\n", summary.Created, summary.Skipped)
			fmt.Fprintf(out, "patient: patient@example.com / %s\n", password)
			fmt.Fprintf(out, "doctor:  doc@example.com / %s\n", password)
			fmt.Fprintf(out, "admin:   admin@example.com / %s\n", password)
			return nil
		},
	}
	cmd.Flags().String("password", admin.DefaultPassword, "Password for every seeded account")
	cmd.Flags().Bool("migrate", false, "Apply the schema before seeding")
	return cmd
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every table as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load()
			if err != nil {
				return err
			}
			defer e.logger.Sync() //nolint:errcheck
			db, err := e.db()
			if err != nil {
				return err
			}
			defer db.Close()

			snap, err := admin.TakeSnapshot(cmd.Context(), admin.DumpSources{
				Users:        repository.NewUserRepository(db),
				Hospitals:    repository.NewHospitalRepository(db),
				Departments:  repository.NewDepartmentRepository(db),
				Doctors:      repository.NewDoctorRepository(db),
				Slots:        repository.NewSlotRepository(db, 1),
				Appointments: repository.NewAppointmentRepository(db),
			})
			if err != nil {
				return err
			}
			return snap.WriteJSON(cmd.OutOrStdout())
		},
	}
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the appointment event stream",
	}

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print appointment events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			group, _ := cmd.Flags().GetString("group")

			e, err := load()
			if err != nil {
				return err
			}
			defer e.logger.Sync() //nolint:errcheck
			if !e.cfg.Kafka.Enabled() {
				return fmt.Errorf("KAFKA_BROKERS and KAFKA_EVENTS_TOPIC must be set")
			}
			kcfg := e.cfg.Kafka
			if group != "" {
				kcfg.GroupID = group
			}
			consumer, err := events.NewConsumer(kcfg, e.logger)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return consumer.Consume(ctx, func(ctx context.Context, key string, event events.Envelope) error {
				return enc.Encode(struct {
					Key string `json:"key"`
					events.Envelope
				}{Key: key, Envelope: event})
			})
		},
	}
	tailCmd.Flags().String("group", "", "Consumer group (defaults to KAFKA_GROUP_ID)")
	cmd.AddCommand(tailCmd)
	return cmd
}
