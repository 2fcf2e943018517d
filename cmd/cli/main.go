package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/cmd/cli/commands"
	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/postgres"
	"github.com/opscheduler/shiftcheck/pkg/sqlite"
	"github.com/opscheduler/shiftcheck/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
	closeDB func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shiftcheck",
		Short: "Shiftcheck - validate operator shifts against the fatigue policy",
		Long: `A CLI for scheduling operator shifts. Every shift is checked for job conflicts,
overlaps with the operator's own shifts, and the fatigue policy before it is saved.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeDB != nil {
				closeDB()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ValidateShiftCmd(app))
	rootCmd.AddCommand(commands.CreateShiftCmd(app))
	rootCmd.AddCommand(commands.UpdateShiftCmd(app))
	rootCmd.AddCommand(commands.DeleteShiftCmd(app))
	rootCmd.AddCommand(commands.CreateRangeCmd(app))
	rootCmd.AddCommand(commands.SplitShiftCmd(app))
	rootCmd.AddCommand(commands.PartialShiftCmd(app))
	rootCmd.AddCommand(commands.PublishShiftsCmd(app))
	rootCmd.AddCommand(commands.ViewScheduleCmd(app))
	rootCmd.AddCommand(commands.GenerateTeamCmd(app))
	rootCmd.AddCommand(commands.PolicyCmd(app))
	rootCmd.AddCommand(commands.ListOperatorsCmd(app))
	rootCmd.AddCommand(commands.ImportOperatorsCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp loads config, sets up the logger, and opens the database
func initApp() error {
	var err error
	app.Ctx = context.Background()

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger, err = logging.InitLogger(env, app.Cfg.LogsDir, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("timezone", app.Cfg.Timezone),
		zap.Strings("exclusive_jobs", app.Cfg.ExclusiveJobs),
		zap.Bool("atomic_ranges", app.Cfg.AtomicRanges))

	if app.Cfg.DatabaseURL != "" {
		app.Logger.Info("Connecting to PostgreSQL")
		pg, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Database = pg
		app.Migrate = pg.RunMigrations
		closeDB = pg.Close
	} else {
		app.Logger.Info("Opening SQLite database", zap.String("path", app.Cfg.SQLitePath))
		store, err := sqlite.New(app.Cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		app.Database = store
		closeDB = func() { store.Close() }
	}

	app.Logger.Info("Database initialized successfully")
	return nil
}
