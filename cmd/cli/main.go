package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/cmd/cli/commands"
	"github.com/rotagrid/rotagrid/internal/config"
	"github.com/rotagrid/rotagrid/pkg/postgres"
	"github.com/rotagrid/rotagrid/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rotagrid",
		Short: "Rotagrid - rotating shift planner",
		Long:  `A CLI tool for solving team-based rotating shift plans with CP-SAT.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
			if app != nil && app.Database != nil {
				app.Database.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (test, prod, etc.)")

	app = &commands.AppContext{}
	rootCmd.AddCommand(commands.PlanCmd(app))
	rootCmd.AddCommand(commands.ValidateCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and database
func initApp() error {
	cfg, err := config.LoadWithEnv(env)
	if err != nil {
		return err
	}

	logger, err := logging.InitLogger(envOrDefault(), cfg.LogDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := postgres.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return err
	}

	app.Cfg = cfg
	app.Logger = logger
	app.Database = database
	app.Ctx = ctx
	return nil
}

func envOrDefault() string {
	if env == "" {
		return "default"
	}
	return env
}
