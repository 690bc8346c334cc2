package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// ValidateCmd creates the validate command
func ValidateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a planning bundle without solving",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")

			from, err := time.Parse(model.DateLayout, fromStr)
			if err != nil {
				return fmt.Errorf("invalid --from date %q: %w", fromStr, err)
			}
			to, err := time.Parse(model.DateLayout, toStr)
			if err != nil {
				return fmt.Errorf("invalid --to date %q: %w", toStr, err)
			}

			in, err := LoadInputFile(inputPath)
			if err != nil {
				return err
			}
			in.Start = from
			in.End = to
			in.Settings = app.Cfg.Settings()

			if err := model.ValidateInput(in); err != nil {
				return err
			}
			color.Green("Input bundle is valid: %d employees, %d teams, %d shift types",
				len(in.Employees), len(in.Teams), len(in.ShiftTypes))
			return nil
		},
	}

	cmd.Flags().String("input", "plan_input.yaml", "Planning bundle YAML file")
	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Database.RunMigrations(app.Ctx); err != nil {
				return err
			}
			color.Green("Migrations applied")
			return nil
		},
	}
}
