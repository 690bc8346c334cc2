package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rotagrid/rotagrid/pkg/core/model"
	"github.com/rotagrid/rotagrid/pkg/core/planner"
	"github.com/rotagrid/rotagrid/pkg/db"
)

// PlanCmd creates the plan command
func PlanCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Solve a shift plan for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")
			inputPath, _ := cmd.Flags().GetString("input")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

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

			result, err := planner.Solve(app.Ctx, in, app.Database, app.Logger)
			if err != nil {
				return err
			}

			renderResult(result)

			if !result.Status.Succeeded() {
				return fmt.Errorf("no plan produced: %s", result.Status)
			}

			if dryRun {
				fmt.Println("Dry run, nothing saved")
				return nil
			}

			run := &db.PlanRun{
				ID:        uuid.New().String(),
				From:      fromStr,
				To:        toStr,
				Status:    string(result.Status),
				Objective: result.Objective,
			}
			if err := app.Database.SavePlan(app.Ctx, run, result.Assignments, result.TDMarkers); err != nil {
				return fmt.Errorf("failed to save plan: %w", err)
			}
			fmt.Printf("Saved plan run %s (%d assignments)\n", run.ID, len(result.Assignments))
			return nil
		},
	}

	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().String("input", "plan_input.yaml", "Planning bundle YAML file")
	cmd.Flags().Bool("dry-run", false, "Solve without saving to the database")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func renderResult(result *planner.Result) {
	switch result.Status {
	case planner.StatusOptimal:
		color.Green("Status: %s (objective %d, %s)", result.Status, result.Objective, result.WallTime)
	case planner.StatusFeasible:
		color.Yellow("Status: %s (objective %d, %s)", result.Status, result.Objective, result.WallTime)
	default:
		color.Red("Status: %s", result.Status)
		for _, line := range result.Diagnosis {
			fmt.Printf("  - %s\n", line)
		}
		return
	}

	if len(result.Penalties) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Category", "Weight", "Penalty", "Violations"})
		for _, p := range result.Penalties {
			if p.Value == 0 {
				continue
			}
			table.Append([]string{
				string(p.Category),
				fmt.Sprintf("%d", p.Weight),
				fmt.Sprintf("%d", p.Value),
				fmt.Sprintf("%d", p.Violations),
			})
		}
		table.Render()
	}

	if len(result.SkippedLocks) > 0 {
		color.Yellow("Skipped locks: %d", len(result.SkippedLocks))
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Employee", "Team", "Date", "Week", "Shift", "Reason"})
		for _, s := range result.SkippedLocks {
			table.Append([]string{
				fmt.Sprintf("%d", s.EmployeeID),
				fmt.Sprintf("%d", s.TeamID),
				s.Date,
				fmt.Sprintf("%d", s.WeekIndex),
				s.ShiftCode,
				string(s.Reason),
			})
		}
		table.Render()
	}

	fmt.Printf("%d assignments, %d TD markers\n", len(result.Assignments), len(result.TDMarkers))
}
