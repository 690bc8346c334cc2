package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rotagrid/rotagrid/pkg/core/model"
	"github.com/rotagrid/rotagrid/pkg/db"
)

// ListBetween retrieves all assignments with a date in [from, to].
func (d *DB) ListBetween(ctx context.Context, from, to time.Time) ([]model.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, date, shift_code
		FROM assignment
		WHERE date BETWEEN $1 AND $2
		ORDER BY employee_id, date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// ListEmployeeBetween retrieves one employee's assignments in [from, to].
func (d *DB) ListEmployeeBetween(ctx context.Context, employeeID int, from, to time.Time) ([]model.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, date, shift_code
		FROM assignment
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments for employee %d: %w", employeeID, err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// SavePlan persists a plan run with its rows and TD markers in one
// transaction. The caller owns retries; a unique-index violation here is a
// compiler bug, not a storage error.
func (d *DB) SavePlan(ctx context.Context, run *db.PlanRun, assignments []model.Assignment, markers []model.TDMarker) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO plan_run (id, range_from, range_to, status, objective)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.From, run.To, run.Status, run.Objective); err != nil {
		return fmt.Errorf("failed to insert plan run: %w", err)
	}

	for _, a := range assignments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO assignment (id, plan_run_id, employee_id, date, shift_code)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), run.ID, a.EmployeeID, a.Date, a.ShiftCode); err != nil {
			return fmt.Errorf("failed to insert assignment for employee %d on %s: %w",
				a.EmployeeID, model.DateKey(a.Date), err)
		}
	}

	for _, m := range markers {
		if _, err := tx.Exec(ctx, `
			INSERT INTO td_marker (id, plan_run_id, employee_id, week_index)
			VALUES ($1, $2, $3, $4)
		`, uuid.New().String(), run.ID, m.EmployeeID, m.WeekIndex); err != nil {
			return fmt.Errorf("failed to insert TD marker for employee %d: %w", m.EmployeeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	return nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAssignments(rows pgxRows) ([]model.Assignment, error) {
	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.EmployeeID, &a.Date, &a.ShiftCode); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return out, nil
}
