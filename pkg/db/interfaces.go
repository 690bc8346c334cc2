package db

import (
	"context"
	"time"

	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// AssignmentStore defines read access to previously committed assignments.
// The store is read-only during a solve.
type AssignmentStore interface {
	// ListBetween returns all assignments with a date in [from, to], inclusive.
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Assignment, error)

	// ListEmployeeBetween returns one employee's assignments in [from, to],
	// inclusive. Used by the extended-lookback pass.
	ListEmployeeBetween(ctx context.Context, employeeID int, from, to time.Time) ([]model.Assignment, error)
}

// PlanStore persists the rows of a successful solve under one transaction.
type PlanStore interface {
	SavePlan(ctx context.Context, run *PlanRun, rows []model.Assignment, markers []model.TDMarker) error
}
