package db

import "time"

// PlanRun records one solver invocation and its outcome.
type PlanRun struct {
	ID        string
	From      string // model.DateLayout
	To        string
	Status    string
	Objective int64
	CreatedAt time.Time
}

// AssignmentRow is a persisted assignment record. The table carries a
// unique index on (employee_id, date); the extractor's unique-per-day
// invariant makes violating it a compiler bug.
type AssignmentRow struct {
	ID         string
	PlanRunID  string
	EmployeeID int
	Date       string
	ShiftCode  string
}

// TDMarkerRow is a persisted weekly day-duty marker.
type TDMarkerRow struct {
	ID         string
	PlanRunID  string
	EmployeeID int
	WeekIndex  int
}
