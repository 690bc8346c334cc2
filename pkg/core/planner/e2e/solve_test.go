package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/model"
	"github.com/rotagrid/rotagrid/pkg/core/planner"
)

// fakeStore serves previous assignments from memory.
type fakeStore struct {
	assignments []model.Assignment
}

func (f *fakeStore) ListBetween(ctx context.Context, from, to time.Time) ([]model.Assignment, error) {
	return f.filter(0, from, to), nil
}

func (f *fakeStore) ListEmployeeBetween(ctx context.Context, employeeID int, from, to time.Time) ([]model.Assignment, error) {
	return f.filter(employeeID, from, to), nil
}

func (f *fakeStore) filter(employeeID int, from, to time.Time) []model.Assignment {
	var out []model.Assignment
	for _, a := range f.assignments {
		if employeeID != 0 && a.EmployeeID != employeeID {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

// bundle builds the standard 3-team x 5-employee scenario setup: shifts
// F/S/N at 8 h, 48 h weekly target, teams rotating with offsets 0/1/2.
func bundle(start, end time.Time) *model.PlanningInput {
	in := &model.PlanningInput{
		Start:    start,
		End:      end,
		Settings: model.DefaultSettings(),
		Locks: model.Locks{
			TeamShift:       make(map[model.TeamWeekKey]string),
			EmployeeShift:   make(map[model.EmployeeDateKey]string),
			EmployeeWeekend: make(map[model.EmployeeDateKey]bool),
			TD:              make(map[model.EmployeeWeekKey]bool),
		},
	}
	in.Settings.TimeLimit = 60 * time.Second
	in.Settings.Workers = 4
	in.Settings.RandomSeed = 1

	for t := 1; t <= 3; t++ {
		in.Teams = append(in.Teams, model.Team{ID: t, Name: "Team", RotationOffset: t - 1})
	}
	id := 1
	for t := 1; t <= 3; t++ {
		for i := 0; i < 5; i++ {
			in.Employees = append(in.Employees, model.Employee{
				ID: id, Name: "E", TeamID: intPtr(t), Active: true, TDQualified: i == 0,
			})
			id++
		}
	}
	mask := [7]bool{true, true, true, true, true, true, true}
	maxWeekday := map[string]int{"F": 5, "S": 4, "N": 4}
	for _, code := range []string{"F", "S", "N"} {
		in.ShiftTypes = append(in.ShiftTypes, model.ShiftType{
			Code: code, DurationHours: 8, Weekdays: mask,
			MinStaffWeekday: 2, MaxStaffWeekday: maxWeekday[code],
			MinStaffWeekend: 1, MaxStaffWeekend: 3,
			TargetWeeklyHours: 48, MaxConsecutiveDays: 6,
		})
	}
	return in
}

func solve(t *testing.T, in *model.PlanningInput, store *fakeStore) *planner.Result {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping CP-SAT solve in short mode")
	}
	result, err := planner.Solve(context.Background(), in, store, zap.NewNop())
	require.NoError(t, err)
	return result
}

// checkInvariants asserts the universal output properties: unique shift
// per employee-date, weekly shift-type consistency, absences honored, and
// minimum staffing on every in-range operating day.
func checkInvariants(t *testing.T, in *model.PlanningInput, result *planner.Result) {
	t.Helper()

	perDay := map[model.EmployeeDateKey]string{}
	perWeekCodes := map[string]map[string]bool{}
	perDayCode := map[string]int{}
	absences := model.BuildAbsenceCalendar(in.Absences, in.Start.AddDate(0, 0, -70), in.End.AddDate(0, 0, 7))

	for _, a := range result.Assignments {
		key := model.EmployeeDateKey{EmployeeID: a.EmployeeID, Date: model.DateKey(a.Date)}
		_, dup := perDay[key]
		require.False(t, dup, "employee %d has two shifts on %s", a.EmployeeID, key.Date)
		perDay[key] = a.ShiftCode

		assert.False(t, absences.AbsentOn(a.EmployeeID, a.Date),
			"employee %d assigned while absent on %s", a.EmployeeID, key.Date)

		year, week := a.Date.ISOWeek()
		weekKey := fmt.Sprintf("%d/%d-W%02d", a.EmployeeID, year, week)
		if perWeekCodes[weekKey] == nil {
			perWeekCodes[weekKey] = map[string]bool{}
		}
		perWeekCodes[weekKey][a.ShiftCode] = true

		perDayCode[key.Date+"|"+a.ShiftCode]++
	}

	for weekKey, codes := range perWeekCodes {
		assert.Len(t, codes, 1, "employee-week %s works more than one code", weekKey)
	}

	for d := in.Start; !d.After(in.End); d = d.AddDate(0, 0, 1) {
		weekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		for _, s := range in.ShiftTypes {
			if !s.OperatesOn(d.Weekday()) {
				continue
			}
			got := perDayCode[model.DateKey(d)+"|"+s.Code]
			assert.GreaterOrEqual(t, got, s.MinStaff(weekend),
				"min staffing for %s on %s", s.Code, model.DateKey(d))
		}
	}
}

// S1: a plain January month with no absences and no locks.
func TestSolve_JanuaryMonth(t *testing.T) {
	in := bundle(date(2026, 1, 1), date(2026, 1, 31))
	result := solve(t, in, &fakeStore{})

	require.True(t, result.Status.Succeeded(), "expected a solution, got %s: %v", result.Status, result.Diagnosis)
	assert.Empty(t, result.SkippedLocks)
	checkInvariants(t, in, result)

	// Rotation consistency: weekday in-team codes follow the ISO-week
	// formula code for the employee's team.
	rotation := in.Settings.DefaultRotation
	for _, a := range result.Assignments {
		wd := a.Date.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		var team model.Team
		for _, e := range in.Employees {
			if e.ID == a.EmployeeID {
				team, _ = in.TeamByID(*e.TeamID)
			}
		}
		_, isoWeek := a.Date.ISOWeek()
		want := rotation[(isoWeek+team.RotationOffset)%len(rotation)]
		assert.Equal(t, want, a.ShiftCode,
			"employee %d on %s should follow team %d rotation", a.EmployeeID, model.DateKey(a.Date), team.ID)
	}
}

// S2: locks from the previous month land in the boundary week and are
// skipped; the week is replanned. The committed rows on those dates lie
// inside the extended range, after the lookback window, so the lookback
// does not load them.
func TestSolve_BoundaryWeekLocks(t *testing.T) {
	in := bundle(date(2026, 3, 1), date(2026, 3, 31))
	store := &fakeStore{}
	for d := 23; d <= 28; d++ {
		day := date(2026, 2, d)
		store.assignments = append(store.assignments, model.Assignment{EmployeeID: 1, Date: day, ShiftCode: "F"})
		in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: model.DateKey(day)}] = "F"
	}

	result := solve(t, in, store)

	require.True(t, result.Status.Succeeded(), "expected a solution, got %s: %v", result.Status, result.Diagnosis)
	require.Len(t, result.SkippedLocks, 6)
	for _, s := range result.SkippedLocks {
		assert.Equal(t, planner.SkipReasonBoundaryWeek, s.Reason)
	}
	checkInvariants(t, in, result)
}

// S3: conflicting locks inside one overlapping week must not make the
// model infeasible; the week is replanned.
func TestSolve_ConflictingLocks(t *testing.T) {
	in := bundle(date(2026, 3, 1), date(2026, 3, 31))
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-30"}] = "F"
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 2, Date: "2026-03-31"}] = "S"

	result := solve(t, in, &fakeStore{})

	require.True(t, result.Status.Succeeded(), "expected a solution, got %s: %v", result.Status, result.Diagnosis)
	assert.Len(t, result.SkippedLocks, 2)
	checkInvariants(t, in, result)
}

// S4: an absence beats a lock on the same date.
func TestSolve_AbsenceBeatsLock(t *testing.T) {
	in := bundle(date(2026, 3, 1), date(2026, 3, 31))
	in.Absences = []model.Absence{{
		EmployeeID: 1,
		Start:      date(2026, 3, 1),
		End:        date(2026, 3, 8),
		Type:       model.AbsenceSick,
	}}
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-01"}] = "F"

	result := solve(t, in, &fakeStore{})

	require.True(t, result.Status.Succeeded(), "expected a solution, got %s: %v", result.Status, result.Diagnosis)
	require.NotEmpty(t, result.SkippedLocks)
	for _, a := range result.Assignments {
		if a.EmployeeID == 1 {
			assert.False(t, !a.Date.Before(date(2026, 3, 1)) && !a.Date.After(date(2026, 3, 8)),
				"employee 1 must not be assigned during the absence, got %s", model.DateKey(a.Date))
		}
	}
	checkInvariants(t, in, result)
}

// S6: physical capacity below the 192 h floor degrades to a reported
// shortage penalty instead of infeasibility.
func TestSolve_HourFloorShortageStaysFeasible(t *testing.T) {
	in := bundle(date(2026, 2, 23), date(2026, 4, 5))
	for i := range in.ShiftTypes {
		if in.ShiftTypes[i].Code == "N" {
			in.ShiftTypes[i].MaxStaffWeekday = 3
			in.ShiftTypes[i].MaxStaffWeekend = 3
		}
	}

	result := solve(t, in, &fakeStore{})

	require.True(t, result.Status.Succeeded(), "expected a solution, got %s: %v", result.Status, result.Diagnosis)
	var found bool
	for _, p := range result.Penalties {
		if p.Category == planner.CategoryMinHoursShortage {
			found = true
		}
	}
	assert.True(t, found, "min-hours shortage must be part of the penalty report")
	checkInvariants(t, in, result)
}
