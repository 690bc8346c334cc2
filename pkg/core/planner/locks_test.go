package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

// marchInput is a 3-team March 2026 bundle. The extended range runs
// 2026-02-23 (Mon) through 2026-04-05 (Sun); the first and last weeks are
// boundary weeks.
func marchInput() *model.PlanningInput {
	in := &model.PlanningInput{
		Start:    date(2026, 3, 1),
		End:      date(2026, 3, 31),
		Settings: model.DefaultSettings(),
		Locks: model.Locks{
			TeamShift:       make(map[model.TeamWeekKey]string),
			EmployeeShift:   make(map[model.EmployeeDateKey]string),
			EmployeeWeekend: make(map[model.EmployeeDateKey]bool),
			TD:              make(map[model.EmployeeWeekKey]bool),
		},
	}
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
	maxWeekday := map[string]int{"F": 5, "S": 4, "N": 3}
	maxWeekend := map[string]int{"F": 3, "S": 2, "N": 2}
	for _, code := range []string{"F", "N", "S"} {
		in.ShiftTypes = append(in.ShiftTypes, model.ShiftType{
			Code: code, DurationHours: 8, Weekdays: mask,
			MinStaffWeekday: 2, MaxStaffWeekday: maxWeekday[code],
			MinStaffWeekend: 1, MaxStaffWeekend: maxWeekend[code],
			TargetWeeklyHours: 48, MaxConsecutiveDays: 6,
		})
	}
	return in
}

func resolveFor(t *testing.T, in *model.PlanningInput) (*resolvedLocks, *horizon.Horizon) {
	t.Helper()
	h, err := horizon.Build(in.Start, in.End)
	require.NoError(t, err)
	absences := model.BuildAbsenceCalendar(in.Absences, h.ExtendedStart, h.ExtendedEnd)
	teamCodes := map[int][]string{}
	for _, tm := range in.Teams {
		teamCodes[tm.ID] = in.RotationForTeam(tm).ShiftCodes
	}
	return resolveLocks(in, h, absences, teamCodes, zap.NewNop()), h
}

func TestResolveLocks_BoundaryWeekSkipped(t *testing.T) {
	in := marchInput()
	// Prior-month locks land in the first boundary week and must not be
	// asserted; the week is replanned.
	for d := 23; d <= 28; d++ {
		in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: model.DateKey(date(2026, 2, d))}] = "F"
	}

	locks, _ := resolveFor(t, in)

	assert.Empty(t, locks.employeeWeekday)
	assert.Empty(t, locks.teamShift)
	require.Len(t, locks.skipped, 6)
	for _, s := range locks.skipped {
		assert.Equal(t, SkipReasonBoundaryWeek, s.Reason)
	}
}

func TestResolveLocks_TeamConflictDemotesBoth(t *testing.T) {
	in := marchInput()
	// Two members of team 1 pinned to different codes in the same interior
	// week (Mar 9 and Mar 10 are Monday and Tuesday of week index 2).
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-09"}] = "F"
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 2, Date: "2026-03-10"}] = "S"

	locks, _ := resolveFor(t, in)

	assert.Empty(t, locks.teamShift, "conflicting team-week locks demoted")
	assert.Empty(t, locks.employeeWeekday, "deriving employee locks demoted with them")
	require.Len(t, locks.skipped, 2)
	for _, s := range locks.skipped {
		assert.Equal(t, SkipReasonTeamConflict, s.Reason)
		assert.Equal(t, 1, s.TeamID)
	}
}

func TestResolveLocks_AgreeingLocksSurvive(t *testing.T) {
	in := marchInput()
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-09"}] = "F"
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 2, Date: "2026-03-10"}] = "F"

	locks, h := resolveFor(t, in)

	week, ok := h.WeekOf(date(2026, 3, 9))
	require.True(t, ok)
	assert.Equal(t, "F", locks.teamShift[teamWeek{1, week}])
	assert.Len(t, locks.employeeWeekday, 2)
	assert.Empty(t, locks.skipped)
}

func TestResolveLocks_AbsenceWins(t *testing.T) {
	in := marchInput()
	in.Absences = []model.Absence{{
		EmployeeID: 1,
		Start:      date(2026, 3, 1),
		End:        date(2026, 3, 8),
		Type:       model.AbsenceSick,
	}}
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-02"}] = "F"

	locks, _ := resolveFor(t, in)

	assert.Empty(t, locks.employeeWeekday)
	require.Len(t, locks.skipped, 1)
	assert.Equal(t, SkipReasonAbsence, locks.skipped[0].Reason)
}

func TestResolveLocks_WeekendLockRecorded(t *testing.T) {
	in := marchInput()
	// 2026-03-14 is a Saturday in an interior week.
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 3, Date: "2026-03-14"}] = "N"
	in.Locks.EmployeeWeekend[model.EmployeeDateKey{EmployeeID: 4, Date: "2026-03-15"}] = true

	locks, _ := resolveFor(t, in)

	assert.Equal(t, "N", locks.weekendCode[empDate{3, "2026-03-14"}])
	assert.Equal(t, true, locks.weekendPin[empDate{4, "2026-03-15"}])
	assert.Empty(t, locks.teamShift, "weekend locks do not derive team locks")
}

func TestResolveLocks_ExplicitTeamLock(t *testing.T) {
	in := marchInput()
	in.Locks.TeamShift[model.TeamWeekKey{TeamID: 2, WeekIndex: 3}] = "N"
	in.Locks.TeamShift[model.TeamWeekKey{TeamID: 3, WeekIndex: 99}] = "N"

	locks, _ := resolveFor(t, in)

	assert.Equal(t, "N", locks.teamShift[teamWeek{2, 3}])
	require.Len(t, locks.skipped, 1)
	assert.Equal(t, SkipReasonOutOfRange, locks.skipped[0].Reason)
}

func TestResolveLocks_UnknownCode(t *testing.T) {
	in := marchInput()
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-09"}] = "X"

	locks, _ := resolveFor(t, in)

	assert.Empty(t, locks.employeeWeekday)
	require.Len(t, locks.skipped, 1)
	assert.Equal(t, SkipReasonUnknownTarget, locks.skipped[0].Reason)
}
