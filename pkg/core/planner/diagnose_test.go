package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

func diagnoseFor(t *testing.T, in *model.PlanningInput) []string {
	t.Helper()
	h, err := horizon.Build(in.Start, in.End)
	require.NoError(t, err)
	c := newCompiler(in, h, horizon.PreviousShifts{}, zap.NewNop())
	c.locks = resolveLocks(in, h, c.absences, c.teamCodes, zap.NewNop())
	return diagnose(in, h, c)
}

func TestDiagnose_PartialWeeksWithFullRotation(t *testing.T) {
	in := marchInput() // 3 teams, 3-shift rotation, partial first and last weeks
	report := diagnoseFor(t, in)

	joined := strings.Join(report, "\n")
	assert.Contains(t, joined, "first week is partial")
	assert.Contains(t, joined, "last week is partial")
}

func TestDiagnose_TeamBelowMinStaffing(t *testing.T) {
	in := marchInput()
	// Shrink team 3 to one member.
	var kept []model.Employee
	seen := 0
	for _, e := range in.Employees {
		if *e.TeamID == 3 {
			seen++
			if seen > 1 {
				continue
			}
		}
		kept = append(kept, e)
	}
	in.Employees = kept

	report := diagnoseFor(t, in)
	joined := strings.Join(report, "\n")
	assert.Contains(t, joined, "team 3 has 1 plannable members")
}

func TestDiagnose_TooFewEligibleEmployees(t *testing.T) {
	in := marchInput()
	in.Employees = in.Employees[:4] // 4 employees against a daily minimum of 6
	report := diagnoseFor(t, in)

	joined := strings.Join(report, "\n")
	assert.Contains(t, joined, "cannot cover a daily minimum")
}

func TestDiagnose_SurvivingLockContradiction(t *testing.T) {
	in := marchInput()
	// Team 1 locked to N for the interior week of Mar 9; employee 1 of that
	// team locked to F on the Wednesday. The employee lock derives a
	// conflicting team lock, so the resolver demotes both; the contradictory
	// state is then set by hand to exercise the diagnostic check.
	in.Locks.TeamShift[model.TeamWeekKey{TeamID: 1, WeekIndex: 2}] = "N"
	in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: 1, Date: "2026-03-11"}] = "F"

	h, err := horizon.Build(in.Start, in.End)
	require.NoError(t, err)
	c := newCompiler(in, h, horizon.PreviousShifts{}, zap.NewNop())
	c.locks = resolveLocks(in, h, c.absences, c.teamCodes, zap.NewNop())

	// Both sources land in the same candidate set, so the resolver demotes
	// them; nothing survives to contradict.
	assert.Empty(t, c.locks.teamShift)

	// Force the contradictory state the diagnostic pass is written for.
	c.locks.teamShift[teamWeek{1, 2}] = "N"
	c.locks.employeeWeekday[empDate{1, "2026-03-11"}] = "F"

	report := diagnose(in, h, c)
	joined := strings.Join(report, "\n")
	assert.Contains(t, joined, "locked to F on 2026-03-11 while team 1 is locked to N")
}

func TestDiagnose_NoPatternMatched(t *testing.T) {
	// A Monday-to-Sunday range with ample staffing matches nothing.
	in := marchInput()
	in.Start = date(2026, 3, 2)
	in.End = date(2026, 3, 29)

	report := diagnoseFor(t, in)
	require.Len(t, report, 1)
	assert.Contains(t, report[0], "no known failure pattern")
}
