package planner

import (
	"fmt"
	"time"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// diagnose inspects the horizon and input for the known infeasibility
// patterns and names the likely causes in a human-readable report.
func diagnose(in *model.PlanningInput, h *horizon.Horizon, c *compiler) []string {
	var report []string

	// Partial first/last weeks interact badly with a full 3-team x 3-shift
	// rotation: every team's code is forced, so the short week cannot shed
	// staffing demand.
	rotationLen := len(in.Settings.DefaultRotation)
	if len(in.Teams) == 3 && rotationLen == 3 {
		if h.ExtendedStart.Before(h.OriginalStart) {
			report = append(report, fmt.Sprintf(
				"first week is partial (%s..%s extends to %s): with 3 teams on a 3-shift rotation the boundary week has no slack",
				model.DateKey(h.OriginalStart), model.DateKey(h.OriginalEnd), model.DateKey(h.ExtendedStart)))
		}
		if h.ExtendedEnd.After(h.OriginalEnd) {
			report = append(report, fmt.Sprintf(
				"last week is partial (extends to %s): with 3 teams on a 3-shift rotation the boundary week has no slack",
				model.DateKey(h.ExtendedEnd)))
		}
	}

	// Teams smaller than the staffing floor of any code they can be assigned.
	for _, t := range c.teams {
		members := len(c.members[t.ID])
		for _, code := range c.teamCodes[t.ID] {
			s := c.shiftByCode[code]
			need := s.MinStaffWeekday
			if s.MinStaffWeekend > need {
				need = s.MinStaffWeekend
			}
			if members < need {
				report = append(report, fmt.Sprintf(
					"team %d has %d plannable members but shift %s requires %d",
					t.ID, members, code, need))
			}
		}
	}

	// Total eligible employees below the aggregate daily requirement.
	maxDailyNeed := 0
	for d := h.ExtendedStart; !d.After(h.ExtendedEnd); d = d.AddDate(0, 0, 1) {
		need := 0
		for _, s := range in.ShiftTypes {
			if s.OperatesOn(d.Weekday()) {
				need += s.MinStaff(horizon.IsWeekend(d))
			}
		}
		if need > maxDailyNeed {
			maxDailyNeed = need
		}
	}
	if len(c.employees) < maxDailyNeed {
		report = append(report, fmt.Sprintf(
			"%d eligible employees cannot cover a daily minimum of %d across all operating shifts",
			len(c.employees), maxDailyNeed))
	}

	// Employee locks contradicting a surviving team-week lock escaped the
	// demotion pass; they pin a member to a code the team does not hold.
	for _, key := range sortedEmpDates(c.locks.employeeWeekday) {
		code := c.locks.employeeWeekday[key]
		d, err := time.Parse(model.DateLayout, key.date)
		if err != nil {
			continue
		}
		week, ok := h.WeekOf(d)
		if !ok {
			continue
		}
		teamID, ok := teamOf(in, key.emp)
		if !ok {
			continue
		}
		if locked, ok := c.locks.teamShift[teamWeek{teamID, week}]; ok && locked != code {
			report = append(report, fmt.Sprintf(
				"employee %d is locked to %s on %s while team %d is locked to %s that week",
				key.emp, code, key.date, teamID, locked))
		}
	}

	if len(report) == 0 {
		report = append(report,
			"no known failure pattern matched; inspect staffing minima and lock density")
	}
	return report
}
