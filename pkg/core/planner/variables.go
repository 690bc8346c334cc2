package planner

import (
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// Variable map keys. Dates are canonical date keys so the structs stay
// comparable.
type teamWeek struct {
	team int
	week int
}

type teamWeekCode struct {
	team int
	week int
	code string
}

type empDate struct {
	emp  int
	date string
}

type empDateCode struct {
	emp  int
	date string
	code string
}

type empWeek struct {
	emp  int
	week int
}

type empWeekCode struct {
	emp  int
	week int
	code string
}

// variables holds every decision variable of one solve. A missing map
// entry is semantically a variable fixed to 0: impossible states are
// simply never created.
type variables struct {
	// teamShift[t,w,c]: team t is assigned code c for week w.
	teamShift map[teamWeekCode]cpmodel.BoolVar

	// active[e,d]: employee works the own-team shift on weekday d.
	active map[empDate]cpmodel.BoolVar

	// onShift[e,d,c]: product indicator active[e,d] AND teamShift[t,w,c].
	onShift map[empDateCode]cpmodel.BoolVar

	// crossTeam[e,d,c]: employee works code c for another team on weekday d.
	crossTeam map[empDateCode]cpmodel.BoolVar

	// weekendShift[e,d,c]: employee works code c on weekend date d,
	// independent of the weekly team rotation.
	weekendShift map[empDateCode]cpmodel.BoolVar

	// works[e,d,c]: unified assignment indicator. On weekdays it equals
	// onShift + crossTeam; on weekend dates it aliases weekendShift.
	works map[empDateCode]cpmodel.BoolVar

	// dayWorks[e,d]: employee works any shift on the date.
	dayWorks map[empDate]cpmodel.BoolVar

	// weekShift[e,w,c]: employee works code c at least once in week w.
	weekShift map[empWeekCode]cpmodel.BoolVar

	// td[e,w]: employee holds the weekly day-duty marker.
	td map[empWeek]cpmodel.BoolVar
}

// createVariables runs the single deterministic creation pass: teams by
// id, weeks chronologically, codes in input order, employees by id, dates
// chronologically.
func (c *compiler) createVariables() {
	v := &variables{
		teamShift:    make(map[teamWeekCode]cpmodel.BoolVar),
		active:       make(map[empDate]cpmodel.BoolVar),
		onShift:      make(map[empDateCode]cpmodel.BoolVar),
		crossTeam:    make(map[empDateCode]cpmodel.BoolVar),
		weekendShift: make(map[empDateCode]cpmodel.BoolVar),
		works:        make(map[empDateCode]cpmodel.BoolVar),
		dayWorks:     make(map[empDate]cpmodel.BoolVar),
		weekShift:    make(map[empWeekCode]cpmodel.BoolVar),
		td:           make(map[empWeek]cpmodel.BoolVar),
	}
	c.vars = v

	for _, t := range c.teams {
		for _, w := range c.h.Weeks {
			for _, code := range c.teamCodes[t.ID] {
				key := teamWeekCode{team: t.ID, week: w.Index, code: code}
				v.teamShift[key] = c.b.NewBoolVar().WithName(
					fmt.Sprintf("team_shift_t%d_w%d_%s", t.ID, w.Index, code))
			}
		}
	}

	for _, e := range c.employees {
		teamID := *e.TeamID
		for _, w := range c.h.Weeks {
			for _, d := range w.Weekdays() {
				if c.absences.AbsentOn(e.ID, d) {
					continue
				}
				dk := model.DateKey(d)
				v.active[empDate{e.ID, dk}] = c.b.NewBoolVar().WithName(
					fmt.Sprintf("active_e%d_%s", e.ID, dk))

				for _, code := range c.teamCodes[teamID] {
					if !c.shiftByCode[code].OperatesOn(d.Weekday()) {
						continue
					}
					key := empDateCode{e.ID, dk, code}
					v.onShift[key] = c.b.NewBoolVar().WithName(
						fmt.Sprintf("on_shift_e%d_%s_%s", e.ID, dk, code))
					v.crossTeam[key] = c.b.NewBoolVar().WithName(
						fmt.Sprintf("cross_team_e%d_%s_%s", e.ID, dk, code))
					v.works[key] = c.b.NewBoolVar().WithName(
						fmt.Sprintf("works_e%d_%s_%s", e.ID, dk, code))
				}
			}

			for _, d := range w.WeekendDays() {
				if c.absences.AbsentOn(e.ID, d) {
					continue
				}
				dk := model.DateKey(d)
				for _, code := range c.codes {
					if !c.shiftByCode[code].OperatesOn(d.Weekday()) {
						continue
					}
					key := empDateCode{e.ID, dk, code}
					wv := c.b.NewBoolVar().WithName(
						fmt.Sprintf("weekend_e%d_%s_%s", e.ID, dk, code))
					v.weekendShift[key] = wv
					v.works[key] = wv
				}
			}

			// Day and week aggregates only where at least one works var exists.
			for _, d := range w.Days {
				dk := model.DateKey(d)
				if !c.anyWorksVar(e.ID, dk) {
					continue
				}
				v.dayWorks[empDate{e.ID, dk}] = c.b.NewBoolVar().WithName(
					fmt.Sprintf("day_works_e%d_%s", e.ID, dk))
			}
			for _, code := range c.codes {
				if len(c.weekUsage(e.ID, w, code)) == 0 {
					continue
				}
				v.weekShift[empWeekCode{e.ID, w.Index, code}] = c.b.NewBoolVar().WithName(
					fmt.Sprintf("week_shift_e%d_w%d_%s", e.ID, w.Index, code))
			}

			if e.TDQualified && !c.absentAnyWeekday(e.ID, w) {
				v.td[empWeek{e.ID, w.Index}] = c.b.NewBoolVar().WithName(
					fmt.Sprintf("td_e%d_w%d", e.ID, w.Index))
			}
		}
	}
}

// anyWorksVar reports whether any code is assignable for the employee-date.
func (c *compiler) anyWorksVar(employeeID int, dateKey string) bool {
	for _, code := range c.codes {
		if _, ok := c.vars.works[empDateCode{employeeID, dateKey, code}]; ok {
			return true
		}
	}
	return false
}

// weekUsage collects the works vars of one code across a week's dates.
func (c *compiler) weekUsage(employeeID int, w horizon.Week, code string) []cpmodel.BoolVar {
	var out []cpmodel.BoolVar
	for _, d := range w.Days {
		if v, ok := c.vars.works[empDateCode{employeeID, model.DateKey(d), code}]; ok {
			out = append(out, v)
		}
	}
	return out
}

// worksValue resolves an employee-date-code to either a decision variable
// (horizon dates) or a constant from the previous-shift map (lookback
// dates). possible is false when the state cannot occur at all.
func (c *compiler) worksValue(employeeID int, d time.Time, code string) (v cpmodel.BoolVar, constant int, isVar, possible bool) {
	if d.Before(c.h.ExtendedStart) {
		prev, ok := c.prev.CodeOn(employeeID, d)
		if ok && prev == code {
			return cpmodel.BoolVar{}, 1, false, true
		}
		return cpmodel.BoolVar{}, 0, false, false
	}
	if wv, ok := c.vars.works[empDateCode{employeeID, model.DateKey(d), code}]; ok {
		return wv, 0, true, true
	}
	return cpmodel.BoolVar{}, 0, false, false
}

// dayWorksValue is worksValue for the any-shift indicator.
func (c *compiler) dayWorksValue(employeeID int, d time.Time) (v cpmodel.BoolVar, constant int, isVar, possible bool) {
	if d.Before(c.h.ExtendedStart) {
		if c.prev.WorkedOn(employeeID, d) {
			return cpmodel.BoolVar{}, 1, false, true
		}
		return cpmodel.BoolVar{}, 0, false, false
	}
	if dv, ok := c.vars.dayWorks[empDate{employeeID, model.DateKey(d)}]; ok {
		return dv, 0, true, true
	}
	return cpmodel.BoolVar{}, 0, false, false
}

func (c *compiler) absentAnyWeekday(employeeID int, w horizon.Week) bool {
	for _, d := range w.Weekdays() {
		if c.absences.AbsentOn(employeeID, d) {
			return true
		}
	}
	return false
}
