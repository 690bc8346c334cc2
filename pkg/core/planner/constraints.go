package planner

import (
	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// boolSum builds a linear expression summing the given variables.
func boolSum(vars ...cpmodel.BoolVar) *cpmodel.LinearExpr {
	e := cpmodel.NewLinearExpr()
	for _, v := range vars {
		e.Add(v)
	}
	return e
}

// emitTeamShifts asserts H1 (exactly one code per team-week) and H2 (the
// ISO-week rotation formula), honoring surviving team-week locks.
func (c *compiler) emitTeamShifts() {
	for _, t := range c.teams {
		rotation := c.in.RotationForTeam(t)
		codes := c.teamCodes[t.ID]

		for _, w := range c.h.Weeks {
			var weekVars []cpmodel.BoolVar
			for _, code := range codes {
				weekVars = append(weekVars, c.vars.teamShift[teamWeekCode{t.ID, w.Index, code}])
			}
			c.b.AddExactlyOne(weekVars...)

			if locked, ok := c.locks.teamShift[teamWeek{t.ID, w.Index}]; ok {
				c.b.AddEquality(c.vars.teamShift[teamWeekCode{t.ID, w.Index, locked}], cpmodel.NewConstant(1))
				continue
			}

			// Rotation is indexed by absolute ISO week so separate planning
			// calls sharing a week agree on the code.
			code := rotation.CodeForISOWeek(w.ISOWeek, t.RotationOffset)
			if v, ok := c.vars.teamShift[teamWeekCode{t.ID, w.Index, code}]; ok {
				c.b.AddEquality(v, cpmodel.NewConstant(1))
			} else {
				c.logger.Debug("Rotation code not allowed for team, leaving week free",
					zap.Int("team_id", t.ID),
					zap.Int("week_index", w.Index),
					zap.String("code", code))
			}
		}
	}
}

// emitWeekdayLinkage asserts H3: onShift is the product of active and the
// team's weekly code, cross-team work is confined to that same code, at
// most one assignment per employee-weekday, and works aggregates both.
func (c *compiler) emitWeekdayLinkage() {
	for _, e := range c.employees {
		teamID := *e.TeamID
		for _, w := range c.h.Weeks {
			for _, d := range w.Weekdays() {
				dk := model.DateKey(d)
				active, ok := c.vars.active[empDate{e.ID, dk}]
				if !ok {
					continue
				}

				var dayVars []cpmodel.BoolVar
				for _, code := range c.teamCodes[teamID] {
					key := empDateCode{e.ID, dk, code}
					ons, ok := c.vars.onShift[key]
					if !ok {
						continue
					}
					ts := c.vars.teamShift[teamWeekCode{teamID, w.Index, code}]
					cross := c.vars.crossTeam[key]

					// ons == active AND ts, linearized.
					c.b.AddLessOrEqual(ons, active)
					c.b.AddLessOrEqual(ons, ts)
					c.b.AddGreaterOrEqual(ons, cpmodel.NewLinearExpr().Add(active).Add(ts).AddConstant(-1))

					// A team member cannot escape the rotation mid-week: a
					// cross-team loan must carry the team's own weekly code.
					c.b.AddLessOrEqual(cross, ts)

					c.b.AddEquality(c.vars.works[key], cpmodel.NewLinearExpr().Add(ons).Add(cross))

					dayVars = append(dayVars, ons, cross)
				}

				// No double shift.
				c.b.AddLessOrEqual(boolSum(dayVars...), cpmodel.NewConstant(1))
			}
		}
	}
}

// emitWeekendCoverage asserts H5: weekend variables are independent of the
// weekly team code but still at most one per employee-date.
func (c *compiler) emitWeekendCoverage() {
	for _, e := range c.employees {
		for _, w := range c.h.Weeks {
			for _, d := range w.WeekendDays() {
				dk := model.DateKey(d)
				var dayVars []cpmodel.BoolVar
				for _, code := range c.codes {
					if v, ok := c.vars.weekendShift[empDateCode{e.ID, dk, code}]; ok {
						dayVars = append(dayVars, v)
					}
				}
				if len(dayVars) > 1 {
					c.b.AddAtMostOne(dayVars...)
				}
			}
		}
	}
}

// emitWeeklyConsistency asserts H4: within one ISO week an employee works
// at most one distinct shift code, across own-team, cross-team and weekend
// usage alike. It also links dayWorks to the per-code indicators.
func (c *compiler) emitWeeklyConsistency() {
	for _, e := range c.employees {
		for _, w := range c.h.Weeks {
			var weekVars []cpmodel.BoolVar
			for _, code := range c.codes {
				ws, ok := c.vars.weekShift[empWeekCode{e.ID, w.Index, code}]
				if !ok {
					continue
				}
				for _, usage := range c.weekUsage(e.ID, w, code) {
					c.b.AddLessOrEqual(usage, ws)
				}
				weekVars = append(weekVars, ws)
			}
			if len(weekVars) > 1 {
				c.b.AddAtMostOne(weekVars...)
			}

			for _, d := range w.Days {
				dk := model.DateKey(d)
				dv, ok := c.vars.dayWorks[empDate{e.ID, dk}]
				if !ok {
					continue
				}
				sum := cpmodel.NewLinearExpr()
				for _, code := range c.codes {
					if v, ok := c.vars.works[empDateCode{e.ID, dk, code}]; ok {
						sum.Add(v)
					}
				}
				c.b.AddEquality(dv, sum)
			}
		}
	}
}

// emitMinStaffing asserts H6, the one staffing bound held strict: on every
// date a shift operates, its minimum must be met.
func (c *compiler) emitMinStaffing() {
	for _, d := range c.h.Days {
		weekend := horizon.IsWeekend(d)
		for _, code := range c.codes {
			s := c.shiftByCode[code]
			if !s.OperatesOn(d.Weekday()) {
				continue
			}
			min := s.MinStaff(weekend)
			if min == 0 {
				continue
			}
			sum := cpmodel.NewLinearExpr()
			dk := model.DateKey(d)
			for _, e := range c.employees {
				if v, ok := c.vars.works[empDateCode{e.ID, dk, code}]; ok {
					sum.Add(v)
				}
			}
			c.b.AddGreaterOrEqual(sum, cpmodel.NewConstant(int64(min)))
		}
	}
}

// emitTDUniqueness asserts H8: at most one day-duty holder per team-week.
func (c *compiler) emitTDUniqueness() {
	for _, t := range c.teams {
		for _, w := range c.h.Weeks {
			var tdVars []cpmodel.BoolVar
			for _, e := range c.members[t.ID] {
				if v, ok := c.vars.td[empWeek{e.ID, w.Index}]; ok {
					tdVars = append(tdVars, v)
				}
			}
			if len(tdVars) > 1 {
				c.b.AddAtMostOne(tdVars...)
			}
		}
	}
}

// emitEmployeeLocks asserts the surviving employee-level locks (H9). A lock
// whose variable was never created is demoted here with a warning; the
// resolve pass cannot see variable existence.
func (c *compiler) emitEmployeeLocks() {
	for _, key := range sortedEmpDates(c.locks.employeeWeekday) {
		code := c.locks.employeeWeekday[key]
		if v, ok := c.vars.works[empDateCode{key.emp, key.date, code}]; ok {
			c.b.AddEquality(v, cpmodel.NewConstant(1))
		} else {
			c.locks.skip(c.logger, SkippedLock{EmployeeID: key.emp, Date: key.date, ShiftCode: code, Reason: SkipReasonUnknownTarget})
		}
	}

	for _, key := range sortedEmpDates(c.locks.weekendCode) {
		code := c.locks.weekendCode[key]
		if v, ok := c.vars.weekendShift[empDateCode{key.emp, key.date, code}]; ok {
			c.b.AddEquality(v, cpmodel.NewConstant(1))
		} else {
			c.locks.skip(c.logger, SkippedLock{EmployeeID: key.emp, Date: key.date, ShiftCode: code, Reason: SkipReasonUnknownTarget})
		}
	}

	for _, key := range sortedEmpDatesBool(c.locks.weekendPin) {
		pin := c.locks.weekendPin[key]
		sum := cpmodel.NewLinearExpr()
		n := 0
		for _, code := range c.codes {
			if v, ok := c.vars.weekendShift[empDateCode{key.emp, key.date, code}]; ok {
				sum.Add(v)
				n++
			}
		}
		switch {
		case pin && n == 0:
			c.locks.skip(c.logger, SkippedLock{EmployeeID: key.emp, Date: key.date, Reason: SkipReasonUnknownTarget})
		case pin:
			c.b.AddEquality(sum, cpmodel.NewConstant(1))
		case n > 0:
			c.b.AddEquality(sum, cpmodel.NewConstant(0))
		}
	}

	for _, key := range sortedEmpWeeksBool(c.locks.td) {
		pin := c.locks.td[key]
		v, ok := c.vars.td[empWeek{key.emp, key.week}]
		if !ok {
			if pin {
				c.locks.skip(c.logger, SkippedLock{EmployeeID: key.emp, WeekIndex: key.week, Reason: SkipReasonUnknownTarget})
			}
			continue
		}
		if pin {
			c.b.AddEquality(v, cpmodel.NewConstant(1))
		} else {
			c.b.AddEquality(v, cpmodel.NewConstant(0))
		}
	}
}
