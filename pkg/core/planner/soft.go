package planner

import (
	"sort"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/shopspring/decimal"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// hoursScale keeps hour arithmetic integral: all hour figures in the model
// are multiplied by 10.
const hoursScale = 10

// trainingDayCreditHours is the nominal workday credited for a training
// absence day.
const trainingDayCreditHours = 8

// monthFloorMinDays gates the absolute monthly minimum: ranges shorter
// than a month only get the proportional target.
const monthFloorMinDays = 28

// emitHourTargets emits the two hour-shortage families per employee over
// the original range. Both were once hard and are soft at weight 100 so an
// exhausted physical capacity degrades the objective instead of the solve.
func (c *compiler) emitHourTargets() {
	weeklyHours := 0
	for _, s := range c.in.ShiftTypes {
		if s.TargetWeeklyHours > weeklyHours {
			weeklyHours = s.TargetWeeklyHours
		}
	}
	if weeklyHours == 0 {
		return
	}

	originalDays := int(c.h.OriginalEnd.Sub(c.h.OriginalStart).Hours()/24) + 1
	applyFloor := originalDays >= monthFloorMinDays
	floor := int64(c.in.Settings.MinMonthlyHours * hoursScale)

	for _, e := range c.employees {
		hours := cpmodel.NewLinearExpr()
		targetDays := 0
		for _, d := range c.h.Days {
			if !c.h.InOriginal(d) {
				continue
			}
			if t, absent := c.absences.TypeOn(e.ID, d); absent {
				if t.AccruesHours() {
					// Training blocks assignment but counts as worked time.
					hours.AddConstant(int64(trainingDayCreditHours * hoursScale))
					targetDays++
				}
				continue
			}
			targetDays++
			dk := model.DateKey(d)
			for _, code := range c.codes {
				if v, ok := c.vars.works[empDateCode{e.ID, dk, code}]; ok {
					hours.AddTerm(v, int64(c.shiftByCode[code].DurationHours*hoursScale))
				}
			}
		}

		// Proportional target: (weekly/7) x plannable in-horizon days, on the
		// x10 scale, computed exactly.
		target := decimal.NewFromInt(int64(weeklyHours)).
			Div(decimal.NewFromInt(7)).
			Mul(decimal.NewFromInt(int64(targetDays))).
			Mul(decimal.NewFromInt(hoursScale)).
			Round(0).IntPart()

		if target > 0 {
			shortage := c.b.NewIntVar(0, target)
			c.b.AddGreaterOrEqual(shortage, cpmodel.NewLinearExpr().AddConstant(target).AddTerm(hours, -1))
			c.pens.add(CategoryTargetHoursShortage, WeightTargetHoursShortage, shortage)
		}

		if applyFloor && floor > 0 {
			shortage := c.b.NewIntVar(0, floor)
			c.b.AddGreaterOrEqual(shortage, cpmodel.NewLinearExpr().AddConstant(floor).AddTerm(hours, -1))
			c.pens.add(CategoryMinHoursShortage, WeightMinHoursShortage, shortage)
		}
	}
}

// emitRotationOrder penalizes week-to-week shift transitions that break
// the rotation cycle order. Repeats and the single forward step (with
// wrap) are free; skipping a position costs 10000 per employee-week pair.
func (c *compiler) emitRotationOrder() {
	for _, e := range c.employees {
		team, _ := c.in.TeamByID(*e.TeamID)
		rotation := c.in.RotationForTeam(team)

		for wi := 0; wi+1 < len(c.h.Weeks); wi++ {
			for _, c1 := range c.codes {
				ws1, ok := c.vars.weekShift[empWeekCode{e.ID, wi, c1}]
				if !ok {
					continue
				}
				for _, c2 := range c.codes {
					if rotation.ValidTransition(c1, c2) {
						continue
					}
					ws2, ok := c.vars.weekShift[empWeekCode{e.ID, wi + 1, c2}]
					if !ok {
						continue
					}
					pv := c.b.NewBoolVar()
					c.b.AddGreaterOrEqual(pv, cpmodel.NewLinearExpr().Add(ws1).Add(ws2).AddConstant(-1))
					c.pens.add(CategoryRotationOrder, WeightRotationOrder, pv)
				}
			}
		}
	}
}

// emitStaffingBalance emits the per-day soft staffing families: the
// weekend total cap, cross-shift capacity ordering, the daily count
// ordering, over/understaffing, and the small fill-preference bias.
func (c *compiler) emitStaffingBalance() {
	n := int64(len(c.employees))

	for _, d := range c.h.Days {
		weekend := horizon.IsWeekend(d)
		dk := model.DateKey(d)

		var operating []string
		for _, code := range c.codes {
			if c.shiftByCode[code].OperatesOn(d.Weekday()) {
				operating = append(operating, code)
			}
		}
		if len(operating) == 0 {
			continue
		}

		// One realized-count variable per operating shift.
		counts := make(map[string]cpmodel.IntVar, len(operating))
		for _, code := range operating {
			sum := cpmodel.NewLinearExpr()
			for _, e := range c.employees {
				if v, ok := c.vars.works[empDateCode{e.ID, dk, code}]; ok {
					sum.Add(v)
				}
			}
			cv := c.b.NewIntVar(0, n)
			c.b.AddEquality(cv, sum)
			counts[code] = cv
		}

		// Descending max-staff order; ties keep the input code order.
		byCapacity := append([]string(nil), operating...)
		sort.SliceStable(byCapacity, func(i, j int) bool {
			return c.shiftByCode[byCapacity[i]].MaxStaff(weekend) > c.shiftByCode[byCapacity[j]].MaxStaff(weekend)
		})

		if weekend {
			capTotal := int64(c.in.Settings.WeekendTotalCap)
			total := cpmodel.NewLinearExpr()
			for _, code := range operating {
				total.Add(counts[code])
			}
			excess := c.b.NewIntVar(0, n)
			c.b.AddGreaterOrEqual(excess, cpmodel.NewLinearExpr().AddTerm(total, 1).AddConstant(-capTotal))
			c.pens.add(CategoryTotalWeekendCap, WeightTotalWeekendCap, excess)
		}

		for rank, code := range byCapacity {
			max := int64(c.shiftByCode[code].MaxStaff(weekend))

			if weekend {
				excess := c.b.NewIntVar(0, n)
				c.b.AddGreaterOrEqual(excess, cpmodel.NewLinearExpr().Add(counts[code]).AddConstant(-max))
				c.pens.add(CategoryWeekendOverstaff, WeightWeekendOverstaff, excess)
				continue
			}

			gap := c.b.NewIntVar(0, max)
			c.b.AddGreaterOrEqual(gap, cpmodel.NewLinearExpr().AddConstant(max).AddTerm(counts[code], -1))
			weight := weekdayUnderstaffWeights[minInt(rank, len(weekdayUnderstaffWeights)-1)]
			c.pens.add(CategoryWeekdayUnderstaff, weight, gap)

			excess := c.b.NewIntVar(0, n)
			c.b.AddGreaterOrEqual(excess, cpmodel.NewLinearExpr().Add(counts[code]).AddConstant(-max))
			c.pens.add(CategoryWeekdayOverstaff, WeightWeekdayOverstaff, excess)
		}

		// Ordering penalties need at least two operating shifts; the
		// capacity and preference terms also skip pairs of equal capacity.
		if len(byCapacity) > 1 {
			for i := 0; i+1 < len(byCapacity); i++ {
				hi, lo := byCapacity[i], byCapacity[i+1]
				dev := c.b.NewIntVar(0, n)
				c.b.AddGreaterOrEqual(dev, cpmodel.NewLinearExpr().Add(counts[lo]).AddTerm(counts[hi], -1))
				c.pens.add(CategoryDailyShiftRatio, WeightDailyShiftRatio, dev)
			}

			for i := 0; i < len(byCapacity); i++ {
				for j := i + 1; j < len(byCapacity); j++ {
					hi, lo := byCapacity[i], byCapacity[j]
					maxHi := int64(c.shiftByCode[hi].MaxStaff(weekend))
					maxLo := int64(c.shiftByCode[lo].MaxStaff(weekend))
					if maxHi <= maxLo {
						continue
					}
					minLo := int64(c.shiftByCode[lo].MinStaff(weekend))

					overLow := c.b.NewIntVar(0, n)
					c.b.AddGreaterOrEqual(overLow, cpmodel.NewLinearExpr().Add(counts[lo]).AddConstant(-minLo))
					underHigh := c.b.NewIntVar(0, maxHi)
					c.b.AddGreaterOrEqual(underHigh, cpmodel.NewLinearExpr().AddConstant(maxHi).AddTerm(counts[hi], -1))

					// pen >= min(overLow, underHigh): the selector picks the
					// smaller bound under minimization.
					m := n + maxHi
					sel := c.b.NewBoolVar()
					pen := c.b.NewIntVar(0, n+maxHi)
					c.b.AddGreaterOrEqual(pen, cpmodel.NewLinearExpr().Add(overLow).AddTerm(sel, -m))
					c.b.AddGreaterOrEqual(pen, cpmodel.NewLinearExpr().Add(underHigh).AddTerm(sel, m).AddConstant(-m))
					c.pens.add(CategoryCrossShiftCapacity, WeightCrossShiftCapacity, pen)
				}
			}

			first, last := byCapacity[0], byCapacity[len(byCapacity)-1]
			if c.shiftByCode[first].MaxStaff(weekend) > c.shiftByCode[last].MaxStaff(weekend) {
				c.pens.add(CategoryShiftPreference, -WeightShiftPreference, counts[first])
				c.pens.add(CategoryShiftPreference, WeightShiftPreference, counts[last])
			}
		}
	}
}

// emitShiftHopping penalizes the A-B-A pattern over three consecutive
// calendar days, anchored in the previous-shift map at the horizon edge.
func (c *compiler) emitShiftHopping() {
	for _, e := range c.employees {
		for d := c.h.ExtendedStart.AddDate(0, 0, -2); !d.After(c.h.ExtendedEnd.AddDate(0, 0, -2)); d = d.AddDate(0, 0, 1) {
			for _, a := range c.codes {
				for _, b := range c.codes {
					if a == b {
						continue
					}
					terms := cpmodel.NewLinearExpr()
					constSum := 0
					varCount := 0
					ok := true
					days := []struct {
						offset int
						code   string
					}{{0, a}, {1, b}, {2, a}}
					for _, step := range days {
						v, cst, isVar, possible := c.worksValue(e.ID, d.AddDate(0, 0, step.offset), step.code)
						if !possible {
							ok = false
							break
						}
						if isVar {
							terms.Add(v)
							varCount++
						} else {
							constSum += cst
						}
					}
					if !ok || varCount == 0 {
						continue
					}
					pv := c.b.NewBoolVar()
					c.b.AddGreaterOrEqual(pv, terms.AddConstant(int64(constSum-2)))
					c.pens.add(CategoryShiftHopping, WeightShiftHopping, pv)
				}
			}
		}
	}
}

// emitRestTransitions emits H10 as soft terms: forbidden day-to-day
// transitions cost 50000, except across the Sunday->Monday boundary where
// rotation may force the violation and the price drops to 5000.
func (c *compiler) emitRestTransitions() {
	for _, e := range c.employees {
		for d := c.h.ExtendedStart.AddDate(0, 0, -1); d.Before(c.h.ExtendedEnd); d = d.AddDate(0, 0, 1) {
			next := d.AddDate(0, 0, 1)
			for _, tr := range c.in.Settings.RestTransitions {
				v1, c1, isVar1, ok1 := c.worksValue(e.ID, d, tr.From)
				if !ok1 {
					continue
				}
				v2, c2, isVar2, ok2 := c.worksValue(e.ID, next, tr.To)
				if !ok2 {
					continue
				}
				if !isVar1 && !isVar2 {
					continue // both historical
				}

				expr := cpmodel.NewLinearExpr().AddConstant(int64(c1 + c2 - 1))
				if isVar1 {
					expr.Add(v1)
				}
				if isVar2 {
					expr.Add(v2)
				}
				pv := c.b.NewBoolVar()
				c.b.AddGreaterOrEqual(pv, expr)

				if d.Weekday() == time.Sunday {
					c.pens.add(CategoryRestSundayMonday, WeightRestSundayMonday, pv)
				} else {
					c.pens.add(CategoryRestOther, WeightRestOther, pv)
				}
			}
		}
	}
}

// emitBlockBonuses grants the contiguous-block bonus for Mon-Fri, Sat-Sun
// and Mon-Sun spans per employee-week.
func (c *compiler) emitBlockBonuses() {
	for _, e := range c.employees {
		for _, w := range c.h.Weeks {
			c.emitBlockBonus(e.ID, w.Weekdays())
			c.emitBlockBonus(e.ID, w.WeekendDays())
			c.emitBlockBonus(e.ID, w.Days[:])
		}
	}
}

func (c *compiler) emitBlockBonus(employeeID int, days []time.Time) {
	var dayVars []cpmodel.BoolVar
	for _, d := range days {
		dv, ok := c.vars.dayWorks[empDate{employeeID, model.DateKey(d)}]
		if !ok {
			return
		}
		dayVars = append(dayVars, dv)
	}
	bonus := c.b.NewBoolVar()
	for _, dv := range dayVars {
		c.b.AddLessOrEqual(bonus, dv)
	}
	c.pens.add(CategoryBlockBonus, WeightBlockBonus, bonus)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
