package planner

import (
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
)

// emitConsecutiveDays emits both consecutive-day families: per shift code
// (switching codes resets the counter) and any-shift. Counting is over
// consecutive calendar days; a single free day breaks the chain. Windows
// reach back into the previous-shift map so streaks entering the horizon
// from prior months are detected.
func (c *compiler) emitConsecutiveDays() {
	for _, e := range c.employees {
		for _, code := range c.codes {
			limit := c.maxConsecutiveFor(c.shiftByCode[code])
			c.emitWindows(limit, func(d time.Time) (cpmodel.BoolVar, int, bool, bool) {
				return c.worksValue(e.ID, d, code)
			})
		}

		c.emitWindows(c.in.Settings.MaxConsecutiveDays, func(d time.Time) (cpmodel.BoolVar, int, bool, bool) {
			return c.dayWorksValue(e.ID, d)
		})
	}
}

// emitWindows slides a window of limit+1 days over the horizon and its
// lookback edge, adding one penalty unit per window that could be fully
// worked. Windows containing a day that cannot be worked are skipped; so
// are windows lying entirely in the past.
func (c *compiler) emitWindows(limit int, value func(time.Time) (cpmodel.BoolVar, int, bool, bool)) {
	if limit <= 0 {
		return
	}
	window := limit + 1

	first := c.h.ExtendedStart.AddDate(0, 0, -limit)
	last := c.h.ExtendedEnd.AddDate(0, 0, -limit)

	for start := first; !start.After(last); start = start.AddDate(0, 0, 1) {
		expr := cpmodel.NewLinearExpr()
		constSum := 0
		varCount := 0
		possible := true

		for i := 0; i < window; i++ {
			v, cst, isVar, ok := value(start.AddDate(0, 0, i))
			if !ok {
				possible = false
				break
			}
			if isVar {
				expr.Add(v)
				varCount++
			} else {
				constSum += cst
			}
		}
		if !possible || varCount == 0 {
			continue
		}

		pv := c.b.NewBoolVar()
		c.b.AddGreaterOrEqual(pv, expr.AddConstant(int64(constSum-limit)))
		c.pens.add(CategoryConsecutiveDays, WeightConsecutiveDays, pv)
	}
}
