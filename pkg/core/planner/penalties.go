package planner

import (
	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
)

// Category tags a soft-constraint penalty family.
type Category string

const (
	CategoryMinHoursShortage    Category = "min_hours_shortage"
	CategoryTargetHoursShortage Category = "target_hours_shortage"
	CategoryRotationOrder       Category = "rotation_order_violation"
	CategoryTotalWeekendCap     Category = "total_weekend_cap"
	CategoryCrossShiftCapacity  Category = "cross_shift_capacity"
	CategoryDailyShiftRatio     Category = "daily_shift_ratio"
	CategoryWeekendOverstaff    Category = "weekend_overstaff"
	CategoryWeekdayUnderstaff   Category = "weekday_understaff"
	CategoryWeekdayOverstaff    Category = "weekday_overstaff"
	CategoryShiftPreference     Category = "shift_preference"
	CategoryConsecutiveDays     Category = "consecutive_days"
	CategoryShiftHopping        Category = "shift_hopping"
	CategoryRestSundayMonday    Category = "rest_time_sunday_monday"
	CategoryRestOther           Category = "rest_time_other"
	CategoryBlockBonus          Category = "block_scheduling_bonus"
)

// categoryOrder fixes the aggregation order of the objective so its value
// is reproducible across runs.
var categoryOrder = []Category{
	CategoryMinHoursShortage,
	CategoryTargetHoursShortage,
	CategoryRotationOrder,
	CategoryTotalWeekendCap,
	CategoryCrossShiftCapacity,
	CategoryDailyShiftRatio,
	CategoryWeekendOverstaff,
	CategoryWeekdayUnderstaff,
	CategoryWeekdayOverstaff,
	CategoryShiftPreference,
	CategoryConsecutiveDays,
	CategoryShiftHopping,
	CategoryRestSundayMonday,
	CategoryRestOther,
	CategoryBlockBonus,
}

// Objective weights. The four orders of magnitude between the cheapest and
// the rest-time weights are what keeps the program feasible while ranking
// violations: overstaffing a weekday is a last resort at weight 1, a
// mid-week rest violation at 50000 is effectively hard.
const (
	WeightMinHoursShortage    int64 = 100
	WeightTargetHoursShortage int64 = 100
	WeightRotationOrder       int64 = 10000
	WeightTotalWeekendCap     int64 = 150
	WeightCrossShiftCapacity  int64 = 150
	WeightDailyShiftRatio     int64 = 200
	WeightWeekendOverstaff    int64 = 50
	WeightWeekdayOverstaff    int64 = 1
	WeightShiftPreference     int64 = 3
	WeightConsecutiveDays     int64 = 400
	WeightShiftHopping        int64 = 200
	WeightRestSundayMonday    int64 = 5000
	WeightRestOther           int64 = 50000
	WeightBlockBonus          int64 = -25
)

// weekdayUnderstaffWeights ranks the understaffing weight by the shift's
// position in the descending max-staff order: higher-capacity shifts are
// more expensive to leave short.
var weekdayUnderstaffWeights = [3]int64{20, 12, 5}

// penaltyTerm is one weighted slack variable in the objective.
type penaltyTerm struct {
	category Category
	weight   int64
	v        cpmodel.LinearArgument
}

// penaltySet collects penalty terms in emission order.
type penaltySet struct {
	terms []penaltyTerm
}

func (p *penaltySet) add(category Category, weight int64, v cpmodel.LinearArgument) {
	p.terms = append(p.terms, penaltyTerm{category: category, weight: weight, v: v})
}

// objective builds the weighted penalty sum, aggregated per category in
// the fixed order.
func (p *penaltySet) objective() *cpmodel.LinearExpr {
	obj := cpmodel.NewLinearExpr()
	for _, cat := range categoryOrder {
		for _, t := range p.terms {
			if t.category == cat {
				obj.AddTerm(t.v, t.weight)
			}
		}
	}
	return obj
}

// PenaltyReport is the realized penalty of one category.
type PenaltyReport struct {
	Category   Category
	Weight     int64
	Value      int64
	Violations int
}

// report evaluates every term against the solver response and aggregates
// per category, preserving the fixed order. Categories without terms are
// omitted; categories whose terms all realized to zero report zero.
func (p *penaltySet) report(resp *cmpb.CpSolverResponse) []PenaltyReport {
	var out []PenaltyReport
	for _, cat := range categoryOrder {
		var rep *PenaltyReport
		for _, t := range p.terms {
			if t.category != cat {
				continue
			}
			if rep == nil {
				rep = &PenaltyReport{Category: cat, Weight: t.weight}
			}
			val := cpmodel.SolutionIntegerValue(resp, t.v)
			if val > 0 {
				rep.Value += t.weight * val
				rep.Violations++
			}
		}
		if rep != nil {
			out = append(out, *rep)
		}
	}
	return out
}
