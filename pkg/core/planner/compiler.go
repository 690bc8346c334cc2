// Package planner compiles a planning input into a CP-SAT model, drives
// the solver, and extracts the realized assignment set.
package planner

import (
	"sort"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// compiler owns the variable/constraint arena of one solve. Nothing is
// shared between solves.
type compiler struct {
	in     *model.PlanningInput
	h      *horizon.Horizon
	prev   horizon.PreviousShifts
	logger *zap.Logger

	b     *cpmodel.Builder
	vars  *variables
	pens  *penaltySet
	locks *resolvedLocks

	absences model.AbsenceCalendar

	// Deterministic iteration orders: entities sorted by id, shift codes in
	// input order.
	employees   []model.Employee
	teams       []model.Team
	members     map[int][]model.Employee
	codes       []string
	shiftByCode map[string]model.ShiftType
	teamCodes   map[int][]string
}

func newCompiler(in *model.PlanningInput, h *horizon.Horizon, prev horizon.PreviousShifts, logger *zap.Logger) *compiler {
	c := &compiler{
		in:          in,
		h:           h,
		prev:        prev,
		logger:      logger,
		b:           cpmodel.NewCpModelBuilder(),
		pens:        &penaltySet{},
		members:     make(map[int][]model.Employee),
		shiftByCode: make(map[string]model.ShiftType),
		teamCodes:   make(map[int][]string),
	}

	c.absences = model.BuildAbsenceCalendar(in.Absences, h.ExtendedStart, h.ExtendedEnd)

	for _, s := range in.ShiftTypes {
		c.codes = append(c.codes, s.Code)
		c.shiftByCode[s.Code] = s
	}

	c.teams = append(c.teams, in.Teams...)
	sort.Slice(c.teams, func(i, j int) bool { return c.teams[i].ID < c.teams[j].ID })

	for _, e := range in.Employees {
		if !e.Plannable() {
			continue
		}
		c.employees = append(c.employees, e)
	}
	sort.Slice(c.employees, func(i, j int) bool { return c.employees[i].ID < c.employees[j].ID })
	for _, e := range c.employees {
		c.members[*e.TeamID] = append(c.members[*e.TeamID], e)
	}

	for _, t := range c.teams {
		c.teamCodes[t.ID] = c.allowedCodes(t)
	}

	return c
}

// allowedCodes resolves the codes a team may be assigned: its explicit
// list, or the rotation cycle when the list is empty.
func (c *compiler) allowedCodes(t model.Team) []string {
	if len(t.ShiftCodes) > 0 {
		return t.ShiftCodes
	}
	return c.in.RotationForTeam(t).ShiftCodes
}

// maxConsecutiveFor returns the per-shift consecutive-day limit with the
// global default applied.
func (c *compiler) maxConsecutiveFor(s model.ShiftType) int {
	if s.MaxConsecutiveDays > 0 {
		return s.MaxConsecutiveDays
	}
	return c.in.Settings.MaxConsecutiveDays
}

// compile resolves locks, creates all decision variables, and emits every
// constraint family in a fixed order. After compile the builder holds the
// complete model and c.pens the objective terms.
func (c *compiler) compile() {
	c.locks = resolveLocks(c.in, c.h, c.absences, c.teamCodes, c.logger)

	c.createVariables()

	// Hard constraints.
	c.emitTeamShifts()         // H1, H2, H9 (team locks)
	c.emitWeekdayLinkage()     // H3
	c.emitWeekendCoverage()    // H5
	c.emitWeeklyConsistency()  // H4
	c.emitMinStaffing()        // H6
	c.emitTDUniqueness()       // H8
	c.emitEmployeeLocks()      // H9 (surviving employee/weekend/TD locks)

	// Soft constraints; emission order fixes objective aggregation.
	c.emitHourTargets()
	c.emitRotationOrder()
	c.emitStaffingBalance()
	c.emitConsecutiveDays()
	c.emitShiftHopping()
	c.emitRestTransitions() // H10, soft by design
	c.emitBlockBonuses()

	c.b.Minimize(c.pens.objective())

	c.logger.Debug("Model compiled",
		zap.Int("employees", len(c.employees)),
		zap.Int("weeks", len(c.h.Weeks)),
		zap.Int("penalty_terms", len(c.pens.terms)),
		zap.Int("skipped_locks", len(c.locks.skipped)))
}
