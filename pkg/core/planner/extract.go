package planner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// ErrDoubleAssignment is returned when the realized solution carries two
// shifts for one employee-date. The model forbids this; seeing it means a
// constraint-compiler regression, and the extractor is the last line of
// defense in front of the database's unique index.
var ErrDoubleAssignment = errors.New("employee assigned two shifts on one date")

// realizedSolution is the satisfying assignment projected onto plain maps,
// so extraction is pure and testable without a solver.
type realizedSolution struct {
	works map[empDateCode]bool
	td    map[empWeek]bool
}

// realize evaluates the decision variables against the solver response.
func realize(resp *cmpb.CpSolverResponse, vars *variables) *realizedSolution {
	r := &realizedSolution{
		works: make(map[empDateCode]bool),
		td:    make(map[empWeek]bool),
	}
	for key, v := range vars.works {
		if cpmodel.SolutionBooleanValue(resp, v) {
			r.works[key] = true
		}
	}
	for key, v := range vars.td {
		if cpmodel.SolutionBooleanValue(resp, v) {
			r.td[key] = true
		}
	}
	return r
}

// extract walks (employee, date) pairs of the original range only and
// emits one row per assigned pair. Rows in the extended-but-not-original
// range exist solely to anchor boundary-week constraints and are not
// emitted. TD markers are projected for weeks touching the original range.
func extract(h *horizon.Horizon, employees []model.Employee, sol *realizedSolution, codes []string, logger *zap.Logger) ([]model.Assignment, []model.TDMarker, error) {
	sorted := append([]model.Employee(nil), employees...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var rows []model.Assignment
	for _, e := range sorted {
		for d := h.OriginalStart; !d.After(h.OriginalEnd); d = d.AddDate(0, 0, 1) {
			dk := model.DateKey(d)
			var assigned []string
			for _, code := range codes {
				if sol.works[empDateCode{e.ID, dk, code}] {
					assigned = append(assigned, code)
				}
			}
			switch len(assigned) {
			case 0:
				// Off or absent.
			case 1:
				rows = append(rows, model.Assignment{
					EmployeeID: e.ID,
					Date:       d,
					ShiftCode:  assigned[0],
				})
			default:
				return nil, nil, fmt.Errorf("%w: employee %d on %s works %v",
					ErrDoubleAssignment, e.ID, dk, assigned)
			}
		}
	}

	var markers []model.TDMarker
	for _, w := range h.Weeks {
		if !h.WeekTouchesOriginal(w) {
			continue
		}
		for _, e := range sorted {
			if sol.td[empWeek{e.ID, w.Index}] {
				markers = append(markers, model.TDMarker{EmployeeID: e.ID, WeekIndex: w.Index})
			}
		}
	}

	logger.Info("Extracted solution",
		zap.Int("assignments", len(rows)),
		zap.Int("td_markers", len(markers)),
		zap.String("from", model.DateKey(h.OriginalStart)),
		zap.String("to", model.DateKey(h.OriginalEnd)))

	return rows, markers, nil
}
