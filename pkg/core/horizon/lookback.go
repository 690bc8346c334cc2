package horizon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/model"
	"github.com/rotagrid/rotagrid/pkg/db"
)

// extendedLookbackDays is the fixed ceiling of the second lookback pass.
// It bounds the per-employee query while staying many multiples above any
// realistic consecutive-day limit.
const extendedLookbackDays = 60

// PreviousShifts maps employee id -> date key -> shift code for
// assignments committed before the extended range.
type PreviousShifts map[int]map[string]string

// CodeOn returns the previously committed shift code for an employee-date.
func (p PreviousShifts) CodeOn(employeeID int, d time.Time) (string, bool) {
	code, ok := p[employeeID][model.DateKey(d)]
	return code, ok
}

// WorkedOn reports whether the employee has a committed assignment on the date.
func (p PreviousShifts) WorkedOn(employeeID int, d time.Time) bool {
	_, ok := p[employeeID][model.DateKey(d)]
	return ok
}

func (p PreviousShifts) put(a model.Assignment) {
	if p[a.EmployeeID] == nil {
		p[a.EmployeeID] = make(map[string]string)
	}
	p[a.EmployeeID][model.DateKey(a.Date)] = a.ShiftCode
}

// MaxConsecutiveLimit returns the largest per-shift consecutive-day limit
// across shift types, floored by the global any-shift cap.
func MaxConsecutiveLimit(shiftTypes []model.ShiftType, settings model.Settings) int {
	limit := settings.MaxConsecutiveDays
	for _, s := range shiftTypes {
		if s.MaxConsecutiveDays > limit {
			limit = s.MaxConsecutiveDays
		}
	}
	return limit
}

// LoadPreviousShifts loads committed assignments preceding the extended
// range in two passes. The initial lookback covers the largest
// consecutive-day limit; employees whose chain fills that window without a
// gap get a second, per-employee load back to extendedLookbackDays before
// the extended start. Without the second pass, per-month planning cannot
// observe streaks originating more than one window back.
func LoadPreviousShifts(ctx context.Context, store db.AssignmentStore, h *Horizon, shiftTypes []model.ShiftType, settings model.Settings, logger *zap.Logger) (PreviousShifts, error) {
	lookback := MaxConsecutiveLimit(shiftTypes, settings)
	from := h.ExtendedStart.AddDate(0, 0, -lookback)
	to := h.ExtendedStart.AddDate(0, 0, -1)

	logger.Debug("Loading initial lookback",
		zap.String("from", model.DateKey(from)),
		zap.String("to", model.DateKey(to)),
		zap.Int("days", lookback))

	rows, err := store.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial lookback: %w", err)
	}

	prev := make(PreviousShifts)
	for _, a := range rows {
		prev.put(a)
	}

	// An employee saturates the window when every date of it carries a shift.
	var saturated []int
	for employeeID, dates := range prev {
		full := true
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if _, ok := dates[model.DateKey(d)]; !ok {
				full = false
				break
			}
		}
		if full {
			saturated = append(saturated, employeeID)
		}
	}

	if len(saturated) == 0 {
		return prev, nil
	}
	sort.Ints(saturated)

	extFrom := h.ExtendedStart.AddDate(0, 0, -extendedLookbackDays)
	extTo := from.AddDate(0, 0, -1)
	for _, employeeID := range saturated {
		logger.Info("Lookback window saturated, extending",
			zap.Int("employee_id", employeeID),
			zap.String("from", model.DateKey(extFrom)),
			zap.String("to", model.DateKey(extTo)))

		older, err := store.ListEmployeeBetween(ctx, employeeID, extFrom, extTo)
		if err != nil {
			return nil, fmt.Errorf("failed to load extended lookback for employee %d: %w", employeeID, err)
		}
		for _, a := range older {
			prev.put(a)
		}
	}

	return prev, nil
}
