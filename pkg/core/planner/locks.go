package planner

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// SkipReason explains why a lock was demoted instead of asserted.
type SkipReason string

const (
	// SkipReasonBoundaryWeek: the lock's date lies in a week straddling the
	// original range; boundary weeks are replanned, never pinned.
	SkipReasonBoundaryWeek SkipReason = "boundary_week"

	// SkipReasonAbsence: the lock contradicts an absence; the absence wins.
	SkipReasonAbsence SkipReason = "absence_conflict"

	// SkipReasonTeamConflict: two different codes were locked for the same
	// team-week; both sides are demoted and the week is replanned.
	SkipReasonTeamConflict SkipReason = "team_shift_conflict"

	// SkipReasonUnknownTarget: the lock addresses a variable that does not
	// exist (unknown code, shift not operating that weekday, unqualified TD).
	SkipReasonUnknownTarget SkipReason = "unknown_target"

	// SkipReasonOutOfRange: the lock's date or week lies outside the
	// extended range.
	SkipReasonOutOfRange SkipReason = "outside_horizon"
)

// SkippedLock reports one demoted lock.
type SkippedLock struct {
	TeamID     int
	EmployeeID int
	WeekIndex  int
	Date       string
	ShiftCode  string
	Reason     SkipReason
}

// resolvedLocks is the surviving lock set after conflict detection.
type resolvedLocks struct {
	teamShift       map[teamWeek]string
	employeeWeekday map[empDate]string
	weekendCode     map[empDate]string
	weekendPin      map[empDate]bool
	td              map[empWeek]bool
	skipped         []SkippedLock
}

type teamLockSource struct {
	code       string
	employeeID int // 0 for explicit team locks
	date       string
}

// resolveLocks runs the pre-emission conflict pass over all four lock
// maps. Every demotion is logged and reported; no conflict aborts the
// solve.
func resolveLocks(in *model.PlanningInput, h *horizon.Horizon, absences model.AbsenceCalendar, teamCodes map[int][]string, logger *zap.Logger) *resolvedLocks {
	r := &resolvedLocks{
		teamShift:       make(map[teamWeek]string),
		employeeWeekday: make(map[empDate]string),
		weekendCode:     make(map[empDate]string),
		weekendPin:      make(map[empDate]bool),
		td:              make(map[empWeek]bool),
	}

	candidates := make(map[teamWeek][]teamLockSource)

	// Explicit team-week locks.
	for _, key := range sortedTeamWeekKeys(in.Locks.TeamShift) {
		code := in.Locks.TeamShift[key]
		tw := teamWeek{team: key.TeamID, week: key.WeekIndex}
		if key.WeekIndex < 0 || key.WeekIndex >= len(h.Weeks) {
			r.skip(logger, SkippedLock{TeamID: key.TeamID, WeekIndex: key.WeekIndex, ShiftCode: code, Reason: SkipReasonOutOfRange})
			continue
		}
		if !containsCode(teamCodes[key.TeamID], code) {
			r.skip(logger, SkippedLock{TeamID: key.TeamID, WeekIndex: key.WeekIndex, ShiftCode: code, Reason: SkipReasonUnknownTarget})
			continue
		}
		candidates[tw] = append(candidates[tw], teamLockSource{code: code})
	}

	// Employee shift locks; weekday locks derive team-week locks.
	for _, key := range sortedEmployeeDateKeys(in.Locks.EmployeeShift) {
		code := in.Locks.EmployeeShift[key]
		d, err := time.Parse(model.DateLayout, key.Date)
		if err != nil {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, ShiftCode: code, Reason: SkipReasonUnknownTarget})
			continue
		}
		weekIdx, inHorizon := h.WeekOf(d)
		if !inHorizon {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, ShiftCode: code, Reason: SkipReasonOutOfRange})
			continue
		}
		if h.IsBoundaryDate(d) {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, WeekIndex: weekIdx, ShiftCode: code, Reason: SkipReasonBoundaryWeek})
			continue
		}
		if absences.AbsentOn(key.EmployeeID, d) {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, ShiftCode: code, Reason: SkipReasonAbsence})
			continue
		}

		if horizon.IsWeekend(d) {
			r.weekendCode[empDate{key.EmployeeID, key.Date}] = code
			continue
		}

		teamID, ok := teamOf(in, key.EmployeeID)
		if !ok || !containsCode(teamCodes[teamID], code) {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, ShiftCode: code, Reason: SkipReasonUnknownTarget})
			continue
		}

		r.employeeWeekday[empDate{key.EmployeeID, key.Date}] = code
		tw := teamWeek{team: teamID, week: weekIdx}
		candidates[tw] = append(candidates[tw], teamLockSource{code: code, employeeID: key.EmployeeID, date: key.Date})
	}

	// Team-week conflict detection: two distinct codes demote every lock of
	// that pair, including the employee locks that derived them.
	for _, tw := range sortedTeamWeeks(candidates) {
		sources := candidates[tw]
		distinct := map[string]bool{}
		for _, s := range sources {
			distinct[s.code] = true
		}
		if len(distinct) == 1 {
			r.teamShift[tw] = sources[0].code
			continue
		}
		for _, s := range sources {
			r.skip(logger, SkippedLock{TeamID: tw.team, EmployeeID: s.employeeID, WeekIndex: tw.week, Date: s.date, ShiftCode: s.code, Reason: SkipReasonTeamConflict})
			if s.employeeID != 0 {
				delete(r.employeeWeekday, empDate{s.employeeID, s.date})
			}
		}
	}

	// Weekend pins.
	for _, key := range sortedEmployeeDateKeys2(in.Locks.EmployeeWeekend) {
		pin := in.Locks.EmployeeWeekend[key]
		d, err := time.Parse(model.DateLayout, key.Date)
		if err != nil || !horizon.IsWeekend(d) {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, Reason: SkipReasonUnknownTarget})
			continue
		}
		if _, ok := h.WeekOf(d); !ok {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, Reason: SkipReasonOutOfRange})
			continue
		}
		if h.IsBoundaryDate(d) {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, Reason: SkipReasonBoundaryWeek})
			continue
		}
		if absences.AbsentOn(key.EmployeeID, d) {
			if pin {
				r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, Date: key.Date, Reason: SkipReasonAbsence})
			}
			// Pinning an absent employee off the date is already satisfied.
			continue
		}
		r.weekendPin[empDate{key.EmployeeID, key.Date}] = pin
	}

	// TD locks.
	for _, key := range sortedEmployeeWeekKeys(in.Locks.TD) {
		pin := in.Locks.TD[key]
		if key.WeekIndex < 0 || key.WeekIndex >= len(h.Weeks) {
			r.skip(logger, SkippedLock{EmployeeID: key.EmployeeID, WeekIndex: key.WeekIndex, Reason: SkipReasonOutOfRange})
			continue
		}
		r.td[empWeek{key.EmployeeID, key.WeekIndex}] = pin
	}

	return r
}

func (r *resolvedLocks) skip(logger *zap.Logger, s SkippedLock) {
	r.skipped = append(r.skipped, s)
	logger.Warn("Skipping lock",
		zap.Int("team_id", s.TeamID),
		zap.Int("employee_id", s.EmployeeID),
		zap.Int("week_index", s.WeekIndex),
		zap.String("date", s.Date),
		zap.String("shift_code", s.ShiftCode),
		zap.String("reason", string(s.Reason)))
}

func teamOf(in *model.PlanningInput, employeeID int) (int, bool) {
	for _, e := range in.Employees {
		if e.ID == employeeID && e.Plannable() {
			return *e.TeamID, true
		}
	}
	return 0, false
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func sortedTeamWeekKeys(m map[model.TeamWeekKey]string) []model.TeamWeekKey {
	keys := make([]model.TeamWeekKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TeamID != keys[j].TeamID {
			return keys[i].TeamID < keys[j].TeamID
		}
		return keys[i].WeekIndex < keys[j].WeekIndex
	})
	return keys
}

func sortedEmployeeDateKeys(m map[model.EmployeeDateKey]string) []model.EmployeeDateKey {
	keys := make([]model.EmployeeDateKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortEmployeeDateKeys(keys)
	return keys
}

func sortedEmployeeDateKeys2(m map[model.EmployeeDateKey]bool) []model.EmployeeDateKey {
	keys := make([]model.EmployeeDateKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortEmployeeDateKeys(keys)
	return keys
}

func sortEmployeeDateKeys(keys []model.EmployeeDateKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EmployeeID != keys[j].EmployeeID {
			return keys[i].EmployeeID < keys[j].EmployeeID
		}
		return keys[i].Date < keys[j].Date
	})
}

func sortedEmployeeWeekKeys(m map[model.EmployeeWeekKey]bool) []model.EmployeeWeekKey {
	keys := make([]model.EmployeeWeekKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EmployeeID != keys[j].EmployeeID {
			return keys[i].EmployeeID < keys[j].EmployeeID
		}
		return keys[i].WeekIndex < keys[j].WeekIndex
	})
	return keys
}

func sortedEmpDates(m map[empDate]string) []empDate {
	keys := make([]empDate, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortEmpDates(keys)
	return keys
}

func sortedEmpDatesBool(m map[empDate]bool) []empDate {
	keys := make([]empDate, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortEmpDates(keys)
	return keys
}

func sortEmpDates(keys []empDate) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].emp != keys[j].emp {
			return keys[i].emp < keys[j].emp
		}
		return keys[i].date < keys[j].date
	})
}

func sortedEmpWeeksBool(m map[empWeek]bool) []empWeek {
	keys := make([]empWeek, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].emp != keys[j].emp {
			return keys[i].emp < keys[j].emp
		}
		return keys[i].week < keys[j].week
	})
	return keys
}

func sortedTeamWeeks(m map[teamWeek][]teamLockSource) []teamWeek {
	keys := make([]teamWeek, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].team != keys[j].team {
			return keys[i].team < keys[j].team
		}
		return keys[i].week < keys[j].week
	})
	return keys
}
