package model

import "time"

// DateLayout is the canonical date format used for map keys and persisted rows.
const DateLayout = "2006-01-02"

// DateKey formats a date as its canonical key, ignoring the time-of-day part.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// AbsenceType classifies an absence record
type AbsenceType string

const (
	AbsenceSick     AbsenceType = "sick"
	AbsenceVacation AbsenceType = "vacation"
	AbsenceTraining AbsenceType = "training"
	AbsenceOther    AbsenceType = "other"
)

func (a AbsenceType) IsValid() bool {
	return a == AbsenceSick || a == AbsenceVacation || a == AbsenceTraining || a == AbsenceOther
}

// AccruesHours reports whether days of this absence type count as worked
// hours. Training does; sick and vacation do not.
func (a AbsenceType) AccruesHours() bool {
	return a == AbsenceTraining
}

// ShiftType describes one shift code and its staffing envelope.
// The weekday mask is indexed by time.Weekday (Sunday = 0).
type ShiftType struct {
	Code               string  `validate:"required"`
	DurationHours      int     `validate:"min=1,max=24"`
	Weekdays           [7]bool
	MinStaffWeekday    int `validate:"min=0"`
	MaxStaffWeekday    int `validate:"min=0"`
	MinStaffWeekend    int `validate:"min=0"`
	MaxStaffWeekend    int `validate:"min=0"`
	TargetWeeklyHours  int `validate:"min=0"`
	MaxConsecutiveDays int `validate:"min=0"`
}

// OperatesOn reports whether the shift may run on the given weekday.
func (s ShiftType) OperatesOn(d time.Weekday) bool {
	return s.Weekdays[int(d)]
}

// MinStaff returns the strict staffing floor for a weekday or weekend day.
func (s ShiftType) MinStaff(weekend bool) int {
	if weekend {
		return s.MinStaffWeekend
	}
	return s.MinStaffWeekday
}

// MaxStaff returns the soft staffing ceiling for a weekday or weekend day.
func (s ShiftType) MaxStaff(weekend bool) int {
	if weekend {
		return s.MaxStaffWeekend
	}
	return s.MaxStaffWeekday
}

// Employee is a plannable worker. A nil TeamID marks an administrative user
// who is excluded from planning.
type Employee struct {
	ID          int    `validate:"min=1"`
	Name        string `validate:"required"`
	TeamID      *int
	TDQualified bool
	Active      bool
}

// Plannable reports whether the employee participates in the solve.
func (e Employee) Plannable() bool {
	return e.Active && e.TeamID != nil
}

// Team groups employees under a shared weekly shift. An empty ShiftCodes
// list means the team may work any code of its rotation.
type Team struct {
	ID              int    `validate:"min=1"`
	Name            string `validate:"required"`
	ShiftCodes      []string
	RotationGroupID *int
	RotationOffset  int
}

// RotationGroup is an ordered cycle of shift codes a team advances through
// week by week, indexed by ISO week number.
type RotationGroup struct {
	ID         int      `validate:"min=1"`
	Name       string   `validate:"required"`
	ShiftCodes []string `validate:"required,min=1"`
}

// CodeForISOWeek returns the cycle code for the given ISO week and team offset.
func (g RotationGroup) CodeForISOWeek(isoWeek, offset int) string {
	k := len(g.ShiftCodes)
	idx := (isoWeek + offset) % k
	if idx < 0 {
		idx += k
	}
	return g.ShiftCodes[idx]
}

// ValidTransition reports whether a week-to-week shift change follows the
// rotation order. Repeats and single forward steps (including the cyclic
// wrap) are valid; skipping a cycle position is not.
func (g RotationGroup) ValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	for i, c := range g.ShiftCodes {
		if c == from {
			return g.ShiftCodes[(i+1)%len(g.ShiftCodes)] == to
		}
	}
	// Unknown origin code: nothing to enforce.
	return true
}

// Absence blocks assignment for an employee over an inclusive date range.
type Absence struct {
	EmployeeID int         `validate:"min=1"`
	Start      time.Time   `validate:"required"`
	End        time.Time   `validate:"required"`
	Type       AbsenceType `validate:"required"`
}

// Covers reports whether the absence includes the given date.
func (a Absence) Covers(d time.Time) bool {
	day := d.Truncate(24 * time.Hour)
	return !day.Before(a.Start.Truncate(24*time.Hour)) && !day.After(a.End.Truncate(24*time.Hour))
}

// Assignment is one employee working one shift on one date.
type Assignment struct {
	EmployeeID int
	Date       time.Time
	ShiftCode  string
}

// TDMarker records which employee holds the weekly day-duty in a week.
type TDMarker struct {
	EmployeeID int
	WeekIndex  int
}

// ShiftTransition names an ordered pair of shift codes worked on
// consecutive days.
type ShiftTransition struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// Settings carries the global knobs of a solve.
type Settings struct {
	MinRestHours       int
	RestTransitions    []ShiftTransition
	TimeLimit          time.Duration
	Workers            int
	RandomSeed         int
	DefaultRotation    []string
	WeekendTotalCap    int
	MaxConsecutiveDays int
	MinMonthlyHours    int
}

// DefaultSettings returns the stock configuration: 11 h rest with the
// S->F and N->F transitions forbidden, 300 s solve budget, F/N/S default
// rotation, 12-employee weekend cap, 6 consecutive days, 192 h floor.
func DefaultSettings() Settings {
	return Settings{
		MinRestHours: 11,
		RestTransitions: []ShiftTransition{
			{From: "S", To: "F"},
			{From: "N", To: "F"},
		},
		TimeLimit:          300 * time.Second,
		Workers:            8,
		DefaultRotation:    []string{"F", "N", "S"},
		WeekendTotalCap:    12,
		MaxConsecutiveDays: 6,
		MinMonthlyHours:    192,
	}
}

// TeamWeekKey addresses a team in one horizon week.
type TeamWeekKey struct {
	TeamID    int
	WeekIndex int
}

// EmployeeDateKey addresses an employee on one calendar date.
type EmployeeDateKey struct {
	EmployeeID int
	Date       string // DateLayout
}

// EmployeeWeekKey addresses an employee in one horizon week.
type EmployeeWeekKey struct {
	EmployeeID int
	WeekIndex  int
}

// Locks are previously committed decisions the solve must (or should)
// preserve. Conflicting locks are demoted before constraint emission.
type Locks struct {
	TeamShift       map[TeamWeekKey]string
	EmployeeShift   map[EmployeeDateKey]string
	EmployeeWeekend map[EmployeeDateKey]bool
	TD              map[EmployeeWeekKey]bool
}

// PlanningInput is the immutable input bundle of one solve.
type PlanningInput struct {
	Start          time.Time       `validate:"required"`
	End            time.Time       `validate:"required"`
	Employees      []Employee      `validate:"required,min=1,dive"`
	Teams          []Team          `validate:"required,min=1,dive"`
	ShiftTypes     []ShiftType     `validate:"required,min=1,dive"`
	RotationGroups []RotationGroup `validate:"dive"`
	Absences       []Absence       `validate:"dive"`
	Locks          Locks
	Settings       Settings
}

// TeamByID returns the team with the given id, if present.
func (in *PlanningInput) TeamByID(id int) (Team, bool) {
	for _, t := range in.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// ShiftTypeByCode returns the shift type with the given code, if present.
func (in *PlanningInput) ShiftTypeByCode(code string) (ShiftType, bool) {
	for _, s := range in.ShiftTypes {
		if s.Code == code {
			return s, true
		}
	}
	return ShiftType{}, false
}

// RotationForTeam resolves the rotation cycle a team follows: its own
// group when set, otherwise the system default from the settings.
func (in *PlanningInput) RotationForTeam(t Team) RotationGroup {
	if t.RotationGroupID != nil {
		for _, g := range in.RotationGroups {
			if g.ID == *t.RotationGroupID {
				return g
			}
		}
	}
	return RotationGroup{ID: 0, Name: "default", ShiftCodes: in.Settings.DefaultRotation}
}

// AbsenceCalendar indexes absences as employee -> date key -> type.
type AbsenceCalendar map[int]map[string]AbsenceType

// BuildAbsenceCalendar expands absence ranges into a per-date index over
// the given date span.
func BuildAbsenceCalendar(absences []Absence, from, to time.Time) AbsenceCalendar {
	cal := make(AbsenceCalendar)
	for _, a := range absences {
		for d := a.Start; !d.After(a.End); d = d.AddDate(0, 0, 1) {
			if d.Before(from) || d.After(to) {
				continue
			}
			if cal[a.EmployeeID] == nil {
				cal[a.EmployeeID] = make(map[string]AbsenceType)
			}
			cal[a.EmployeeID][DateKey(d)] = a.Type
		}
	}
	return cal
}

// AbsentOn reports whether the employee is absent on the date.
func (c AbsenceCalendar) AbsentOn(employeeID int, d time.Time) bool {
	_, ok := c[employeeID][DateKey(d)]
	return ok
}

// TypeOn returns the absence type for the employee-date, if any.
func (c AbsenceCalendar) TypeOn(employeeID int, d time.Time) (AbsenceType, bool) {
	t, ok := c[employeeID][DateKey(d)]
	return t, ok
}
