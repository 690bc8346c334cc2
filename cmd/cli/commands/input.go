package commands

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// Input file schema: the planning bundle minus the range and settings,
// which come from flags and the application config.

type employeeEntry struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	TeamID      *int   `yaml:"teamID,omitempty"`
	TDQualified bool   `yaml:"tdQualified,omitempty"`
	Active      bool   `yaml:"active"`
}

type teamEntry struct {
	ID              int      `yaml:"id"`
	Name            string   `yaml:"name"`
	ShiftCodes      []string `yaml:"shiftCodes,omitempty"`
	RotationGroupID *int     `yaml:"rotationGroupID,omitempty"`
	RotationOffset  int      `yaml:"rotationOffset,omitempty"`
}

type shiftTypeEntry struct {
	Code               string `yaml:"code"`
	DurationHours      int    `yaml:"durationHours"`
	Weekdays           []int  `yaml:"weekdays"` // time.Weekday values, Sunday = 0
	MinStaffWeekday    int    `yaml:"minStaffWeekday"`
	MaxStaffWeekday    int    `yaml:"maxStaffWeekday"`
	MinStaffWeekend    int    `yaml:"minStaffWeekend"`
	MaxStaffWeekend    int    `yaml:"maxStaffWeekend"`
	TargetWeeklyHours  int    `yaml:"targetWeeklyHours"`
	MaxConsecutiveDays int    `yaml:"maxConsecutiveDays,omitempty"`
}

type rotationGroupEntry struct {
	ID         int      `yaml:"id"`
	Name       string   `yaml:"name"`
	ShiftCodes []string `yaml:"shiftCodes"`
}

type absenceEntry struct {
	EmployeeID int    `yaml:"employeeID"`
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Type       string `yaml:"type"`
}

type locksEntry struct {
	TeamShift       []teamShiftLockEntry `yaml:"teamShift,omitempty"`
	EmployeeShift   []employeeLockEntry  `yaml:"employeeShift,omitempty"`
	EmployeeWeekend []weekendLockEntry   `yaml:"employeeWeekend,omitempty"`
	TD              []tdLockEntry        `yaml:"td,omitempty"`
}

type teamShiftLockEntry struct {
	TeamID    int    `yaml:"teamID"`
	WeekIndex int    `yaml:"weekIndex"`
	ShiftCode string `yaml:"shiftCode"`
}

type employeeLockEntry struct {
	EmployeeID int    `yaml:"employeeID"`
	Date       string `yaml:"date"`
	ShiftCode  string `yaml:"shiftCode"`
}

type weekendLockEntry struct {
	EmployeeID int    `yaml:"employeeID"`
	Date       string `yaml:"date"`
	Working    bool   `yaml:"working"`
}

type tdLockEntry struct {
	EmployeeID int  `yaml:"employeeID"`
	WeekIndex  int  `yaml:"weekIndex"`
	Holds      bool `yaml:"holds"`
}

type inputFile struct {
	Employees      []employeeEntry      `yaml:"employees"`
	Teams          []teamEntry          `yaml:"teams"`
	ShiftTypes     []shiftTypeEntry     `yaml:"shiftTypes"`
	RotationGroups []rotationGroupEntry `yaml:"rotationGroups,omitempty"`
	Absences       []absenceEntry       `yaml:"absences,omitempty"`
	Locks          locksEntry           `yaml:"locks,omitempty"`
}

// LoadInputFile reads the planning bundle from a YAML file. Range and
// settings are filled in by the caller.
func LoadInputFile(path string) (*model.PlanningInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var f inputFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}

	in := &model.PlanningInput{
		Locks: model.Locks{
			TeamShift:       make(map[model.TeamWeekKey]string),
			EmployeeShift:   make(map[model.EmployeeDateKey]string),
			EmployeeWeekend: make(map[model.EmployeeDateKey]bool),
			TD:              make(map[model.EmployeeWeekKey]bool),
		},
	}

	for _, e := range f.Employees {
		in.Employees = append(in.Employees, model.Employee{
			ID:          e.ID,
			Name:        e.Name,
			TeamID:      e.TeamID,
			TDQualified: e.TDQualified,
			Active:      e.Active,
		})
	}
	for _, t := range f.Teams {
		in.Teams = append(in.Teams, model.Team{
			ID:              t.ID,
			Name:            t.Name,
			ShiftCodes:      t.ShiftCodes,
			RotationGroupID: t.RotationGroupID,
			RotationOffset:  t.RotationOffset,
		})
	}
	for _, s := range f.ShiftTypes {
		st := model.ShiftType{
			Code:               s.Code,
			DurationHours:      s.DurationHours,
			MinStaffWeekday:    s.MinStaffWeekday,
			MaxStaffWeekday:    s.MaxStaffWeekday,
			MinStaffWeekend:    s.MinStaffWeekend,
			MaxStaffWeekend:    s.MaxStaffWeekend,
			TargetWeeklyHours:  s.TargetWeeklyHours,
			MaxConsecutiveDays: s.MaxConsecutiveDays,
		}
		for _, wd := range s.Weekdays {
			if wd < 0 || wd > 6 {
				return nil, fmt.Errorf("shift %q has invalid weekday %d", s.Code, wd)
			}
			st.Weekdays[wd] = true
		}
		in.ShiftTypes = append(in.ShiftTypes, st)
	}
	for _, g := range f.RotationGroups {
		in.RotationGroups = append(in.RotationGroups, model.RotationGroup{
			ID:         g.ID,
			Name:       g.Name,
			ShiftCodes: g.ShiftCodes,
		})
	}
	for _, a := range f.Absences {
		start, err := time.Parse(model.DateLayout, a.Start)
		if err != nil {
			return nil, fmt.Errorf("absence for employee %d has invalid start date %q: %w", a.EmployeeID, a.Start, err)
		}
		end, err := time.Parse(model.DateLayout, a.End)
		if err != nil {
			return nil, fmt.Errorf("absence for employee %d has invalid end date %q: %w", a.EmployeeID, a.End, err)
		}
		in.Absences = append(in.Absences, model.Absence{
			EmployeeID: a.EmployeeID,
			Start:      start,
			End:        end,
			Type:       model.AbsenceType(a.Type),
		})
	}

	for _, l := range f.Locks.TeamShift {
		in.Locks.TeamShift[model.TeamWeekKey{TeamID: l.TeamID, WeekIndex: l.WeekIndex}] = l.ShiftCode
	}
	for _, l := range f.Locks.EmployeeShift {
		in.Locks.EmployeeShift[model.EmployeeDateKey{EmployeeID: l.EmployeeID, Date: l.Date}] = l.ShiftCode
	}
	for _, l := range f.Locks.EmployeeWeekend {
		in.Locks.EmployeeWeekend[model.EmployeeDateKey{EmployeeID: l.EmployeeID, Date: l.Date}] = l.Working
	}
	for _, l := range f.Locks.TD {
		in.Locks.TD[model.EmployeeWeekKey{EmployeeID: l.EmployeeID, WeekIndex: l.WeekIndex}] = l.Holds
	}

	return in, nil
}
