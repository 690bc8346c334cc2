package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateInput checks the input bundle before any solver state is created.
// It runs struct validation first, then the referential checks the tag
// language cannot express. A returned error means no variable has been
// created and the solve must not proceed.
func ValidateInput(in *PlanningInput) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	if in.End.Before(in.Start) {
		return fmt.Errorf("planning range ends (%s) before it starts (%s)",
			DateKey(in.End), DateKey(in.Start))
	}

	teams := make(map[int]bool, len(in.Teams))
	for _, t := range in.Teams {
		if teams[t.ID] {
			return fmt.Errorf("duplicate team id %d", t.ID)
		}
		teams[t.ID] = true
	}

	codes := make(map[string]bool, len(in.ShiftTypes))
	for _, s := range in.ShiftTypes {
		if codes[s.Code] {
			return fmt.Errorf("duplicate shift code %q", s.Code)
		}
		codes[s.Code] = true

		operates := false
		for _, on := range s.Weekdays {
			operates = operates || on
		}
		if !operates {
			return fmt.Errorf("shift %q has an empty weekday mask", s.Code)
		}
		if s.MaxStaffWeekday < s.MinStaffWeekday || s.MaxStaffWeekend < s.MinStaffWeekend {
			return fmt.Errorf("shift %q has max staffing below min staffing", s.Code)
		}
	}

	groups := make(map[int]bool, len(in.RotationGroups))
	for _, g := range in.RotationGroups {
		groups[g.ID] = true
		for _, c := range g.ShiftCodes {
			if !codes[c] {
				return fmt.Errorf("rotation group %d references unknown shift code %q", g.ID, c)
			}
		}
	}
	for _, c := range in.Settings.DefaultRotation {
		if !codes[c] {
			return fmt.Errorf("default rotation references unknown shift code %q", c)
		}
	}

	seen := make(map[int]bool, len(in.Employees))
	for _, e := range in.Employees {
		if seen[e.ID] {
			return fmt.Errorf("duplicate employee id %d", e.ID)
		}
		seen[e.ID] = true
		if e.TeamID != nil && !teams[*e.TeamID] {
			return fmt.Errorf("employee %d references unknown team %d", e.ID, *e.TeamID)
		}
	}

	for _, t := range in.Teams {
		for _, c := range t.ShiftCodes {
			if !codes[c] {
				return fmt.Errorf("team %d references unknown shift code %q", t.ID, c)
			}
		}
		if t.RotationGroupID != nil && !groups[*t.RotationGroupID] {
			return fmt.Errorf("team %d references unknown rotation group %d", t.ID, *t.RotationGroupID)
		}
	}

	for i, a := range in.Absences {
		if !seen[a.EmployeeID] {
			return fmt.Errorf("absence %d references unknown employee %d", i, a.EmployeeID)
		}
		if a.End.Before(a.Start) {
			return fmt.Errorf("absence %d for employee %d ends before it starts", i, a.EmployeeID)
		}
	}

	return nil
}
