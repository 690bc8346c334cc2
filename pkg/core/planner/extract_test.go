package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotagrid/rotagrid/pkg/core/horizon"
	"github.com/rotagrid/rotagrid/pkg/core/model"
)

func TestExtract_EmitsOriginalRangeOnly(t *testing.T) {
	h, err := horizon.Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	employees := []model.Employee{
		{ID: 2, Name: "B", TeamID: intPtr(1), Active: true},
		{ID: 1, Name: "A", TeamID: intPtr(1), Active: true},
	}

	sol := &realizedSolution{
		works: map[empDateCode]bool{
			// Extended-but-not-original rows must not be emitted.
			{1, "2025-12-30", "F"}: true,
			{1, "2026-01-01", "F"}: true,
			{1, "2026-01-02", "F"}: true,
			{2, "2026-01-01", "N"}: true,
			{2, "2026-02-01", "N"}: true,
		},
		td: map[empWeek]bool{
			{1, 1}: true,
		},
	}

	rows, markers, err := extract(h, employees, sol, []string{"F", "S", "N"}, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, rows, 3)
	// Rows are ordered by employee id, then date.
	assert.Equal(t, 1, rows[0].EmployeeID)
	assert.Equal(t, "2026-01-01", model.DateKey(rows[0].Date))
	assert.Equal(t, "F", rows[0].ShiftCode)
	assert.Equal(t, 1, rows[1].EmployeeID)
	assert.Equal(t, "2026-01-02", model.DateKey(rows[1].Date))
	assert.Equal(t, 2, rows[2].EmployeeID)
	assert.Equal(t, "N", rows[2].ShiftCode)

	require.Len(t, markers, 1)
	assert.Equal(t, model.TDMarker{EmployeeID: 1, WeekIndex: 1}, markers[0])
}

func TestExtract_DoubleAssignmentIsFatal(t *testing.T) {
	h, err := horizon.Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	employees := []model.Employee{{ID: 1, Name: "A", TeamID: intPtr(1), Active: true}}
	sol := &realizedSolution{
		works: map[empDateCode]bool{
			{1, "2026-01-07", "F"}: true,
			{1, "2026-01-07", "N"}: true,
		},
		td: map[empWeek]bool{},
	}

	_, _, err = extract(h, employees, sol, []string{"F", "S", "N"}, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDoubleAssignment)
}

func TestExtract_EmptySolution(t *testing.T) {
	h, err := horizon.Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	sol := &realizedSolution{works: map[empDateCode]bool{}, td: map[empWeek]bool{}}
	rows, markers, err := extract(h, []model.Employee{{ID: 1, Name: "A", TeamID: intPtr(1), Active: true}}, sol, []string{"F"}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, markers)
}
