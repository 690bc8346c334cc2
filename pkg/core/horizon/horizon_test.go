package horizon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuild_January2026(t *testing.T) {
	// 2026-01-01 is a Thursday, 2026-01-31 a Saturday.
	h, err := Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	assert.Equal(t, date(2025, 12, 29), h.ExtendedStart, "Monday of the first ISO week")
	assert.Equal(t, date(2026, 2, 1), h.ExtendedEnd, "Sunday of the last ISO week")
	assert.Len(t, h.Weeks, 5)
	assert.Len(t, h.Days, 35)

	for i, w := range h.Weeks {
		assert.Equal(t, i, w.Index)
		assert.Equal(t, time.Monday, w.Days[0].Weekday())
		assert.Equal(t, time.Sunday, w.Days[6].Weekday())
	}

	// ISO week numbers are absolute: the first bucket is 2026 week 1
	// (it contains the year's first Thursday), the last is week 5.
	assert.Equal(t, 1, h.Weeks[0].ISOWeek)
	assert.Equal(t, 2026, h.Weeks[0].ISOYear)
	assert.Equal(t, 5, h.Weeks[4].ISOWeek)
}

func TestBuild_BoundaryWeeks(t *testing.T) {
	h, err := Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	// First week contains December dates, last week contains February 1.
	assert.True(t, h.IsBoundaryDate(date(2025, 12, 29)))
	assert.True(t, h.IsBoundaryDate(date(2026, 1, 1)), "whole straddling week is boundary")
	assert.True(t, h.IsBoundaryDate(date(2026, 1, 4)))
	assert.False(t, h.IsBoundaryDate(date(2026, 1, 5)), "fully interior week")
	assert.False(t, h.IsBoundaryDate(date(2026, 1, 14)))
	assert.True(t, h.IsBoundaryDate(date(2026, 1, 26)))
	assert.True(t, h.IsBoundaryDate(date(2026, 2, 1)))
}

func TestBuild_AlignedRangeHasNoBoundary(t *testing.T) {
	// 2026-03-02 is a Monday, 2026-03-29 a Sunday.
	h, err := Build(date(2026, 3, 2), date(2026, 3, 29))
	require.NoError(t, err)

	assert.Equal(t, h.OriginalStart, h.ExtendedStart)
	assert.Equal(t, h.OriginalEnd, h.ExtendedEnd)
	for _, d := range h.Days {
		assert.False(t, h.IsBoundaryDate(d))
	}
}

func TestBuild_RejectsReversedRange(t *testing.T) {
	_, err := Build(date(2026, 2, 1), date(2026, 1, 1))
	require.Error(t, err)
}

func TestHorizon_WeekOf(t *testing.T) {
	h, err := Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	idx, ok := h.WeekOf(date(2026, 1, 7))
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = h.WeekOf(date(2026, 2, 2))
	assert.False(t, ok)
}

func TestHorizon_InOriginal(t *testing.T) {
	h, err := Build(date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)

	assert.False(t, h.InOriginal(date(2025, 12, 31)))
	assert.True(t, h.InOriginal(date(2026, 1, 1)))
	assert.True(t, h.InOriginal(date(2026, 1, 31)))
	assert.False(t, h.InOriginal(date(2026, 2, 1)))
}

func TestIsWeekend(t *testing.T) {
	assert.False(t, IsWeekend(date(2026, 1, 30))) // Friday
	assert.True(t, IsWeekend(date(2026, 1, 31)))  // Saturday
	assert.True(t, IsWeekend(date(2026, 2, 1)))   // Sunday
	assert.False(t, IsWeekend(date(2026, 2, 2)))  // Monday
}
