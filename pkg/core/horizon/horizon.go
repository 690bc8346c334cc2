// Package horizon builds the planning horizon of a solve: the requested
// range extended to whole ISO weeks, partitioned into week buckets, with
// boundary weeks marked and prior assignments loaded for lookback checks.
package horizon

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/rotagrid/rotagrid/pkg/core/model"
)

// Week is one ISO week bucket of the horizon. Days runs Monday to Sunday.
type Week struct {
	Index   int
	ISOYear int
	ISOWeek int
	Days    [7]time.Time
}

// Monday returns the first day of the week.
func (w Week) Monday() time.Time { return w.Days[0] }

// Weekdays returns Monday through Friday.
func (w Week) Weekdays() []time.Time { return w.Days[0:5] }

// WeekendDays returns Saturday and Sunday.
func (w Week) WeekendDays() []time.Time { return w.Days[5:7] }

// Horizon is the date structure of one solve.
type Horizon struct {
	// OriginalStart/OriginalEnd is the caller-requested reporting window.
	OriginalStart time.Time
	OriginalEnd   time.Time

	// ExtendedStart is the Monday of the ISO week containing OriginalStart;
	// ExtendedEnd the Sunday of the week containing OriginalEnd.
	ExtendedStart time.Time
	ExtendedEnd   time.Time

	// Weeks are the horizon's week buckets in chronological order.
	Weeks []Week

	// Days are all dates of the extended range in chronological order.
	Days []time.Time

	boundaryDates map[string]bool
	weekByDate    map[string]int
}

// Build extends [start, end] to whole ISO weeks and partitions the result
// into week buckets.
func Build(start, end time.Time) (*Horizon, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("horizon end %s before start %s", model.DateKey(end), model.DateKey(start))
	}

	start = midnightUTC(start)
	end = midnightUTC(end)

	extStart := start.AddDate(0, 0, -daysSinceMonday(start))
	extEnd := end.AddDate(0, 0, 6-daysSinceMonday(end))

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: extStart,
		Until:   extEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build horizon day rule: %w", err)
	}
	days := rule.All()
	if len(days)%7 != 0 {
		return nil, fmt.Errorf("extended range %s..%s is not whole weeks", model.DateKey(extStart), model.DateKey(extEnd))
	}

	h := &Horizon{
		OriginalStart: start,
		OriginalEnd:   end,
		ExtendedStart: extStart,
		ExtendedEnd:   extEnd,
		Days:          days,
		boundaryDates: make(map[string]bool),
		weekByDate:    make(map[string]int),
	}

	for i := 0; i < len(days); i += 7 {
		w := Week{Index: i / 7}
		copy(w.Days[:], days[i:i+7])
		w.ISOYear, w.ISOWeek = w.Days[0].ISOWeek()

		boundary := false
		for _, d := range w.Days {
			h.weekByDate[model.DateKey(d)] = w.Index
			if d.Before(start) || d.After(end) {
				boundary = true
			}
		}
		if boundary {
			for _, d := range w.Days {
				h.boundaryDates[model.DateKey(d)] = true
			}
		}
		h.Weeks = append(h.Weeks, w)
	}

	return h, nil
}

// InOriginal reports whether the date lies inside the reporting window.
func (h *Horizon) InOriginal(d time.Time) bool {
	return !d.Before(h.OriginalStart) && !d.After(h.OriginalEnd)
}

// IsBoundaryDate reports whether the date belongs to a week straddling the
// original range on either side.
func (h *Horizon) IsBoundaryDate(d time.Time) bool {
	return h.boundaryDates[model.DateKey(d)]
}

// WeekOf returns the horizon week index containing the date.
func (h *Horizon) WeekOf(d time.Time) (int, bool) {
	idx, ok := h.weekByDate[model.DateKey(d)]
	return idx, ok
}

// WeekTouchesOriginal reports whether any date of the week lies inside the
// reporting window.
func (h *Horizon) WeekTouchesOriginal(w Week) bool {
	for _, d := range w.Days {
		if h.InOriginal(d) {
			return true
		}
	}
	return false
}

// IsWeekend reports whether the date is a Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
