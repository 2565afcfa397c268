// Package slots implements the interval algebra behind reservation
// admission: half-open overlap, window containment and meal classification.
package slots

import (
	"strings"
	"time"

	"menza/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Within reports whether [slotStart, slotEnd) lies entirely inside
// [winStart, winEnd]. Partial spill over either edge fails.
func Within(slotStart, slotEnd, winStart, winEnd time.Time) bool {
	return !slotStart.Before(winStart) && !slotEnd.After(winEnd)
}

// ClassifyMeal maps a clock time to the meal label of the first window
// containing it. Window starts are inclusive, ends exclusive, so a time
// equal to a window's end belongs to the next window if any. Labels are
// compared and returned lowercased.
func ClassifyMeal(clock string, hours []models.WorkingHour) (string, bool) {
	m, err := models.MinuteOfDay(clock)
	if err != nil {
		return "", false
	}
	for _, h := range hours {
		from, err := models.MinuteOfDay(h.From)
		if err != nil {
			continue
		}
		to, err := models.MinuteOfDay(h.To)
		if err != nil {
			continue
		}
		if from <= m && m < to {
			return strings.ToLower(h.Meal), true
		}
	}
	return "", false
}

// FitsAny reports whether the slot [start, end) is fully contained in at
// least one of the given working hours placed on the slot's date. An empty
// list means closed.
func FitsAny(start, end time.Time, hours []models.WorkingHour) bool {
	for _, h := range hours {
		winStart, winEnd, err := h.Window(start)
		if err != nil {
			continue
		}
		if Within(start, end, winStart, winEnd) {
			return true
		}
	}
	return false
}

// AlignedToGrid reports whether a clock string starts on the half-hour grid.
func AlignedToGrid(clock string) bool {
	m, err := models.MinuteOfDay(clock)
	if err != nil {
		return false
	}
	return m%30 == 0
}
