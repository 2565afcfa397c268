package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reservation statuses.
const (
	StatusActive    = "Active"
	StatusCancelled = "Cancelled"
)

// DateFormat is the wire and storage format for day-granular dates.
const DateFormat = "2006-01-02"

// ClockFormat is the wire and storage format for times of day.
const ClockFormat = "15:04"

// Student is immutable after registration.
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// WorkingHour is a single meal service window within a day.
// From and To are "HH:MM" clock strings, From < To, no overnight wrap.
type WorkingHour struct {
	Meal string `json:"meal"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Window places the working hour on a concrete date.
func (w WorkingHour) Window(date time.Time) (start, end time.Time, err error) {
	start, err = ClockOnDate(date, w.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("working hour %q from: %w", w.Meal, err)
	}
	end, err = ClockOnDate(date, w.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("working hour %q to: %w", w.Meal, err)
	}
	return start, end, nil
}

// Validate checks clock formats and ordering.
func (w WorkingHour) Validate() error {
	from, err := MinuteOfDay(w.From)
	if err != nil {
		return fmt.Errorf("working hour %q from: %w", w.Meal, err)
	}
	to, err := MinuteOfDay(w.To)
	if err != nil {
		return fmt.Errorf("working hour %q to: %w", w.Meal, err)
	}
	if strings.TrimSpace(w.Meal) == "" {
		return fmt.Errorf("working hour meal label is required")
	}
	if from >= to {
		return fmt.Errorf("working hour %q: %s must be before %s", w.Meal, w.From, w.To)
	}
	return nil
}

// Canteen holds nominal service windows and a per-slot capacity.
type Canteen struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Location     string        `json:"location"`
	Capacity     int           `json:"capacity"`
	WorkingHours []WorkingHour `json:"working_hours"`
}

// Reservation is a booked time slot. Date is day-granular (midnight UTC),
// Time is an "HH:MM" clock string, Duration is in minutes.
type Reservation struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CanteenID string    `json:"canteen_id"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether the reservation still occupies its slot.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// Interval returns the absolute [start, end) instants of the slot.
func (r *Reservation) Interval() (start, end time.Time, err error) {
	start, err = ClockOnDate(r.Date, r.Time)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("reservation %s: %w", r.ID, err)
	}
	return start, start.Add(time.Duration(r.Duration) * time.Minute), nil
}

// Restriction temporarily replaces a canteen's working hours for an
// inclusive date range. An empty WorkingHours list means closed all day.
type Restriction struct {
	ID           string        `json:"id"`
	CanteenID    string        `json:"canteen_id"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	WorkingHours []WorkingHour `json:"working_hours"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Covers reports whether the restriction is active on the given date.
func (r *Restriction) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(r.StartDate)) && !d.After(DateOf(r.EndDate))
}

// OverlapsDates reports whether [start, end] intersects the restriction's
// date range. Both ranges are inclusive on both ends.
func (r *Restriction) OverlapsDates(start, end time.Time) bool {
	return !DateOf(start).After(DateOf(r.EndDate)) && !DateOf(r.StartDate).After(DateOf(end))
}

// DateOf truncates an instant to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MinuteOfDay parses an "HH:MM" clock string into minutes since midnight.
func MinuteOfDay(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %s", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %s", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %s", clock)
	}
	return hour*60 + minute, nil
}

// ClockOnDate places an "HH:MM" clock string on a concrete date.
func ClockOnDate(date time.Time, clock string) (time.Time, error) {
	m, err := MinuteOfDay(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), m/60, m%60, 0, 0, date.Location()), nil
}
