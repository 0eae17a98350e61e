package models

import (
	"sort"
	"time"
)

// OperatingWindow is the daily range [Open:00, Close:00) used for grids and alternatives.
type OperatingWindow struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

func DefaultWindow() OperatingWindow {
	return OperatingWindow{Open: DefaultOpenHour, Close: DefaultCloseHour}
}

// Hours returns the hour keys covered by the window in ascending order.
func (w OperatingWindow) Hours() []int {
	hours := make([]int, 0, w.Close-w.Open)
	for h := w.Open; h < w.Close; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Bounds returns the window's start and end instants on the given day.
func (w OperatingWindow) Bounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	return time.Date(y, m, d, w.Open, 0, 0, 0, loc), time.Date(y, m, d, w.Close, 0, 0, 0, loc)
}

// Contains reports whether [start, end) lies fully inside the window on start's day.
func (w OperatingWindow) Contains(start, end time.Time) bool {
	open, closeAt := w.Bounds(start)
	return !start.Before(open) && !end.After(closeAt)
}

// AvailabilityGrid maps each hour of the operating window to free (true) or booked (false).
type AvailabilityGrid struct {
	CourtID   int          `json:"court_id"`
	CourtName string       `json:"court_name"`
	Hours     map[int]bool `json:"hours"`
}

func (g AvailabilityGrid) IsAvailable(hour int) bool {
	return g.Hours[hour]
}

// FreeHours returns the free hours in ascending order.
func (g AvailabilityGrid) FreeHours() []int {
	free := make([]int, 0, len(g.Hours))
	for h, ok := range g.Hours {
		if ok {
			free = append(free, h)
		}
	}
	sort.Ints(free)
	return free
}

// DayAvailability is the grid set for one date. Verified is false when the
// booking backend could not be reached and every hour is assumed free.
type DayAvailability struct {
	Date     time.Time          `json:"date"`
	Window   OperatingWindow    `json:"window"`
	Grids    []AvailabilityGrid `json:"grids"`
	Verified bool               `json:"verified"`
}
