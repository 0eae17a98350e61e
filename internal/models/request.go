package models

import (
	"slices"
	"time"
)

// Preferences rank matching courts ahead of the rest. They never exclude.
type Preferences struct {
	PreferredCourts   []int         `json:"preferred_courts,omitempty"`
	PreferredSurfaces []SurfaceType `json:"preferred_surfaces,omitempty"`
	PreferIndoors     bool          `json:"prefer_indoors,omitempty"`
	PreferWingfield   bool          `json:"prefer_wingfield,omitempty"`
}

// Matches reports whether the court satisfies any preference attribute.
func (p Preferences) Matches(c Court) bool {
	if slices.Contains(p.PreferredCourts, c.ID) {
		return true
	}
	if slices.Contains(p.PreferredSurfaces, c.Surface) {
		return true
	}
	if p.PreferWingfield && c.IsWingfield {
		return true
	}
	return p.PreferIndoors && c.IsIndoors
}

func (p Preferences) IsZero() bool {
	return len(p.PreferredCourts) == 0 && len(p.PreferredSurfaces) == 0 && !p.PreferIndoors && !p.PreferWingfield
}

// Filter restricts the courts considered by a query. Nil pointers mean "any".
type Filter struct {
	Surfaces       []SurfaceType `json:"surfaces,omitempty"`
	Indoors        *bool         `json:"indoors,omitempty"`
	SinglesOnly    *bool         `json:"singles_only,omitempty"`
	Wingfield      *bool         `json:"wingfield,omitempty"`
	MiddleCourt    *bool         `json:"middle_court,omitempty"`
	ExcludedCourts []int         `json:"excluded_courts,omitempty"`
	Preferences    Preferences   `json:"preferences,omitempty"`
}

// Allows reports whether the court passes every constraint of the filter.
func (f Filter) Allows(c Court) bool {
	if slices.Contains(f.ExcludedCourts, c.ID) {
		return false
	}
	if len(f.Surfaces) > 0 && !slices.Contains(f.Surfaces, c.Surface) {
		return false
	}
	if f.Indoors != nil && *f.Indoors != c.IsIndoors {
		return false
	}
	if f.SinglesOnly != nil && *f.SinglesOnly != c.IsSinglesOnly {
		return false
	}
	if f.Wingfield != nil && *f.Wingfield != c.IsWingfield {
		return false
	}
	if f.MiddleCourt != nil && *f.MiddleCourt != c.IsMiddleCourt {
		return false
	}
	return true
}

// BookingRequest is the desired play window on a date.
type BookingRequest struct {
	Date     time.Time     `json:"date"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Filter   Filter        `json:"filter"`
}

func (r BookingRequest) End() time.Time {
	return r.Start.Add(r.Duration)
}

// Shift returns a copy of the request moved by d.
func (r BookingRequest) Shift(d time.Duration) BookingRequest {
	r.Start = r.Start.Add(d)
	return r
}

// CheckResult is the availability of every filtered court for one exact window.
type CheckResult struct {
	Date      time.Time    `json:"date"`
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	Courts    map[int]bool `json:"courts"`
	Available []Court      `json:"available"`
	Verified  bool         `json:"verified"`
}

func (r *CheckResult) HasAvailability() bool {
	return r != nil && len(r.Available) > 0
}

// Alternative is a shifted window with at least one free court.
type Alternative struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Courts []Court   `json:"courts"`
}

// SearchResult bundles the exact check with alternatives when nothing was free.
type SearchResult struct {
	Check        *CheckResult  `json:"check"`
	Alternatives []Alternative `json:"alternatives"`
}
