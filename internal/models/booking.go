package models

import (
	"errors"
	"time"
)

var (
	ErrEndNotAfterStart = errors.New("end must be after start")
	ErrCrossesMidnight  = errors.New("interval crosses midnight")
)

// RawReservation is one record of the provider's reservations payload.
// Court is a pointer so that a missing id differs from a zero id.
type RawReservation struct {
	Court    *int64 `json:"court"`
	Date     string `json:"date"`
	FromTime string `json:"fromTime"`
	ToTime   string `json:"toTime"`
}

// Reservation is a RawReservation whose provider court id has been
// translated to the canonical registry id.
type Reservation struct {
	Court      *int   `json:"court"`
	ProviderID int64  `json:"provider_id,omitempty"`
	Date       string `json:"date"`
	FromTime   string `json:"fromTime"`
	ToTime     string `json:"toTime"`
}

// BookingInterval is a confirmed reservation occupying [Start, End) on one court.
type BookingInterval struct {
	CourtID int       `json:"court_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// NewBookingInterval validates that end is after start and that both lie
// on the same calendar day.
func NewBookingInterval(courtID int, start, end time.Time) (BookingInterval, error) {
	if !end.After(start) {
		return BookingInterval{}, ErrEndNotAfterStart
	}
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return BookingInterval{}, ErrCrossesMidnight
	}
	return BookingInterval{CourtID: courtID, Start: start, End: end}, nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an instant.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Overlaps reports whether the interval intersects [start, end).
func (b BookingInterval) Overlaps(start, end time.Time) bool {
	return Overlaps(b.Start, b.End, start, end)
}
