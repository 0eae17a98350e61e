// Package schedule turns provider reservations into booking intervals and
// hourly availability grids.
package schedule

import (
	"errors"
	"strings"
	"time"

	"courtfinder/internal/models"
)

const missingValue = "<missing>"

// Normalize converts reservations into booking intervals in loc. The first
// malformed record aborts the batch: partial data must not look complete.
func Normalize(reservations []models.Reservation, loc *time.Location) ([]models.BookingInterval, error) {
	if loc == nil {
		loc = time.UTC
	}

	intervals := make([]models.BookingInterval, 0, len(reservations))
	for i, r := range reservations {
		iv, err := normalizeOne(i, r, loc)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func normalizeOne(index int, r models.Reservation, loc *time.Location) (models.BookingInterval, error) {
	if r.Court == nil {
		return models.BookingInterval{}, &models.MalformedRecordError{Index: index, Field: "court", Value: missingValue}
	}

	day, err := time.ParseInLocation(models.ProviderDateLayout, strings.TrimSpace(r.Date), loc)
	if err != nil {
		return models.BookingInterval{}, malformed(index, "date", r.Date, err)
	}
	start, err := combine(day, r.FromTime)
	if err != nil {
		return models.BookingInterval{}, malformed(index, "fromTime", r.FromTime, err)
	}
	end, err := combine(day, r.ToTime)
	if err != nil {
		return models.BookingInterval{}, malformed(index, "toTime", r.ToTime, err)
	}

	iv, err := models.NewBookingInterval(*r.Court, start, end)
	if err != nil {
		return models.BookingInterval{}, malformed(index, "toTime", r.ToTime, err)
	}
	return iv, nil
}

// combine puts a HH:MM clock time on day.
func combine(day time.Time, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return time.Time{}, errors.New("empty time")
	}
	t, err := time.Parse(models.ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func malformed(index int, field, value string, err error) error {
	if value == "" {
		value = missingValue
	}
	return &models.MalformedRecordError{Index: index, Field: field, Value: value, Err: err}
}

// ByCourt groups intervals per court id.
func ByCourt(intervals []models.BookingInterval) map[int][]models.BookingInterval {
	out := make(map[int][]models.BookingInterval)
	for _, iv := range intervals {
		out[iv.CourtID] = append(out[iv.CourtID], iv)
	}
	return out
}
