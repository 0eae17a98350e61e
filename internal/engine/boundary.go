package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"courtfinder/internal/models"
)

var (
	datePattern  = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// maxDurationMinutes bounds a request to one day before it becomes a time.Duration.
const maxDurationMinutes = 24 * 60

// ParseDate parses a DD.MM.YYYY date strictly (no single-digit day or month)
// and returns midnight of that day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	if !datePattern.MatchString(value) {
		return time.Time{}, &models.ValidationError{Field: "date", Value: value, Reason: "expected DD.MM.YYYY"}
	}
	day, err := time.ParseInLocation(models.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "date", Value: value, Reason: "no such calendar day"}
	}
	return day, nil
}

// ParseClock puts a HH:MM clock time on day.
func ParseClock(day time.Time, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !clockPattern.MatchString(value) {
		return time.Time{}, &models.ValidationError{Field: "start", Value: value, Reason: "expected HH:MM"}
	}
	t, err := time.Parse(models.ClockLayout, value)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "start", Value: value, Reason: "no such clock time"}
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// NewBookingRequest builds a request from boundary strings. A durationMinutes
// of zero means the default duration.
func NewBookingRequest(date, start string, durationMinutes int, filter models.Filter, loc *time.Location) (models.BookingRequest, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return models.BookingRequest{}, err
	}
	startAt, err := ParseClock(day, start)
	if err != nil {
		return models.BookingRequest{}, err
	}

	duration := models.DefaultDuration
	switch {
	case durationMinutes < 0:
		return models.BookingRequest{}, &models.ValidationError{
			Field:  "duration",
			Value:  strconv.Itoa(durationMinutes),
			Reason: "must be positive",
		}
	case durationMinutes > maxDurationMinutes:
		return models.BookingRequest{}, &models.ValidationError{
			Field:  "duration",
			Value:  strconv.Itoa(durationMinutes),
			Reason: "longer than a day",
		}
	case durationMinutes > 0:
		duration = time.Duration(durationMinutes) * time.Minute
	}

	return models.BookingRequest{Date: day, Start: startAt, Duration: duration, Filter: filter}, nil
}

// ValidateRequest checks that the request lies inside the operating window of its date.
func ValidateRequest(req models.BookingRequest, window models.OperatingWindow) error {
	if req.Duration <= 0 || req.Duration%time.Minute != 0 {
		return &models.ValidationError{
			Field:  "duration",
			Value:  req.Duration.String(),
			Reason: "must be a positive whole number of minutes",
		}
	}

	if !req.Date.IsZero() {
		dy, dm, dd := req.Date.Date()
		sy, sm, sd := req.Start.In(req.Date.Location()).Date()
		if dy != sy || dm != sm || dd != sd {
			return &models.ValidationError{
				Field:  "start",
				Value:  req.Start.Format(time.RFC3339),
				Reason: "not on the requested date",
			}
		}
	}

	open, closeAt := window.Bounds(req.Start)
	if req.Start.Before(open) {
		return &models.ValidationError{
			Field:  "start",
			Value:  req.Start.Format(models.ClockLayout),
			Reason: fmt.Sprintf("before opening at %02d:00", window.Open),
		}
	}
	if req.End().After(closeAt) {
		return &models.ValidationError{
			Field:  "end",
			Value:  req.End().Format(models.ClockLayout),
			Reason: fmt.Sprintf("after closing at %02d:00", window.Close),
		}
	}
	return nil
}
