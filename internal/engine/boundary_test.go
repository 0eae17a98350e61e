package engine

import (
	"testing"
	"time"

	"courtfinder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)

	day, err := ParseDate("14.06.2025", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, berlin), day)

	for _, bad := range []string{"", "1.6.2025", "14.6.2025", "14.06.25", "2025-06-14", "06/14/2025", "31.02.2025", "32.01.2025", "14.13.2025"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseDate(bad, berlin)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrValidation)

			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "date", ve.Field)
		})
	}
}

func TestParseClock(t *testing.T) {
	at, err := ParseClock(testDay, "09:30")
	require.NoError(t, err)
	assert.Equal(t, testDay.Add(9*time.Hour+30*time.Minute), at)

	for _, bad := range []string{"9:30", "09:3", "25:00", "12:60", "noon", ""} {
		_, err := ParseClock(testDay, bad)
		assert.ErrorIs(t, err, models.ErrValidation, bad)
	}
}

func TestNewBookingRequest(t *testing.T) {
	req, err := NewBookingRequest("14.06.2025", "14:00", 0, models.Filter{}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, testDay, req.Date)
	assert.Equal(t, testDay.Add(14*time.Hour), req.Start)
	assert.Equal(t, time.Hour, req.Duration)
	assert.Equal(t, testDay.Add(15*time.Hour), req.End())

	req, err = NewBookingRequest("14.06.2025", "14:00", 90, models.Filter{ExcludedCourts: []int{1}}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, req.Duration)
	assert.Equal(t, []int{1}, req.Filter.ExcludedCourts)

	_, err = NewBookingRequest("14.06.2025", "14:00", -30, models.Filter{}, time.UTC)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "duration", ve.Field)

	_, err = NewBookingRequest("2025-06-14", "14:00", 60, models.Filter{}, time.UTC)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestNewBookingRequestDurationBound(t *testing.T) {
	req, err := NewBookingRequest("14.06.2025", "10:00", 24*60, models.Filter{}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, req.Duration)

	// 2^53 minutes overflow time.Duration back to a single hour
	for _, minutes := range []int{24*60 + 1, 60 + 1<<53} {
		_, err := NewBookingRequest("14.06.2025", "10:00", minutes, models.Filter{}, time.UTC)
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve, "minutes=%d", minutes)
		assert.Equal(t, "duration", ve.Field)
	}

	e := New(nil, nil, Options{Location: time.UTC}, nil)
	_, err = e.NewRequest("14.06.2025", "10:00", 60+1<<53, models.Filter{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEngineNewRequestUsesConfiguredDefaults(t *testing.T) {
	e := New(nil, nil, Options{DefaultDuration: 90 * time.Minute, Location: time.UTC}, nil)

	req, err := e.NewRequest("14.06.2025", "10:00", 0, models.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, req.Duration)

	req, err = e.NewRequest("14.06.2025", "10:00", 45, models.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, req.Duration)
}

func TestValidateRequest(t *testing.T) {
	window := models.DefaultWindow()

	ok := models.BookingRequest{Date: testDay, Start: testDay.Add(21 * time.Hour), Duration: time.Hour}
	assert.NoError(t, ValidateRequest(ok, window))

	opening := models.BookingRequest{Date: testDay, Start: testDay.Add(7 * time.Hour), Duration: 15 * time.Minute}
	assert.NoError(t, ValidateRequest(opening, window))

	late := models.BookingRequest{Date: testDay, Start: testDay.Add(21*time.Hour + time.Minute), Duration: time.Hour}
	assert.ErrorIs(t, ValidateRequest(late, window), models.ErrValidation)

	crossing := models.BookingRequest{Date: testDay, Start: testDay.Add(23 * time.Hour), Duration: 2 * time.Hour}
	assert.ErrorIs(t, ValidateRequest(crossing, models.OperatingWindow{Open: 0, Close: 24}), models.ErrValidation)
}
