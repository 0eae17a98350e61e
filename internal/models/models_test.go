package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 14, hour, minute, 0, 0, time.UTC)
}

func TestNewBookingInterval(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		iv, err := NewBookingInterval(4, at(12, 0), at(13, 0))
		require.NoError(t, err)
		assert.Equal(t, 4, iv.CourtID)
	})

	t.Run("EndEqualsStart", func(t *testing.T) {
		_, err := NewBookingInterval(4, at(12, 0), at(12, 0))
		assert.ErrorIs(t, err, ErrEndNotAfterStart)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		_, err := NewBookingInterval(4, at(13, 0), at(12, 0))
		assert.ErrorIs(t, err, ErrEndNotAfterStart)
	})

	t.Run("CrossesMidnight", func(t *testing.T) {
		_, err := NewBookingInterval(4, at(23, 0), at(23, 0).Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrCrossesMidnight)
	})
}

func TestOverlaps(t *testing.T) {
	booking, err := NewBookingInterval(4, at(12, 0), at(13, 0))
	require.NoError(t, err)

	assert.False(t, booking.Overlaps(at(13, 0), at(14, 0)), "touching end")
	assert.False(t, booking.Overlaps(at(11, 0), at(12, 0)), "touching start")
	assert.True(t, booking.Overlaps(at(12, 30), at(13, 30)))
	assert.True(t, booking.Overlaps(at(11, 30), at(12, 1)))
	assert.True(t, booking.Overlaps(at(11, 0), at(14, 0)), "containing")
	assert.True(t, booking.Overlaps(at(12, 15), at(12, 45)), "contained")
}

func TestOperatingWindow(t *testing.T) {
	w := DefaultWindow()
	hours := w.Hours()
	require.Len(t, hours, 15)
	assert.Equal(t, 7, hours[0])
	assert.Equal(t, 21, hours[len(hours)-1])

	assert.True(t, w.Contains(at(7, 0), at(8, 0)))
	assert.True(t, w.Contains(at(21, 0), at(22, 0)))
	assert.False(t, w.Contains(at(6, 0), at(7, 0)))
	assert.False(t, w.Contains(at(21, 30), at(22, 30)))
}

func TestFilterAllows(t *testing.T) {
	yes, no := true, false
	indoor := Court{ID: 13, Surface: SurfaceClay, IsIndoors: true}
	granulat := Court{ID: 10, Surface: SurfaceGranulat}
	singles := Court{ID: 0, Surface: SurfaceClay, IsSinglesOnly: true}

	assert.True(t, Filter{}.Allows(indoor))
	assert.True(t, Filter{Indoors: &yes}.Allows(indoor))
	assert.False(t, Filter{Indoors: &yes}.Allows(granulat))
	assert.False(t, Filter{SinglesOnly: &no}.Allows(singles))
	assert.True(t, Filter{Surfaces: []SurfaceType{SurfaceGranulat}}.Allows(granulat))
	assert.False(t, Filter{Surfaces: []SurfaceType{SurfaceGranulat}}.Allows(indoor))
	assert.False(t, Filter{ExcludedCourts: []int{10}}.Allows(granulat))
}

func TestPreferencesMatches(t *testing.T) {
	c := Court{ID: 17, Surface: SurfaceClay, IsWingfield: true}

	assert.True(t, Preferences{PreferredCourts: []int{17}}.Matches(c))
	assert.True(t, Preferences{PreferredSurfaces: []SurfaceType{SurfaceClay}}.Matches(c))
	assert.False(t, Preferences{PreferIndoors: true}.Matches(c))
	assert.True(t, Preferences{PreferWingfield: true}.Matches(c))
	assert.False(t, Preferences{PreferWingfield: true}.Matches(Court{ID: 13, IsIndoors: true}))
	assert.False(t, Preferences{PreferWingfield: true}.IsZero())
	assert.False(t, Preferences{}.Matches(c))
	assert.True(t, Preferences{}.IsZero())
}

func TestParseSurfaceType(t *testing.T) {
	s, err := ParseSurfaceType(" Granulat ")
	require.NoError(t, err)
	assert.Equal(t, SurfaceGranulat, s)

	_, err = ParseSurfaceType("grass")
	assert.Error(t, err)
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &MalformedRecordError{Index: 2, Field: "fromTime", Value: "25:00", Err: errors.New("bad hour")}
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "fromTime")
	assert.Contains(t, err.Error(), "25:00")

	err = &DataIntegrityError{ProviderID: 9999}
	assert.ErrorIs(t, err, ErrDataIntegrity)
	assert.Contains(t, err.Error(), "9999")

	err = &ValidationError{Field: "date", Value: "2025-06-14", Reason: "expected DD.MM.YYYY"}
	assert.ErrorIs(t, err, ErrValidation)

	cause := errors.New("connection refused")
	err = &UpstreamUnavailableError{Op: "fetch reservations", Err: cause}
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestAvailabilityGridFreeHours(t *testing.T) {
	g := AvailabilityGrid{Hours: map[int]bool{7: true, 8: false, 9: true}}
	assert.Equal(t, []int{7, 9}, g.FreeHours())
	assert.False(t, g.IsAvailable(8))
	assert.False(t, g.IsAvailable(23))
}
