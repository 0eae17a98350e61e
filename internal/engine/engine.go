// Package engine answers availability queries for the club's courts: exact
// window checks, nearby alternatives and per-day hour grids.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"courtfinder/internal/ebusy"
	"courtfinder/internal/metrics"
	"courtfinder/internal/models"
	"courtfinder/internal/schedule"

	"github.com/rs/zerolog"
)

// Fetcher returns the reservations of one day with canonical court ids.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) (*ebusy.FetchResult, error)
}

// CourtSource lists the known courts sorted by id.
type CourtSource interface {
	Courts() []models.Court
}

type Options struct {
	Window          models.OperatingWindow
	Location        *time.Location
	DefaultDuration time.Duration
	// SearchRadius is the largest shift in whole hours tried by FindAlternatives.
	SearchRadius int
}

type Engine struct {
	fetcher         Fetcher
	courts          CourtSource
	window          models.OperatingWindow
	loc             *time.Location
	defaultDuration time.Duration
	radius          int
	logger          *zerolog.Logger
}

// snapshot is one fetch of a day, shared by every evaluation of a query.
type snapshot struct {
	date      time.Time
	intervals []models.BookingInterval
	verified  bool
}

func New(fetcher Fetcher, courts CourtSource, opts Options, logger *zerolog.Logger) *Engine {
	if opts.Window.Close <= opts.Window.Open {
		opts.Window = models.DefaultWindow()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = models.DefaultDuration
	}
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = models.DefaultSearchRadiusHours
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Engine{
		fetcher:         fetcher,
		courts:          courts,
		window:          opts.Window,
		loc:             opts.Location,
		defaultDuration: opts.DefaultDuration,
		radius:          opts.SearchRadius,
		logger:          logger,
	}
}

func (e *Engine) Window() models.OperatingWindow { return e.window }

func (e *Engine) Location() *time.Location { return e.loc }

// NewRequest builds a request in the engine's time zone. A durationMinutes of
// zero means the configured default duration.
func (e *Engine) NewRequest(date, start string, durationMinutes int, filter models.Filter) (models.BookingRequest, error) {
	req, err := NewBookingRequest(date, start, durationMinutes, filter, e.loc)
	if err != nil {
		return models.BookingRequest{}, err
	}
	if durationMinutes == 0 {
		req.Duration = e.defaultDuration
	}
	return req, nil
}

// CheckAvailability reports, for every court passing the filter, whether the
// exact requested window is free.
func (e *Engine) CheckAvailability(ctx context.Context, req models.BookingRequest) (*models.CheckResult, error) {
	const kind = "check"

	req, err := e.prepare(req)
	if err != nil {
		metrics.IncQuery(kind, "invalid")
		return nil, err
	}
	snap, err := e.load(ctx, req.Date)
	if err != nil {
		metrics.IncQuery(kind, "error")
		return nil, err
	}

	res := e.check(snap, req)
	metrics.IncQuery(kind, resultLabel(res.HasAvailability()))
	return res, nil
}

// FindAlternatives returns nil when the exact request has a free court.
// Otherwise it tries shifts of one hour, then two, earlier first, and returns
// every in-window candidate of the first radius with at least one free court.
// Shifted windows that leave the operating window are dropped, not clamped,
// so every alternative keeps the requested duration.
// An empty, non-nil slice means nothing was found within the radius.
func (e *Engine) FindAlternatives(ctx context.Context, req models.BookingRequest) ([]models.Alternative, error) {
	const kind = "alternatives"

	req, err := e.prepare(req)
	if err != nil {
		metrics.IncQuery(kind, "invalid")
		return nil, err
	}
	snap, err := e.load(ctx, req.Date)
	if err != nil {
		metrics.IncQuery(kind, "error")
		return nil, err
	}

	if e.check(snap, req).HasAvailability() {
		metrics.IncQuery(kind, "not_needed")
		return nil, nil
	}

	alts := e.alternatives(snap, req)
	metrics.IncQuery(kind, resultLabel(len(alts) > 0))
	return alts, nil
}

// Search runs the exact check and, when nothing is free, the alternatives
// search against the same fetched day.
func (e *Engine) Search(ctx context.Context, req models.BookingRequest) (*models.SearchResult, error) {
	const kind = "search"

	req, err := e.prepare(req)
	if err != nil {
		metrics.IncQuery(kind, "invalid")
		return nil, err
	}
	snap, err := e.load(ctx, req.Date)
	if err != nil {
		metrics.IncQuery(kind, "error")
		return nil, err
	}

	res := &models.SearchResult{Check: e.check(snap, req)}
	if !res.Check.HasAvailability() {
		res.Alternatives = e.alternatives(snap, req)
	}
	metrics.IncQuery(kind, resultLabel(res.Check.HasAvailability() || len(res.Alternatives) > 0))
	return res, nil
}

// DayAvailability builds the hour grid of every court for date.
func (e *Engine) DayAvailability(ctx context.Context, date time.Time) (*models.DayAvailability, error) {
	const kind = "day"

	day := startOfDay(date.In(e.loc))
	snap, err := e.load(ctx, day)
	if err != nil {
		metrics.IncQuery(kind, "error")
		return nil, err
	}

	grids := schedule.BuildGrids(snap.intervals, e.courts.Courts(), day, e.window)
	metrics.IncQuery(kind, "ok")
	return &models.DayAvailability{
		Date:     day,
		Window:   e.window,
		Grids:    grids,
		Verified: snap.verified,
	}, nil
}

// prepare moves the request into the engine's zone, fills the duration and validates it.
func (e *Engine) prepare(req models.BookingRequest) (models.BookingRequest, error) {
	if req.Start.IsZero() {
		return req, &models.ValidationError{Field: "start", Value: "", Reason: "required"}
	}
	req.Start = req.Start.In(e.loc)
	if req.Date.IsZero() {
		req.Date = startOfDay(req.Start)
	} else {
		req.Date = startOfDay(req.Date.In(e.loc))
	}
	if req.Duration == 0 {
		req.Duration = e.defaultDuration
	}
	if err := ValidateRequest(req, e.window); err != nil {
		return req, err
	}
	return req, nil
}

func (e *Engine) load(ctx context.Context, day time.Time) (*snapshot, error) {
	log := e.logger.With().Str("date", day.Format(models.DateLayout)).Logger()

	fetched, err := e.fetcher.Fetch(ctx, day)
	if err != nil {
		log.Error().Err(err).Msg("fetch reservations")
		return nil, fmt.Errorf("fetch reservations for %s: %w", day.Format(models.DateLayout), err)
	}

	intervals, err := schedule.Normalize(fetched.Reservations, e.loc)
	if err != nil {
		log.Error().Err(err).Msg("normalize reservations")
		return nil, fmt.Errorf("normalize reservations for %s: %w", day.Format(models.DateLayout), err)
	}

	if !fetched.Verified() {
		log.Warn().Err(fetched.Err).Msg("availability not verified against booking backend")
	}
	return &snapshot{date: day, intervals: intervals, verified: fetched.Verified()}, nil
}

func (e *Engine) check(snap *snapshot, req models.BookingRequest) *models.CheckResult {
	courts, available := CheckIntervals(snap.intervals, e.courts.Courts(), req.Start, req.End(), req.Filter)
	return &models.CheckResult{
		Date:      snap.date,
		Start:     req.Start,
		End:       req.End(),
		Courts:    courts,
		Available: available,
		Verified:  snap.verified,
	}
}

func (e *Engine) alternatives(snap *snapshot, req models.BookingRequest) []models.Alternative {
	alts := []models.Alternative{}
	for r := 1; r <= e.radius; r++ {
		for _, sign := range []int{-1, 1} {
			cand := req.Shift(time.Duration(sign*r) * time.Hour)
			if !sameDay(cand.Start, req.Date) || !e.window.Contains(cand.Start, cand.End()) {
				continue
			}
			_, available := CheckIntervals(snap.intervals, e.courts.Courts(), cand.Start, cand.End(), req.Filter)
			if len(available) == 0 {
				continue
			}
			alts = append(alts, models.Alternative{Start: cand.Start, End: cand.End(), Courts: available})
		}
		if len(alts) > 0 {
			e.logger.Debug().Int("radius", r).Int("candidates", len(alts)).Msg("alternatives found")
			return alts
		}
	}
	return alts
}

// CheckIntervals evaluates [start, end) against raw booking intervals for
// every court the filter allows. It returns availability per court id and the
// free courts ranked by preference, then ascending id.
func CheckIntervals(intervals []models.BookingInterval, courts []models.Court, start, end time.Time, filter models.Filter) (map[int]bool, []models.Court) {
	byCourt := schedule.ByCourt(intervals)

	result := make(map[int]bool, len(courts))
	available := make([]models.Court, 0, len(courts))
	for _, c := range courts {
		if !filter.Allows(c) {
			continue
		}
		free := true
		for _, iv := range byCourt[c.ID] {
			if iv.Overlaps(start, end) {
				free = false
				break
			}
		}
		result[c.ID] = free
		if free {
			available = append(available, c)
		}
	}
	return result, Rank(available, filter.Preferences)
}

// Rank orders courts with preference matches first, then by ascending id.
func Rank(courts []models.Court, prefs models.Preferences) []models.Court {
	if prefs.IsZero() {
		sort.Slice(courts, func(i, j int) bool { return courts[i].ID < courts[j].ID })
		return courts
	}
	sort.SliceStable(courts, func(i, j int) bool {
		pi, pj := prefs.Matches(courts[i]), prefs.Matches(courts[j])
		if pi != pj {
			return pi
		}
		return courts[i].ID < courts[j].ID
	})
	return courts
}

func resultLabel(found bool) string {
	if found {
		return "available"
	}
	return "none"
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
