package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"courtfinder/internal/engine"
	"courtfinder/internal/models"
)

type courtsResponse struct {
	Version int                `json:"version"`
	Courts  []models.Court     `json:"courts"`
	Groups  models.CourtGroups `json:"groups"`
}

type gridResponse struct {
	CourtID   int          `json:"court_id"`
	CourtName string       `json:"court_name"`
	Hours     map[int]bool `json:"hours"`
	FreeHours []int        `json:"free_hours"`
}

type dayResponse struct {
	Date      string         `json:"date"`
	OpenHour  int            `json:"open_hour"`
	CloseHour int            `json:"close_hour"`
	Verified  bool           `json:"verified"`
	Courts    []gridResponse `json:"courts"`
}

type slotResponse struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Courts []models.Court `json:"courts"`
}

type checkResponse struct {
	Date         string         `json:"date"`
	Start        string         `json:"start"`
	End          string         `json:"end"`
	Verified     bool           `json:"verified"`
	Available    bool           `json:"available"`
	Courts       map[int]bool   `json:"courts"`
	FreeCourts   []models.Court `json:"free_courts"`
	Alternatives []slotResponse `json:"alternatives"`
}

type alternativesResponse struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
	// Needed is false when the requested window already has a free court.
	Needed       bool           `json:"needed"`
	Alternatives []slotResponse `json:"alternatives"`
}

func (s *HTTPServer) handleCourts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, err := s.parseFilter(r.URL.Query())
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	courts := s.courts.Filter(filter)
	if courts == nil {
		courts = []models.Court{}
	}
	writeJSON(w, http.StatusOK, courtsResponse{
		Version: s.courts.Version(),
		Courts:  courts,
		Groups:  s.courts.Groups(),
	})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return
	}
	date, err := engine.ParseDate(dateStr, s.engine.Location())
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	day, err := s.engine.DayAvailability(ctx, date)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	resp := dayResponse{
		Date:      day.Date.Format(models.DateLayout),
		OpenHour:  day.Window.Open,
		CloseHour: day.Window.Close,
		Verified:  day.Verified,
		Courts:    make([]gridResponse, 0, len(day.Grids)),
	}
	for _, g := range day.Grids {
		resp.Courts = append(resp.Courts, gridResponse{
			CourtID:   g.CourtID,
			CourtName: g.CourtName,
			Hours:     g.Hours,
			FreeHours: g.FreeHours(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := s.bookingRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.engine.Search(ctx, req)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	check := res.Check
	resp := checkResponse{
		Date:       check.Date.Format(models.DateLayout),
		Start:      check.Start.Format(models.ClockLayout),
		End:        check.End.Format(models.ClockLayout),
		Verified:   check.Verified,
		Available:  check.HasAvailability(),
		Courts:     check.Courts,
		FreeCourts: check.Available,
	}
	resp.Alternatives = slots(res.Alternatives)
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := s.bookingRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	alts, err := s.engine.FindAlternatives(ctx, req)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, alternativesResponse{
		Date:         req.Date.Format(models.DateLayout),
		Start:        req.Start.Format(models.ClockLayout),
		End:          req.End().Format(models.ClockLayout),
		Needed:       alts != nil,
		Alternatives: slots(alts),
	})
}

// bookingRequest reads date, start, duration and filters from the query string.
// It writes the error response itself and reports whether the caller may go on.
func (s *HTTPServer) bookingRequest(w http.ResponseWriter, r *http.Request) (models.BookingRequest, bool) {
	q := r.URL.Query()

	dateStr := strings.TrimSpace(q.Get("date"))
	if dateStr == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return models.BookingRequest{}, false
	}
	startStr := strings.TrimSpace(q.Get("start"))
	if startStr == "" {
		writeError(w, r, http.StatusBadRequest, "start is required")
		return models.BookingRequest{}, false
	}

	minutes := 0
	if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeQueryError(w, r, &models.ValidationError{Field: "duration", Value: raw, Reason: "expected positive minutes"})
			return models.BookingRequest{}, false
		}
		minutes = n
	}

	filter, err := s.parseFilter(q)
	if err != nil {
		writeQueryError(w, r, err)
		return models.BookingRequest{}, false
	}

	req, err := s.engine.NewRequest(dateStr, startStr, minutes, filter)
	if err != nil {
		writeQueryError(w, r, err)
		return models.BookingRequest{}, false
	}
	return req, true
}

func (s *HTTPServer) parseFilter(q url.Values) (models.Filter, error) {
	var (
		f   models.Filter
		err error
	)

	if f.Surfaces, err = parseSurfaces("surface", q.Get("surface")); err != nil {
		return f, err
	}
	if f.Indoors, err = parseOptionalBool("indoors", q.Get("indoors")); err != nil {
		return f, err
	}
	if f.SinglesOnly, err = parseOptionalBool("singles", q.Get("singles")); err != nil {
		return f, err
	}
	if f.Wingfield, err = parseOptionalBool("wingfield", q.Get("wingfield")); err != nil {
		return f, err
	}
	if f.MiddleCourt, err = parseOptionalBool("middle", q.Get("middle")); err != nil {
		return f, err
	}
	if f.ExcludedCourts, err = s.parseCourts("exclude", q.Get("exclude")); err != nil {
		return f, err
	}

	// предпочтения только влияют на порядок
	if f.Preferences.PreferredCourts, err = s.parseCourts("prefer", q.Get("prefer")); err != nil {
		return f, err
	}
	if f.Preferences.PreferredSurfaces, err = parseSurfaces("prefer_surface", q.Get("prefer_surface")); err != nil {
		return f, err
	}
	indoors, err := parseOptionalBool("prefer_indoors", q.Get("prefer_indoors"))
	if err != nil {
		return f, err
	}
	f.Preferences.PreferIndoors = indoors != nil && *indoors
	wingfield, err := parseOptionalBool("prefer_wingfield", q.Get("prefer_wingfield"))
	if err != nil {
		return f, err
	}
	f.Preferences.PreferWingfield = wingfield != nil && *wingfield

	return f, nil
}

func parseSurfaces(field, raw string) ([]models.SurfaceType, error) {
	parts := splitCSV(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]models.SurfaceType, 0, len(parts))
	for _, p := range parts {
		st, err := models.ParseSurfaceType(p)
		if err != nil {
			return nil, &models.ValidationError{Field: field, Value: p, Reason: "unknown surface"}
		}
		out = append(out, st)
	}
	return out, nil
}

func parseOptionalBool(field, raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &models.ValidationError{Field: field, Value: raw, Reason: "expected true or false"}
	}
	return &v, nil
}

// parseCourts accepts court ids or catalog names ("Platz T").
func (s *HTTPServer) parseCourts(field, raw string) ([]int, error) {
	parts := splitCSV(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.Atoi(p); err == nil && id >= 0 {
			out = append(out, id)
			continue
		}
		c, ok := s.courts.CourtByName(p)
		if !ok {
			return nil, &models.ValidationError{Field: field, Value: p, Reason: "expected court id or name"}
		}
		out = append(out, c.ID)
	}
	return out, nil
}

func slots(alts []models.Alternative) []slotResponse {
	out := make([]slotResponse, 0, len(alts))
	for _, a := range alts {
		out = append(out, slotResponse{
			Start:  a.Start.Format(models.ClockLayout),
			End:    a.End.Format(models.ClockLayout),
			Courts: a.Courts,
		})
	}
	return out
}
