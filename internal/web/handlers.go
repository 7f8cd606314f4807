package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"covergap/internal/extract"
	"covergap/internal/filter"
	appLog "covergap/internal/log"
	"covergap/internal/model"
	"covergap/internal/profile"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type profilesResponse struct {
	Default  string                     `json:"default"`
	Profiles map[string]profile.Profile `json:"profiles"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	resp := profilesResponse{
		Default:  s.cfg.Profile,
		Profiles: make(map[string]profile.Profile),
	}
	for _, name := range s.profiles.Names() {
		p, err := s.profiles.Lookup(name)
		if err != nil {
			continue
		}
		resp.Profiles[name] = p
	}
	writeJSON(w, http.StatusOK, resp)
}

type extractRequest struct {
	Text string `json:"text"`
}

type warningDTO struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Token string `json:"token,omitempty"`
	Error string `json:"error"`
}

type extractResponse struct {
	Events   []model.Event `json:"events"`
	Warnings []warningDTO  `json:"warnings"`
	Lines    int           `json:"lines"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rep := s.extractor.ExtractReport(req.Text)
	resp := extractResponse{
		Events:   rep.Events,
		Warnings: make([]warningDTO, 0, len(rep.Warnings)),
		Lines:    rep.Lines,
	}
	for _, le := range rep.Warnings {
		resp.Warnings = append(resp.Warnings, warningDTO{
			Line:  le.Line,
			Text:  le.Text,
			Token: le.Token,
			Error: le.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type filterRequest struct {
	Search    string   `json:"search"`
	Weekdays  []string `json:"weekdays"`
	StartHour *int     `json:"start_hour"`
	EndHour   *int     `json:"end_hour"`
}

type analyzeRequest struct {
	Text     string          `json:"text"`
	Events   []model.Event   `json:"events"`
	Profile  string          `json:"profile"`
	Coverage profile.Profile `json:"coverage"`
	Filter   *filterRequest  `json:"filter"`
}

type analyzeResponse struct {
	ID       string            `json:"id"`
	Profile  string            `json:"profile"`
	Events   []model.Event     `json:"events"`
	Analysis model.GapAnalysis `json:"analysis"`
	Summary  model.Summary     `json:"summary"`
}

// handleAnalyze extracts events from text (if given), appends any events
// sent directly, optionally filters them, and analyzes the result against
// either an inline coverage curve or a named profile.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	events := make([]model.Event, 0, len(req.Events))
	if strings.TrimSpace(req.Text) != "" {
		events = append(events, s.extractor.Extract(req.Text)...)
	}
	events = append(events, req.Events...)

	if req.Filter != nil {
		criteria, err := req.Filter.criteria(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		events = filter.Apply(events, criteria)
	}

	if err := extract.RequireEvents(events); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	name, p, err := s.resolveProfile(req.Profile, req.Coverage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis := s.analyzer.Analyze(events, p)
	resp := analyzeResponse{
		ID:       uuid.NewString(),
		Profile:  name,
		Events:   events,
		Analysis: analysis,
		Summary:  analysis.Summary(),
	}
	appLog.Info("analysis served", "id", resp.ID, "events", len(events), "profile", name,
		"critical_hours", resp.Summary.CriticalHours)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestAnalysis(w http.ResponseWriter, _ *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "no sources configured")
		return
	}
	snap, ok := s.refresher.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "analysis not ready")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// resolveProfile prefers an inline coverage curve over a profile name; an
// empty name means the configured default.
func (s *Server) resolveProfile(name string, coverage profile.Profile) (string, profile.Profile, error) {
	if len(coverage) > 0 {
		if err := coverage.Validate(); err != nil {
			return "", nil, fmt.Errorf("invalid coverage: %w", err)
		}
		return "custom", coverage, nil
	}
	if name == "" {
		name = s.cfg.Profile
	}
	p, err := s.profiles.Lookup(name)
	if err != nil {
		return "", nil, err
	}
	return name, p, nil
}

func (f filterRequest) criteria(s *Server) (filter.Criteria, error) {
	c := filter.All()
	c.Location = s.loc
	c.Search = f.Search

	days, unknown := filter.ParseWeekdays(f.Weekdays)
	if len(unknown) > 0 {
		return c, fmt.Errorf("unknown weekdays: %s", strings.Join(unknown, ", "))
	}
	c.Weekdays = days

	if f.StartHour != nil {
		c.StartHour = *f.StartHour
	}
	if f.EndHour != nil {
		c.EndHour = *f.EndHour
	}
	if c.StartHour < 0 || c.EndHour > 23 || c.StartHour > c.EndHour {
		return c, errors.New("hour window must satisfy 0 <= start_hour <= end_hour <= 23")
	}
	return c, nil
}

// decodeBody reads a JSON body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
