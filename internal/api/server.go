// Package api serves the diplomatic world over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane), except the
// rate-limited prediction endpoints which are open but throttled.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/persistence"
)

// Server serves the diplomatic engine state over HTTP.
type Server struct {
	Svc      *engine.Service
	Sched    *engine.Scheduler
	Port     int
	AdminKey string // Bearer token for admin POST endpoints. Empty = POST disabled.
	Workers  int    // Worker pool size for the admin refresh endpoint.

	started time.Time
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()

	// Prediction endpoints are open but throttled per client.
	predictLimiter := NewRateLimiter(600, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/countries", s.handleCountries)
	mux.HandleFunc("/api/v1/country/", s.handleCountryRoutes)
	mux.HandleFunc("/api/v1/relations", s.handleRelations)
	mux.HandleFunc("/api/v1/relation/", s.handleRelationDetail)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Evaluation endpoints (POST, rate-limited).
	mux.HandleFunc("/api/v1/predict", RateLimitMiddleware(predictLimiter, s.handlePredict))
	mux.HandleFunc("/api/v1/choice", RateLimitMiddleware(predictLimiter, s.handleChoice))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/refresh", s.adminOnly(s.handleRefresh))
	mux.HandleFunc("/api/v1/experience", s.adminOnly(s.handleExperience))
	mux.HandleFunc("/api/v1/drift", s.adminOnly(s.handleDrift))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no STATECRAFT_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	countries, err := s.Svc.DB().ListCountries()
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	relations, err := s.Svc.DB().ListRelations()
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	tick := s.Svc.CurrentTick()
	status := map[string]any{
		"name":        "Statecraft",
		"tick":        tick,
		"sim_time":    engine.SimTime(tick),
		"speed":       s.Sched.Speed,
		"running":     s.Sched.Running,
		"uptime":      humanize.Time(s.started),
		"countries":   len(countries),
		"relations":   len(relations),
		"refreshes":   s.Svc.Stats.Refreshes.Load(),
		"predictions": s.Svc.Stats.Predictions.Load(),
		"selections":  s.Svc.Stats.Selections.Load(),
		"transitions": s.Svc.Stats.Transitions.Load(),
		"drifts":      s.Svc.Stats.DriftCycles.Load(),
		"cache_hits":  s.Svc.Stats.CacheHits.Load(),
	}
	writeJSON(w, status)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.Svc.DB().ListCountries()
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	type countrySummary struct {
		ID        diplomacy.CountryID `json:"id"`
		Name      string              `json:"name"`
		Region    string              `json:"region"`
		Archetype string              `json:"archetype"`
	}

	out := make([]countrySummary, 0, len(countries))
	for _, c := range countries {
		out = append(out, countrySummary{
			ID:        c.ID,
			Name:      c.Name,
			Region:    c.Region,
			Archetype: diplomacy.ClassifyArchetype(s.Svc.Config(), c.Traits).String(),
		})
	}
	writeJSON(w, out)
}

// handleCountryRoutes dispatches /api/v1/country/:id and
// /api/v1/country/:id/history.
func (s *Server) handleCountryRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/country/")
	parts := strings.Split(path, "/")

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid country id", http.StatusBadRequest)
		return
	}
	countryID := diplomacy.CountryID(id)

	if len(parts) > 1 && parts[1] == "history" {
		s.handleCountryHistory(w, countryID)
		return
	}
	s.handleCountryDetail(w, countryID)
}

func (s *Server) handleCountryDetail(w http.ResponseWriter, id diplomacy.CountryID) {
	c, err := s.Svc.DB().GetCountry(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "country not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"region":    c.Region,
		"archetype": diplomacy.ClassifyArchetype(s.Svc.Config(), c.Traits).String(),
		"traits":    c.Traits,
		"metrics":   c.Metrics,
		"version":   c.Version,
	})
}

func (s *Server) handleCountryHistory(w http.ResponseWriter, id diplomacy.CountryID) {
	changes, err := s.Svc.DB().TraitChanges(id, 50)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, changes)
}

func (s *Server) handleRelations(w http.ResponseWriter, r *http.Request) {
	relations, err := s.Svc.DB().ListRelations()
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	type relationSummary struct {
		A        diplomacy.CountryID `json:"a"`
		B        diplomacy.CountryID `json:"b"`
		State    string              `json:"state"`
		Strength float64             `json:"strength"`
	}

	out := make([]relationSummary, 0, len(relations))
	for _, p := range relations {
		out = append(out, relationSummary{
			A:        p.A,
			B:        p.B,
			State:    p.State.String(),
			Strength: p.Strength,
		})
	}
	writeJSON(w, out)
}

// handleRelationDetail returns the modified transition row for
// /api/v1/relation/:a/:b.
func (s *Server) handleRelationDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/relation/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		http.Error(w, "expected /api/v1/relation/:a/:b", http.StatusBadRequest)
		return
	}

	a, errA := strconv.ParseUint(parts[0], 10, 64)
	b, errB := strconv.ParseUint(parts[1], 10, 64)
	if errA != nil || errB != nil {
		http.Error(w, "invalid country id", http.StatusBadRequest)
		return
	}

	state, row, err := s.Svc.TransitionProbabilities(r.Context(),
		diplomacy.CountryID(a), diplomacy.CountryID(b))
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "relation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	probs := make(map[string]float64, diplomacy.NumStates)
	for st := diplomacy.RelationshipState(0); st < diplomacy.NumStates; st++ {
		probs[st.String()] = row[st]
	}

	writeJSON(w, map[string]any{
		"state":         state.String(),
		"probabilities": probs,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, s.Svc.RecentEvents(limit))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		CountryID            diplomacy.CountryID         `json:"country_id"`
		Proposal             diplomacy.Proposal          `json:"proposal"`
		RelationshipStrength float64                     `json:"relationship_strength"`
		Context              diplomacy.HistoricalContext `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	resp, err := s.Svc.PredictResponse(r.Context(), req.CountryID,
		req.Proposal, req.RelationshipStrength, req.Context)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "country not found", http.StatusNotFound)
		return
	}
	var unsupported *diplomacy.UnsupportedProposalTypeError
	if errors.As(err, &unsupported) {
		http.Error(w, unsupported.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "prediction failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, resp)
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		CountryID diplomacy.CountryID `json:"country_id"`
		Scenario  diplomacy.Scenario  `json:"scenario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	choice, err := s.Svc.SelectScenarioChoice(r.Context(), req.CountryID, req.Scenario)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "country not found", http.StatusNotFound)
		return
	}
	var empty *diplomacy.EmptyScenarioError
	if errors.As(err, &empty) {
		http.Error(w, empty.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "selection failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"scenario_id": req.Scenario.ID,
		"choice_id":   choice,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Sched.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Sched.Speed})
}

// handleRefresh recomputes every country's vector from stored metrics.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	n, err := s.Svc.RefreshAll(r.Context(), workers)
	if err != nil {
		slog.Error("refresh failed", "error", err)
		http.Error(w, "refresh failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"refreshed": n})
}

// handleExperience injects an experience into a country's pending window.
func (s *Server) handleExperience(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var exp diplomacy.Experience
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if exp.ID == "" || exp.CountryID == 0 {
		http.Error(w, "id and country_id required", http.StatusBadRequest)
		return
	}

	if err := s.Svc.DB().AddExperience(exp); err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"accepted": exp.ID})
}

// handleDrift runs a drift cycle over one country's pending experiences.
func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		CountryID    diplomacy.CountryID `json:"country_id"`
		ElapsedYears float64             `json:"elapsed_years"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	traits, err := s.Svc.DriftCycle(r.Context(), req.CountryID, req.ElapsedYears)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "country not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("drift failed", "country", req.CountryID, "error", err)
		http.Error(w, "drift failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"country_id": req.CountryID,
		"traits":     traits,
	})
}

// handleSnapshot flushes buffered events and the tick marker to storage.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tick := s.Svc.CurrentTick()
	drained := s.Svc.DrainEvents()
	if len(drained) > 0 {
		events := make([]persistence.Event, len(drained))
		for i, e := range drained {
			events[i] = persistence.Event{
				Tick:        e.Tick,
				Description: e.Description,
				Category:    e.Category,
			}
		}
		if err := s.Svc.DB().SaveEvents(events); err != nil {
			slog.Error("snapshot save failed", "error", err)
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
	}
	if err := s.Svc.DB().SaveMeta("last_tick", strconv.FormatUint(tick, 10)); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    tick,
		"events":  len(drained),
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
