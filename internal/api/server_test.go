package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/persistence"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := persistence.Open(filepath.Join(t.TempDir(), "statecraft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := engine.NewService(db, nil, diplomacy.DefaultConfig(), nil)
	require.NoError(t, db.SaveCountry(&diplomacy.Country{
		ID:     1,
		Name:   "Ostravia",
		Region: "Thalassia",
		Traits: diplomacy.NeutralTraits(),
	}))

	return &Server{Svc: svc, Sched: engine.NewScheduler(), AdminKey: "sekrit"}
}

func TestCountryDetail(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/country/1", nil)
	rec := httptest.NewRecorder()
	s.handleCountryRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ostravia", body["name"])
	assert.Equal(t, "PRAGMATIC_TRADER", body["archetype"])
}

func TestCountryDetailNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/country/99", nil)
	rec := httptest.NewRecorder()
	s.handleCountryRoutes(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictEndpoint(t *testing.T) {
	s := newTestServer(t)

	payload := map[string]any{
		"country_id":            1,
		"proposal":              map[string]any{"type": 0},
		"relationship_strength": 50,
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handlePredict(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp diplomacy.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.Accept, 0.0)
}

func TestPredictRejectsUnknownProposalType(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"country_id": 1,
		"proposal":   map[string]any{"type": 42},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handlePredict(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChoiceEndpoint(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"country_id": 1,
		"scenario": map[string]any{
			"id":    "border-incident",
			"title": "Border Incident",
			"choices": []map[string]any{
				{"id": "mobilize", "label": "Mobilize forces", "tone": 0},
				{"id": "summit", "label": "Call a summit", "tone": 2},
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/choice", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleChoice(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["choice_id"])
}

func TestChoiceEmptyScenario(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"country_id": 1,
		"scenario":   map[string]any{"id": "void"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/choice", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleChoice(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)
	handler := s.adminOnly(s.handleSpeed)

	body, _ := json.Marshal(map[string]float64{"speed": 2})

	// No token.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/speed", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/speed", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, s.Sched.Speed)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.Greater(t, rl.RetryAfter("10.0.0.1"), 0)
}
