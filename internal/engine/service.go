// Package engine orchestrates the behavior components over storage: it owns
// the per-country write discipline, the audit trail, and the evaluation
// schedule. The computation itself stays in the diplomacy package.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/talgya/statecraft/internal/cache"
	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/persistence"
)

// lockStripes bounds the per-country mutex table. Two countries may share a
// stripe; that only costs contention, never correctness.
const lockStripes = 64

// casRetries bounds the optimistic-concurrency retry loop on trait writes.
const casRetries = 3

// maxEvents caps the in-memory event ring.
const maxEvents = 1000

// Event is a notable diplomatic occurrence.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "refresh", "drift", "transition", "decision"
}

// Stats tracks engine activity counters.
type Stats struct {
	Refreshes   atomic.Int64
	DriftCycles atomic.Int64
	Predictions atomic.Int64
	Selections  atomic.Int64
	Transitions atomic.Int64
	CacheHits   atomic.Int64
}

// Service is the behavior engine's external interface. All methods are safe
// for concurrent use; trait mutation is serialized per country.
type Service struct {
	db      *persistence.DB
	cache   *cache.TraitCache
	cfg     *diplomacy.Config
	sampler entropy.Source

	locks [lockStripes]sync.Mutex

	mu       sync.Mutex
	events   []Event
	lastTick uint64

	Stats Stats
}

// NewService wires the engine over its storage and sampling dependencies.
// traitCache may be nil (caching disabled).
func NewService(db *persistence.DB, traitCache *cache.TraitCache, cfg *diplomacy.Config, sampler entropy.Source) *Service {
	if sampler == nil {
		sampler = entropy.CryptoSource{}
	}
	return &Service{
		db:      db,
		cache:   traitCache,
		cfg:     cfg,
		sampler: sampler,
	}
}

// Config exposes the behavior configuration in use.
func (s *Service) Config() *diplomacy.Config {
	return s.cfg
}

// DB exposes the underlying store for read-only API handlers.
func (s *Service) DB() *persistence.DB {
	return s.db
}

func (s *Service) lockFor(id diplomacy.CountryID) *sync.Mutex {
	return &s.locks[uint64(id)%lockStripes]
}

// SetTick records the current scheduler tick for event stamping.
func (s *Service) SetTick(tick uint64) {
	s.mu.Lock()
	s.lastTick = tick
	s.mu.Unlock()
}

// CurrentTick returns the most recently recorded tick.
func (s *Service) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTick
}

// EmitEvent appends to the in-memory event ring.
func (s *Service) EmitEvent(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	s.mu.Unlock()
}

// RecentEvents returns up to limit events, oldest first.
func (s *Service) RecentEvents(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// DrainEvents returns all buffered events and clears the ring, for periodic
// persistence.
func (s *Service) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// GetTraits returns a country's current trait vector, reading through the
// cache when one is configured.
func (s *Service) GetTraits(ctx context.Context, id diplomacy.CountryID) (diplomacy.PersonalityTraits, error) {
	if traits, err := s.cache.Get(ctx, id); err == nil {
		s.Stats.CacheHits.Inc()
		return traits, nil
	}

	c, err := s.db.GetCountry(id)
	if err != nil {
		return diplomacy.PersonalityTraits{}, err
	}

	if err := s.cache.Put(ctx, id, c.Traits); err != nil {
		slog.Warn("trait cache put failed", "country", id, "error", err)
	}
	return c.Traits, nil
}

// GetArchetype classifies a country's current stored vector.
func (s *Service) GetArchetype(ctx context.Context, id diplomacy.CountryID) (diplomacy.Archetype, error) {
	traits, err := s.GetTraits(ctx, id)
	if err != nil {
		return 0, err
	}
	return diplomacy.ClassifyArchetype(s.cfg, traits), nil
}

// RefreshTraits recomputes a country's vector from a fresh metrics snapshot
// and persists it. The read-modify-write is serialized per country and
// version-guarded against external writers.
func (s *Service) RefreshTraits(ctx context.Context, id diplomacy.CountryID, metrics diplomacy.RelationshipMetricsSnapshot) (diplomacy.PersonalityTraits, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.db.GetCountry(id)
		if err != nil {
			return diplomacy.PersonalityTraits{}, err
		}

		before := diplomacy.ClassifyArchetype(s.cfg, c.Traits)
		traits := diplomacy.ComputeTraits(s.cfg, metrics)

		if err := s.db.UpdateTraits(id, traits, c.Version); err != nil {
			if errors.Is(err, persistence.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return diplomacy.PersonalityTraits{}, err
		}
		if err := s.db.UpdateMetrics(id, metrics); err != nil {
			return diplomacy.PersonalityTraits{}, err
		}

		if err := s.cache.Put(ctx, id, traits); err != nil {
			slog.Warn("trait cache put failed", "country", id, "error", err)
		}

		s.Stats.Refreshes.Inc()

		if after := diplomacy.ClassifyArchetype(s.cfg, traits); after != before {
			s.EmitEvent(Event{
				Tick:        s.CurrentTick(),
				Description: fmt.Sprintf("%s shifted from %s to %s", c.Name, before, after),
				Category:    "refresh",
			})
		}

		return traits, nil
	}
	return diplomacy.PersonalityTraits{}, fmt.Errorf("refresh traits for country %d: %w", id, lastErr)
}

// PredictResponse predicts a country's reaction to a proposal.
func (s *Service) PredictResponse(ctx context.Context, id diplomacy.CountryID, proposal diplomacy.Proposal,
	relationshipStrength float64, hctx diplomacy.HistoricalContext) (diplomacy.Response, error) {

	traits, err := s.GetTraits(ctx, id)
	if err != nil {
		return diplomacy.Response{}, err
	}
	archetype := diplomacy.ClassifyArchetype(s.cfg, traits)

	resp, err := diplomacy.PredictResponse(s.cfg, traits, archetype, proposal, relationshipStrength, hctx)
	if err != nil {
		return diplomacy.Response{}, err
	}

	s.Stats.Predictions.Inc()
	return resp, nil
}

// SelectScenarioChoice picks the scenario choice the country's personality
// favors.
func (s *Service) SelectScenarioChoice(ctx context.Context, id diplomacy.CountryID, scenario diplomacy.Scenario) (diplomacy.ChoiceID, error) {
	traits, err := s.GetTraits(ctx, id)
	if err != nil {
		return "", err
	}
	archetype := diplomacy.ClassifyArchetype(s.cfg, traits)

	choice, err := diplomacy.SelectChoice(s.cfg, scenario, traits, archetype)
	if err != nil {
		return "", err
	}

	s.Stats.Selections.Inc()
	return choice, nil
}

// ApplyDrift folds an experience window into a country's vector, persists
// the result, archives the window, and returns the audit record. An empty
// window or non-positive elapsed time returns the current vector with no
// record.
func (s *Service) ApplyDrift(ctx context.Context, id diplomacy.CountryID, experiences []diplomacy.Experience,
	elapsedYears float64) (diplomacy.PersonalityTraits, *persistence.TraitChangeRecord, error) {

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		c, err := s.db.GetCountry(id)
		if err != nil {
			return diplomacy.PersonalityTraits{}, nil, err
		}

		after := diplomacy.ApplyDrift(s.cfg, c.Traits, experiences, elapsedYears)
		if after == c.Traits {
			return c.Traits, nil, nil
		}

		if err := s.db.UpdateTraits(id, after, c.Version); err != nil {
			if errors.Is(err, persistence.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return diplomacy.PersonalityTraits{}, nil, err
		}

		ids := make([]string, 0, len(experiences))
		for _, e := range experiences {
			if e.ID != "" {
				ids = append(ids, e.ID)
			}
		}

		rec := &persistence.TraitChangeRecord{
			ID:            uuid.NewString(),
			CountryID:     id,
			Before:        c.Traits,
			After:         after,
			ExperienceIDs: ids,
			Timestamp:     time.Now().Unix(),
		}
		if err := s.db.SaveTraitChange(*rec); err != nil {
			return diplomacy.PersonalityTraits{}, nil, err
		}
		if err := s.db.MarkExperiencesConsumed(ids); err != nil {
			return diplomacy.PersonalityTraits{}, nil, err
		}

		if err := s.cache.Invalidate(ctx, id); err != nil {
			slog.Warn("trait cache invalidate failed", "country", id, "error", err)
		}

		s.Stats.DriftCycles.Inc()
		s.EmitEvent(Event{
			Tick:        s.CurrentTick(),
			Description: fmt.Sprintf("%s drifted across %d experiences", c.Name, len(experiences)),
			Category:    "drift",
		})

		return after, rec, nil
	}
	return diplomacy.PersonalityTraits{}, nil, fmt.Errorf("apply drift for country %d: %w", id, lastErr)
}

// DriftCycle runs one drift pass over a country's pending experiences.
func (s *Service) DriftCycle(ctx context.Context, id diplomacy.CountryID, elapsedYears float64) (diplomacy.PersonalityTraits, error) {
	pending, err := s.db.PendingExperiences(id)
	if err != nil {
		return diplomacy.PersonalityTraits{}, err
	}

	traits, _, err := s.ApplyDrift(ctx, id, pending, elapsedYears)
	return traits, err
}

// TransitionProbabilities reports the modified transition row for an ordered
// pair, using the initiating (more assertive) country's traits.
func (s *Service) TransitionProbabilities(ctx context.Context, a, b diplomacy.CountryID) (diplomacy.RelationshipState, diplomacy.TransitionRow, error) {
	pair, err := s.db.GetRelation(a, b)
	if err != nil {
		return 0, diplomacy.TransitionRow{}, err
	}

	traits, err := s.initiatorTraits(ctx, a, b)
	if err != nil {
		return 0, diplomacy.TransitionRow{}, err
	}

	return pair.State, diplomacy.TransitionRowFor(s.cfg, pair.State, traits), nil
}

// SampleTransition draws the pair's next relationship state and persists it
// when it changes.
func (s *Service) SampleTransition(ctx context.Context, a, b diplomacy.CountryID) (diplomacy.RelationshipState, error) {
	pair, err := s.db.GetRelation(a, b)
	if err != nil {
		return 0, err
	}

	traits, err := s.initiatorTraits(ctx, a, b)
	if err != nil {
		return 0, err
	}

	next := diplomacy.SampleTransition(s.cfg, pair.State, traits, s.sampler.Float())
	s.Stats.Transitions.Inc()

	if next == pair.State {
		return next, nil
	}

	prev := pair.State
	pair.State = next
	if err := s.db.SaveRelation(pair); err != nil {
		return 0, err
	}

	s.EmitEvent(Event{
		Tick:        s.CurrentTick(),
		Description: fmt.Sprintf("relationship %d→%d moved from %s to %s", a, b, prev, next),
		Category:    "transition",
	})
	return next, nil
}

// initiatorTraits picks the more assertive country's vector as the
// transition modifier input; ties go to the pair's first (initiating) side.
func (s *Service) initiatorTraits(ctx context.Context, a, b diplomacy.CountryID) (diplomacy.PersonalityTraits, error) {
	ta, err := s.GetTraits(ctx, a)
	if err != nil {
		return diplomacy.PersonalityTraits{}, err
	}
	tb, err := s.GetTraits(ctx, b)
	if err != nil {
		return diplomacy.PersonalityTraits{}, err
	}

	if tb.Assertiveness > ta.Assertiveness {
		return tb, nil
	}
	return ta, nil
}
