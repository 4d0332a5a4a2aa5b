package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/cache"
	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/persistence"
)

// fixedSource returns the same draw every time, pinning sampled outcomes.
type fixedSource float64

func (f fixedSource) Float() float64 { return float64(f) }

func openTestService(t *testing.T, sampler fixedSource) *Service {
	t.Helper()

	db, err := persistence.Open(filepath.Join(t.TempDir(), "statecraft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	tc := cache.New(mr.Addr(), 0)
	t.Cleanup(func() { tc.Close() })

	return NewService(db, tc, diplomacy.DefaultConfig(), sampler)
}

func seedCountry(t *testing.T, s *Service, id diplomacy.CountryID, name string, traits diplomacy.PersonalityTraits) {
	t.Helper()
	require.NoError(t, s.DB().SaveCountry(&diplomacy.Country{
		ID:     id,
		Name:   name,
		Region: "Thalassia",
		Traits: traits,
	}))
}

func TestRefreshTraitsRecomputesAndCaches(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())

	metrics := diplomacy.RelationshipMetricsSnapshot{
		HostileCount: 3,
		WeakCount:    2,
		TreatyCount:  1,
		TradeToGDP:   0.4,
	}

	got, err := s.RefreshTraits(ctx, 1, metrics)
	require.NoError(t, err)
	assert.Equal(t, diplomacy.ComputeTraits(s.Config(), metrics), got)

	// The store now holds the recomputed vector at a bumped version.
	c, err := s.DB().GetCountry(1)
	require.NoError(t, err)
	assert.Equal(t, got, c.Traits)
	assert.Equal(t, uint64(1), c.Version)
	assert.Equal(t, metrics, c.Metrics)

	// Reads after a refresh come from the cache.
	cached, err := s.GetTraits(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, got, cached)
	assert.GreaterOrEqual(t, s.Stats.CacheHits.Load(), int64(1))
}

func TestGetTraitsUnknownCountry(t *testing.T) {
	s := openTestService(t, 0.5)

	_, err := s.GetTraits(context.Background(), 404)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestApplyDriftRecordsAudit(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())

	exp := diplomacy.Experience{
		ID:        "exp-1",
		CountryID: 1,
		Kind:      diplomacy.ExpConflict,
	}
	require.NoError(t, s.DB().AddExperience(exp))

	after, rec, err := s.ApplyDrift(ctx, 1, []diplomacy.Experience{exp}, 1.0)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.InDelta(t, 51.0, after.Assertiveness, 1e-9)
	assert.InDelta(t, 51.0, after.Militarism, 1e-9)
	assert.InDelta(t, 49.5, after.Cooperativeness, 1e-9)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, diplomacy.CountryID(1), rec.CountryID)
	assert.Equal(t, diplomacy.NeutralTraits(), rec.Before)
	assert.Equal(t, after, rec.After)
	assert.Equal(t, []string{"exp-1"}, rec.ExperienceIDs)
	assert.NotZero(t, rec.Timestamp)

	// The record survives in the store and the experience is consumed.
	history, err := s.DB().TraitChanges(1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)

	pending, err := s.DB().PendingExperiences(1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApplyDriftEmptyWindowIsNoOp(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())

	after, rec, err := s.ApplyDrift(ctx, 1, nil, 1.0)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, diplomacy.NeutralTraits(), after)

	c, err := s.DB().GetCountry(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.Version)
}

func TestApplyDriftSerializesConcurrentWriters(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			exp := diplomacy.Experience{
				ID:        string(rune('a' + n)),
				CountryID: 1,
				Kind:      diplomacy.ExpConflict,
			}
			_, _, err := s.ApplyDrift(ctx, 1, []diplomacy.Experience{exp}, 1.0)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Every writer's +1 assertiveness landed; none were lost.
	c, err := s.DB().GetCountry(1)
	require.NoError(t, err)
	assert.InDelta(t, 50+float64(writers), c.Traits.Assertiveness, 1e-9)
	assert.Equal(t, uint64(writers), c.Version)
}

func TestDriftCycleConsumesPending(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())

	require.NoError(t, s.DB().AddExperience(diplomacy.Experience{
		ID: "exp-1", CountryID: 1, Kind: diplomacy.ExpTradeSuccess,
	}))

	after, err := s.DriftCycle(ctx, 1, 1.0)
	require.NoError(t, err)
	assert.Greater(t, after.EconomicFocus, 50.0)

	pending, err := s.DB().PendingExperiences(1)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A second cycle finds nothing and changes nothing.
	again, err := s.DriftCycle(ctx, 1, 1.0)
	require.NoError(t, err)
	assert.Equal(t, after, again)
}

func assertiveTraits() diplomacy.PersonalityTraits {
	t := diplomacy.NeutralTraits()
	t.Assertiveness = 80
	return t
}

func TestTransitionProbabilitiesUseMoreAssertiveSide(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())
	seedCountry(t, s, 2, "Veyland", assertiveTraits())

	require.NoError(t, s.DB().SaveRelation(diplomacy.RelationPair{
		A: 1, B: 2, State: diplomacy.StateTense, Strength: 40,
	}))

	state, row, err := s.TransitionProbabilities(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, diplomacy.StateTense, state)

	// Veyland's assertiveness drives the hostile modifier: 0.08 × 1.3.
	assert.InDelta(t, 0.104, row[diplomacy.StateHostile], 1e-9)
}

func TestSampleTransitionPersistsChange(t *testing.T) {
	// A low draw from TENSE lands in the HOSTILE band.
	s := openTestService(t, 0.05)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", assertiveTraits())
	seedCountry(t, s, 2, "Veyland", diplomacy.NeutralTraits())

	require.NoError(t, s.DB().SaveRelation(diplomacy.RelationPair{
		A: 1, B: 2, State: diplomacy.StateTense, Strength: 40,
	}))

	next, err := s.SampleTransition(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, diplomacy.StateHostile, next)

	pair, err := s.DB().GetRelation(1, 2)
	require.NoError(t, err)
	assert.Equal(t, diplomacy.StateHostile, pair.State)

	events := s.RecentEvents(10)
	require.Len(t, events, 1)
	assert.Equal(t, "transition", events[0].Category)
}

func TestSampleTransitionHoldsOnHighDraw(t *testing.T) {
	s := openTestService(t, 0.99)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())
	seedCountry(t, s, 2, "Veyland", diplomacy.NeutralTraits())

	require.NoError(t, s.DB().SaveRelation(diplomacy.RelationPair{
		A: 1, B: 2, State: diplomacy.StateTense, Strength: 40,
	}))

	next, err := s.SampleTransition(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, diplomacy.StateTense, next)
	assert.Empty(t, s.RecentEvents(10))
}

func TestPredictResponseUsesStoredTraits(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()
	seedCountry(t, s, 1, "Ostravia", diplomacy.NeutralTraits())

	resp, err := s.PredictResponse(ctx, 1, diplomacy.Proposal{
		Type: diplomacy.ProposalTradeAgreement,
	}, 50, diplomacy.HistoricalContext{})
	require.NoError(t, err)

	want, err := diplomacy.PredictResponse(s.Config(), diplomacy.NeutralTraits(),
		diplomacy.ClassifyArchetype(s.Config(), diplomacy.NeutralTraits()),
		diplomacy.Proposal{Type: diplomacy.ProposalTradeAgreement}, 50, diplomacy.HistoricalContext{})
	require.NoError(t, err)
	assert.Equal(t, want, resp)
	assert.Equal(t, int64(1), s.Stats.Predictions.Load())
}

func TestSelectScenarioChoice(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()

	hawk := diplomacy.NeutralTraits()
	hawk.Assertiveness = 90
	hawk.Militarism = 90
	seedCountry(t, s, 1, "Ostravia", hawk)

	scenario := diplomacy.Scenario{
		ID:    "border-incident",
		Title: "Border Incident",
		Choices: []diplomacy.Choice{
			{ID: "mobilize", Label: "Mobilize forces", Tone: diplomacy.ToneAggressive},
			{ID: "summit", Label: "Call a summit", Tone: diplomacy.ToneConciliatory},
		},
	}

	choice, err := s.SelectScenarioChoice(ctx, 1, scenario)
	require.NoError(t, err)
	assert.Equal(t, diplomacy.ChoiceID("mobilize"), choice)
}

func TestRefreshAll(t *testing.T) {
	s := openTestService(t, 0.5)
	ctx := context.Background()

	for id := diplomacy.CountryID(1); id <= 3; id++ {
		c := &diplomacy.Country{
			ID:     id,
			Name:   "Country",
			Traits: diplomacy.NeutralTraits(),
			Metrics: diplomacy.RelationshipMetricsSnapshot{
				AllianceCount: int(id),
			},
		}
		require.NoError(t, s.DB().SaveCountry(c))
	}

	n, err := s.RefreshAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for id := diplomacy.CountryID(1); id <= 3; id++ {
		c, err := s.DB().GetCountry(id)
		require.NoError(t, err)
		assert.InDelta(t, 50+15*float64(id), c.Traits.Cooperativeness, 1e-9)
	}
}
