package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/diplomacy"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "statecraft_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCountryRoundtrip(t *testing.T) {
	db := openTestDB(t)

	traits := diplomacy.NeutralTraits()
	traits.Militarism = 82

	want := &diplomacy.Country{
		ID:      7,
		Name:    "Velmora",
		Region:  "Sarpedon",
		Traits:  traits,
		Version: 1,
		Metrics: diplomacy.RelationshipMetricsSnapshot{AllianceCount: 2, TradeToGDP: 0.4},
	}
	require.NoError(t, db.SaveCountry(want))

	got, err := db.GetCountry(7)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.True(t, db.HasCountries())
}

func TestGetCountryNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetCountry(404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTraitsVersionGuard(t *testing.T) {
	db := openTestDB(t)

	c := &diplomacy.Country{ID: 1, Name: "Arlen", Region: "North", Traits: diplomacy.NeutralTraits(), Version: 1}
	require.NoError(t, db.SaveCountry(c))

	next := c.Traits
	next.Assertiveness = 60
	require.NoError(t, db.UpdateTraits(1, next, 1))

	// The stale version loses.
	err := db.UpdateTraits(1, next, 1)
	require.ErrorIs(t, err, ErrVersionConflict)

	got, err := db.GetCountry(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Version)
	assert.InDelta(t, 60, got.Traits.Assertiveness, 1e-9)
}

func TestRelationRoundtrip(t *testing.T) {
	db := openTestDB(t)

	pair := diplomacy.RelationPair{A: 1, B: 2, State: diplomacy.StateTense, Strength: 35}
	require.NoError(t, db.SaveRelation(pair))

	got, err := db.GetRelation(1, 2)
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	// Order matters: the reverse pair is a distinct relationship.
	_, err = db.GetRelation(2, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExperienceConsumption(t *testing.T) {
	db := openTestDB(t)

	exps := []diplomacy.Experience{
		{ID: "e1", CountryID: 3, Kind: diplomacy.ExpConflict, OccurredAt: 100},
		{ID: "e2", CountryID: 3, Kind: diplomacy.ExpTradeSuccess, OccurredAt: 200},
		{ID: "e3", CountryID: 4, Kind: diplomacy.ExpConflict, OccurredAt: 150},
	}
	for _, e := range exps {
		require.NoError(t, db.AddExperience(e))
	}

	pending, err := db.PendingExperiences(3)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e1", pending[0].ID)
	assert.Equal(t, "e2", pending[1].ID)

	require.NoError(t, db.MarkExperiencesConsumed([]string{"e1", "e2"}))

	pending, err = db.PendingExperiences(3)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Country 4's window is untouched.
	pending, err = db.PendingExperiences(4)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestAddExperienceIdempotent(t *testing.T) {
	db := openTestDB(t)

	e := diplomacy.Experience{ID: "dup", CountryID: 1, Kind: diplomacy.ExpEconomicLoss, OccurredAt: 1}
	require.NoError(t, db.AddExperience(e))
	require.NoError(t, db.AddExperience(e))

	pending, err := db.PendingExperiences(1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestTraitChangeAuditTrail(t *testing.T) {
	db := openTestDB(t)

	before := diplomacy.NeutralTraits()
	after := before
	after.Cooperativeness = 52

	rec := TraitChangeRecord{
		ID:            "rec-1",
		CountryID:     9,
		Before:        before,
		After:         after,
		ExperienceIDs: []string{"e1", "e2"},
		Timestamp:     1234,
	}
	require.NoError(t, db.SaveTraitChange(rec))

	recs, err := db.TraitChanges(9, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec, recs[0])
}

func TestEventsAndMeta(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveEvents([]Event{
		{Tick: 1, Description: "Velmora turned hostile toward Arlen", Category: "transition"},
		{Tick: 2, Description: "Arlen drifted toward isolationism", Category: "drift"},
	}))

	events, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[0].Tick) // Most recent first.

	require.NoError(t, db.SaveMeta("last_tick", "42"))
	v, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestSaveAll(t *testing.T) {
	db := openTestDB(t)

	countries := []*diplomacy.Country{
		{ID: 1, Name: "Arlen", Region: "North", Traits: diplomacy.NeutralTraits(), Version: 1},
		{ID: 2, Name: "Velmora", Region: "South", Traits: diplomacy.NeutralTraits(), Version: 1},
	}
	relations := []diplomacy.RelationPair{
		{A: 1, B: 2, State: diplomacy.StateNeutral, Strength: 50},
	}

	require.NoError(t, db.SaveAll(countries, relations))

	listed, err := db.ListCountries()
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	pairs, err := db.ListRelations()
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}
