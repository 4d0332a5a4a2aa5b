package diplomacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionRowSumsToOne(t *testing.T) {
	cfg := DefaultConfig()

	vectors := []PersonalityTraits{
		NeutralTraits(),
		securityHawkTraits(),
		{Cooperativeness: 100, Assertiveness: 100},
	}

	for _, traits := range vectors {
		for from := RelationshipState(0); from < NumStates; from++ {
			row := TransitionRowFor(cfg, from, traits)

			sum := 0.0
			for _, p := range row {
				require.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "from %v traits %+v", from, traits)
		}
	}
}

func TestTransitionAssertivenessModifiers(t *testing.T) {
	cfg := DefaultConfig()

	assertive := NeutralTraits()
	assertive.Assertiveness = 80

	row := TransitionRowFor(cfg, StateTense, assertive)
	// 0.08 × 1.3.
	assert.InDelta(t, 0.104, row[StateHostile], 1e-9)

	row = TransitionRowFor(cfg, StateFriendly, assertive)
	// 0.07 × 1.15.
	assert.InDelta(t, 0.0805, row[StateNeutral], 1e-9)

	// At the threshold exactly, no modifier fires.
	borderline := NeutralTraits()
	borderline.Assertiveness = 75
	row = TransitionRowFor(cfg, StateTense, borderline)
	assert.InDelta(t, 0.08, row[StateHostile], 1e-9)
}

func TestTransitionCooperativenessModifiers(t *testing.T) {
	cfg := DefaultConfig()

	cooperative := NeutralTraits()
	cooperative.Cooperativeness = 90

	row := TransitionRowFor(cfg, StateNeutral, cooperative)
	// 0.08 × 1.4.
	assert.InDelta(t, 0.112, row[StateFriendly], 1e-9)

	row = TransitionRowFor(cfg, StateHostile, cooperative)
	// 0.10 × 1.25.
	assert.InDelta(t, 0.125, row[StateTense], 1e-9)
}

func TestTransitionRowOverflowScaledProportionally(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transition.Base = []TransitionEntry{
		{From: StateNeutral, To: StateFriendly, P: 0.9},
		{From: StateNeutral, To: StateTense, P: 0.6},
	}

	row := TransitionRowFor(cfg, StateNeutral, NeutralTraits())

	// Outgoing mass 1.5 scales back to 1; nothing left for staying put.
	assert.InDelta(t, 0.6, row[StateFriendly], 1e-9)
	assert.InDelta(t, 0.4, row[StateTense], 1e-9)
	assert.InDelta(t, 0, row[StateNeutral], 1e-9)
}

func TestSampleTransitionWalksCumulative(t *testing.T) {
	cfg := DefaultConfig()
	traits := NeutralTraits()

	// From TENSE: HOSTILE 0.08, NEUTRAL 0.12, stay 0.80, in state order.
	assert.Equal(t, StateHostile, SampleTransition(cfg, StateTense, traits, 0.05))
	assert.Equal(t, StateNeutral, SampleTransition(cfg, StateTense, traits, 0.10))
	assert.Equal(t, StateTense, SampleTransition(cfg, StateTense, traits, 0.25))
	assert.Equal(t, StateTense, SampleTransition(cfg, StateTense, traits, 0.999))
}

func TestSampleTransitionAlliedMostlyHolds(t *testing.T) {
	cfg := DefaultConfig()
	traits := NeutralTraits()

	assert.Equal(t, StateFriendly, SampleTransition(cfg, StateAllied, traits, 0.01))
	assert.Equal(t, StateAllied, SampleTransition(cfg, StateAllied, traits, 0.5))
}
