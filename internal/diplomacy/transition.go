// Relationship state transitions — a probabilistic state machine over the
// five pairwise diplomatic statuses. The graph is fully connected and
// persistent: relationships cycle indefinitely, there is no terminal state.
package diplomacy

// TransitionRow is the modified outgoing probability distribution for one
// source state, indexed by destination state. Rows always sum to 1: the
// self-transition absorbs whatever mass the configured transitions leave
// unclaimed.
type TransitionRow [NumStates]float64

// TransitionRowFor computes the outgoing probabilities from the given state,
// with the initiating country's trait modifiers already applied. The base
// table stores off-diagonal entries only; if modifiers push the outgoing sum
// past 1 the row is scaled back proportionally rather than rejected (the
// table is treated as raw multiplier input, not a validated stochastic
// matrix).
func TransitionRowFor(cfg *Config, from RelationshipState, traits PersonalityTraits) TransitionRow {
	var row TransitionRow

	for _, e := range cfg.Transition.Base {
		if e.From == from {
			row[e.To] = e.P
		}
	}

	for _, m := range cfg.Transition.Modifiers {
		if m.From != from {
			continue
		}
		if traits.Get(m.Trait) > m.Threshold {
			row[m.To] *= m.Multiplier
		}
	}

	outgoing := 0.0
	for to := range row {
		if RelationshipState(to) != from {
			outgoing += row[to]
		}
	}
	if outgoing > 1 {
		scale := 1 / outgoing
		for to := range row {
			row[to] *= scale
		}
		outgoing = 1
	}
	row[from] = 1 - outgoing

	return row
}

// SampleTransition draws the next state from the modified distribution using
// u, a uniform float in [0,1). Passing the random draw in keeps the
// computation pure; deterministic replays feed a seeded source.
func SampleTransition(cfg *Config, from RelationshipState, traits PersonalityTraits, u float64) RelationshipState {
	row := TransitionRowFor(cfg, from, traits)

	cum := 0.0
	for to := 0; to < NumStates; to++ {
		if RelationshipState(to) == from {
			continue
		}
		cum += row[to]
		if u < cum {
			return RelationshipState(to)
		}
	}
	// Remaining mass is the self-transition.
	return from
}
