// Trait drift — bounded, time-proportional evolution of a trait vector
// driven by accumulated experiences.
package diplomacy

// ApplyDrift folds a window of experiences into the trait vector. Deltas
// are summed per trait first, the sum is clamped to ±(cap × elapsedYears),
// and only then applied — the cap bounds the window total, not individual
// contributions. Results are clamped to [0,100].
//
// The function keeps no history: replaying the same experiences produces
// the same drift again. Marking experiences consumed so a window is never
// replayed is the caller's contract.
func ApplyDrift(cfg *Config, traits PersonalityTraits, experiences []Experience, elapsedYears float64) PersonalityTraits {
	// A non-positive window would invert the cap; treat it as no time passed.
	if elapsedYears <= 0 || len(experiences) == 0 {
		return traits
	}

	var sum TraitVector
	for _, exp := range experiences {
		delta, ok := cfg.Drift.Deltas[exp.Kind]
		if !ok {
			continue // Unknown kinds carry no signature and drift nothing.
		}
		for i := range sum {
			sum[i] += delta[i]
		}
	}

	maxDrift := cfg.Drift.MaxPerTraitPerYear * elapsedYears

	for i := range sum {
		d := sum[i]
		if d > maxDrift {
			d = maxDrift
		} else if d < -maxDrift {
			d = -maxDrift
		}
		name := TraitName(i)
		traits.Set(name, traits.Get(name)+d)
	}

	return traits
}
