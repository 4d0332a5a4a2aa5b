// Package worldgen builds a synthetic diplomatic world: a roster of NPC
// countries with noise-derived relationship metrics and a relation graph.
// Layered simplex noise gives each country a stable "geopolitical texture"
// that evolves smoothly from tick to tick instead of jumping randomly.
package worldgen

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/statecraft/internal/diplomacy"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Countries int   // Number of NPC countries
	Regions   int   // Number of geographic regions to spread them over
	Seed      int64 // Random seed (0 = random)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Countries: 24,
		Regions:   4,
		Seed:      0,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Countries: 6,
		Regions:   2,
		Seed:      42,
	}
}

// World is the generated starting state.
type World struct {
	Seed      int64
	Countries []*diplomacy.Country
	Relations []diplomacy.RelationPair
}

var regionNames = []string{
	"Thalassia", "Korvath", "Meridia", "Ostmark",
	"Vendrel", "Qirat", "Sunda Reach", "Hyrkania",
}

var namePrefixes = []string{
	"Al", "Bel", "Cor", "Dra", "Est", "Fir", "Gal", "Hel",
	"Ist", "Jor", "Kal", "Lor", "Mor", "Nar", "Ost", "Pel",
	"Qar", "Rav", "Sar", "Tal", "Ul", "Vey", "Wes", "Zar",
}

var nameSuffixes = []string{
	"adia", "berg", "covia", "dor", "enia", "gard", "heim",
	"ia", "land", "mark", "nia", "ovia", "stan", "thia", "wick",
}

// Generate creates a complete world: countries with metrics-derived traits
// and a full mesh of directed relations. The same seed always produces the
// same world.
func Generate(cfg *diplomacy.Config, gen GenConfig) *World {
	seed := gen.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	// Independent noise layers per metric family.
	hostilityNoise := opensimplex.NewNormalized(seed)
	commerceNoise := opensimplex.NewNormalized(seed + 1)
	cultureNoise := opensimplex.NewNormalized(seed + 2)

	w := &World{Seed: seed}

	for i := 0; i < gen.Countries; i++ {
		id := diplomacy.CountryID(i + 1)
		regions := max(gen.Regions, 1)
		region := regionNames[i%regions%len(regionNames)]

		metrics := sampleMetrics(hostilityNoise, commerceNoise, cultureNoise, float64(i), 0)

		c := &diplomacy.Country{
			ID:      id,
			Name:    countryName(rng),
			Region:  region,
			Traits:  diplomacy.ComputeTraits(cfg, metrics),
			Metrics: metrics,
		}
		w.Countries = append(w.Countries, c)
	}

	// Directed relations: every ordered pair starts from a noise-seeded
	// state so the sides of a pair can disagree.
	for _, a := range w.Countries {
		for _, b := range w.Countries {
			if a.ID == b.ID {
				continue
			}
			u := hostilityNoise.Eval2(float64(a.ID)*0.37, float64(b.ID)*0.37)
			w.Relations = append(w.Relations, diplomacy.RelationPair{
				A:        a.ID,
				B:        b.ID,
				State:    initialState(u),
				Strength: 30 + u*40,
			})
		}
	}

	return w
}

// EvolveMetrics resamples a country's metric snapshot at a later point on
// its noise track. Counts move by whole steps; ratios drift smoothly.
func EvolveMetrics(seed int64, c *diplomacy.Country, tick uint64) diplomacy.RelationshipMetricsSnapshot {
	hostilityNoise := opensimplex.NewNormalized(seed)
	commerceNoise := opensimplex.NewNormalized(seed + 1)
	cultureNoise := opensimplex.NewNormalized(seed + 2)

	t := float64(tick) / 2000.0
	return sampleMetrics(hostilityNoise, commerceNoise, cultureNoise, float64(c.ID-1), t)
}

// sampleMetrics reads one country's metric snapshot at time offset t along
// its noise track. Each country occupies its own row in noise space.
func sampleMetrics(hostility, commerce, culture opensimplex.Noise, row, t float64) diplomacy.RelationshipMetricsSnapshot {
	h := octaveNotch(hostility, t, row, 3, 0.11)
	c := octaveNotch(commerce, t, row, 3, 0.07)
	k := octaveNotch(culture, t, row, 2, 0.09)

	return diplomacy.RelationshipMetricsSnapshot{
		HostileCount:           int(h * 5),
		WeakCount:              int(octaveNotch(hostility, t, row+0.5, 2, 0.13) * 4),
		ConflictCount:          int(h * 3),
		FailedNegotiations:     int(h * 2),
		AllianceCount:          int(c * 3),
		FriendlyCount:          int(c * 5),
		TreatyCount:            int(c * 4),
		JointMissionCount:      int(k * 2),
		TradeToGDP:             0.1 + c*0.5,
		EconomicEmbassies:      int(c * 6),
		CulturalEmbassies:      int(k * 6),
		MilitaryEmbassies:      int(h * 6),
		CulturalExchangeLevel:  k * 100,
		PolicyVolatility:       octaveNotch(culture, t, row+0.5, 2, 0.15) * 100,
		FluctuationCount:       int(h * 4),
		AllianceDurationMonths: int(c * 60),
		MilitaryBudgetPercent:  1 + h*9,
		RegionalConcentration:  math.Min(0.2+k*0.8, 1.0),
	}
}

// octaveNotch is multi-octave normalized noise sampled along a track.
func octaveNotch(noise opensimplex.Noise, x, y float64, octaves int, frequency float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= 0.5
		frequency *= 2
	}

	return total / maxVal
}

func initialState(u float64) diplomacy.RelationshipState {
	switch {
	case u < 0.12:
		return diplomacy.StateHostile
	case u < 0.35:
		return diplomacy.StateTense
	case u < 0.70:
		return diplomacy.StateNeutral
	case u < 0.92:
		return diplomacy.StateFriendly
	default:
		return diplomacy.StateAllied
	}
}

func countryName(rng *rand.Rand) string {
	return fmt.Sprintf("%s%s",
		namePrefixes[rng.Intn(len(namePrefixes))],
		nameSuffixes[rng.Intn(len(nameSuffixes))])
}
