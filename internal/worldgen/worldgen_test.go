package worldgen

import (
	"testing"

	"github.com/talgya/statecraft/internal/diplomacy"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := diplomacy.DefaultConfig()
	gen := SmallTestConfig()

	w1 := Generate(cfg, gen)
	w2 := Generate(cfg, gen)

	if len(w1.Countries) != gen.Countries {
		t.Fatalf("countries = %d, want %d", len(w1.Countries), gen.Countries)
	}
	for i := range w1.Countries {
		a, b := w1.Countries[i], w2.Countries[i]
		if a.Name != b.Name || a.Traits != b.Traits || a.Metrics != b.Metrics {
			t.Errorf("country %d differs between runs with same seed", a.ID)
		}
	}
	for i := range w1.Relations {
		if w1.Relations[i] != w2.Relations[i] {
			t.Errorf("relation %d differs between runs with same seed", i)
		}
	}
}

func TestGenerateFullRelationMesh(t *testing.T) {
	w := Generate(diplomacy.DefaultConfig(), SmallTestConfig())

	n := len(w.Countries)
	if got, want := len(w.Relations), n*(n-1); got != want {
		t.Fatalf("relations = %d, want %d", got, want)
	}

	seen := make(map[string]bool)
	for _, r := range w.Relations {
		if r.A == r.B {
			t.Errorf("self-relation for country %d", r.A)
		}
		if seen[r.Key()] {
			t.Errorf("duplicate relation %s", r.Key())
		}
		seen[r.Key()] = true
		if r.Strength < 0 || r.Strength > 100 {
			t.Errorf("relation %s strength %v out of range", r.Key(), r.Strength)
		}
	}
}

func TestGeneratedTraitsInBounds(t *testing.T) {
	w := Generate(diplomacy.DefaultConfig(), DefaultGenConfig())

	for _, c := range w.Countries {
		for name := diplomacy.TraitName(0); name < diplomacy.NumTraits; name++ {
			v := c.Traits.Get(name)
			if v < 0 || v > 100 {
				t.Errorf("country %d trait %d = %v out of [0,100]", c.ID, name, v)
			}
		}
		if c.Metrics.RegionalConcentration < 0 || c.Metrics.RegionalConcentration > 1 {
			t.Errorf("country %d regional concentration %v out of [0,1]",
				c.ID, c.Metrics.RegionalConcentration)
		}
	}
}

func TestEvolveMetricsMovesSmoothly(t *testing.T) {
	cfg := diplomacy.DefaultConfig()
	w := Generate(cfg, SmallTestConfig())
	c := w.Countries[0]

	// Tick zero reproduces the generated snapshot.
	if got := EvolveMetrics(w.Seed, c, 0); got != c.Metrics {
		t.Fatalf("tick-zero snapshot differs from generated: %+v vs %+v", got, c.Metrics)
	}

	// Later snapshots stay in range.
	m := EvolveMetrics(w.Seed, c, 50000)
	if m.TradeToGDP < 0 || m.TradeToGDP > 1 {
		t.Errorf("trade ratio %v out of [0,1]", m.TradeToGDP)
	}
	if m.HostileCount < 0 {
		t.Errorf("hostile count %d negative", m.HostileCount)
	}
}
