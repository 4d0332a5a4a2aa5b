// Archetype classification — maps a trait vector to one of six behavioral
// labels. An archetype is always derived from the current vector, never
// stored as independent state.
package diplomacy

import "math"

// Archetype is the discrete behavioral label of an NPC country.
type Archetype uint8

const (
	AggressiveExpansionist Archetype = iota
	SecurityHawk
	IdeologicalCrusader
	PragmaticTrader
	CulturalDiplomat
	DefensiveIsolationist
)

// String returns the archetype name used in storage and API payloads.
func (a Archetype) String() string {
	switch a {
	case AggressiveExpansionist:
		return "AGGRESSIVE_EXPANSIONIST"
	case SecurityHawk:
		return "SECURITY_HAWK"
	case IdeologicalCrusader:
		return "IDEOLOGICAL_CRUSADER"
	case PragmaticTrader:
		return "PRAGMATIC_TRADER"
	case CulturalDiplomat:
		return "CULTURAL_DIPLOMAT"
	case DefensiveIsolationist:
		return "DEFENSIVE_ISOLATIONIST"
	}
	return "UNKNOWN"
}

// defaultArchetypeRules declares the six archetypes in their evaluation
// priority order. The order is the classifier's tie-break rule: the first
// rule whose every range matches wins. Reordering changes behavior.
func defaultArchetypeRules() []ArchetypeRule {
	return []ArchetypeRule{
		{Archetype: AggressiveExpansionist, Ranges: []TraitRange{
			{Trait: TraitAssertiveness, Min: 80, Max: 100},
			{Trait: TraitMilitarism, Min: 70, Max: 100},
			{Trait: TraitCooperativeness, Min: 0, Max: 40},
		}},
		{Archetype: SecurityHawk, Ranges: []TraitRange{
			{Trait: TraitMilitarism, Min: 75, Max: 100},
			{Trait: TraitRiskTolerance, Min: 50, Max: 85},
			{Trait: TraitAssertiveness, Min: 60, Max: 90},
		}},
		{Archetype: IdeologicalCrusader, Ranges: []TraitRange{
			{Trait: TraitIdeologicalRigidity, Min: 75, Max: 100},
			{Trait: TraitAssertiveness, Min: 55, Max: 100},
			{Trait: TraitCulturalOpenness, Min: 0, Max: 45},
		}},
		{Archetype: PragmaticTrader, Ranges: []TraitRange{
			{Trait: TraitEconomicFocus, Min: 70, Max: 100},
			{Trait: TraitCooperativeness, Min: 55, Max: 100},
			{Trait: TraitRiskTolerance, Min: 30, Max: 70},
		}},
		{Archetype: CulturalDiplomat, Ranges: []TraitRange{
			{Trait: TraitCulturalOpenness, Min: 70, Max: 100},
			{Trait: TraitCooperativeness, Min: 60, Max: 100},
			{Trait: TraitMilitarism, Min: 0, Max: 40},
		}},
		{Archetype: DefensiveIsolationist, Ranges: []TraitRange{
			{Trait: TraitIsolationism, Min: 65, Max: 100},
			{Trait: TraitRiskTolerance, Min: 0, Max: 40},
			{Trait: TraitAssertiveness, Min: 0, Max: 50},
		}},
	}
}

// ClassifyArchetype returns the archetype for a trait vector. Rules are
// tried in declared priority order; when none match, the archetype whose
// range centers are closest to the vector (Euclidean distance over its own
// defining traits) wins, so classification never fails.
func ClassifyArchetype(cfg *Config, traits PersonalityTraits) Archetype {
	for _, rule := range cfg.Archetypes {
		if matchesRule(rule, &traits) {
			return rule.Archetype
		}
	}
	return nearestArchetype(cfg, &traits)
}

func matchesRule(rule ArchetypeRule, t *PersonalityTraits) bool {
	for _, r := range rule.Ranges {
		v := t.Get(r.Trait)
		if v < r.Min || v > r.Max {
			return false
		}
	}
	return true
}

// nearestArchetype is the deterministic fallback: minimum Euclidean distance
// between the vector and each rule's range centers, ties resolved by
// declaration order.
func nearestArchetype(cfg *Config, t *PersonalityTraits) Archetype {
	best := cfg.Archetypes[0].Archetype
	bestDist := math.Inf(1)

	for _, rule := range cfg.Archetypes {
		sum := 0.0
		for _, r := range rule.Ranges {
			d := t.Get(r.Trait) - r.Center()
			sum += d * d
		}
		dist := math.Sqrt(sum)
		if dist < bestDist {
			bestDist = dist
			best = rule.Archetype
		}
	}
	return best
}
