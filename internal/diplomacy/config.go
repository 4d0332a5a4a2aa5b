// Package diplomacy — behavior configuration.
// All weights, caps, archetype ranges, and modifier tables live here rather
// than as scattered constants, so a behavior change is a config change with
// its own version stamp.
package diplomacy

// Config bundles every tunable of the behavior engine. Components take it
// explicitly; there is no package-level mutable state.
type Config struct {
	Version string `json:"version"`

	Traits     TraitWeights     `json:"traits"`
	Archetypes []ArchetypeRule  `json:"archetypes"`
	Response   ResponseConfig   `json:"response"`
	Choice     ChoiceConfig     `json:"choice"`
	Drift      DriftConfig      `json:"drift"`
	Transition TransitionConfig `json:"transition"`
}

// TraitWeights holds the linear-combination coefficients of the trait
// calculator. Every trait starts from Base and adds its own weighted metric
// fields.
type TraitWeights struct {
	Base float64 `json:"base"` // 50 — the neutral anchor for every trait

	// Assertiveness.
	AssertHostile   float64 `json:"assert_hostile"`
	AssertWeak      float64 `json:"assert_weak"`
	AssertConflict  float64 `json:"assert_conflict"`
	AssertFailedNeg float64 `json:"assert_failed_neg"`

	// Cooperativeness.
	CoopAlliance     float64 `json:"coop_alliance"`
	CoopFriendly     float64 `json:"coop_friendly"`
	CoopTreaty       float64 `json:"coop_treaty"`
	CoopJointMission float64 `json:"coop_joint_mission"`

	// Economic focus.
	EconTradeRatio float64 `json:"econ_trade_ratio"`
	EconEmbassy    float64 `json:"econ_embassy"`
	EconTreaty     float64 `json:"econ_treaty"`

	// Cultural openness.
	CultEmbassy  float64 `json:"cult_embassy"`
	CultExchange float64 `json:"cult_exchange"`
	CultFriendly float64 `json:"cult_friendly"`

	// Risk tolerance.
	RiskVolatility  float64 `json:"risk_volatility"`
	RiskFluctuation float64 `json:"risk_fluctuation"`
	RiskAllianceAge float64 `json:"risk_alliance_age"` // Negative: long alliances breed caution

	// Ideological rigidity.
	RigidVolatility  float64 `json:"rigid_volatility"` // Negative: volatile policy is flexible policy
	RigidAllianceAge float64 `json:"rigid_alliance_age"`
	RigidFailedNeg   float64 `json:"rigid_failed_neg"`

	// Militarism.
	MilBudget   float64 `json:"mil_budget"`
	MilConflict float64 `json:"mil_conflict"`
	MilHostile  float64 `json:"mil_hostile"`
	MilEmbassy  float64 `json:"mil_embassy"`

	// Isolationism.
	IsoEmbassy  float64 `json:"iso_embassy"`  // Negative
	IsoTreaty   float64 `json:"iso_treaty"`   // Negative
	IsoFriendly float64 `json:"iso_friendly"` // Negative

	// Regional concentration bonus: +IsoRegionalBonus when the share of
	// relationships inside the home region exceeds IsoRegionalThreshold.
	IsoRegionalThreshold float64 `json:"iso_regional_threshold"`
	IsoRegionalBonus     float64 `json:"iso_regional_bonus"`
}

// TraitRange is an inclusive [Min,Max] band over a single trait.
type TraitRange struct {
	Trait TraitName `json:"trait"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
}

// Center returns the midpoint of the band, used by the nearest-archetype
// fallback.
func (r TraitRange) Center() float64 {
	return (r.Min + r.Max) / 2
}

// ArchetypeRule defines one archetype as a conjunction of trait ranges.
// Rules are evaluated in slice order; that order is the tie-break and must
// not be reordered.
type ArchetypeRule struct {
	Archetype Archetype    `json:"archetype"`
	Ranges    []TraitRange `json:"ranges"`
}

// ResponseConfig drives the response predictor.
type ResponseConfig struct {
	// Per-proposal-type (trait, coefficient) modifier sets.
	TypeModifiers map[ProposalType][]TraitModifier `json:"type_modifiers"`

	// Step coefficients (spec'd behavior, kept configurable for audits).
	ConcessionPenalty float64 `json:"concession_penalty"` // ×assertiveness, subtracted
	RiskCoeff         float64 `json:"risk_coeff"`         // ×(riskTolerance−50)
	IdeologyCoeff     float64 `json:"ideology_coeff"`     // ×ideologicalAlignment
	IdeologyThreshold float64 `json:"ideology_threshold"` // Rigidity gate

	// Historical multipliers.
	ConflictMultiplier    float64 `json:"conflict_multiplier"`
	CooperationMultiplier float64 `json:"cooperation_multiplier"`
	BrokenPromisePenalty  float64 `json:"broken_promise_penalty"` // Per promise, multiplier floor 0
	RegionalMultiplier    float64 `json:"regional_multiplier"`

	// Archetype → proposal type → multiplicative adjustment.
	ArchetypeAdjustments map[Archetype]map[ProposalType]float64 `json:"archetype_adjustments"`
}

// TraitModifier contributes coefficient × trait value to the accept score.
type TraitModifier struct {
	Trait TraitName `json:"trait"`
	Coeff float64   `json:"coeff"`
}

// ChoiceConfig drives scenario choice scoring.
type ChoiceConfig struct {
	// Tone alignment weights: how strongly the matching trait pair pulls a
	// choice's score above the neutral floor.
	AggressiveWeight   float64 `json:"aggressive_weight"`   // × mean(assertiveness, militarism)
	ConciliatoryWeight float64 `json:"conciliatory_weight"` // × mean(cooperativeness, culturalOpenness)
	NeutralScore       float64 `json:"neutral_score"`       // Flat baseline for neutral tone

	// Cost penalty for choices that spend a resource; cautious countries
	// (low risk tolerance) are penalized harder.
	ResourcePenalty float64 `json:"resource_penalty"` // × (100−riskTolerance)/100

	// Archetype tone affinity bonus added when the archetype's preferred
	// tone matches the choice.
	ToneAffinity  map[Archetype]ChoiceTone `json:"tone_affinity"`
	AffinityBonus float64                  `json:"affinity_bonus"`
}

// DriftConfig holds the per-experience-kind trait delta signatures and the
// drift cap.
type DriftConfig struct {
	// MaxPerTraitPerYear caps the absolute accumulated delta of any one
	// trait at MaxPerTraitPerYear × elapsedYears, applied to the sum, not
	// the per-experience contributions.
	MaxPerTraitPerYear float64 `json:"max_per_trait_per_year"`

	Deltas map[ExperienceKind]TraitVector `json:"deltas"`
}

// TransitionConfig holds the base transition table and trait modifiers.
// The table lists off-diagonal transitions only; whatever probability mass a
// row leaves unclaimed is the self-transition.
type TransitionConfig struct {
	Base      []TransitionEntry    `json:"base"`
	Modifiers []TransitionModifier `json:"modifiers"`
}

// TransitionEntry is one base transition probability.
type TransitionEntry struct {
	From RelationshipState `json:"from"`
	To   RelationshipState `json:"to"`
	P    float64           `json:"p"`
}

// TransitionModifier multiplies a single table entry when the named trait
// exceeds its threshold.
type TransitionModifier struct {
	Trait      TraitName         `json:"trait"`
	Threshold  float64           `json:"threshold"`
	From       RelationshipState `json:"from"`
	To         RelationshipState `json:"to"`
	Multiplier float64           `json:"multiplier"`
}

// DefaultConfig returns the engine's shipped behavior tuning.
func DefaultConfig() *Config {
	return &Config{
		Version: "v1",
		Traits: TraitWeights{
			Base: 50,

			AssertHostile:   10,
			AssertWeak:      5,
			AssertConflict:  2,
			AssertFailedNeg: 3,

			CoopAlliance:     15,
			CoopFriendly:     8,
			CoopTreaty:       5,
			CoopJointMission: 3,

			EconTradeRatio: 40,
			EconEmbassy:    4,
			EconTreaty:     2,

			CultEmbassy:  6,
			CultExchange: 4,
			CultFriendly: 2,

			RiskVolatility:  5,
			RiskFluctuation: 3,
			RiskAllianceAge: -0.2,

			RigidVolatility:  -4,
			RigidAllianceAge: 0.25,
			RigidFailedNeg:   3,

			MilBudget:   1.5,
			MilConflict: 6,
			MilHostile:  4,
			MilEmbassy:  5,

			IsoEmbassy:  -3,
			IsoTreaty:   -2,
			IsoFriendly: -1,

			IsoRegionalThreshold: 0.8,
			IsoRegionalBonus:     20,
		},
		Archetypes: defaultArchetypeRules(),
		Response: ResponseConfig{
			TypeModifiers: map[ProposalType][]TraitModifier{
				ProposalTradeAgreement: {
					{Trait: TraitEconomicFocus, Coeff: 0.3},
					{Trait: TraitCooperativeness, Coeff: 0.2},
					{Trait: TraitIsolationism, Coeff: -0.15},
				},
				ProposalMilitaryAlliance: {
					{Trait: TraitMilitarism, Coeff: 0.3},
					{Trait: TraitAssertiveness, Coeff: 0.15},
					{Trait: TraitIsolationism, Coeff: -0.25},
				},
				ProposalCulturalExchange: {
					{Trait: TraitCulturalOpenness, Coeff: 0.35},
					{Trait: TraitCooperativeness, Coeff: 0.15},
					{Trait: TraitIdeologicalRigidity, Coeff: -0.2},
				},
				ProposalNonAggressionPact: {
					{Trait: TraitCooperativeness, Coeff: 0.25},
					{Trait: TraitMilitarism, Coeff: -0.1},
					{Trait: TraitRiskTolerance, Coeff: -0.1},
				},
			},
			ConcessionPenalty: 0.4,
			RiskCoeff:         0.3,
			IdeologyCoeff:     0.6,
			IdeologyThreshold: 70,

			ConflictMultiplier:    0.7,
			CooperationMultiplier: 1.15,
			BrokenPromisePenalty:  0.1,
			RegionalMultiplier:    1.1,

			ArchetypeAdjustments: map[Archetype]map[ProposalType]float64{
				AggressiveExpansionist: {
					ProposalTradeAgreement:    0.9,
					ProposalMilitaryAlliance:  1.15,
					ProposalCulturalExchange:  0.8,
					ProposalNonAggressionPact: 0.7,
				},
				SecurityHawk: {
					ProposalTradeAgreement:    0.95,
					ProposalMilitaryAlliance:  1.2,
					ProposalCulturalExchange:  0.85,
					ProposalNonAggressionPact: 0.9,
				},
				IdeologicalCrusader: {
					ProposalTradeAgreement:    0.9,
					ProposalMilitaryAlliance:  1.0,
					ProposalCulturalExchange:  0.75,
					ProposalNonAggressionPact: 0.9,
				},
				PragmaticTrader: {
					ProposalTradeAgreement:    1.25,
					ProposalMilitaryAlliance:  0.85,
					ProposalCulturalExchange:  1.05,
					ProposalNonAggressionPact: 1.1,
				},
				CulturalDiplomat: {
					ProposalTradeAgreement:    1.05,
					ProposalMilitaryAlliance:  0.8,
					ProposalCulturalExchange:  1.3,
					ProposalNonAggressionPact: 1.15,
				},
				DefensiveIsolationist: {
					ProposalTradeAgreement:    0.85,
					ProposalMilitaryAlliance:  0.6,
					ProposalCulturalExchange:  0.9,
					ProposalNonAggressionPact: 1.2,
				},
			},
		},
		Choice: ChoiceConfig{
			AggressiveWeight:   1.0,
			ConciliatoryWeight: 1.0,
			NeutralScore:       50,
			ResourcePenalty:    25,
			ToneAffinity: map[Archetype]ChoiceTone{
				AggressiveExpansionist: ToneAggressive,
				SecurityHawk:           ToneAggressive,
				IdeologicalCrusader:    ToneAggressive,
				PragmaticTrader:        ToneNeutral,
				CulturalDiplomat:       ToneConciliatory,
				DefensiveIsolationist:  ToneNeutral,
			},
			AffinityBonus: 10,
		},
		Drift: DriftConfig{
			MaxPerTraitPerYear: 2.0,
			Deltas:             defaultDriftDeltas(),
		},
		Transition: TransitionConfig{
			Base: []TransitionEntry{
				{From: StateHostile, To: StateTense, P: 0.10},
				{From: StateHostile, To: StateNeutral, P: 0.02},
				{From: StateTense, To: StateHostile, P: 0.08},
				{From: StateTense, To: StateNeutral, P: 0.12},
				{From: StateNeutral, To: StateTense, P: 0.06},
				{From: StateNeutral, To: StateFriendly, P: 0.08},
				{From: StateFriendly, To: StateNeutral, P: 0.07},
				{From: StateFriendly, To: StateAllied, P: 0.05},
				{From: StateAllied, To: StateFriendly, P: 0.04},
			},
			Modifiers: []TransitionModifier{
				{Trait: TraitAssertiveness, Threshold: 75, From: StateTense, To: StateHostile, Multiplier: 1.3},
				{Trait: TraitAssertiveness, Threshold: 75, From: StateFriendly, To: StateNeutral, Multiplier: 1.15},
				{Trait: TraitCooperativeness, Threshold: 75, From: StateNeutral, To: StateFriendly, Multiplier: 1.4},
				{Trait: TraitCooperativeness, Threshold: 75, From: StateHostile, To: StateTense, Multiplier: 1.25},
			},
		},
	}
}

// defaultDriftDeltas is the per-experience-kind trait signature table.
// Vector order follows the TraitName constants.
func defaultDriftDeltas() map[ExperienceKind]TraitVector {
	return map[ExperienceKind]TraitVector{
		ExpTradeSuccess: {
			TraitEconomicFocus:   0.5,
			TraitCooperativeness: 0.25,
		},
		ExpConflict: {
			TraitAssertiveness:   1.0,
			TraitMilitarism:      1.0,
			TraitCooperativeness: -0.5,
		},
		ExpBrokenAgreement: {
			TraitCooperativeness:     -1.0,
			TraitIdeologicalRigidity: 0.5,
			TraitRiskTolerance:       -0.25,
		},
		ExpEconomicLoss: {
			TraitEconomicFocus: -0.5,
			TraitIsolationism:  0.5,
		},
		ExpFailedInitiative: {
			TraitRiskTolerance: -0.5,
			TraitIsolationism:  0.25,
		},
		ExpCulturalExchange: {
			TraitCulturalOpenness: 0.5,
			TraitIsolationism:     -0.25,
		},
		ExpAllianceFormed: {
			TraitCooperativeness: 1.0,
			TraitIsolationism:    -0.5,
		},
		ExpSuccessfulCooperation: {
			TraitCooperativeness: 0.5,
		},
	}
}
