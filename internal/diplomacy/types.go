// Package diplomacy provides the NPC behavior engine: trait computation,
// archetype classification, response prediction, scenario choice selection,
// trait drift, and relationship state transitions.
package diplomacy

// CountryID is a unique identifier for a country.
type CountryID uint64

// PersonalityTraits is the 8-dimensional behavioral profile of an NPC
// country. Every field is kept in [0,100]; the vector is recomputed or
// drifted in place, never partially updated.
type PersonalityTraits struct {
	Assertiveness       float64 `json:"assertiveness"`
	Cooperativeness     float64 `json:"cooperativeness"`
	EconomicFocus       float64 `json:"economic_focus"`
	CulturalOpenness    float64 `json:"cultural_openness"`
	RiskTolerance       float64 `json:"risk_tolerance"`
	IdeologicalRigidity float64 `json:"ideological_rigidity"`
	Militarism          float64 `json:"militarism"`
	Isolationism        float64 `json:"isolationism"`
}

// NeutralTraits returns the baseline vector a country starts with when it
// first qualifies for NPC behavior.
func NeutralTraits() PersonalityTraits {
	return PersonalityTraits{
		Assertiveness:       50,
		Cooperativeness:     50,
		EconomicFocus:       50,
		CulturalOpenness:    50,
		RiskTolerance:       50,
		IdeologicalRigidity: 50,
		Militarism:          50,
		Isolationism:        50,
	}
}

// Clamp forces every trait back into [0,100].
func (t *PersonalityTraits) Clamp() {
	t.Assertiveness = clampTrait(t.Assertiveness)
	t.Cooperativeness = clampTrait(t.Cooperativeness)
	t.EconomicFocus = clampTrait(t.EconomicFocus)
	t.CulturalOpenness = clampTrait(t.CulturalOpenness)
	t.RiskTolerance = clampTrait(t.RiskTolerance)
	t.IdeologicalRigidity = clampTrait(t.IdeologicalRigidity)
	t.Militarism = clampTrait(t.Militarism)
	t.Isolationism = clampTrait(t.Isolationism)
}

func clampTrait(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// TraitName indexes a single dimension of the trait vector.
type TraitName uint8

const (
	TraitAssertiveness TraitName = iota
	TraitCooperativeness
	TraitEconomicFocus
	TraitCulturalOpenness
	TraitRiskTolerance
	TraitIdeologicalRigidity
	TraitMilitarism
	TraitIsolationism
)

// NumTraits is the dimensionality of the trait vector.
const NumTraits = 8

// Get returns the named trait value.
func (t *PersonalityTraits) Get(name TraitName) float64 {
	switch name {
	case TraitAssertiveness:
		return t.Assertiveness
	case TraitCooperativeness:
		return t.Cooperativeness
	case TraitEconomicFocus:
		return t.EconomicFocus
	case TraitCulturalOpenness:
		return t.CulturalOpenness
	case TraitRiskTolerance:
		return t.RiskTolerance
	case TraitIdeologicalRigidity:
		return t.IdeologicalRigidity
	case TraitMilitarism:
		return t.Militarism
	case TraitIsolationism:
		return t.Isolationism
	}
	return 0
}

// Set assigns the named trait, clamping into [0,100].
func (t *PersonalityTraits) Set(name TraitName, v float64) {
	v = clampTrait(v)
	switch name {
	case TraitAssertiveness:
		t.Assertiveness = v
	case TraitCooperativeness:
		t.Cooperativeness = v
	case TraitEconomicFocus:
		t.EconomicFocus = v
	case TraitCulturalOpenness:
		t.CulturalOpenness = v
	case TraitRiskTolerance:
		t.RiskTolerance = v
	case TraitIdeologicalRigidity:
		t.IdeologicalRigidity = v
	case TraitMilitarism:
		t.Militarism = v
	case TraitIsolationism:
		t.Isolationism = v
	}
}

// TraitVector is the per-dimension delta accumulator used by drift.
type TraitVector [NumTraits]float64

// RelationshipMetricsSnapshot is the read-only input aggregate produced by
// the upstream metrics service. Absent fields stay zero and contribute
// nothing — the calculator is total over all snapshots.
type RelationshipMetricsSnapshot struct {
	HostileCount       int     `json:"hostile_count"`
	WeakCount          int     `json:"weak_count"`
	ConflictCount      int     `json:"conflict_count"`
	FailedNegotiations int     `json:"failed_negotiations"`
	AllianceCount      int     `json:"alliance_count"`
	FriendlyCount      int     `json:"friendly_count"`
	TreatyCount        int     `json:"treaty_count"`
	JointMissionCount  int     `json:"joint_mission_count"`
	TradeToGDP         float64 `json:"trade_to_gdp"` // Ratio, typically 0.0–1.5

	// Embassy counts split by declared focus category.
	EconomicEmbassies int `json:"economic_embassies"`
	CulturalEmbassies int `json:"cultural_embassies"`
	MilitaryEmbassies int `json:"military_embassies"`

	CulturalExchangeLevel  float64 `json:"cultural_exchange_level"` // 0–10
	PolicyVolatility       float64 `json:"policy_volatility"`       // 0–10 index
	FluctuationCount       int     `json:"fluctuation_count"`
	AllianceDurationMonths int     `json:"alliance_duration_months"`
	MilitaryBudgetPercent  float64 `json:"military_budget_percent"` // 0–100 of GDP

	// Share of relationships inside the country's own region, 0.0–1.0.
	RegionalConcentration float64 `json:"regional_concentration"`
}

// TotalEmbassies sums the per-focus embassy counts.
func (m *RelationshipMetricsSnapshot) TotalEmbassies() int {
	return m.EconomicEmbassies + m.CulturalEmbassies + m.MilitaryEmbassies
}

// ProposalType enumerates the diplomatic proposal kinds the predictor
// understands. Anything outside this set is a caller bug and surfaces as
// UnsupportedProposalTypeError rather than a silent default.
type ProposalType uint8

const (
	ProposalTradeAgreement ProposalType = iota
	ProposalMilitaryAlliance
	ProposalCulturalExchange
	ProposalNonAggressionPact
)

// String returns the proposal type name for logs and API payloads.
func (p ProposalType) String() string {
	switch p {
	case ProposalTradeAgreement:
		return "TRADE_AGREEMENT"
	case ProposalMilitaryAlliance:
		return "MILITARY_ALLIANCE"
	case ProposalCulturalExchange:
		return "CULTURAL_EXCHANGE"
	case ProposalNonAggressionPact:
		return "NON_AGGRESSION_PACT"
	}
	return "UNKNOWN"
}

// Proposal describes a diplomatic offer whose acceptance is being predicted.
type Proposal struct {
	Type                    ProposalType `json:"type"`
	RequiresConcession      bool         `json:"requires_concession"`
	IsRisky                 bool         `json:"is_risky"`
	HasIdeologicalComponent bool         `json:"has_ideological_component"`
	IdeologicalAlignment    float64      `json:"ideological_alignment,omitempty"` // -100..100, only read when ideological
}

// HistoricalContext carries the recent diplomatic history between the
// proposing and responding countries.
type HistoricalContext struct {
	RecentConflict      bool `json:"recent_conflict"`
	PastCooperation     bool `json:"past_cooperation"`
	BrokenPromises      int  `json:"broken_promises"`
	FromRegionalPartner bool `json:"from_regional_partner"`
}

// Response is the predictor's confidence triple. The three read-outs are
// independent and are not required to sum to 100.
type Response struct {
	Accept  float64 `json:"accept"`
	Counter float64 `json:"counter"`
	Reject  float64 `json:"reject"`
}

// ChoiceTone classifies the register of a scripted scenario choice.
type ChoiceTone uint8

const (
	ToneAggressive ChoiceTone = iota
	ToneNeutral
	ToneConciliatory
)

// ChoiceID identifies a choice within its scenario.
type ChoiceID string

// Choice is one discrete option in a scripted scenario.
type Choice struct {
	ID               ChoiceID   `json:"id"`
	Label            string     `json:"label"`
	Tone             ChoiceTone `json:"tone"`
	RequiresResource bool       `json:"requires_resource"`
}

// Scenario is a scripted situation with N discrete choices. Declaration
// order is significant: it is the tie-break for equal scores.
type Scenario struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Choices []Choice `json:"choices"`
}

// ExperienceKind enumerates the drift-relevant event types. Each kind maps
// to a fixed per-trait delta signature in the drift configuration.
type ExperienceKind uint8

const (
	ExpTradeSuccess ExperienceKind = iota
	ExpConflict
	ExpBrokenAgreement
	ExpEconomicLoss
	ExpFailedInitiative
	ExpCulturalExchange
	ExpAllianceFormed
	ExpSuccessfulCooperation
)

// String returns the experience kind name.
func (k ExperienceKind) String() string {
	switch k {
	case ExpTradeSuccess:
		return "trade_success"
	case ExpConflict:
		return "conflict"
	case ExpBrokenAgreement:
		return "broken_agreement"
	case ExpEconomicLoss:
		return "economic_loss"
	case ExpFailedInitiative:
		return "failed_initiative"
	case ExpCulturalExchange:
		return "cultural_exchange"
	case ExpAllianceFormed:
		return "alliance_formed"
	case ExpSuccessfulCooperation:
		return "successful_cooperation"
	}
	return "unknown"
}

// Experience is a recorded event consumed once per drift window. The engine
// assumes the input list is already deduplicated by the caller; it keeps no
// replay history of its own.
type Experience struct {
	ID         string         `json:"id"`
	CountryID  CountryID      `json:"country_id"`
	Kind       ExperienceKind `json:"kind"`
	OccurredAt int64          `json:"occurred_at"` // Unix seconds
}

// RelationshipState is the discrete diplomatic status of an ordered country
// pair. Transitions are the only mutator.
type RelationshipState uint8

const (
	StateHostile RelationshipState = iota
	StateTense
	StateNeutral
	StateFriendly
	StateAllied
)

// NumStates is the size of the relationship state space.
const NumStates = 5

// String returns the relationship state name.
func (s RelationshipState) String() string {
	switch s {
	case StateHostile:
		return "HOSTILE"
	case StateTense:
		return "TENSE"
	case StateNeutral:
		return "NEUTRAL"
	case StateFriendly:
		return "FRIENDLY"
	case StateAllied:
		return "ALLIED"
	}
	return "UNKNOWN"
}
