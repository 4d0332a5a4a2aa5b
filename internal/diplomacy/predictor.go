// Response prediction — how likely a country is to accept, counter, or
// reject a diplomatic proposal.
package diplomacy

// PredictResponse produces the {accept, counter, reject} confidence triple
// for a proposal. The score starts at the pairwise relationship strength and
// moves through the proposal, trait, historical, and archetype adjustments in
// a fixed order; each output is clamped to [0,100].
//
// The three values are independent read-outs, not a normalized distribution —
// they may sum to more or less than 100. Callers must not renormalize.
func PredictResponse(cfg *Config, traits PersonalityTraits, archetype Archetype,
	proposal Proposal, relationshipStrength float64, ctx HistoricalContext) (Response, error) {

	mods, ok := cfg.Response.TypeModifiers[proposal.Type]
	if !ok {
		return Response{}, &UnsupportedProposalTypeError{Type: proposal.Type}
	}

	score := clampTrait(relationshipStrength)

	// Proposal-type trait modifiers.
	for _, m := range mods {
		score += m.Coeff * traits.Get(m.Trait)
	}

	// Assertive countries resent giving ground.
	if proposal.RequiresConcession {
		score -= cfg.Response.ConcessionPenalty * traits.Assertiveness
	}

	// Risk appetite swings both ways around the neutral 50.
	if proposal.IsRisky {
		score += cfg.Response.RiskCoeff * (traits.RiskTolerance - 50)
	}

	// Ideology only matters to rigid countries.
	if proposal.HasIdeologicalComponent && traits.IdeologicalRigidity > cfg.Response.IdeologyThreshold {
		score += cfg.Response.IdeologyCoeff * proposal.IdeologicalAlignment
	}

	// Historical multipliers, applied sequentially.
	if ctx.RecentConflict {
		score *= cfg.Response.ConflictMultiplier
	}
	if ctx.PastCooperation {
		score *= cfg.Response.CooperationMultiplier
	}
	if ctx.BrokenPromises > 0 {
		trust := 1 - cfg.Response.BrokenPromisePenalty*float64(ctx.BrokenPromises)
		if trust < 0 {
			trust = 0
		}
		score *= trust
	}
	if ctx.FromRegionalPartner && traits.Isolationism < 50 {
		score *= cfg.Response.RegionalMultiplier
	}

	// Archetype-specific adjustment for this proposal type.
	if table, ok := cfg.Response.ArchetypeAdjustments[archetype]; ok {
		if mult, ok := table[proposal.Type]; ok {
			score *= mult
		}
	}

	accept := clampTrait(score)
	counter := 100 - accept - 20
	if counter < 0 {
		counter = 0
	}
	reject := 50 - accept
	if reject < 0 {
		reject = 0
	}

	return Response{Accept: accept, Counter: counter, Reject: reject}, nil
}
