// Trait calculation — pure mapping from relationship aggregates to the
// 8-dimensional trait vector. Total over all inputs: zero-valued metrics
// simply contribute nothing.
package diplomacy

// ComputeTraits derives a country's trait vector from its relationship
// metrics snapshot. Each trait is the configured base plus a weighted linear
// combination of its own metric fields, clamped to [0,100]. The caller
// decides whether to persist the result.
func ComputeTraits(cfg *Config, m RelationshipMetricsSnapshot) PersonalityTraits {
	w := cfg.Traits

	t := PersonalityTraits{
		Assertiveness: w.Base +
			w.AssertHostile*float64(m.HostileCount) +
			w.AssertWeak*float64(m.WeakCount) +
			w.AssertConflict*float64(m.ConflictCount) +
			w.AssertFailedNeg*float64(m.FailedNegotiations),

		Cooperativeness: w.Base +
			w.CoopAlliance*float64(m.AllianceCount) +
			w.CoopFriendly*float64(m.FriendlyCount) +
			w.CoopTreaty*float64(m.TreatyCount) +
			w.CoopJointMission*float64(m.JointMissionCount),

		EconomicFocus: w.Base +
			w.EconTradeRatio*m.TradeToGDP +
			w.EconEmbassy*float64(m.EconomicEmbassies) +
			w.EconTreaty*float64(m.TreatyCount),

		CulturalOpenness: w.Base +
			w.CultEmbassy*float64(m.CulturalEmbassies) +
			w.CultExchange*m.CulturalExchangeLevel +
			w.CultFriendly*float64(m.FriendlyCount),

		RiskTolerance: w.Base +
			w.RiskVolatility*m.PolicyVolatility +
			w.RiskFluctuation*float64(m.FluctuationCount) +
			w.RiskAllianceAge*float64(m.AllianceDurationMonths)/12,

		IdeologicalRigidity: w.Base +
			w.RigidVolatility*m.PolicyVolatility +
			w.RigidAllianceAge*float64(m.AllianceDurationMonths)/12 +
			w.RigidFailedNeg*float64(m.FailedNegotiations),

		Militarism: w.Base +
			w.MilBudget*m.MilitaryBudgetPercent +
			w.MilConflict*float64(m.ConflictCount) +
			w.MilHostile*float64(m.HostileCount) +
			w.MilEmbassy*float64(m.MilitaryEmbassies),

		Isolationism: w.Base +
			w.IsoEmbassy*float64(m.TotalEmbassies()) +
			w.IsoTreaty*float64(m.TreatyCount) +
			w.IsoFriendly*float64(m.FriendlyCount),
	}

	// Regionally concentrated diplomacy reads as isolationist even when the
	// raw relationship counts look active.
	if m.RegionalConcentration > w.IsoRegionalThreshold {
		t.Isolationism += w.IsoRegionalBonus
	}

	t.Clamp()
	return t
}
