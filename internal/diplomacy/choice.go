// Scenario choice selection — picks the choice a country's personality
// favors from a scripted scenario.
package diplomacy

// SelectChoice scores every choice in the scenario against the trait vector
// and archetype and returns the highest scorer. Equal scores resolve to the
// earlier-declared choice, so selection is stable and deterministic.
func SelectChoice(cfg *Config, scenario Scenario, traits PersonalityTraits, archetype Archetype) (ChoiceID, error) {
	if len(scenario.Choices) == 0 {
		return "", &EmptyScenarioError{ScenarioID: scenario.ID}
	}

	bestIdx := 0
	bestScore := scoreChoice(cfg, scenario.Choices[0], &traits, archetype)

	for i := 1; i < len(scenario.Choices); i++ {
		// Strict > keeps the first-declared choice on ties.
		if s := scoreChoice(cfg, scenario.Choices[i], &traits, archetype); s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}

	return scenario.Choices[bestIdx].ID, nil
}

// ScoreChoices returns the per-choice scores in declaration order, for
// callers that want to inspect the ranking rather than just the winner.
func ScoreChoices(cfg *Config, scenario Scenario, traits PersonalityTraits, archetype Archetype) ([]float64, error) {
	if len(scenario.Choices) == 0 {
		return nil, &EmptyScenarioError{ScenarioID: scenario.ID}
	}
	scores := make([]float64, len(scenario.Choices))
	for i, c := range scenario.Choices {
		scores[i] = scoreChoice(cfg, c, &traits, archetype)
	}
	return scores, nil
}

func scoreChoice(cfg *Config, c Choice, t *PersonalityTraits, archetype Archetype) float64 {
	var score float64

	switch c.Tone {
	case ToneAggressive:
		score = cfg.Choice.AggressiveWeight * (t.Assertiveness + t.Militarism) / 2
	case ToneConciliatory:
		score = cfg.Choice.ConciliatoryWeight * (t.Cooperativeness + t.CulturalOpenness) / 2
	default:
		score = cfg.Choice.NeutralScore
	}

	if preferred, ok := cfg.Choice.ToneAffinity[archetype]; ok && preferred == c.Tone {
		score += cfg.Choice.AffinityBonus
	}

	// Spending a resource weighs heavier on cautious countries.
	if c.RequiresResource {
		score -= cfg.Choice.ResourcePenalty * (100 - t.RiskTolerance) / 100
	}

	return score
}
