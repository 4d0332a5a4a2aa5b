package diplomacy

import "fmt"

// UnsupportedProposalTypeError reports a proposal type with no entry in the
// modifier tables. Silently defaulting would hide a caller bug, so this is
// one of the engine's only two failure modes.
type UnsupportedProposalTypeError struct {
	Type ProposalType
}

func (e *UnsupportedProposalTypeError) Error() string {
	return fmt.Sprintf("unsupported proposal type %d", uint8(e.Type))
}

// EmptyScenarioError reports a scenario with no choices to select from.
type EmptyScenarioError struct {
	ScenarioID string
}

func (e *EmptyScenarioError) Error() string {
	return fmt.Sprintf("scenario %q has no choices", e.ScenarioID)
}
