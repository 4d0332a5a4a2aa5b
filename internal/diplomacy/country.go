package diplomacy

import "fmt"

// Country is an NPC country as the behavior engine sees it: identity, the
// current trait vector, and a version counter for optimistic concurrency on
// the drift read-modify-write.
type Country struct {
	ID     CountryID `json:"id"`
	Name   string    `json:"name"`
	Region string    `json:"region"`

	Traits  PersonalityTraits `json:"traits"`
	Version uint64            `json:"version"` // Bumped on every trait write

	// Most recent metrics snapshot, kept for inspection and re-computation.
	Metrics RelationshipMetricsSnapshot `json:"metrics"`
}

// RelationPair is the diplomatic status of one ordered country pair.
type RelationPair struct {
	A        CountryID         `json:"a"`
	B        CountryID         `json:"b"`
	State    RelationshipState `json:"state"`
	Strength float64           `json:"strength"` // 0–100 pairwise relationship strength
}

// Key returns the pair's storage key.
func (p RelationPair) Key() string {
	return PairKey(p.A, p.B)
}

// PairKey builds the canonical key for an ordered country pair. The order
// is significant: (a,b) and (b,a) are distinct relationships with distinct
// initiators.
func PairKey(a, b CountryID) string {
	return fmt.Sprintf("%d:%d", a, b)
}
