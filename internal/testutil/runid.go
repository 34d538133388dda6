package testutil

// FixedRunID returns the same run ID every time.
//
// Unlike harness.FixedGenerator, which hands out IDs in sequence and panics
// when they run out, FixedRunID can serve any number of runs. Use it where
// golden output must not depend on how many runs a test performs.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator for id. An empty id becomes
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunID) Generate() string {
	return g.id
}
