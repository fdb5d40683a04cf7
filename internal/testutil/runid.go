package testutil

// FixedRunID returns the same run id every time.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out, which suits tests that start an unknown number of runs.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator. An empty id becomes "test-run".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunID) Generate() string {
	return g.id
}
