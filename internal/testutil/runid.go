package testutil

// FixedRunID hands out the same run id on every call.
//
// Golden listings and stored run histories embed the run id, so tests that
// compare them byte for byte need one that does not change between runs.
// Use pipeline.NewFixedGenerator instead when a test executes several
// runs and needs them told apart.
//
// Thread-safety: FixedRunID is immutable and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID returns a generator for id.
// If id is empty, Generate returns "run-fixed".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "run-fixed"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
//
// Implements pipeline.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
