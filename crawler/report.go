package crawler

import "time"

// Failure records a concept branch that was skipped.
type Failure struct {
	Category string
	Concept  string
	Err      error
}

// Collision records two different display names that canonicalized to the
// same IRI.
type Collision struct {
	IRI    string
	First  string
	Second string
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Concepts   int
	Classes    int
	Properties int
	Failures   []Failure
	Collisions []Collision
	// Revisits counts entities minted again from the same display name,
	// e.g. an operation shared by several joints.
	Revisits int
	// CacheHits and OracleCalls are filled in by the caller from the gateway.
	CacheHits   int
	OracleCalls int
	Duration    time.Duration
}
