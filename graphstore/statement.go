package graphstore

// Statement is one parameterized graph mutation executed inside a
// transaction. Expect greater than zero means the statement must return a
// count column named "matched" and the transaction owner treats a count
// below Expect as a missing-node failure.
type Statement struct {
	Query  string
	Params map[string]any
	Expect int64
}
