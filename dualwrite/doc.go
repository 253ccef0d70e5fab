// Package dualwrite coordinates logical writes across the document store
// and the graph store as an explicit saga: stage the document mutation in a
// session, stage the graph mutation in a transaction, commit the document
// store, then commit the graph store. Every operation carries a tagged
// compensating action captured at staging time (delete for an insert,
// restore-previous for an update, re-insert for a delete) so a failed graph
// commit can reverse the already-committed document write without
// re-deriving prior state.
//
// Two outcomes intentionally escape the fully-applied/fully-reversed
// dichotomy and are surfaced as distinguishable error types: an interrupted
// commit call (errors.UnknownOutcome, never auto-compensated) and a failed
// compensating write (errors.PartialFailure, carrying the detail needed for
// manual reconciliation).
//
// Kinds that do not participate in the graph pass through to the document
// store alone.
package dualwrite
