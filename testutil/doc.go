// Package testutil provides in-memory fakes of the document store, graph
// store and cache with failure injection at each protocol phase, so the
// write coordinator and entity services can be tested without live engines.
package testutil
