// Package service implements the entity services of the catalog: typed
// operations per entity kind, dual-store writes routed through the
// coordinator, and a cache-aside read path.
//
// Every service follows the same discipline. Reads consult the cache under
// {namespace}:{kind}:{key} and fall back to the document store; listings use
// {namespace}:{kind}:list. Any mutation evicts the list key; item keys are
// written through on create, refreshed from the document of record after
// updates, and evicted on delete. Cache failures are logged and never fail
// an operation.
package service
