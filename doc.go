// Package bookgraph implements a book catalog backed by two stores: a
// document store of record (MongoDB) and a graph store mirror (Neo4j) used
// for relationship traversal.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         Entity Services             │  typed operations,
//	│ (genre, language, publisher,        │  cache-aside reads
//	│  source, author, reader)            │
//	└──────────────────┬──────────────────┘
//	                   │ mutations
//	┌──────────────────▼──────────────────┐
//	│       Dual-Store Coordinator        │  stage both, commit
//	│           (dualwrite)               │  document first,
//	└─────────┬─────────────────┬─────────┘  compensate on failure
//	          │                 │
//	┌─────────▼───────┐ ┌───────▼─────────┐
//	│  Document Store │ │   Graph Store   │
//	│    (docstore)   │ │  (graphstore)   │
//	└─────────────────┘ └─────────────────┘
//
// The document store is authoritative. Every dual-store write stages a
// document transaction and a graph transaction, commits the document side
// first, then the graph side, and reverses the document change when the
// graph commit fails. The two non-atomic outcomes are reported explicitly:
// errors.PartialFailure when compensation itself fails, and
// errors.UnknownOutcome when a commit is interrupted before its result is
// observed.
//
// # Packages
//
// Core write path:
//   - dualwrite: the write coordinator and mutation model
//   - docstore: MongoDB adapter with session transactions
//   - graphstore: Neo4j adapter with explicit transactions
//   - entity: entity kinds, documents and graph statement shapes
//
// Services and infrastructure:
//   - service: per-kind entity services with cache-aside reads
//   - pkg/cache: generic TTL cache
//   - pkg/retry: store connection retry policies
//   - errors: structured errors and failure reports
//   - metric: Prometheus metrics and the metrics endpoint
//   - health: store reachability checking
//   - config: layered configuration loading
//   - testutil: in-memory store fakes for tests
package bookgraph
