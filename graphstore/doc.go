// Package graphstore adapts a Neo4j server to the transaction surface the
// write coordinator needs: begin, run parameterized statements, commit,
// rollback. Count-returning statements let callers distinguish a zero-match
// update or delete from a successful one instead of silently no-opping.
package graphstore
