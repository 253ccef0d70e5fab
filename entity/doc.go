// Package entity defines the canonical catalog entity types and the
// per-kind persistence policy table. Whether a kind is mirrored into the
// graph, which collection holds its documents and how its graph statements
// are shaped is resolved once through SpecFor rather than branched on in
// every store method. Each entity has exactly one definition here;
// adapters convert at the store boundary only.
package entity
