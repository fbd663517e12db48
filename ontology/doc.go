// Package ontology turns free-text concept names into canonical IRIs and
// accumulates an append-only OWL class graph.
//
// A Builder is bound to one namespace. Every entity it mints gets the IRI
// namespace#Local, where Local is the canonical form of the display name.
// Entities are never removed and keep their slot order, so serializing the
// same sequence of calls always yields the same document.
package ontology
