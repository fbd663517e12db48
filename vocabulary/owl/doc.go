// Package owl provides vocabulary predicates for the OWL class hierarchy
// produced by a taxonomy crawl.
//
// Each predicate is registered with its standard RDFS or OWL IRI so exporters
// can turn builder slots into RDF without a separate mapping table.
//
// Import this package to auto-register predicates:
//
//	import _ "github.com/c360studio/ontocrawl/vocabulary/owl"
package owl
