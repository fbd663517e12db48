// Package export serializes an ontology graph to RDF documents.
package export

import (
	"fmt"

	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/vocabulary/owl"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatJSONLD produces an expanded JSON-LD array (.jsonld), loadable by
	// Protégé and other OWL editors.
	FormatJSONLD Format = "jsonld"

	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// Document is the ordered entity list produced by a crawl. The ontology
// header comes first.
type Document []*ontology.Entity

// Term is the object of a triple: an IRI or a language-tagged literal.
type Term struct {
	IRI      string
	Value    string
	Language string
}

// IsIRI reports whether the term is a reference.
func (t Term) IsIRI() bool { return t.IRI != "" }

// Triple is one statement of the exported graph. Predicate is a full IRI.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// RDFExporter serializes documents with a profile.
type RDFExporter struct {
	profile  ProfileConfig
	prefixes map[string]string
}

// NewRDFExporter creates an exporter. namespace gets the empty prefix in
// Turtle output; pass "" to omit it.
func NewRDFExporter(profile Profile, namespace string) *RDFExporter {
	prefixes := defaultPrefixes()
	if namespace != "" {
		prefixes["onto"] = namespace + "#"
	}
	return &RDFExporter{
		profile:  GetProfileConfig(profile),
		prefixes: prefixes,
	}
}

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  owl.RDFNamespace,
		"rdfs": owl.RDFSNamespace,
		"owl":  owl.OWLNamespace,
		"xsd":  owl.XSDNamespace,
		"skos": owl.SKOSNamespace,
	}
}

// Profile returns the exporter's profile configuration.
func (e *RDFExporter) Profile() ProfileConfig { return e.profile }

// Triples flattens one entity: its rdf:type first, then every slot value in
// append order, then any profile additions.
func (e *RDFExporter) Triples(ent *ontology.Entity) []Triple {
	triples := []Triple{{Subject: ent.ID, Predicate: owl.RDFType, Object: Term{IRI: ent.Kind.IRI()}}}
	for _, slot := range ent.Slots() {
		pred := owl.IRI(slot.Predicate)
		for _, v := range slot.Values {
			triples = append(triples, Triple{Subject: ent.ID, Predicate: pred, Object: valueTerm(v)})
		}
	}
	return append(triples, e.profile.extraTriples(ent)...)
}

func valueTerm(v ontology.Value) Term {
	if v.Ref != "" {
		return Term{IRI: v.Ref}
	}
	return Term{Value: v.Text, Language: v.Language}
}

// Export serializes doc to the specified format.
func (e *RDFExporter) Export(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSONLD:
		return e.toJSONLD(doc)
	case FormatTurtle:
		return []byte(e.toTurtle(doc)), nil
	case FormatNTriples:
		return []byte(e.toNTriples(doc)), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// toTurtle serializes to Turtle format.
func (e *RDFExporter) toTurtle(doc Document) string {
	w := NewTurtleWriter()
	for prefix, iri := range e.prefixes {
		w.SetPrefix(prefix, iri)
	}
	w.WritePrefixes()

	for _, ent := range doc {
		triples := e.Triples(ent)
		w.WriteSubject(ent.ID)
		for i, t := range triples {
			last := i == len(triples)-1
			if t.Predicate == owl.RDFType {
				w.WriteType(t.Object.IRI, last)
				continue
			}
			w.WritePredicate(t.Predicate, t.Object, last)
		}
		w.WriteBlank()
	}
	return w.String()
}

// toNTriples serializes to N-Triples format.
func (e *RDFExporter) toNTriples(doc Document) string {
	w := NewNTriplesWriter()
	for _, ent := range doc {
		for _, t := range e.Triples(ent) {
			w.WriteTriple(t.Subject, t.Predicate, t.Object)
		}
	}
	return w.String()
}

// toJSONLD serializes to an expanded JSON-LD array, one node per entity.
func (e *RDFExporter) toJSONLD(doc Document) ([]byte, error) {
	w := NewJSONLDWriter()
	for _, ent := range doc {
		node := JSONLDNode{ID: ent.ID}
		for _, t := range e.Triples(ent) {
			if t.Predicate == owl.RDFType {
				node.Type = append(node.Type, t.Object.IRI)
				continue
			}
			node.Add(t.Predicate, t.Object)
		}
		w.AddNode(node)
	}
	return w.Bytes()
}
