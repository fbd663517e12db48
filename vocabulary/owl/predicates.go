package owl

import "github.com/c360studio/semstreams/vocabulary"

// Annotation predicates carry language-tagged literals.
const (
	// Label is a display name for a class or property.
	// Multiple values are allowed: the requested name plus every alias.
	Label = "owl.annotation.label"

	// Comment is a free-text description.
	Comment = "owl.annotation.comment"
)

// Relation predicates carry references to other entities.
const (
	// SubClassOf links a class to its parent category class.
	// Domain: class entity, Range: class entity
	SubClassOf = "owl.rel.subclass_of"

	// Domain names the class owning an object property.
	Domain = "owl.rel.domain"

	// Range names a class an object property points at.
	// One value per child concept.
	Range = "owl.rel.range"
)

// fallbackIRIs is consulted when the semstreams registry has no entry,
// which only happens if registration was bypassed.
var fallbackIRIs = map[string]string{
	Label:      RDFSLabel,
	Comment:    RDFSComment,
	SubClassOf: RDFSSubClassOf,
	Domain:     RDFSDomain,
	Range:      RDFSRange,
}

// IRI returns the standard IRI for a predicate, or "" if unknown.
func IRI(predicate string) string {
	if meta := vocabulary.GetPredicateMetadata(predicate); meta != nil && meta.StandardIRI != "" {
		return meta.StandardIRI
	}
	return fallbackIRIs[predicate]
}

// IsRelation reports whether values of predicate are entity references.
func IsRelation(predicate string) bool {
	switch predicate {
	case SubClassOf, Domain, Range:
		return true
	}
	return false
}

func init() {
	vocabulary.Register(Label,
		vocabulary.WithDescription("Language-tagged display name of a class or property"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(RDFSLabel))

	vocabulary.Register(Comment,
		vocabulary.WithDescription("Language-tagged description of a class or property"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(RDFSComment))

	vocabulary.Register(SubClassOf,
		vocabulary.WithDescription("Parent category class of a concept class"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(RDFSSubClassOf))

	vocabulary.Register(Domain,
		vocabulary.WithDescription("Class that owns an object property"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(RDFSDomain))

	vocabulary.Register(Range,
		vocabulary.WithDescription("Class an object property points at"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(RDFSRange))
}
