package ontology

import (
	"github.com/c360studio/ontocrawl/vocabulary/owl"
)

// DefaultLanguage tags annotations appended without an explicit language.
const DefaultLanguage = "en"

// Builder accumulates entities under a single namespace. It is not safe for
// concurrent use.
type Builder struct {
	namespace string
	entities  []*Entity
}

// NewBuilder creates a builder whose first entity is the ontology header.
func NewBuilder(namespace string) *Builder {
	b := &Builder{namespace: namespace}
	b.entities = append(b.entities, &Entity{
		ID:    namespace,
		Kind:  KindOntology,
		Name:  namespace,
		owner: b,
	})
	return b
}

// Namespace returns the namespace IRI fixed at construction.
func (b *Builder) Namespace() string { return b.namespace }

// Header returns the ontology header entity.
func (b *Builder) Header() *Entity { return b.entities[0] }

// NewClass mints an owl:Class for name.
func (b *Builder) NewClass(name string) (*Entity, error) {
	return b.mint(name, KindClass)
}

// NewObjectProperty mints an owl:ObjectProperty for name.
func (b *Builder) NewObjectProperty(name string) (*Entity, error) {
	return b.mint(name, KindObjectProperty)
}

func (b *Builder) mint(name string, kind Kind) (*Entity, error) {
	id, err := IRI(b.namespace, name)
	if err != nil {
		return nil, err
	}
	e := &Entity{ID: id, Kind: kind, Name: name, owner: b}
	b.entities = append(b.entities, e)
	return e, nil
}

// AppendLabel appends a title-cased label. An empty lang means DefaultLanguage.
func (b *Builder) AppendLabel(e *Entity, text, lang string) error {
	return b.appendLiteral(e, owl.Label, TitleCase(text), lang)
}

// AppendComment appends a description. An empty lang means DefaultLanguage.
func (b *Builder) AppendComment(e *Entity, text, lang string) error {
	return b.appendLiteral(e, owl.Comment, text, lang)
}

// AppendSubClassOf links a class to the class named parent.
func (b *Builder) AppendSubClassOf(e *Entity, parent string) error {
	return b.appendRef(e, owl.SubClassOf, parent)
}

// AppendDomain sets a property's owning class.
func (b *Builder) AppendDomain(e *Entity, name string) error {
	return b.appendRef(e, owl.Domain, name)
}

// AppendRange adds a target class to a property.
func (b *Builder) AppendRange(e *Entity, name string) error {
	return b.appendRef(e, owl.Range, name)
}

func (b *Builder) appendLiteral(e *Entity, predicate, text, lang string) error {
	if err := b.checkShape(e, predicate); err != nil {
		return err
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	e.append(predicate, Value{Text: text, Language: lang})
	return nil
}

func (b *Builder) appendRef(e *Entity, predicate, name string) error {
	if err := b.checkShape(e, predicate); err != nil {
		return err
	}
	id, err := IRI(b.namespace, name)
	if err != nil {
		return err
	}
	e.append(predicate, Value{Ref: id})
	return nil
}

func (b *Builder) checkShape(e *Entity, predicate string) error {
	if e == nil {
		return &InvalidShapeError{Predicate: predicate, Reason: "nil entity"}
	}
	if e.owner != b {
		return &InvalidShapeError{EntityID: e.ID, Predicate: predicate, Reason: "entity belongs to another builder"}
	}
	if !e.Kind.accepts(predicate) {
		return &InvalidShapeError{EntityID: e.ID, Predicate: predicate, Reason: "not applicable to " + e.Kind.String()}
	}
	return nil
}

// Entities returns the header followed by every minted entity in creation order.
func (b *Builder) Entities() []*Entity {
	return append([]*Entity(nil), b.entities...)
}

// Len returns the number of entities including the header.
func (b *Builder) Len() int { return len(b.entities) }
