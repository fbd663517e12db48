package ontology

import "github.com/c360studio/ontocrawl/vocabulary/owl"

// Kind is the type tag of an entity.
type Kind int

const (
	KindOntology Kind = iota
	KindClass
	KindObjectProperty
)

// IRI returns the rdf:type IRI for the kind.
func (k Kind) IRI() string {
	switch k {
	case KindOntology:
		return owl.ClassOntology
	case KindClass:
		return owl.ClassClass
	case KindObjectProperty:
		return owl.ClassObjectProperty
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindOntology:
		return "ontology"
	case KindClass:
		return "class"
	case KindObjectProperty:
		return "object_property"
	default:
		return "unknown"
	}
}

// accepts reports whether an entity of this kind may hold predicate.
func (k Kind) accepts(predicate string) bool {
	switch predicate {
	case owl.Label, owl.Comment:
		return true
	case owl.SubClassOf:
		return k == KindClass
	case owl.Domain, owl.Range:
		return k == KindObjectProperty
	default:
		return false
	}
}

// Value is one element of a slot. Ref is set for relations and holds the
// target IRI; Text and Language are set for annotations.
type Value struct {
	Ref      string
	Text     string
	Language string
}

// Slot is the ordered list of values for one predicate.
type Slot struct {
	Predicate string
	Values    []Value
}

// Entity is a node of the ontology graph.
type Entity struct {
	ID   string
	Kind Kind
	// Name is the display name the entity was minted from.
	Name string

	owner *Builder
	slots []Slot
}

// Slots returns a copy of the entity's slots in first-append order.
func (e *Entity) Slots() []Slot {
	out := make([]Slot, len(e.slots))
	for i, s := range e.slots {
		out[i] = Slot{Predicate: s.Predicate, Values: append([]Value(nil), s.Values...)}
	}
	return out
}

// Values returns a copy of the values held for predicate.
func (e *Entity) Values(predicate string) []Value {
	for _, s := range e.slots {
		if s.Predicate == predicate {
			return append([]Value(nil), s.Values...)
		}
	}
	return nil
}

func (e *Entity) append(predicate string, v Value) {
	for i := range e.slots {
		if e.slots[i].Predicate == predicate {
			e.slots[i].Values = append(e.slots[i].Values, v)
			return
		}
	}
	e.slots = append(e.slots, Slot{Predicate: predicate, Values: []Value{v}})
}
