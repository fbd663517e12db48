package export

import (
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/vocabulary"

	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/vocabulary/owl"
)

// Profile determines which statements beyond the builder's own are exported.
type Profile string

const (
	// ProfileOWL exports exactly the builder's triples.
	ProfileOWL Profile = "owl"

	// ProfileSKOS adds SKOS preferred and alternate labels to every class.
	ProfileSKOS Profile = "skos"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// IncludeSKOS adds skos:prefLabel for a class's first label and
	// skos:altLabel for the rest.
	IncludeSKOS bool
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfileOWL: {
		Name:        ProfileOWL,
		Description: "OWL classes, object properties and RDFS annotations",
	},
	ProfileSKOS: {
		Name:        ProfileSKOS,
		Description: "OWL profile plus SKOS preferred and alternate labels",
		IncludeSKOS: true,
	},
}

// GetProfileConfig returns the configuration for a profile. Unknown
// profiles fall back to owl.
func GetProfileConfig(profile Profile) ProfileConfig {
	if config, ok := Profiles[profile]; ok {
		return config
	}
	return Profiles[ProfileOWL]
}

// extraTriples returns the profile's additions for one entity.
func (p ProfileConfig) extraTriples(ent *ontology.Entity) []Triple {
	if !p.IncludeSKOS || ent.Kind != ontology.KindClass {
		return nil
	}
	labels := ent.Values(owl.Label)
	triples := make([]Triple, 0, len(labels))
	for i, l := range labels {
		pred := vocabulary.SkosAltLabel
		if i == 0 {
			pred = vocabulary.SkosPrefLabel
		}
		triples = append(triples, Triple{Subject: ent.ID, Predicate: pred, Object: valueTerm(l)})
	}
	return triples
}

// MessageSource tags triples produced by the exporter.
const MessageSource = "ontocrawl.export"

// MessageTriples converts one entity to semstreams triples for downstream
// graph ingestion. Language tags are dropped; literal objects carry the
// bare text.
func (e *RDFExporter) MessageTriples(ent *ontology.Entity, at time.Time) []message.Triple {
	triples := e.Triples(ent)
	out := make([]message.Triple, 0, len(triples))
	for _, t := range triples {
		var obj any = t.Object.Value
		if t.Object.IsIRI() {
			obj = t.Object.IRI
		}
		out = append(out, message.Triple{
			Subject:    t.Subject,
			Predicate:  t.Predicate,
			Object:     obj,
			Source:     MessageSource,
			Timestamp:  at,
			Confidence: 1.0,
		})
	}
	return out
}
