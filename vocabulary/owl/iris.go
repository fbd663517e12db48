package owl

// Standard namespace prefixes used in serialized documents.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	SKOSNamespace = "http://www.w3.org/2004/02/skos/core#"
)

// Type IRIs for entities minted by the graph builder.
const (
	// ClassOntology is the type of the ontology header entity.
	ClassOntology = OWLNamespace + "Ontology"

	// ClassClass is the type of every concept and category class.
	ClassClass = OWLNamespace + "Class"

	// ClassObjectProperty is the type of the <Name>_has_<category> relations.
	ClassObjectProperty = OWLNamespace + "ObjectProperty"
)

// Property IRIs.
const (
	RDFType        = RDFNamespace + "type"
	RDFSLabel      = RDFSNamespace + "label"
	RDFSComment    = RDFSNamespace + "comment"
	RDFSSubClassOf = RDFSNamespace + "subClassOf"
	RDFSDomain     = RDFSNamespace + "domain"
	RDFSRange      = RDFSNamespace + "range"
)
