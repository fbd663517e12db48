package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - expanded node array",
	},
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat resolves a format name or file extension ("ttl", ".nt").
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := FormatRegistry[Format(s)]; ok {
		return Format(s), nil
	}
	ext := s
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for name, info := range FormatRegistry {
		if info.Extension == ext {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// FormatForPath picks a format from a file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		if f, err := ParseFormat(path[i:]); err == nil {
			return f
		}
	}
	return def
}

// TurtleWriter writes RDF in Turtle format.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with default prefixes.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{
		prefixes: defaultPrefixes(),
	}
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	// Sort prefixes for consistent output
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prefix := range keys {
		fmt.Fprintf(&w.sb, "@prefix %s: <%s> .\n", prefix, w.prefixes[prefix])
	}
	w.sb.WriteString("\n")
}

// WriteSubject starts a new subject block.
func (w *TurtleWriter) WriteSubject(iri string) {
	fmt.Fprintf(&w.sb, "<%s>\n", iri)
}

// WriteType writes a type assertion.
func (w *TurtleWriter) WriteType(typeIRI string, last bool) {
	fmt.Fprintf(&w.sb, "    a <%s>%s\n", typeIRI, terminator(last))
}

// WritePredicate writes a predicate-object pair.
func (w *TurtleWriter) WritePredicate(predicateIRI string, object Term, last bool) {
	fmt.Fprintf(&w.sb, "    <%s> %s%s\n", predicateIRI, formatTerm(object), terminator(last))
}

// WriteBlank writes a blank line for readability.
func (w *TurtleWriter) WriteBlank() {
	w.sb.WriteString("\n")
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

func terminator(last bool) string {
	if last {
		return " ."
	}
	return " ;"
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteTriple writes a single triple.
func (w *NTriplesWriter) WriteTriple(subject, predicate string, object Term) {
	fmt.Fprintf(&w.sb, "<%s> <%s> %s .\n", subject, predicate, formatTerm(object))
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

// formatTerm renders an IRI or language-tagged literal. Turtle and N-Triples
// share the syntax for both.
func formatTerm(t Term) string {
	if t.IsIRI() {
		return "<" + t.IRI + ">"
	}
	lit := `"` + escapeString(t.Value) + `"`
	if t.Language != "" {
		lit += "@" + t.Language
	}
	return lit
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

// JSONLDNode is one node of an expanded JSON-LD document. Properties keep
// their first-append order on output.
type JSONLDNode struct {
	ID   string
	Type []string

	keys   []string
	values map[string][]any
}

type jsonldRef struct {
	ID string `json:"@id"`
}

type jsonldLiteral struct {
	Language string `json:"@language,omitempty"`
	Value    string `json:"@value"`
}

// Add appends an object to the node's property array.
func (n *JSONLDNode) Add(predicateIRI string, object Term) {
	if n.values == nil {
		n.values = make(map[string][]any)
	}
	if _, ok := n.values[predicateIRI]; !ok {
		n.keys = append(n.keys, predicateIRI)
	}
	var v any = jsonldLiteral{Language: object.Language, Value: object.Value}
	if object.IsIRI() {
		v = jsonldRef{ID: object.IRI}
	}
	n.values[predicateIRI] = append(n.values[predicateIRI], v)
}

// MarshalJSON writes @id, @type, then properties in insertion order.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "@id", n.ID, true); err != nil {
		return nil, err
	}
	if len(n.Type) > 0 {
		if err := writeMember(&buf, "@type", n.Type, false); err != nil {
			return nil, err
		}
	}
	for _, k := range n.keys {
		if err := writeMember(&buf, k, n.values[k], false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// JSONLDWriter accumulates nodes into an expanded JSON-LD array.
type JSONLDWriter struct {
	nodes []JSONLDNode
}

// NewJSONLDWriter creates a new JSON-LD writer.
func NewJSONLDWriter() *JSONLDWriter {
	return &JSONLDWriter{nodes: make([]JSONLDNode, 0)}
}

// AddNode adds a node to the document.
func (w *JSONLDWriter) AddNode(node JSONLDNode) {
	w.nodes = append(w.nodes, node)
}

// Bytes returns the indented JSON-LD array.
func (w *JSONLDWriter) Bytes() ([]byte, error) {
	data, err := json.MarshalIndent(w.nodes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json-ld: %w", err)
	}
	return append(data, '\n'), nil
}
