package llm

import "encoding/json"

// JSONSchema is the subset of JSON Schema used for structured outputs.
// Providers translate it to their own response-shape constraint.
type JSONSchema struct {
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// ResponseFormat asks the model to reply with JSON matching Schema.
type ResponseFormat struct {
	// Name identifies the schema to the provider (OpenAI requires one).
	Name   string
	Schema *JSONSchema
	// Strict requests exact schema adherence where the provider supports it.
	Strict bool
}

// SchemaJSON renders the schema as indented JSON for prompt embedding.
func (f *ResponseFormat) SchemaJSON() string {
	if f == nil || f.Schema == nil {
		return ""
	}
	data, err := json.MarshalIndent(f.Schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// StringArray is a helper for array-of-string properties.
func StringArray() *JSONSchema {
	return &JSONSchema{Type: "array", Items: &JSONSchema{Type: "string"}}
}
