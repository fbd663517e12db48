package taxonomy

import (
	"fmt"

	"github.com/c360studio/ontocrawl/llm"
)

// Schema returns the strict response shape for answers in category:
// name, description, aliases, plus one string array per child category.
func (t *Table) Schema(category string) (*llm.JSONSchema, error) {
	c, ok := t.Category(category)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	return c.Schema(), nil
}

// Schema returns the category's response shape.
func (c Category) Schema() *llm.JSONSchema {
	no := false
	s := &llm.JSONSchema{
		Type: "object",
		Properties: map[string]*llm.JSONSchema{
			FieldName:        {Type: "string"},
			FieldDescription: {Type: "string"},
			FieldAliases:     llm.StringArray(),
		},
		Required:             []string{FieldName, FieldDescription, FieldAliases},
		AdditionalProperties: &no,
	}
	for _, child := range c.Children {
		s.Properties[child] = llm.StringArray()
		s.Required = append(s.Required, child)
	}
	return s
}

// ResponseFormat wraps the schema for an llm.Request. The format is named
// after the category.
func (c Category) ResponseFormat() *llm.ResponseFormat {
	return &llm.ResponseFormat{Name: c.Name, Schema: c.Schema(), Strict: true}
}
