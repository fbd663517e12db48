package taxonomy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedAnswer indicates an oracle reply that does not fit its schema.
var ErrMalformedAnswer = errors.New("malformed answer")

// MalformedAnswerError reports why a reply was rejected.
type MalformedAnswerError struct {
	Category string
	Reason   string
	Err      error
}

func (e *MalformedAnswerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s answer: %s: %v", e.Category, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s answer: %s", e.Category, e.Reason)
}

func (e *MalformedAnswerError) Unwrap() error { return e.Err }

func (e *MalformedAnswerError) Is(target error) bool {
	return target == ErrMalformedAnswer
}

// Field is one child-category list on an answer.
type Field struct {
	Category string
	Concepts []string
}

// Answer is a parsed oracle reply.
type Answer struct {
	Name        string
	Description string
	Aliases     []string
	// Fields holds the child lists that were present, in table order.
	Fields []Field
}

// ParseAnswer decodes raw against the category's schema. Child fields are
// optional; when present they must be string arrays. Unknown fields are
// ignored so older cache entries stay readable.
func ParseAnswer(c Category, raw string) (*Answer, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, &MalformedAnswerError{Category: c.Name, Reason: "not a JSON object", Err: err}
	}

	malformed := func(reason string, err error) error {
		return &MalformedAnswerError{Category: c.Name, Reason: reason, Err: err}
	}

	a := &Answer{}
	if err := requireString(fields, FieldName, &a.Name); err != nil {
		return nil, malformed("field "+FieldName, err)
	}
	if strings.TrimSpace(a.Name) == "" {
		return nil, malformed("field "+FieldName+" is blank", nil)
	}
	if err := requireString(fields, FieldDescription, &a.Description); err != nil {
		return nil, malformed("field "+FieldDescription, err)
	}
	if err := requireStrings(fields, FieldAliases, &a.Aliases); err != nil {
		return nil, malformed("field "+FieldAliases, err)
	}

	for _, child := range c.Children {
		if _, ok := fields[child]; !ok {
			continue
		}
		var concepts []string
		if err := requireStrings(fields, child, &concepts); err != nil {
			return nil, malformed("field "+child, err)
		}
		for i, name := range concepts {
			if strings.TrimSpace(name) == "" {
				return nil, malformed(fmt.Sprintf("field %s[%d] is blank", child, i), nil)
			}
		}
		a.Fields = append(a.Fields, Field{Category: child, Concepts: concepts})
	}
	return a, nil
}

// decodeObject accepts a bare JSON object, falling back to extracting one
// from fenced or commented model output.
func decodeObject(raw string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(raw), &fields)
	if err == nil && fields != nil {
		return fields, nil
	}
	if extracted := extractObject(raw); extracted != "" {
		fields = nil
		if err2 := json.Unmarshal([]byte(extracted), &fields); err2 == nil && fields != nil {
			return fields, nil
		}
	}
	if err == nil {
		err = errors.New("null document")
	}
	return nil, err
}

var jsonNull = []byte("null")

func requireString(fields map[string]json.RawMessage, key string, dst *string) error {
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), jsonNull) {
		return errors.New("missing")
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("want string: %w", err)
	}
	return nil
}

func requireStrings(fields map[string]json.RawMessage, key string, dst *[]string) error {
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), jsonNull) {
		return errors.New("missing")
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		return fmt.Errorf("want array of strings: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*dst = out
	return nil
}
