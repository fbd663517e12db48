package taxonomy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	s, err := Default().Schema("joints")
	require.NoError(t, err)

	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"name", "description", "aliases", "operations"}, s.Required)
	require.NotNil(t, s.AdditionalProperties)
	assert.False(t, *s.AdditionalProperties)
	assert.Equal(t, "array", s.Properties["operations"].Type)
	assert.Equal(t, "string", s.Properties["operations"].Items.Type)
	assert.Equal(t, "string", s.Properties["name"].Type)

	leaf, err := Default().Schema("tools")
	require.NoError(t, err)
	assert.Len(t, leaf.Properties, 3)

	_, err = Default().Schema("clamps")
	assert.Error(t, err)
}

func TestResponseFormat(t *testing.T) {
	c, _ := Default().Category("operations")
	f := c.ResponseFormat()
	assert.Equal(t, "operations", f.Name)
	assert.True(t, f.Strict)
	assert.Contains(t, f.Schema.Properties, "tools")
}

func TestParseAnswer(t *testing.T) {
	joints, _ := Default().Category("joints")

	a, err := ParseAnswer(joints, `{"name":"Mortise and Tenon","aliases":["M&T"],"description":"A pegged joint.","operations":["Chiseling","Sawing"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Mortise and Tenon", a.Name)
	assert.Equal(t, "A pegged joint.", a.Description)
	assert.Equal(t, []string{"M&T"}, a.Aliases)
	assert.Equal(t, []Field{{Category: "operations", Concepts: []string{"Chiseling", "Sawing"}}}, a.Fields)
}

func TestParseAnswerFieldsFollowTableOrder(t *testing.T) {
	c := Category{Name: "x", Children: []string{"b", "a"}}
	ans, err := ParseAnswer(c, `{"name":"n","description":"","aliases":[],"a":["1"],"b":["2"],"extra":[]}`)
	require.NoError(t, err)
	require.Len(t, ans.Fields, 2)
	assert.Equal(t, "b", ans.Fields[0].Category)
	assert.Equal(t, "a", ans.Fields[1].Category)
}

func TestParseAnswerAbsentChildIsTerminal(t *testing.T) {
	joints, _ := Default().Category("joints")
	a, err := ParseAnswer(joints, `{"name":"Butt","aliases":[],"description":""}`)
	require.NoError(t, err)
	assert.Empty(t, a.Fields)
	assert.NotNil(t, a.Aliases)
}

func TestParseAnswerEmptyChildListIsKept(t *testing.T) {
	joints, _ := Default().Category("joints")
	a, err := ParseAnswer(joints, `{"name":"Butt","aliases":[],"description":"","operations":[]}`)
	require.NoError(t, err)
	require.Len(t, a.Fields, 1)
	assert.Equal(t, []string{}, a.Fields[0].Concepts)
}

func TestParseAnswerExtractsFencedJSON(t *testing.T) {
	tools, _ := Default().Category("tools")
	raw := "Here you go:\n```json\n{\"name\": \"Tenon Saw\", \"aliases\": [\"Backsaw\",], \"description\": \"A saw.\"}\n```"
	a, err := ParseAnswer(tools, raw)
	require.NoError(t, err)
	assert.Equal(t, "Tenon Saw", a.Name)
	assert.Equal(t, []string{"Backsaw"}, a.Aliases)
}

func TestParseAnswerMalformed(t *testing.T) {
	joints, _ := Default().Category("joints")

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "the dovetail joint is great"},
		{"array", `["a"]`},
		{"null", "null"},
		{"missing name", `{"aliases":[],"description":""}`},
		{"empty name", `{"name":"","aliases":[],"description":""}`},
		{"blank name", `{"name":"   ","aliases":[],"description":""}`},
		{"tab and newline name", `{"name":"\t\n","aliases":[],"description":""}`},
		{"name wrong type", `{"name":3,"aliases":[],"description":""}`},
		{"missing description", `{"name":"a","aliases":[]}`},
		{"missing aliases", `{"name":"a","description":""}`},
		{"null aliases", `{"name":"a","description":"","aliases":null}`},
		{"aliases wrong type", `{"name":"a","description":"","aliases":"none"}`},
		{"child wrong type", `{"name":"a","description":"","aliases":[],"operations":"Sawing"}`},
		{"child mixed types", `{"name":"a","description":"","aliases":[],"operations":["Sawing",2]}`},
		{"child blank entry", `{"name":"a","description":"","aliases":[],"operations":["Sawing"," "]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswer(joints, tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedAnswer))

			var mErr *MalformedAnswerError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, "joints", mErr.Category)
		})
	}
}
