package ontology

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single word", "joints", "Joints"},
		{"multi word", "Mortise and Tenon", "Mortise_And_Tenon"},
		{"whitespace runs", "dovetail \t  saw", "Dovetail_Saw"},
		{"surrounding whitespace", "  plane  ", "Plane"},
		{"leading space is trimmed, not an underscore", " Mortise", "Mortise"},
		{"trailing newline", "Tenon\n", "Tenon"},
		{"hyphen starts a word", "half-lap joint", "Half-Lap_Joint"},
		{"underscore is a word rune", "Mortise and Tenon_has_operations", "Mortise_And_Tenon_has_operations"},
		{"digits", "45 degree miter", "45_Degree_Miter"},
		{"apostrophe", "carpenter's mallet", "Carpenter'S_Mallet"},
		{"unicode", "émile plane", "Émile_Plane"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	names := []string{
		"root", "Mortise and Tenon", "through  dovetail", " bench\nhook ",
		"Chisel_has_tools", "rip-cut saw", "x", "ALL CAPS", "mIxEd cAsE words",
		"tab\tseparated\twords", "café crème", "№ 4 smoothing plane",
	}
	for _, n := range names {
		once := Canonicalize(n)
		assert.Equal(t, once, Canonicalize(once), "name %q", n)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := []rune("abcdeXYZ _-'\t\n0123é.")
	for i := 0; i < 500; i++ {
		var b strings.Builder
		for j := 0; j < rng.IntN(24); j++ {
			b.WriteRune(alphabet[rng.IntN(len(alphabet))])
		}
		n := b.String()
		once := Canonicalize(n)
		require.Equal(t, once, Canonicalize(once), "name %q", n)
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Mortise And Tenon", TitleCase("Mortise and Tenon"))
	assert.Equal(t, "  Leading Space", TitleCase("  leading space"))
}

func TestFindIllegalCharacters(t *testing.T) {
	assert.Empty(t, FindIllegalCharacters("Mortise and Tenon"))
	assert.Equal(t, []rune{'<', '>'}, FindIllegalCharacters("Dove<tail>"))
	assert.Equal(t, []rune{'#', '#', '|'}, FindIllegalCharacters("a#b#c|d"))
}

func TestFindIllegalCharactersReportsEveryOccurrence(t *testing.T) {
	illegal := []rune(IllegalCharacters)
	rng := rand.New(rand.NewPCG(7, 11))

	for k := 1; k <= 9; k++ {
		var b strings.Builder
		want := make([]rune, 0, k)
		for i := 0; i < k; i++ {
			b.WriteString("word ")
			r := illegal[rng.IntN(len(illegal))]
			b.WriteRune(r)
			want = append(want, r)
		}
		b.WriteString(" tail")
		assert.Equal(t, want, FindIllegalCharacters(b.String()), "k=%d", k)
	}
}

func TestIllegalCharacterSet(t *testing.T) {
	for _, r := range []rune{'<', '>', '#', '%', '^', '{', '}', '|', '"', '`', '\\'} {
		assert.Contains(t, IllegalCharacters, string(r))
	}
	assert.Len(t, []rune(IllegalCharacters), 11)
}

func TestValidateName(t *testing.T) {
	require.NoError(t, ValidateName("Bench Chisel"))

	err := ValidateName("50% {off}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	var idErr *InvalidIdentifierError
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, "50% {off}", idErr.Name)
	assert.Equal(t, []rune{'%', '{', '}'}, idErr.Illegal)
	assert.Contains(t, err.Error(), `'%'`)
}

func TestIRI(t *testing.T) {
	iri, err := IRI("http://example.org/wood", "coping saw")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/wood#Coping_Saw", iri)

	_, err = IRI("http://example.org/wood", "saw`s")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}
