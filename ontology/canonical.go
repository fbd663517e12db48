package ontology

import (
	"strings"
	"unicode"
)

// IllegalCharacters are the runes that may not appear in a display name.
// They are either IRI delimiters or unsafe in IRI references.
const IllegalCharacters = "<>#%^{}|\"`\\"

// FindIllegalCharacters returns every reserved rune in name, in order of
// occurrence. Repeated runes are reported each time they appear.
func FindIllegalCharacters(name string) []rune {
	var found []rune
	for _, r := range name {
		if strings.ContainsRune(IllegalCharacters, r) {
			found = append(found, r)
		}
	}
	return found
}

// ValidateName returns an *InvalidIdentifierError if name has reserved runes.
func ValidateName(name string) error {
	if illegal := FindIllegalCharacters(name); len(illegal) > 0 {
		return &InvalidIdentifierError{Name: name, Illegal: illegal}
	}
	return nil
}

// TitleCase upper-cases every word-initial letter. Letters after a digit or
// underscore are not word-initial, so "has_tools" is left alone.
func TitleCase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevWord := false
	for _, r := range text {
		word := isWordRune(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}

// Canonicalize returns the local name used in an entity IRI: surrounding
// whitespace removed, title-cased, and every whitespace run collapsed to a
// single underscore. Callers must validate the name first; the result is
// unspecified for names with reserved runes.
func Canonicalize(name string) string {
	titled := TitleCase(strings.TrimSpace(name))
	return strings.Join(strings.Fields(titled), "_")
}

// IRI validates name and returns namespace#Canonical.
func IRI(namespace, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return namespace + "#" + Canonicalize(name), nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
