package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifies one cached answer.
type Key struct {
	Category string
	Concept  string
}

// String returns the key as category/concept using escaped segments.
func (k Key) String() string {
	return EscapeSegment(k.Category) + "/" + EscapeSegment(k.Concept)
}

// Validate rejects keys with empty segments.
func (k Key) Validate() error {
	if k.Category == "" || k.Concept == "" {
		return fmt.Errorf("%w: empty segment in %q", ErrInvalidKey, k.Category+"/"+k.Concept)
	}
	return nil
}

// ParseKey parses the String form of a key.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	category, err := UnescapeSegment(parts[0])
	if err != nil {
		return Key{}, err
	}
	concept, err := UnescapeSegment(parts[1])
	if err != nil {
		return Key{}, err
	}
	k := Key{Category: category, Concept: concept}
	return k, k.Validate()
}

// EscapeSegment makes a name safe as a single file name. Only '%', '/',
// '\\' and a leading '.' are encoded, so ordinary concept names map to
// files of the same name.
func EscapeSegment(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '%' || c == '/' || c == '\\' || c == 0:
			fmt.Fprintf(&b, "%%%02X", c)
		case c == '.' && i == 0:
			b.WriteString("%2E")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeSegment reverses EscapeSegment.
func UnescapeSegment(seg string) (string, error) {
	if !strings.Contains(seg, "%") {
		return seg, nil
	}
	var b strings.Builder
	b.Grow(len(seg))
	for i := 0; i < len(seg); i++ {
		if seg[i] != '%' {
			b.WriteByte(seg[i])
			continue
		}
		if i+2 >= len(seg) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrInvalidKey, seg)
		}
		c, err := strconv.ParseUint(seg[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: bad escape in %q", ErrInvalidKey, seg)
		}
		b.WriteByte(byte(c))
		i += 2
	}
	return b.String(), nil
}
