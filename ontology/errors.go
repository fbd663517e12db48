package ontology

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrInvalidIdentifier indicates a display name contains a reserved character.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidShape indicates a mutation targeted an entity that cannot hold it.
	ErrInvalidShape = errors.New("invalid entity shape")
)

// InvalidIdentifierError lists every reserved character found in a name.
type InvalidIdentifierError struct {
	Name    string
	Illegal []rune
}

func (e *InvalidIdentifierError) Error() string {
	quoted := make([]string, len(e.Illegal))
	for i, r := range e.Illegal {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	return fmt.Sprintf("invalid identifier %q: illegal characters %s", e.Name, strings.Join(quoted, ", "))
}

func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// InvalidShapeError describes a mutation the target entity cannot accept.
type InvalidShapeError struct {
	EntityID  string
	Predicate string
	Reason    string
}

func (e *InvalidShapeError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("invalid shape for %s: %s", e.Predicate, e.Reason)
	}
	return fmt.Sprintf("invalid shape for %s on %s: %s", e.Predicate, e.EntityID, e.Reason)
}

func (e *InvalidShapeError) Is(target error) bool {
	return target == ErrInvalidShape
}
