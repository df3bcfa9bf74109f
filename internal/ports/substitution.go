package ports

import (
	"errors"
	"strings"
)

// ErrEmptyOld is returned when a substitution has nothing to search for.
var ErrEmptyOld = errors.New("old text must not be empty")

// Substitution is a literal (old, new) text pair applied to document content.
type Substitution struct {
	Old string
	New string
}

// Validate reports whether the substitution can be applied.
func (s Substitution) Validate() error {
	if s.Old == "" {
		return ErrEmptyOld
	}
	return nil
}

// Apply replaces every occurrence of Old in text with New.
func (s Substitution) Apply(text string) string {
	if s.Old == "" {
		return text
	}
	return strings.ReplaceAll(text, s.Old, s.New)
}

// Matches reports whether text contains Old.
func (s Substitution) Matches(text string) bool {
	return s.Old != "" && strings.Contains(text, s.Old)
}
