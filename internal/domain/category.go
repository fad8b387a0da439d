// Package domain defines the core interfaces and types for Typeboard.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a value is not one of the sixteen type codes.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryKey is a four-letter personality type code.
type CategoryKey string

// The closed set of category keys, in display order.
const (
	INTJ CategoryKey = "INTJ"
	INTP CategoryKey = "INTP"
	ENTJ CategoryKey = "ENTJ"
	ENTP CategoryKey = "ENTP"
	INFJ CategoryKey = "INFJ"
	INFP CategoryKey = "INFP"
	ENFJ CategoryKey = "ENFJ"
	ENFP CategoryKey = "ENFP"
	ISTJ CategoryKey = "ISTJ"
	ISFJ CategoryKey = "ISFJ"
	ESTJ CategoryKey = "ESTJ"
	ESFJ CategoryKey = "ESFJ"
	ISTP CategoryKey = "ISTP"
	ISFP CategoryKey = "ISFP"
	ESTP CategoryKey = "ESTP"
	ESFP CategoryKey = "ESFP"
)

var categories = [...]CategoryKey{
	INTJ, INTP, ENTJ, ENTP,
	INFJ, INFP, ENFJ, ENFP,
	ISTJ, ISFJ, ESTJ, ESFJ,
	ISTP, ISFP, ESTP, ESFP,
}

// Categories returns the sixteen keys in display order.
// The returned slice is a copy.
func Categories() []CategoryKey {
	out := make([]CategoryKey, len(categories))
	copy(out, categories[:])
	return out
}

// DefaultCategory is the selection a single-select input starts with.
func DefaultCategory() CategoryKey {
	return categories[0]
}

// Valid reports whether k is one of the sixteen keys.
func (k CategoryKey) Valid() bool {
	for _, c := range categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory normalizes s (trimmed, upper-cased) and validates it.
func ParseCategory(s string) (CategoryKey, error) {
	k := CategoryKey(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return k, nil
}
