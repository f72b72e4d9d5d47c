// Package input supplies raw field values for a user record.
//
// A Source answers one field at a time. Terminal prompts an operator,
// File reads a KEY=value file and Fixture serves a fixed map. Collect
// walks core.UserFields in order and builds a core.RawRecord.
package input

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/userdata/internal/core"
)

// ErrNoValue is returned by a Source that has nothing for a field.
var ErrNoValue = errors.New("no value supplied")

// ErrDuplicateField is returned when two keys differing only in case name
// the same field.
var ErrDuplicateField = errors.New("field given more than once")

func duplicateFieldError(a, b string) error {
	if a > b {
		a, b = b, a
	}
	return fmt.Errorf("%w: %q and %q", ErrDuplicateField, a, b)
}

// Source supplies the raw value for a field.
type Source interface {
	Supply(field core.Field) (string, error)
}

// Collect asks src for every field in declaration order.
// Fields the source has no value for are left out of the record so
// validation can report them as missing.
func Collect(src Source) (core.RawRecord, error) {
	raw := make(core.RawRecord, len(core.UserFields))
	for _, spec := range core.UserFields {
		v, err := src.Supply(spec.Field)
		if errors.Is(err, ErrNoValue) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", spec.Field, err)
		}
		raw[spec.Field] = v
	}
	return raw, nil
}
