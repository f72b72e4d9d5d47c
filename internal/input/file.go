package input

import (
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/joho/godotenv"
)

// File serves field values parsed from a KEY=value file.
// Keys match field names case-insensitively, so NAME and name both work.
type File struct {
	values map[string]string
}

// ReadFile parses path with godotenv. A leading UTF-8 BOM is ignored.
// Keys that differ only in case are rejected with ErrDuplicateField.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	defer fh.Close()

	vals, err := godotenv.Parse(newBOMSkippingReader(fh))
	if err != nil {
		return nil, fmt.Errorf("parse record file %s: %w", path, err)
	}

	f := &File{values: make(map[string]string, len(vals))}
	keys := make(map[string]string, len(vals))
	for k, v := range vals {
		key := strings.ToLower(strings.TrimSpace(k))
		if prev, dup := keys[key]; dup {
			return nil, fmt.Errorf("parse record file %s: %w", path, duplicateFieldError(prev, k))
		}
		keys[key] = k
		f.values[key] = v
	}
	return f, nil
}

// Supply returns the value stored under the field name.
func (f *File) Supply(field core.Field) (string, error) {
	v, ok := f.values[strings.ToLower(string(field))]
	if !ok {
		return "", ErrNoValue
	}
	return v, nil
}

// Fixture is a map-backed Source. Keys are field names.
type Fixture map[core.Field]string

// Supply returns the mapped value or ErrNoValue.
func (f Fixture) Supply(field core.Field) (string, error) {
	v, ok := f[field]
	if !ok {
		return "", ErrNoValue
	}
	return v, nil
}

// FixtureFromStrings builds a Fixture from arbitrary string keys,
// dropping keys that are not user fields. Field names match
// case-insensitively, so "name" and "NAME" together are ErrDuplicateField.
func FixtureFromStrings(m map[string]string) (Fixture, error) {
	f := make(Fixture, len(m))
	keys := make(map[core.Field]string, len(m))
	for k, v := range m {
		spec, ok := core.LookupField(k)
		if !ok {
			continue
		}
		if prev, dup := keys[spec.Field]; dup {
			return nil, duplicateFieldError(prev, k)
		}
		keys[spec.Field] = k
		f[spec.Field] = v
	}
	return f, nil
}
