// Package sections implements the list operations shared by every repeating
// section of the summary form (diagnoses, allergies, medications, ...).
//
// All functions are pure: they never modify the slice they are given and always
// return a freshly allocated one. Callers assign the result back into the owning
// entity and take care of persistence.
package sections

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned when a row update names a key the record does not have
	ErrUnknownField = errors.New("unknown field")
	// ErrNegativeIndex is returned when a row update targets a negative position
	ErrNegativeIndex = errors.New("negative row index")
	// ErrTooManyRows is returned when an edit would grow a section past MaxRows
	ErrTooManyRows = errors.New("too many rows")
)

// MaxRows caps the length of a section
const MaxRows = 200

// Record is implemented by the value types stored in a section.
// WithField returns a copy of the record with key set to value; ok is false
// when the record has no such key.
type Record[T any] interface {
	Field(key string) (string, bool)
	WithField(key, value string) (T, bool)
	Keys() []string
}

// EnsureNonEmpty returns list, or a single template row when list is empty
func EnsureNonEmpty[T any](list []T, template func() T) []T {
	if len(list) == 0 {
		return []T{template()}
	}
	return clone(list)
}

// UpdateField sets key on the row at index. When index is past the end of the
// list, the gap is filled with template rows so the row exists afterwards.
// An index at or beyond MaxRows is rejected unless the row already exists.
func UpdateField[T Record[T]](list []T, index int, key, value string, template func() T) ([]T, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeIndex, index)
	}
	if index >= len(list) && index >= MaxRows {
		return nil, fmt.Errorf("%w: index %d, limit %d", ErrTooManyRows, index, MaxRows)
	}
	if _, ok := template().Field(key); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}

	size := max(len(list), index+1)
	out := make([]T, size)
	copy(out, list)
	for i := len(list); i < size; i++ {
		out[i] = template()
	}

	updated, _ := out[index].WithField(key, value)
	out[index] = updated
	return out, nil
}

// CanAdd reports whether one more row fits under MaxRows
func CanAdd[T any](list []T) bool {
	return len(list) < MaxRows
}

// AddRow appends row to the end of the list
func AddRow[T any](list []T, row T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	return append(out, row)
}

// RemoveRow drops the row at index. An out of range index leaves the rows
// untouched. If nothing is left, a single fallback row is returned instead of
// an empty list.
func RemoveRow[T any](list []T, index int, fallback func() T) []T {
	out := make([]T, 0, len(list))
	for i, row := range list {
		if i != index {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback())
	}
	return out
}

// HasContent reports whether at least one field of row is non-blank
func HasContent[T Record[T]](row T) bool {
	for _, key := range row.Keys() {
		if v, _ := row.Field(key); strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Filter keeps the rows that have content, preserving order
func Filter[T Record[T]](list []T) []T {
	out := make([]T, 0, len(list))
	for _, row := range list {
		if HasContent(row) {
			out = append(out, row)
		}
	}
	return out
}

// AnyContent reports whether any row of list has content
func AnyContent[T Record[T]](list []T) bool {
	for _, row := range list {
		if HasContent(row) {
			return true
		}
	}
	return false
}

// ToMap flattens a record into key/value pairs
func ToMap[T Record[T]](row T) map[string]string {
	out := make(map[string]string, len(row.Keys()))
	for _, key := range row.Keys() {
		out[key], _ = row.Field(key)
	}
	return out
}

// FromMap builds a record from template and the given values. Unknown keys
// are rejected so a typo in a request never silently drops data.
func FromMap[T Record[T]](template T, values map[string]string) (T, error) {
	row := template
	for key, value := range values {
		next, ok := row.WithField(key, value)
		if !ok {
			return template, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		row = next
	}
	return row, nil
}

func clone[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}
