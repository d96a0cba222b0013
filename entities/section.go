package entities

import (
	"errors"
	"fmt"

	"github.com/giygas/medsummary/sections"
)

// Section names, identical to the JSON keys of the owning entity
const (
	SectionDiagnoses        = "diagnoses"
	SectionHospitalizations = "hospitalizations"
	SectionAllergies        = "allergies"
	SectionProcedures       = "procedures"
	SectionTreatments       = "treatments"
	SectionTestsImaging     = "testsImaging"
	SectionDoctors          = "doctors"
	SectionMeds             = "meds"
)

var (
	// ErrUnknownSection is returned for a section name the entity does not own
	ErrUnknownSection = errors.New("unknown section")
	// ErrUnknownField is returned for a scalar field or row key that does not exist
	ErrUnknownField = sections.ErrUnknownField
	// ErrTooManyRows is returned when a section would grow past sections.MaxRows
	ErrTooManyRows = sections.ErrTooManyRows
)

// sectionOps binds one section of entity E to the generic list operations
type sectionOps[E any] interface {
	add(e *E, values map[string]string) error
	remove(e *E, index int)
	update(e *E, index int, key, value string) error
	ensure(e *E)
	clone(e *E)
	row(e *E, index int) (map[string]string, bool)
	rows(e *E) []map[string]string
	hasContent(e *E) bool
	keys() []string
	value(e *E) any
}

type listOps[E any, T sections.Record[T]] struct {
	ref func(*E) *[]T
}

func (o listOps[E, T]) blank() T {
	var zero T
	return zero
}

func (o listOps[E, T]) add(e *E, values map[string]string) error {
	list := o.ref(e)
	if !sections.CanAdd(*list) {
		return fmt.Errorf("%w: limit %d", sections.ErrTooManyRows, sections.MaxRows)
	}
	row, err := sections.FromMap(o.blank(), values)
	if err != nil {
		return err
	}
	*list = sections.AddRow(*list, row)
	return nil
}

func (o listOps[E, T]) remove(e *E, index int) {
	list := o.ref(e)
	*list = sections.RemoveRow(*list, index, o.blank)
}

func (o listOps[E, T]) update(e *E, index int, key, value string) error {
	list := o.ref(e)
	next, err := sections.UpdateField(sections.EnsureNonEmpty(*list, o.blank), index, key, value, o.blank)
	if err != nil {
		return err
	}
	*list = next
	return nil
}

func (o listOps[E, T]) ensure(e *E) {
	list := o.ref(e)
	*list = sections.EnsureNonEmpty(*list, o.blank)
}

func (o listOps[E, T]) clone(e *E) {
	list := o.ref(e)
	if *list == nil {
		return
	}
	out := make([]T, len(*list))
	copy(out, *list)
	*list = out
}

func (o listOps[E, T]) row(e *E, index int) (map[string]string, bool) {
	list := *o.ref(e)
	if index < 0 || index >= len(list) {
		return nil, false
	}
	return sections.ToMap(list[index]), true
}

func (o listOps[E, T]) rows(e *E) []map[string]string {
	list := *o.ref(e)
	out := make([]map[string]string, len(list))
	for i, r := range list {
		out[i] = sections.ToMap(r)
	}
	return out
}

func (o listOps[E, T]) hasContent(e *E) bool {
	return sections.AnyContent(*o.ref(e))
}

func (o listOps[E, T]) keys() []string {
	return o.blank().Keys()
}

func (o listOps[E, T]) value(e *E) any {
	list := *o.ref(e)
	out := make([]T, len(list))
	copy(out, list)
	return out
}
