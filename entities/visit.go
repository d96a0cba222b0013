package entities

import (
	"fmt"
	"strings"
)

// Visit scalar field names
const (
	FieldSymptoms          = "symptoms"
	FieldProblemsTodayText = "problemsTodayText"
	FieldProblemsTodayList = "problemsTodayList"
	FieldLastUpdated       = "lastUpdated"
)

// VisitRecord holds what is only relevant to the upcoming appointment
type VisitRecord struct {
	Symptoms          string       `json:"symptoms"`
	ProblemsTodayText string       `json:"problemsTodayText"`
	ProblemsTodayList []string     `json:"problemsTodayList"`
	Meds              []Medication `json:"meds"`
	LastUpdated       string       `json:"lastUpdated"`
}

// VisitPatch carries the fields touched by one visit mutation, keyed by JSON name
type VisitPatch map[string]any

var visitSections = map[string]sectionOps[VisitRecord]{
	SectionMeds: listOps[VisitRecord, Medication]{
		ref: func(v *VisitRecord) *[]Medication { return &v.Meds },
	},
}

// lastUpdated is bookkeeping and never set through Set
var visitScalars = map[string]func(*VisitRecord) *string{
	FieldSymptoms:          func(v *VisitRecord) *string { return &v.Symptoms },
	FieldProblemsTodayText: func(v *VisitRecord) *string { return &v.ProblemsTodayText },
}

// NewVisitRecord returns the empty skeleton
func NewVisitRecord() VisitRecord {
	return VisitRecord{}.Normalize()
}

// VisitSections lists the section names of a VisitRecord
func VisitSections() []string {
	return []string{SectionMeds}
}

// IsVisitSection reports whether name is a VisitRecord section
func IsVisitSection(name string) bool {
	_, ok := visitSections[name]
	return ok
}

// Get returns a scalar, the problems list or the meds section
func (v VisitRecord) Get(field string) (any, error) {
	switch field {
	case FieldProblemsTodayList:
		return append([]string{}, v.ProblemsTodayList...), nil
	case FieldLastUpdated:
		return v.LastUpdated, nil
	}
	if ref, ok := visitScalars[field]; ok {
		return *ref(&v), nil
	}
	if ops, ok := visitSections[field]; ok {
		return ops.value(&v), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Set assigns a scalar field. Editing the problems text always discards the
// derived problems list.
func (v VisitRecord) Set(field, value string) (VisitRecord, error) {
	ref, ok := visitScalars[field]
	if !ok {
		return v, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*ref(&v) = value
	if field == FieldProblemsTodayText {
		v.ProblemsTodayList = []string{}
	}
	return v, nil
}

// SetProblemsList replaces the problems list from comma separated text,
// dropping blank entries. The free text field is left as is.
func (v VisitRecord) SetProblemsList(text string) VisitRecord {
	list := []string{}
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	v.ProblemsTodayList = list
	return v
}

// Touch stamps lastUpdated
func (v VisitRecord) Touch(stamp string) VisitRecord {
	v.LastUpdated = stamp
	return v
}

// AddRow appends a row built from values to section
func (v VisitRecord) AddRow(section string, values map[string]string) (VisitRecord, error) {
	ops, err := visitSection(section)
	if err != nil {
		return v, err
	}
	if err := ops.add(&v, values); err != nil {
		return v, err
	}
	return v, nil
}

// RemoveRow removes the row at index, leaving one blank row if the section empties
func (v VisitRecord) RemoveRow(section string, index int) (VisitRecord, error) {
	ops, err := visitSection(section)
	if err != nil {
		return v, err
	}
	ops.remove(&v, index)
	return v, nil
}

// UpdateRow sets key on the row at index, growing the section if needed
func (v VisitRecord) UpdateRow(section string, index int, key, value string) (VisitRecord, error) {
	ops, err := visitSection(section)
	if err != nil {
		return v, err
	}
	if err := ops.update(&v, index, key, value); err != nil {
		return v, err
	}
	return v, nil
}

// Row returns the row at index of section as key/value pairs
func (v VisitRecord) Row(section string, index int) (map[string]string, bool) {
	ops, ok := visitSections[section]
	if !ok {
		return nil, false
	}
	return ops.row(&v, index)
}

// Patch returns the current values of the named fields
func (v VisitRecord) Patch(fields ...string) VisitPatch {
	patch := make(VisitPatch, len(fields))
	for _, f := range fields {
		if value, err := v.Get(f); err == nil {
			patch[f] = value
		}
	}
	return patch
}

// Normalize gives meds its blank row and makes the problems list non-nil
func (v VisitRecord) Normalize() VisitRecord {
	for _, ops := range visitSections {
		ops.ensure(&v)
	}
	if v.ProblemsTodayList == nil {
		v.ProblemsTodayList = []string{}
	}
	return v
}

// HasUserData reports whether the visit holds any non-blank text.
// lastUpdated is not user data.
func (v VisitRecord) HasUserData() bool {
	for _, ref := range visitScalars {
		if strings.TrimSpace(*ref(&v)) != "" {
			return true
		}
	}
	for _, item := range v.ProblemsTodayList {
		if strings.TrimSpace(item) != "" {
			return true
		}
	}
	for _, ops := range visitSections {
		if ops.hasContent(&v) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (v VisitRecord) Clone() VisitRecord {
	for _, ops := range visitSections {
		ops.clone(&v)
	}
	if v.ProblemsTodayList != nil {
		v.ProblemsTodayList = append([]string{}, v.ProblemsTodayList...)
	}
	return v
}

func visitSection(name string) (sectionOps[VisitRecord], error) {
	ops, ok := visitSections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return ops, nil
}
