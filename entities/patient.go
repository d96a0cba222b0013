// Package entities defines the two records the editor works on: the long-lived
// PatientProfile and the per-visit VisitRecord.
//
// Both are value objects. Every mutating method returns a new snapshot and
// leaves the receiver untouched, so a snapshot handed to a reader can never
// change underneath it.
package entities

import (
	"fmt"
	"strings"
)

// Patient scalar field names
const (
	FieldName             = "name"
	FieldDOB              = "dob"
	FieldFunctionalImpact = "functionalImpact"
)

// PatientProfile is the permanent clinical record
type PatientProfile struct {
	Name             string            `json:"name"`
	DOB              string            `json:"dob"`
	Diagnoses        []Diagnosis       `json:"diagnoses"`
	Hospitalizations []Hospitalization `json:"hospitalizations"`
	Allergies        []Allergy         `json:"allergies"`
	Procedures       []Procedure       `json:"procedures"`
	Treatments       []Treatment       `json:"treatments"`
	TestsImaging     []TestImaging     `json:"testsImaging"`
	Doctors          []Doctor          `json:"doctors"`
	FunctionalImpact string            `json:"functionalImpact"`
}

// patientSectionOrder is the display order of the editor cards
var patientSectionOrder = []string{
	SectionDiagnoses,
	SectionHospitalizations,
	SectionAllergies,
	SectionProcedures,
	SectionTreatments,
	SectionTestsImaging,
	SectionDoctors,
}

var patientSections = map[string]sectionOps[PatientProfile]{
	SectionDiagnoses: listOps[PatientProfile, Diagnosis]{
		ref: func(p *PatientProfile) *[]Diagnosis { return &p.Diagnoses },
	},
	SectionHospitalizations: listOps[PatientProfile, Hospitalization]{
		ref: func(p *PatientProfile) *[]Hospitalization { return &p.Hospitalizations },
	},
	SectionAllergies: listOps[PatientProfile, Allergy]{
		ref: func(p *PatientProfile) *[]Allergy { return &p.Allergies },
	},
	SectionProcedures: listOps[PatientProfile, Procedure]{
		ref: func(p *PatientProfile) *[]Procedure { return &p.Procedures },
	},
	SectionTreatments: listOps[PatientProfile, Treatment]{
		ref: func(p *PatientProfile) *[]Treatment { return &p.Treatments },
	},
	SectionTestsImaging: listOps[PatientProfile, TestImaging]{
		ref: func(p *PatientProfile) *[]TestImaging { return &p.TestsImaging },
	},
	SectionDoctors: listOps[PatientProfile, Doctor]{
		ref: func(p *PatientProfile) *[]Doctor { return &p.Doctors },
	},
}

var patientScalars = map[string]func(*PatientProfile) *string{
	FieldName:             func(p *PatientProfile) *string { return &p.Name },
	FieldDOB:              func(p *PatientProfile) *string { return &p.DOB },
	FieldFunctionalImpact: func(p *PatientProfile) *string { return &p.FunctionalImpact },
}

// NewPatientProfile returns the empty skeleton: blank scalars and a single
// blank row in every section
func NewPatientProfile() PatientProfile {
	return PatientProfile{}.Normalize()
}

// PatientSections lists the section names of a PatientProfile in display order
func PatientSections() []string {
	out := make([]string, len(patientSectionOrder))
	copy(out, patientSectionOrder)
	return out
}

// IsPatientSection reports whether name is a PatientProfile section
func IsPatientSection(name string) bool {
	_, ok := patientSections[name]
	return ok
}

// SectionKeys returns the row keys of a patient or visit section
func SectionKeys(section string) ([]string, error) {
	if ops, ok := patientSections[section]; ok {
		return ops.keys(), nil
	}
	if ops, ok := visitSections[section]; ok {
		return ops.keys(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
}

// Get returns a scalar field as a string or a section as a typed slice copy
func (p PatientProfile) Get(field string) (any, error) {
	if ref, ok := patientScalars[field]; ok {
		return *ref(&p), nil
	}
	if ops, ok := patientSections[field]; ok {
		return ops.value(&p), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Set assigns a scalar field
func (p PatientProfile) Set(field, value string) (PatientProfile, error) {
	ref, ok := patientScalars[field]
	if !ok {
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*ref(&p) = value
	return p, nil
}

// AddRow appends a row built from values to section. Missing keys stay blank.
func (p PatientProfile) AddRow(section string, values map[string]string) (PatientProfile, error) {
	ops, err := patientSection(section)
	if err != nil {
		return p, err
	}
	if err := ops.add(&p, values); err != nil {
		return p, err
	}
	return p, nil
}

// RemoveRow removes the row at index, leaving one blank row if the section empties
func (p PatientProfile) RemoveRow(section string, index int) (PatientProfile, error) {
	ops, err := patientSection(section)
	if err != nil {
		return p, err
	}
	ops.remove(&p, index)
	return p, nil
}

// UpdateRow sets key on the row at index, growing the section if needed
func (p PatientProfile) UpdateRow(section string, index int, key, value string) (PatientProfile, error) {
	ops, err := patientSection(section)
	if err != nil {
		return p, err
	}
	if err := ops.update(&p, index, key, value); err != nil {
		return p, err
	}
	return p, nil
}

// Row returns the row at index of section as key/value pairs
func (p PatientProfile) Row(section string, index int) (map[string]string, bool) {
	ops, ok := patientSections[section]
	if !ok {
		return nil, false
	}
	return ops.row(&p, index)
}

// Rows returns every row of section as key/value pairs
func (p PatientProfile) Rows(section string) ([]map[string]string, error) {
	ops, err := patientSection(section)
	if err != nil {
		return nil, err
	}
	return ops.rows(&p), nil
}

// Normalize gives every empty section its single blank row
func (p PatientProfile) Normalize() PatientProfile {
	for _, ops := range patientSections {
		ops.ensure(&p)
	}
	return p
}

// HasUserData reports whether any scalar or any row holds non-blank text
func (p PatientProfile) HasUserData() bool {
	for _, ref := range patientScalars {
		if strings.TrimSpace(*ref(&p)) != "" {
			return true
		}
	}
	for _, ops := range patientSections {
		if ops.hasContent(&p) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (p PatientProfile) Clone() PatientProfile {
	for _, ops := range patientSections {
		ops.clone(&p)
	}
	return p
}

func patientSection(name string) (sectionOps[PatientProfile], error) {
	ops, ok := patientSections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return ops, nil
}
