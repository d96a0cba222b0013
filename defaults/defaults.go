// Package defaults holds the sample content shown to a new user: as input
// placeholders while a field is empty, and in the printed summary while the
// whole form is still untouched. Nothing here is ever persisted.
package defaults

import (
	"github.com/giygas/medsummary/entities"
)

// Provider answers lookups against one patient table and one visit table,
// each shaped exactly like the entity it stands in for
type Provider struct {
	patient entities.PatientProfile
	visit   entities.VisitRecord
}

// New builds a Provider over custom tables
func New(patient entities.PatientProfile, visit entities.VisitRecord) *Provider {
	return &Provider{patient: patient.Clone(), visit: visit.Clone()}
}

// Default returns the built-in sample story
func Default() *Provider {
	return New(samplePatient, sampleVisit)
}

// Patient returns a copy of the patient table
func (p *Provider) Patient() entities.PatientProfile {
	if p == nil {
		return entities.PatientProfile{}
	}
	return p.patient.Clone()
}

// Visit returns a copy of the visit table
func (p *Provider) Visit() entities.VisitRecord {
	if p == nil {
		return entities.VisitRecord{}
	}
	return p.visit.Clone()
}

// DefaultFor returns the sample value of a scalar field or a whole section.
// Patient fields are looked up first, then visit fields.
func (p *Provider) DefaultFor(field string) (any, bool) {
	if p == nil {
		return nil, false
	}
	if v, err := p.patient.Get(field); err == nil {
		return v, true
	}
	if v, err := p.visit.Get(field); err == nil {
		return v, true
	}
	return nil, false
}

// Row returns the sample row at index of section
func (p *Provider) Row(section string, index int) (map[string]string, bool) {
	if p == nil {
		return nil, false
	}
	if entities.IsPatientSection(section) {
		return p.patient.Row(section, index)
	}
	return p.visit.Row(section, index)
}

// Placeholder returns the hint for one input: a row field when section is a
// list section, otherwise the scalar named by section. Missing entries yield "".
func (p *Provider) Placeholder(section string, index int, key string) string {
	if row, ok := p.Row(section, index); ok {
		return row[key]
	}
	if v, ok := p.DefaultFor(section); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
