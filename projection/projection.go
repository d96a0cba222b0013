// Package projection derives the printable summary from the current patient
// and visit snapshots. It is pure: nothing is cached and nothing is stored, so
// every read recomputes from whatever the entities hold right now.
package projection

import (
	"strings"

	"github.com/giygas/medsummary/defaults"
	"github.com/giygas/medsummary/entities"
	"github.com/giygas/medsummary/sections"
)

// Title heads every printed summary
const Title = "Patient Medical Summary"

// Section ids for the free-text blocks. List sections reuse the entity
// section names.
const (
	SectionStory            = "story"
	SectionProblemsToday    = "problemsToday"
	SectionFunctionalImpact = "functionalImpact"
)

// PrintableSummary is the ordered, filtered view handed to a print host
type PrintableSummary struct {
	Title       string    `json:"title"`
	Pristine    bool      `json:"pristine"`
	PatientName string    `json:"patientName,omitempty"`
	DOB         string    `json:"dob,omitempty"`
	Sections    []Section `json:"sections"`
}

// Section is one printed block. Text is set for free-text blocks and Rows
// for list blocks; a section is never emitted empty.
type Section struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Text         string `json:"text,omitempty"`
	Rows         []Row  `json:"rows,omitempty"`
	FromDefaults bool   `json:"fromDefaults,omitempty"`
}

// Row is one list entry. Lead is the emphasised part (the name, the reason,
// the test) and Detail the rest of the line with its separators.
type Row struct {
	Lead   string            `json:"lead,omitempty"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields"`
}

// Line joins lead and detail. When the lead is blank the one separator
// in front of the first detail value is dropped; the value itself is kept
// as typed.
func (r Row) Line() string {
	if r.Lead != "" {
		return r.Lead + r.Detail
	}
	for _, sep := range leadSeparators {
		if rest, ok := strings.CutPrefix(r.Detail, sep); ok {
			return rest
		}
	}
	return r.Detail
}

// PatientLine renders "Patient: name · DOB: dob" with whichever parts exist
func (s PrintableSummary) PatientLine() string {
	var parts []string
	if s.PatientName != "" {
		parts = append(parts, "Patient: "+s.PatientName)
	}
	if s.DOB != "" {
		parts = append(parts, "DOB: "+s.DOB)
	}
	return strings.Join(parts, " · ")
}

// Section returns the section with id, if it was printed
func (s PrintableSummary) Section(id string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return Section{}, false
}

// IsPristine reports whether every field of both entities is currently blank.
// It is recomputed from the values each time, so a form that was filled in
// and then emptied again counts as pristine.
func IsPristine(patient entities.PatientProfile, visit entities.VisitRecord) bool {
	return !patient.HasUserData() && !visit.HasUserData()
}

// Summarize projects with the pristine flag computed from the entities
func Summarize(patient entities.PatientProfile, visit entities.VisitRecord, d *defaults.Provider) PrintableSummary {
	return Project(patient, visit, d, IsPristine(patient, visit))
}

// Project builds the summary. Live values win when non-blank; defaults fill
// in only when pristine is set; anything still empty is left out.
func Project(patient entities.PatientProfile, visit entities.VisitRecord, d *defaults.Provider, pristine bool) PrintableSummary {
	dp := d.Patient()
	dv := d.Visit()

	summary := PrintableSummary{
		Title:       Title,
		Pristine:    pristine,
		PatientName: pick(patient.Name, dp.Name, pristine),
		DOB:         pick(patient.DOB, dp.DOB, pristine),
		Sections:    make([]Section, 0, 11),
	}

	add := func(sec Section, ok bool) {
		if ok {
			summary.Sections = append(summary.Sections, sec)
		}
	}

	add(textSection(SectionStory, "Story", visit.Symptoms, dv.Symptoms, pristine))
	add(textSection(SectionProblemsToday, "Problems Today", problemsText(visit), problemsText(dv), pristine))
	add(textSection(SectionFunctionalImpact, "Functional Impact", patient.FunctionalImpact, dp.FunctionalImpact, pristine))

	add(listSection(entities.SectionDiagnoses, "Diagnoses", patient.Diagnoses, dp.Diagnoses, pristine, formatDiagnosis))
	add(listSection(entities.SectionHospitalizations, "Hospitalizations", patient.Hospitalizations, dp.Hospitalizations, pristine, formatHospitalization))
	add(listSection(entities.SectionMeds, "Current Medications", visit.Meds, dv.Meds, pristine, formatMedication))
	add(listSection(entities.SectionAllergies, "Allergies", patient.Allergies, dp.Allergies, pristine, formatAllergy))
	add(listSection(entities.SectionProcedures, "Procedures & Surgeries", patient.Procedures, dp.Procedures, pristine, formatProcedure))
	add(listSection(entities.SectionTreatments, "Treatments", patient.Treatments, dp.Treatments, pristine, formatTreatment))
	add(listSection(entities.SectionTestsImaging, "Tests & Imaging", patient.TestsImaging, dp.TestsImaging, pristine, formatTestImaging))
	add(listSection(entities.SectionDoctors, "Doctors / Specialists", patient.Doctors, dp.Doctors, pristine, formatDoctor))

	return summary
}

func pick(live, fallback string, pristine bool) string {
	if v := strings.TrimSpace(live); v != "" || !pristine {
		return v
	}
	return strings.TrimSpace(fallback)
}

func textSection(id, title, live, fallback string, pristine bool) (Section, bool) {
	text := pick(live, fallback, pristine)
	if text == "" {
		return Section{}, false
	}
	fromDefaults := strings.TrimSpace(live) == ""
	return Section{ID: id, Title: title, Text: text, FromDefaults: fromDefaults}, true
}

// problemsText prefers the free text and falls back to the parsed list
func problemsText(v entities.VisitRecord) string {
	if text := strings.TrimSpace(v.ProblemsTodayText); text != "" {
		return text
	}
	items := make([]string, 0, len(v.ProblemsTodayList))
	for _, item := range v.ProblemsTodayList {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return strings.Join(items, ", ")
}

func listSection[T sections.Record[T]](id, title string, live, fallback []T, pristine bool, format func(map[string]string) Row) (Section, bool) {
	rows := sections.Filter(live)
	fromDefaults := false
	if len(rows) == 0 && pristine {
		rows = fallback
		fromDefaults = true
	}
	if len(rows) == 0 {
		return Section{}, false
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		fields := sections.ToMap(r)
		for k, v := range fields {
			fields[k] = strings.TrimSpace(v)
		}
		row := format(fields)
		row.Fields = fields
		out = append(out, row)
	}
	return Section{ID: id, Title: title, Rows: out, FromDefaults: fromDefaults}, true
}
