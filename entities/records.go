package entities

// Record shapes of the repeating sections. Every field is free text except
// Diagnosis.Status, which is StatusConfirmed, StatusSuspected or empty.

// Diagnosis status values
const (
	StatusConfirmed = "confirmed"
	StatusSuspected = "suspected"
)

// Diagnosis is a row of the diagnoses section
type Diagnosis struct {
	Name   string `json:"name"`
	By     string `json:"by"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

var diagnosisKeys = []string{"name", "by", "date", "status"}

func (d *Diagnosis) refs() map[string]*string {
	return map[string]*string{"name": &d.Name, "by": &d.By, "date": &d.Date, "status": &d.Status}
}

func (d Diagnosis) Keys() []string { return diagnosisKeys }

func (d Diagnosis) Field(key string) (string, bool) { return field(d.refs(), key) }

func (d Diagnosis) WithField(key, value string) (Diagnosis, bool) {
	ok := setField(d.refs(), key, value)
	return d, ok
}

// Hospitalization is a row of the hospitalizations section
type Hospitalization struct {
	Why  string `json:"why"`
	When string `json:"when"`
}

var hospitalizationKeys = []string{"why", "when"}

func (h *Hospitalization) refs() map[string]*string {
	return map[string]*string{"why": &h.Why, "when": &h.When}
}

func (h Hospitalization) Keys() []string { return hospitalizationKeys }

func (h Hospitalization) Field(key string) (string, bool) { return field(h.refs(), key) }

func (h Hospitalization) WithField(key, value string) (Hospitalization, bool) {
	ok := setField(h.refs(), key, value)
	return h, ok
}

// Allergy is a row of the allergies section
type Allergy struct {
	Item     string `json:"item"`
	Reaction string `json:"reaction"`
}

var allergyKeys = []string{"item", "reaction"}

func (a *Allergy) refs() map[string]*string {
	return map[string]*string{"item": &a.Item, "reaction": &a.Reaction}
}

func (a Allergy) Keys() []string { return allergyKeys }

func (a Allergy) Field(key string) (string, bool) { return field(a.refs(), key) }

func (a Allergy) WithField(key, value string) (Allergy, bool) {
	ok := setField(a.refs(), key, value)
	return a, ok
}

// Procedure is a row of the procedures section
type Procedure struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

var procedureKeys = []string{"name", "date", "notes"}

func (p *Procedure) refs() map[string]*string {
	return map[string]*string{"name": &p.Name, "date": &p.Date, "notes": &p.Notes}
}

func (p Procedure) Keys() []string { return procedureKeys }

func (p Procedure) Field(key string) (string, bool) { return field(p.refs(), key) }

func (p Procedure) WithField(key, value string) (Procedure, bool) {
	ok := setField(p.refs(), key, value)
	return p, ok
}

// Treatment is a row of the treatments section
type Treatment struct {
	Name          string `json:"name"`
	Timeframe     string `json:"timeframe"`
	Effectiveness string `json:"effectiveness"`
	SideEffects   string `json:"sideEffects"`
}

var treatmentKeys = []string{"name", "timeframe", "effectiveness", "sideEffects"}

func (t *Treatment) refs() map[string]*string {
	return map[string]*string{
		"name":          &t.Name,
		"timeframe":     &t.Timeframe,
		"effectiveness": &t.Effectiveness,
		"sideEffects":   &t.SideEffects,
	}
}

func (t Treatment) Keys() []string { return treatmentKeys }

func (t Treatment) Field(key string) (string, bool) { return field(t.refs(), key) }

func (t Treatment) WithField(key, value string) (Treatment, bool) {
	ok := setField(t.refs(), key, value)
	return t, ok
}

// TestImaging is a row of the tests & imaging section
type TestImaging struct {
	Test    string `json:"test"`
	Finding string `json:"finding"`
	Date    string `json:"date"`
}

var testImagingKeys = []string{"test", "finding", "date"}

func (t *TestImaging) refs() map[string]*string {
	return map[string]*string{"test": &t.Test, "finding": &t.Finding, "date": &t.Date}
}

func (t TestImaging) Keys() []string { return testImagingKeys }

func (t TestImaging) Field(key string) (string, bool) { return field(t.refs(), key) }

func (t TestImaging) WithField(key, value string) (TestImaging, bool) {
	ok := setField(t.refs(), key, value)
	return t, ok
}

// Doctor is a row of the doctors section
type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Contact   string `json:"contact"`
}

var doctorKeys = []string{"name", "specialty", "contact"}

func (d *Doctor) refs() map[string]*string {
	return map[string]*string{"name": &d.Name, "specialty": &d.Specialty, "contact": &d.Contact}
}

func (d Doctor) Keys() []string { return doctorKeys }

func (d Doctor) Field(key string) (string, bool) { return field(d.refs(), key) }

func (d Doctor) WithField(key, value string) (Doctor, bool) {
	ok := setField(d.refs(), key, value)
	return d, ok
}

// Medication is a row of the visit's current medications
type Medication struct {
	Name string `json:"name"`
	Dose string `json:"dose"`
	Freq string `json:"freq"`
}

var medicationKeys = []string{"name", "dose", "freq"}

func (m *Medication) refs() map[string]*string {
	return map[string]*string{"name": &m.Name, "dose": &m.Dose, "freq": &m.Freq}
}

func (m Medication) Keys() []string { return medicationKeys }

func (m Medication) Field(key string) (string, bool) { return field(m.refs(), key) }

func (m Medication) WithField(key, value string) (Medication, bool) {
	ok := setField(m.refs(), key, value)
	return m, ok
}

func field(refs map[string]*string, key string) (string, bool) {
	p, ok := refs[key]
	if !ok {
		return "", false
	}
	return *p, true
}

func setField(refs map[string]*string, key, value string) bool {
	p, ok := refs[key]
	if !ok {
		return false
	}
	*p = value
	return true
}
