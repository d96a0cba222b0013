package projection

import "strings"

const dash = " – "

// leadSeparators are the prefixes a detail can start with, longest match first
var leadSeparators = []string{dash, ". ", " "}

// detail concatenates the non-blank values, each behind its own separator
type detail struct {
	b strings.Builder
}

func (d *detail) add(sep, value string) *detail {
	if value != "" {
		d.b.WriteString(sep)
		d.b.WriteString(value)
	}
	return d
}

func (d *detail) String() string { return d.b.String() }

func formatDiagnosis(f map[string]string) Row {
	var d detail
	if f["status"] != "" {
		d.add(" (", f["status"]).b.WriteString(")")
	}
	d.add(dash, f["by"]).add(dash, f["date"])
	return Row{Lead: f["name"], Detail: d.String()}
}

func formatHospitalization(f map[string]string) Row {
	var d detail
	d.add(dash, f["when"])
	return Row{Lead: f["why"], Detail: d.String()}
}

func formatMedication(f map[string]string) Row {
	var d detail
	d.add(dash, f["dose"]).add(dash, f["freq"])
	return Row{Lead: f["name"], Detail: d.String()}
}

func formatAllergy(f map[string]string) Row {
	var d detail
	d.add(dash, f["reaction"])
	return Row{Lead: f["item"], Detail: d.String()}
}

func formatProcedure(f map[string]string) Row {
	var d detail
	d.add(dash, f["date"]).add(". ", f["notes"])
	return Row{Lead: f["name"], Detail: d.String()}
}

func formatTreatment(f map[string]string) Row {
	var d detail
	d.add(dash, f["timeframe"]).add(". ", f["effectiveness"]).add(" Side effects: ", f["sideEffects"])
	return Row{Lead: f["name"], Detail: d.String()}
}

func formatTestImaging(f map[string]string) Row {
	var d detail
	d.add(dash, f["date"]).add(". ", f["finding"])
	return Row{Lead: f["test"], Detail: d.String()}
}

func formatDoctor(f map[string]string) Row {
	var d detail
	d.add(dash, f["specialty"]).add(dash, f["contact"])
	return Row{Lead: f["name"], Detail: d.String()}
}
