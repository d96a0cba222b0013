package defaults

import "github.com/giygas/medsummary/entities"

var samplePatient = entities.PatientProfile{
	Name: "Jane Doe",
	DOB:  "04/21/1984",
	Diagnoses: []entities.Diagnosis{
		{Name: "ME/CFS", By: "Dr. L. Patel, Neurology", Date: "June 2008", Status: entities.StatusConfirmed},
	},
	Hospitalizations: []entities.Hospitalization{
		{Why: "Severe dehydration and acute glucose crisis (diabetes)", When: "March 2012"},
	},
	Allergies: []entities.Allergy{
		{Item: "Sulfa drugs", Reaction: "Hives, shortness of breath"},
	},
	Procedures: []entities.Procedure{
		{
			Name:  "Tilt table test",
			Date:  "January 2014",
			Notes: "Used to diagnose dysautonomia, showed abnormal heart rate response.",
		},
	},
	Treatments: []entities.Treatment{
		{
			Name:          "Graded exercise therapy",
			Timeframe:     "2015–2017",
			Effectiveness: "Ineffective, triggered flare-ups.",
			SideEffects:   "Worsened fatigue and muscle pain.",
		},
	},
	TestsImaging: []entities.TestImaging{
		{
			Test:    "Echocardiogram",
			Finding: "Normal structure and function. Helped rule out cardiac cause of dizziness.",
			Date:    "January 2014",
		},
	},
	Doctors: []entities.Doctor{
		{Name: "Dr. L. Patel", Specialty: "Neurology", Contact: "(555) 555-1200"},
	},
}

var sampleVisit = entities.VisitRecord{
	Symptoms: "In 2006, I experienced a severe case of Epstein-Barr virus that marked the beginning " +
		"of a long decline in my health. Over the following years, I developed persistent fatigue, " +
		"muscle weakness, and cognitive fog. I was later diagnosed with Myalgic Encephalomyelitis/Chronic " +
		"Fatigue Syndrome (ME/CFS), along with dysautonomia and Type 2 diabetes. These conditions have " +
		"progressively limited my mobility. I am now mostly bedridden and can walk only a few steps " +
		"before becoming weak, dizzy, and short of breath. My daily functioning is severely restricted, " +
		"and even small physical or mental efforts can trigger symptom flare-ups lasting days or weeks.",
	ProblemsTodayText: "Extreme fatigue, muscle weakness, dizziness, cognitive fog, shortness of breath, " +
		"blood sugar instability.",
	ProblemsTodayList: []string{},
	Meds: []entities.Medication{
		{Name: "Metformin", Dose: "500 mg", Freq: "Twice daily"},
	},
}
