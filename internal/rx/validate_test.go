package rx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medichart/m/domain"
)

func validPrescription() domain.Prescription {
	return domain.Prescription{
		PatientID: 7,
		Diagnosis: "Acute sinusitis",
		StartDate: "2024-01-01",
		Status:    domain.PrescriptionActive,
		Medications: []domain.MedicationLine{
			{
				Name:      "Amoxicillin",
				Dosage:    "500mg",
				Frequency: "Three times daily",
				Duration:  "10 days",
				Quantity:  30,
				Refills:   1,
			},
		},
	}
}

func TestValidateAcceptsCompletePrescription(t *testing.T) {
	errs := Validate(validPrescription())
	assert.Empty(t, errs)
}

func TestValidateRequiredHeaderFields(t *testing.T) {
	p := validPrescription()
	p.PatientID = 0
	p.Diagnosis = "   "
	p.StartDate = ""

	errs := Validate(p)
	assert.Equal(t, "Please select a patient", errs["patientId"])
	assert.Equal(t, "Diagnosis is required", errs["diagnosis"])
	assert.Equal(t, "Start date is required", errs["startDate"])
}

func TestValidateRequiresAtLeastOneMedication(t *testing.T) {
	p := validPrescription()
	p.Medications = nil

	errs := Validate(p)
	assert.Contains(t, errs, "medications")
}

func TestValidateMedicationLineFields(t *testing.T) {
	p := validPrescription()
	p.Medications = append(p.Medications, domain.MedicationLine{
		Name:     "",
		Dosage:   " ",
		Quantity: 0,
		Refills:  -1,
	})

	errs := Validate(p)
	assert.Contains(t, errs, "medication_1_name")
	assert.Contains(t, errs, "medication_1_dosage")
	assert.Contains(t, errs, "medication_1_frequency")
	assert.Contains(t, errs, "medication_1_duration")
	assert.Equal(t, "Quantity must be greater than 0", errs["medication_1_quantity"])
	assert.Equal(t, "Refills cannot be negative", errs["medication_1_refills"])
}

// Errors on one line must not bleed into another.
func TestValidatePerLineIsolation(t *testing.T) {
	p := validPrescription()
	p.Medications = append(p.Medications, domain.MedicationLine{})

	errs := Validate(p)
	for key := range errs {
		assert.NotContains(t, key, "medication_0_")
	}
}

func TestValidateDoesNotMutateCandidate(t *testing.T) {
	p := validPrescription()
	p.Medications[0].Name = ""
	before := p.Medications[0]

	_ = Validate(p)
	assert.Equal(t, before, p.Medications[0])
}
