package domain

type PrescriptionStatus string

const (
	PrescriptionActive    PrescriptionStatus = "ACTIVE"
	PrescriptionCompleted PrescriptionStatus = "COMPLETED"
	PrescriptionCancelled PrescriptionStatus = "CANCELLED"
)

// MedicationLine is one prescribed drug within a prescription. Dosage,
// frequency and duration are free-form strings as entered on the form
// (e.g. "500mg", "Twice daily", "30 days", "Until finished").
type MedicationLine struct {
	ID             int64  `db:"id" json:"id,omitempty"`
	PrescriptionID int64  `db:"prescription_id" json:"prescription_id,omitempty"`
	Position       int    `db:"position" json:"-"`
	Name           string `db:"name" json:"name"`
	Dosage         string `db:"dosage" json:"dosage"`
	Frequency      string `db:"frequency" json:"frequency"`
	Duration       string `db:"duration" json:"duration"`
	Instructions   string `db:"instructions" json:"instructions,omitempty"`
	Quantity       int    `db:"quantity" json:"quantity"`
	Refills        int    `db:"refills" json:"refills"`
}

// Prescription holds an ordered, non-empty list of medication lines. The
// first line's duration drives the auto-derived end date. Edits replace the
// whole document; lines are never patched individually.
type Prescription struct {
	ID          int64              `db:"id" json:"id"`
	PatientID   int64              `db:"patient_id" json:"patient_id"`
	DoctorID    *int64             `db:"doctor_id" json:"doctor_id,omitempty"`
	Diagnosis   string             `db:"diagnosis" json:"diagnosis"`
	Medications []MedicationLine   `db:"-" json:"medications"`
	Notes       string             `db:"notes" json:"notes,omitempty"`
	StartDate   string             `db:"start_date" json:"start_date"`
	EndDate     *string            `db:"end_date" json:"end_date,omitempty"`
	Status      PrescriptionStatus `db:"status" json:"status"`
	CreatedAt   string             `db:"created_at" json:"created_at"`
	UpdatedAt   string             `db:"updated_at" json:"updated_at"`
}
