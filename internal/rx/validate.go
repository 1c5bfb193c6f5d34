// Package rx holds the prescription domain engine: validation, end-date
// derivation, status handling and the allergy advisory. Everything here is
// a pure computation over domain records; persistence and transport live in
// the api package.
package rx

import (
	"fmt"
	"strings"

	"medichart/m/domain"
)

// Validate checks a candidate prescription and returns a map from field key
// to a human-readable message. An empty map means the prescription is valid.
// It never fails and never mutates the candidate; callers render every entry
// and block submission until the map is empty.
func Validate(p domain.Prescription) map[string]string {
	errs := make(map[string]string)

	if p.PatientID == 0 {
		errs["patientId"] = "Please select a patient"
	}
	if strings.TrimSpace(p.Diagnosis) == "" {
		errs["diagnosis"] = "Diagnosis is required"
	}
	if strings.TrimSpace(p.StartDate) == "" {
		errs["startDate"] = "Start date is required"
	}
	if len(p.Medications) == 0 {
		errs["medications"] = "At least one medication is required"
	}

	for i, med := range p.Medications {
		if strings.TrimSpace(med.Name) == "" {
			errs[lineKey(i, "name")] = "Medication name is required"
		}
		if strings.TrimSpace(med.Dosage) == "" {
			errs[lineKey(i, "dosage")] = "Dosage is required"
		}
		if strings.TrimSpace(med.Frequency) == "" {
			errs[lineKey(i, "frequency")] = "Frequency is required"
		}
		if strings.TrimSpace(med.Duration) == "" {
			errs[lineKey(i, "duration")] = "Duration is required"
		}
		if med.Quantity <= 0 {
			errs[lineKey(i, "quantity")] = "Quantity must be greater than 0"
		}
		if med.Refills < 0 {
			errs[lineKey(i, "refills")] = "Refills cannot be negative"
		}
	}

	return errs
}

func lineKey(i int, field string) string {
	return fmt.Sprintf("medication_%d_%s", i, field)
}
