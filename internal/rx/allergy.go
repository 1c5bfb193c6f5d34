package rx

import (
	"strings"

	"medichart/m/domain"
)

// NoAllergiesRecorded is shown when a patient has no recorded allergies or
// could not be looked up. The allergy surface is advisory only: it is
// rendered next to the medication form for clinician review and never
// blocks submission.
const NoAllergiesRecorded = "No allergies recorded"

// ListAllergies returns the patient's recorded allergies in stored order.
// A nil patient (lookup failure) degrades to an empty list.
func ListAllergies(p *domain.Patient) []string {
	if p == nil {
		return nil
	}
	return p.Allergies
}

// AllergyBanner renders the advisory line for a list of allergies.
func AllergyBanner(allergies []string) string {
	if len(allergies) == 0 {
		return NoAllergiesRecorded
	}
	return strings.Join(allergies, ", ")
}
