package rx

import (
	"errors"
	"fmt"

	"medichart/m/domain"
)

// ErrInvalidStatus reports a status value outside the enumerated set.
var ErrInvalidStatus = errors.New("invalid prescription status")

// ValidStatus reports whether s is one of the enumerated statuses.
func ValidStatus(s domain.PrescriptionStatus) bool {
	switch s {
	case domain.PrescriptionActive, domain.PrescriptionCompleted, domain.PrescriptionCancelled:
		return true
	}
	return false
}

// SetStatus returns a copy of p with the new status applied. Any of the
// three enumerated values is accepted from any current status; there is no
// transition graph. An out-of-enum value is a caller contract violation and
// fails rather than being stored silently.
func SetStatus(p domain.Prescription, status domain.PrescriptionStatus) (domain.Prescription, error) {
	if !ValidStatus(status) {
		return p, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	p.Status = status
	return p, nil
}
