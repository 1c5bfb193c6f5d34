package rx

import (
	"fmt"
	"strings"
	"time"

	"medichart/m/domain"
)

// DateLayout is the calendar-date format used across the form fields.
const DateLayout = "2006-01-02"

// DurationDays parses the leading integer out of a duration string.
// "30 days" parses to 30; sentinels such as "Until finished" or
// "As directed" have no leading digits and parse to 0, which means
// "do not auto-derive".
func DurationDays(duration string) int {
	s := strings.TrimSpace(duration)
	days := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		days = days*10 + int(r-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	return days
}

// SyncEndDate recomputes EndDate from StartDate plus the first medication
// line's duration. It runs on every change to either field: when the
// duration parses to a positive day count the stored end date is
// overwritten, even one the user typed in by hand. A zero day count leaves
// EndDate untouched. Returns an error only when StartDate is present but
// not a parseable calendar date.
func SyncEndDate(p *domain.Prescription) error {
	if p.StartDate == "" || len(p.Medications) == 0 {
		return nil
	}
	days := DurationDays(p.Medications[0].Duration)
	if days <= 0 {
		return nil
	}
	start, err := time.Parse(DateLayout, p.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", p.StartDate, err)
	}
	end := start.AddDate(0, 0, days).Format(DateLayout)
	p.EndDate = &end
	return nil
}

// ApplyDefaults fills creation-time defaults: status ACTIVE and a start
// date of "today". The caller supplies now so tests can pin the clock.
func ApplyDefaults(p *domain.Prescription, now time.Time) {
	if p.Status == "" {
		p.Status = domain.PrescriptionActive
	}
	if strings.TrimSpace(p.StartDate) == "" {
		p.StartDate = now.Format(DateLayout)
	}
}
