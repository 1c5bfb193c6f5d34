package domain

// Medication is a catalog entry used for autocomplete on the prescription
// form. It carries no stock or pricing information.
type Medication struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	GenericName  string `db:"generic_name" json:"generic_name"`
	Form         string `db:"form" json:"form"`
	Strength     string `db:"strength" json:"strength"`
	Manufacturer string `db:"manufacturer" json:"manufacturer"`
}
