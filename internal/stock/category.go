package stock

// DefaultCategory is applied when an item is created without one.
const DefaultCategory = "Prescription Drugs"

// Categories is the closed list surfaced to the UI; "Other" is the escape
// hatch for anything that does not fit.
var Categories = []string{
	"Prescription Drugs",
	"Over-the-Counter",
	"Vitamins & Supplements",
	"Antibiotics",
	"Pain Relief",
	"First Aid",
	"Medical Devices",
	"Surgical Supplies",
	"Diabetes Care",
	"Respiratory Care",
	"Skin Care",
	"Eye & Ear Care",
	"Baby Care",
	"Personal Care",
	"Other",
}

// ValidCategory reports whether c is one of the enumerated categories.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
