package valueobject

import "fmt"

// RiskCategory is the coarse risk class shown to underwriters.
type RiskCategory struct {
	value string
}

var (
	RiskCategoryLow    = RiskCategory{value: "low"}
	RiskCategoryMedium = RiskCategory{value: "medium"}
	RiskCategoryHigh   = RiskCategory{value: "high"}
)

// RiskCategoryFromString reconstructs a RiskCategory from its string representation.
func RiskCategoryFromString(s string) (RiskCategory, error) {
	switch s {
	case "low":
		return RiskCategoryLow, nil
	case "medium":
		return RiskCategoryMedium, nil
	case "high":
		return RiskCategoryHigh, nil
	default:
		return RiskCategory{}, fmt.Errorf("invalid risk category: %s", s)
	}
}

// String returns the string representation.
func (c RiskCategory) String() string {
	return c.value
}

// IsZero returns true if the category has not been set.
func (c RiskCategory) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another RiskCategory.
func (c RiskCategory) Equal(other RiskCategory) bool {
	return c.value == other.value
}

func (c RiskCategory) MarshalText() ([]byte, error) {
	return []byte(c.value), nil
}

func (c *RiskCategory) UnmarshalText(text []byte) error {
	parsed, err := RiskCategoryFromString(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RiskBand pairs a category with its display label. Two bands share the
// "high" category and differ only by label.
type RiskBand struct {
	category RiskCategory
	label    string
	floor    int
}

var (
	RiskBandLow      = RiskBand{category: RiskCategoryLow, label: "Low Risk (Safe)", floor: 75}
	RiskBandModerate = RiskBand{category: RiskCategoryMedium, label: "Moderate Risk", floor: 50}
	RiskBandHigh     = RiskBand{category: RiskCategoryHigh, label: "High Risk", floor: 25}
	RiskBandCritical = RiskBand{category: RiskCategoryHigh, label: "Critical Risk", floor: 0}
)

// RiskBandFromScore maps a 0-100 risk score (higher is safer) to its band.
func RiskBandFromScore(score int) RiskBand {
	switch {
	case score >= RiskBandLow.floor:
		return RiskBandLow
	case score >= RiskBandModerate.floor:
		return RiskBandModerate
	case score >= RiskBandHigh.floor:
		return RiskBandHigh
	default:
		return RiskBandCritical
	}
}

// RiskBandFromLabel reconstructs a band from its display label.
func RiskBandFromLabel(label string) (RiskBand, error) {
	for _, b := range []RiskBand{RiskBandLow, RiskBandModerate, RiskBandHigh, RiskBandCritical} {
		if b.label == label {
			return b, nil
		}
	}
	return RiskBand{}, fmt.Errorf("invalid risk band label: %s", label)
}

// Category returns the coarse category of the band.
func (b RiskBand) Category() RiskCategory {
	return b.category
}

// Label returns the display label.
func (b RiskBand) Label() string {
	return b.label
}

// IsCritical returns true for the lowest band.
func (b RiskBand) IsCritical() bool {
	return b == RiskBandCritical
}
