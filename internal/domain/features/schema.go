package features

import "fmt"

// Kind distinguishes numeric from categorical feature slots.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// Value is one slot of a feature vector. Exactly one of Num and Cat is
// meaningful, depending on the slot's Kind.
type Value struct {
	Num float64
	Cat string
}

// Vector is an ordered feature vector laid out by Schema.
type Vector []Value

var numericFeatures = []string{
	// raw agronomic and weather
	"land_acres", "actual_rainfall_mm", "rainfall_deficit_pct",
	"heatwave_days", "monsoon_reliability",
	// satellite and soil
	"ndvi_score", "soil_moisture_percent", "soil_fertility_index",
	"vegetation_health_score", "soil_quality_score",
	// infrastructure and diversification
	"water_source_count", "borewell_count", "borewell_depth_ft",
	"crop_count", "livestock_count",
	// credit
	"kcc_score", "kcc_repayment_rate", "outstanding_debt_ratio",
	// composite indices
	"water_security_index", "financial_health_index",
	"diversification_index", "weather_stress_index",
	"irrigation_score",
	// interactions and regional context
	"irrigation_x_drought", "tractor_x_land",
	"debt_x_drought", "diversification_x_weather",
	"rainfall_deviation_from_state",
	"year_ordinal",
	// flags
	"is_rainfed", "is_high_risk_crop", "is_marginal_farmer",
	"is_single_crop", "has_deep_borewell", "is_drought_year",
	"is_flood_year", "has_financial_stress", "is_kharif_season",
	"owns_tractor", "has_storage", "has_livestock",
	"has_canal_access", "has_insurance_history",
}

var categoricalFeatures = []string{"state", "crop_type", "irrigation_type", "season"}

// Schema is the fixed feature contract: names in vector order and their kinds.
type Schema struct {
	Names []string `json:"names"`
	Kinds []Kind   `json:"kinds"`
}

// DefaultSchema returns the feature layout every bundle is trained and
// scored with: numeric features first, then categoricals.
func DefaultSchema() Schema {
	s := Schema{
		Names: make([]string, 0, len(numericFeatures)+len(categoricalFeatures)),
		Kinds: make([]Kind, 0, len(numericFeatures)+len(categoricalFeatures)),
	}
	for _, n := range numericFeatures {
		s.Names = append(s.Names, n)
		s.Kinds = append(s.Kinds, Numeric)
	}
	for _, n := range categoricalFeatures {
		s.Names = append(s.Names, n)
		s.Kinds = append(s.Kinds, Categorical)
	}
	return s
}

// Len returns the number of feature slots.
func (s Schema) Len() int { return len(s.Names) }

// IsCategorical reports whether slot i holds a category.
func (s Schema) IsCategorical(i int) bool { return s.Kinds[i] == Categorical }

// Index returns the slot of a named feature, or -1.
func (s Schema) Index(name string) int {
	for i, n := range s.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Categorical returns the categorical feature names in vector order.
func (s Schema) Categorical() []string { return s.namesOf(Categorical) }

// Numerical returns the numeric feature names in vector order.
func (s Schema) Numerical() []string { return s.namesOf(Numeric) }

func (s Schema) namesOf(k Kind) []string {
	var out []string
	for i, n := range s.Names {
		if s.Kinds[i] == k {
			out = append(out, n)
		}
	}
	return out
}

// Compatible returns an error unless other has the same layout.
func (s Schema) Compatible(other Schema) error {
	if len(s.Names) != len(other.Names) || len(s.Kinds) != len(other.Kinds) {
		return fmt.Errorf("feature schema mismatch: %d features, want %d", len(other.Names), len(s.Names))
	}
	for i := range s.Names {
		if s.Names[i] != other.Names[i] || s.Kinds[i] != other.Kinds[i] {
			return fmt.Errorf("feature schema mismatch at slot %d: %q, want %q", i, other.Names[i], s.Names[i])
		}
	}
	return nil
}
