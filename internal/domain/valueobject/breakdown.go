package valueobject

import "fmt"

// BreakdownMax is the upper bound of every breakdown score.
const BreakdownMax = 25

// BreakdownCategory is one of the four buckets feature contributions are
// grouped into.
type BreakdownCategory struct {
	key string
}

var (
	CategoryWeather         = BreakdownCategory{key: "weather_risk"}
	CategoryInfrastructure  = BreakdownCategory{key: "infrastructure"}
	CategoryDiversification = BreakdownCategory{key: "diversification"}
	CategoryFinancial       = BreakdownCategory{key: "financial_health"}
)

// BreakdownCategories lists the buckets in report order.
func BreakdownCategories() []BreakdownCategory {
	return []BreakdownCategory{CategoryWeather, CategoryInfrastructure, CategoryDiversification, CategoryFinancial}
}

// String returns the report key of the bucket.
func (c BreakdownCategory) String() string {
	return c.key
}

// Inverted reports whether a positive (risk-increasing) contribution raises
// the bucket score. Only weather is expressed as a risk; the others are
// strengths.
func (c BreakdownCategory) Inverted() bool {
	return c == CategoryWeather
}

// Breakdown holds the four 0-25 category scores of a report.
type Breakdown struct {
	WeatherRisk     int `json:"weather_risk"`
	Infrastructure  int `json:"infrastructure"`
	Diversification int `json:"diversification"`
	FinancialHealth int `json:"financial_health"`
}

// Get returns the score of one bucket.
func (b Breakdown) Get(c BreakdownCategory) int {
	switch c {
	case CategoryWeather:
		return b.WeatherRisk
	case CategoryInfrastructure:
		return b.Infrastructure
	case CategoryDiversification:
		return b.Diversification
	default:
		return b.FinancialHealth
	}
}

// Set assigns the score of one bucket.
func (b *Breakdown) Set(c BreakdownCategory, v int) {
	switch c {
	case CategoryWeather:
		b.WeatherRisk = v
	case CategoryInfrastructure:
		b.Infrastructure = v
	case CategoryDiversification:
		b.Diversification = v
	default:
		b.FinancialHealth = v
	}
}

// Validate checks every score lies in [0, BreakdownMax].
func (b Breakdown) Validate() error {
	for _, c := range BreakdownCategories() {
		if v := b.Get(c); v < 0 || v > BreakdownMax {
			return fmt.Errorf("breakdown %s must be between 0 and %d, got %d", c, BreakdownMax, v)
		}
	}
	return nil
}
