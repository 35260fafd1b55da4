package explain

import (
	vo "github.com/mkdev28/Cropp/internal/domain/valueobject"
)

// featureBuckets assigns every model feature to exactly one breakdown
// category. Satellite, soil, seasonal and regional context count as growing
// conditions and sit with weather; farm size and assets sit with
// infrastructure except for the marginal-holding flag, which is an
// economic signal.
var featureBuckets = map[string]vo.BreakdownCategory{
	"rainfall_deficit_pct":          vo.CategoryWeather,
	"heatwave_days":                 vo.CategoryWeather,
	"actual_rainfall_mm":            vo.CategoryWeather,
	"monsoon_reliability":           vo.CategoryWeather,
	"weather_stress_index":          vo.CategoryWeather,
	"is_drought_year":               vo.CategoryWeather,
	"is_flood_year":                 vo.CategoryWeather,
	"rainfall_deviation_from_state": vo.CategoryWeather,
	"ndvi_score":                    vo.CategoryWeather,
	"soil_moisture_percent":         vo.CategoryWeather,
	"soil_fertility_index":          vo.CategoryWeather,
	"vegetation_health_score":       vo.CategoryWeather,
	"soil_quality_score":            vo.CategoryWeather,
	"year_ordinal":                  vo.CategoryWeather,
	"is_kharif_season":              vo.CategoryWeather,
	"season":                        vo.CategoryWeather,
	"state":                         vo.CategoryWeather,

	"irrigation_type":      vo.CategoryInfrastructure,
	"water_source_count":   vo.CategoryInfrastructure,
	"borewell_depth_ft":    vo.CategoryInfrastructure,
	"borewell_count":       vo.CategoryInfrastructure,
	"has_canal_access":     vo.CategoryInfrastructure,
	"water_security_index": vo.CategoryInfrastructure,
	"irrigation_score":     vo.CategoryInfrastructure,
	"is_rainfed":           vo.CategoryInfrastructure,
	"has_deep_borewell":    vo.CategoryInfrastructure,
	"irrigation_x_drought": vo.CategoryInfrastructure,
	"owns_tractor":         vo.CategoryInfrastructure,
	"has_storage":          vo.CategoryInfrastructure,
	"tractor_x_land":       vo.CategoryInfrastructure,

	"crop_count":                vo.CategoryDiversification,
	"has_livestock":             vo.CategoryDiversification,
	"livestock_count":           vo.CategoryDiversification,
	"crop_type":                 vo.CategoryDiversification,
	"diversification_index":     vo.CategoryDiversification,
	"is_single_crop":            vo.CategoryDiversification,
	"is_high_risk_crop":         vo.CategoryDiversification,
	"diversification_x_weather": vo.CategoryDiversification,

	"kcc_score":              vo.CategoryFinancial,
	"kcc_repayment_rate":     vo.CategoryFinancial,
	"outstanding_debt_ratio": vo.CategoryFinancial,
	"has_insurance_history":  vo.CategoryFinancial,
	"financial_health_index": vo.CategoryFinancial,
	"has_financial_stress":   vo.CategoryFinancial,
	"debt_x_drought":         vo.CategoryFinancial,
	"is_marginal_farmer":     vo.CategoryFinancial,
	"land_acres":             vo.CategoryFinancial,
}

// BucketOf returns the breakdown category of a feature.
func BucketOf(feature string) (vo.BreakdownCategory, bool) {
	c, ok := featureBuckets[feature]
	return c, ok
}
