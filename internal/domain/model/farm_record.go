package model

import (
	"math"
	"strings"
)

// Irrigation types accepted by FarmRecord.
const (
	IrrigationDrip      = "drip"
	IrrigationSprinkler = "sprinkler"
	IrrigationCanal     = "canal"
	IrrigationBorewell  = "borewell"
	IrrigationFlood     = "flood"
	IrrigationRainfed   = "rainfed"
	IrrigationNone      = "none"
)

// Growing seasons accepted by FarmRecord.
const (
	SeasonKharif = "kharif"
	SeasonRabi   = "rabi"
)

var irrigationTypes = map[string]bool{
	IrrigationDrip: true, IrrigationSprinkler: true, IrrigationCanal: true,
	IrrigationBorewell: true, IrrigationFlood: true, IrrigationRainfed: true,
	IrrigationNone: true,
}

// ValidationMode selects how strict FarmRecord.Validate is.
type ValidationMode int

const (
	// ValidateForScoring requires the core fields to be present.
	ValidateForScoring ValidationMode = iota
	// ValidateForTraining allows missing values; they are imputed.
	ValidateForTraining
)

// FarmRecord is one farm-season observation. Nil numeric fields are missing
// and are resolved by imputation.
type FarmRecord struct {
	FarmerID string `json:"farmer_id,omitempty"`
	State    string `json:"state"`
	Season   string `json:"season"`
	Year     *int   `json:"year,omitempty"`

	CropType         string   `json:"crop_type"`
	LandAcres        *float64 `json:"land_acres"`
	IrrigationType   string   `json:"irrigation_type"`
	WaterSourceCount *float64 `json:"water_source_count"`
	BorewellCount    *float64 `json:"borewell_count,omitempty"`
	BorewellDepthFt  *float64 `json:"borewell_depth_ft,omitempty"`
	HasCanalAccess   bool     `json:"has_canal_access"`
	CropCount        *float64 `json:"crop_count"`
	HasLivestock     bool     `json:"has_livestock"`
	LivestockCount   *float64 `json:"livestock_count"`
	OwnsTractor      bool     `json:"owns_tractor"`
	HasStorage       bool     `json:"has_storage"`

	KCCScore             *float64 `json:"kcc_score,omitempty"`
	KCCRepaymentRate     *float64 `json:"kcc_repayment_rate"`
	OutstandingDebtRatio *float64 `json:"outstanding_debt_ratio"`
	HasInsuranceHistory  bool     `json:"has_insurance_history"`

	RainfallDeficitPct *float64 `json:"rainfall_deficit_pct"`
	ActualRainfallMM   *float64 `json:"actual_rainfall_mm"`
	HeatwaveDays       *float64 `json:"heatwave_days"`
	AvgTemperatureC    *float64 `json:"avg_temperature_c,omitempty"`
	MonsoonReliability *float64 `json:"monsoon_reliability"`

	NDVIScore           *float64 `json:"ndvi_score,omitempty"`
	SoilMoisturePercent *float64 `json:"soil_moisture_percent,omitempty"`
	SoilFertilityIndex  *float64 `json:"soil_fertility_index,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

type numericRule struct {
	name     string
	get      func(*FarmRecord) *float64
	min, max float64
	required bool
	positive bool
}

var numericRules = []numericRule{
	{"land_acres", func(r *FarmRecord) *float64 { return r.LandAcres }, 0, math.Inf(1), true, true},
	{"water_source_count", func(r *FarmRecord) *float64 { return r.WaterSourceCount }, 0, math.Inf(1), true, false},
	{"borewell_count", func(r *FarmRecord) *float64 { return r.BorewellCount }, 0, math.Inf(1), false, false},
	{"borewell_depth_ft", func(r *FarmRecord) *float64 { return r.BorewellDepthFt }, 0, math.Inf(1), false, false},
	{"crop_count", func(r *FarmRecord) *float64 { return r.CropCount }, 1, math.Inf(1), true, false},
	{"livestock_count", func(r *FarmRecord) *float64 { return r.LivestockCount }, 0, math.Inf(1), true, false},
	{"kcc_score", func(r *FarmRecord) *float64 { return r.KCCScore }, 300, 900, false, false},
	{"kcc_repayment_rate", func(r *FarmRecord) *float64 { return r.KCCRepaymentRate }, 0, 100, true, false},
	{"outstanding_debt_ratio", func(r *FarmRecord) *float64 { return r.OutstandingDebtRatio }, 0, math.Inf(1), true, false},
	{"rainfall_deficit_pct", func(r *FarmRecord) *float64 { return r.RainfallDeficitPct }, -5, 1, true, false},
	{"actual_rainfall_mm", func(r *FarmRecord) *float64 { return r.ActualRainfallMM }, 0, math.Inf(1), true, false},
	{"heatwave_days", func(r *FarmRecord) *float64 { return r.HeatwaveDays }, 0, 366, true, false},
	{"avg_temperature_c", func(r *FarmRecord) *float64 { return r.AvgTemperatureC }, -60, 60, false, false},
	{"monsoon_reliability", func(r *FarmRecord) *float64 { return r.MonsoonReliability }, 0, 1, true, false},
	{"ndvi_score", func(r *FarmRecord) *float64 { return r.NDVIScore }, 0, 1, false, false},
	{"soil_moisture_percent", func(r *FarmRecord) *float64 { return r.SoilMoisturePercent }, 0, 100, false, false},
	{"soil_fertility_index", func(r *FarmRecord) *float64 { return r.SoilFertilityIndex }, 0, 1, false, false},
}

// Validate checks field presence and ranges. Non-finite numbers are always
// rejected. The returned error, if any, is a *ValidationError.
func (r *FarmRecord) Validate(mode ValidationMode) error {
	verr := &ValidationError{}
	scoring := mode == ValidateForScoring

	for _, rule := range numericRules {
		v := rule.get(r)
		if v == nil {
			if scoring && rule.required {
				verr.add(rule.name, "is required")
			}
			continue
		}
		switch {
		case math.IsNaN(*v) || math.IsInf(*v, 0):
			verr.add(rule.name, "must be a finite number")
		case rule.positive && *v <= 0:
			verr.add(rule.name, "must be greater than 0, got %g", *v)
		case *v < rule.min || *v > rule.max:
			verr.add(rule.name, "must be within [%g, %g], got %g", rule.min, rule.max, *v)
		}
	}

	if r.Year != nil && (*r.Year < 1900 || *r.Year > 2200) {
		verr.add("year", "must be within [1900, 2200], got %d", *r.Year)
	}

	r.validateCategorical(verr, scoring)

	return verr.orNil()
}

func (r *FarmRecord) validateCategorical(verr *ValidationError, scoring bool) {
	check := func(field, value string, allowed func(string) bool) {
		if strings.TrimSpace(value) == "" {
			if scoring {
				verr.add(field, "is required")
			}
			return
		}
		if allowed != nil && !allowed(value) {
			verr.add(field, "unsupported value %q", value)
		}
	}

	check("state", r.State, nil)
	check("crop_type", r.CropType, nil)
	check("irrigation_type", r.IrrigationType, func(v string) bool { return irrigationTypes[v] })
	check("season", r.Season, func(v string) bool { return v == SeasonKharif || v == SeasonRabi })
}

// IsRainfed reports whether the farm has no managed irrigation.
func (r *FarmRecord) IsRainfed() bool {
	return r.IrrigationType == IrrigationRainfed || r.IrrigationType == IrrigationNone
}
