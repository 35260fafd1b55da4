package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

var irrigationScores = map[string]float64{
	model.IrrigationDrip:      0.95,
	model.IrrigationSprinkler: 0.85,
	model.IrrigationCanal:     0.70,
	model.IrrigationBorewell:  0.60,
	model.IrrigationFlood:     0.50,
	model.IrrigationRainfed:   0,
	model.IrrigationNone:      0,
}

var highRiskCrops = map[string]bool{"cotton": true, "rice": true, "soybean": true}

const (
	marginalLandAcres   = 2.5
	deepBorewellFt      = 150
	droughtDeficit      = 0.3
	floodDeficit        = -0.3
	stressRepaymentRate = 60
	stressDebtRatio     = 1.0
)

// Matrix is a transformed batch.
type Matrix struct {
	Schema  Schema
	Rows    []Vector
	Imputed [][]string
}

// Engineer turns farm records into feature vectors using statistics fixed
// at training time. It holds no mutable state and is safe for concurrent use.
type Engineer struct {
	schema Schema
	stats  Stats
}

// NewEngineer creates an engineer over the default schema.
func NewEngineer(stats Stats) *Engineer {
	return &Engineer{schema: DefaultSchema(), stats: stats}
}

// Schema returns the feature layout produced by Transform.
func (e *Engineer) Schema() Schema { return e.schema }

// Stats returns the statistics the engineer applies.
func (e *Engineer) Stats() Stats { return e.stats }

// Transform imputes and featurises a batch. Every record is checked for
// range and finiteness; missing values are allowed.
func (e *Engineer) Transform(records []model.FarmRecord) (Matrix, error) {
	m := Matrix{
		Schema:  e.schema,
		Rows:    make([]Vector, len(records)),
		Imputed: make([][]string, len(records)),
	}
	for i := range records {
		vec, imputed, err := e.TransformOne(records[i])
		if err != nil {
			return Matrix{}, fmt.Errorf("record %d: %w", i, err)
		}
		m.Rows[i] = vec
		m.Imputed[i] = imputed
	}
	return m, nil
}

// TransformOne is Transform for a single record. It also returns the names
// of the raw fields that had to be imputed.
func (e *Engineer) TransformOne(r model.FarmRecord) (Vector, []string, error) {
	if err := r.Validate(model.ValidateForTraining); err != nil {
		return nil, nil, err
	}
	full, imputed := e.stats.Impute(r)
	return e.vectorize(&full), imputed, nil
}

func (e *Engineer) vectorize(r *model.FarmRecord) Vector {
	land := *r.LandAcres
	deficit := *r.RainfallDeficitPct
	rain := *r.ActualRainfallMM
	heat := *r.HeatwaveDays
	ndvi := *r.NDVIScore
	moisture := *r.SoilMoisturePercent
	fertility := *r.SoilFertilityIndex
	sources := *r.WaterSourceCount
	depth := *r.BorewellDepthFt
	crops := *r.CropCount
	repay := *r.KCCRepaymentRate
	debt := *r.OutstandingDebtRatio
	crop := strings.ToLower(r.CropType)

	positiveDeficit := clip(deficit, 0, 1)
	irr := irrigationScores[r.IrrigationType]
	modernIrrigation := r.IrrigationType == model.IrrigationDrip || r.IrrigationType == model.IrrigationSprinkler

	deviation := 0.0
	if base := e.stats.RainfallBaseline(r.State); base != 0 {
		deviation = (rain - base) / base
	}

	num := map[string]float64{
		"land_acres":           land,
		"actual_rainfall_mm":   rain,
		"rainfall_deficit_pct": deficit,
		"heatwave_days":        heat,
		"monsoon_reliability":  *r.MonsoonReliability,

		"ndvi_score":              ndvi,
		"soil_moisture_percent":   moisture,
		"soil_fertility_index":    fertility,
		"vegetation_health_score": ndvi * 100,
		"soil_quality_score":      (fertility*0.6 + moisture/100*0.4) * 100,

		"water_source_count": sources,
		"borewell_count":     *r.BorewellCount,
		"borewell_depth_ft":  depth,
		"crop_count":         crops,
		"livestock_count":    *r.LivestockCount,

		"kcc_score":              *r.KCCScore,
		"kcc_repayment_rate":     repay,
		"outstanding_debt_ratio": debt,

		"water_security_index":   irr*0.5 + clip(sources/4, 0, 1)*0.3 + clip(depth/200, 0, 1)*0.2,
		"financial_health_index": clip(repay/100*0.6+(1-clip(debt, 0, 1.5)/1.5)*0.4, 0, 1),
		"diversification_index":  clip(clip(crops/3, 0, 1)*0.6+flag(r.HasLivestock)*0.4, 0, 1),
		"weather_stress_index":   clip(math.Abs(deficit)*0.6+clip(heat/20, 0, 1)*0.4, 0, 1),
		"irrigation_score":       irr,

		"irrigation_x_drought":          flag(modernIrrigation) * positiveDeficit,
		"tractor_x_land":                flag(r.OwnsTractor) * math.Log1p(land),
		"debt_x_drought":                debt * positiveDeficit,
		"diversification_x_weather":     clip(crops, 1, 3) * (1 - clip(math.Abs(deficit), 0, 1)),
		"rainfall_deviation_from_state": deviation,
		"year_ordinal":                  float64(*r.Year - e.stats.YearOrigin),

		"is_rainfed":            flag(r.IsRainfed()),
		"is_high_risk_crop":     flag(highRiskCrops[crop]),
		"is_marginal_farmer":    flag(land < marginalLandAcres),
		"is_single_crop":        flag(crops == 1),
		"has_deep_borewell":     flag(depth > deepBorewellFt),
		"is_drought_year":       flag(deficit > droughtDeficit),
		"is_flood_year":         flag(deficit < floodDeficit),
		"has_financial_stress":  flag(repay < stressRepaymentRate || debt > stressDebtRatio),
		"is_kharif_season":      flag(r.Season == model.SeasonKharif),
		"owns_tractor":          flag(r.OwnsTractor),
		"has_storage":           flag(r.HasStorage),
		"has_livestock":         flag(r.HasLivestock),
		"has_canal_access":      flag(r.HasCanalAccess),
		"has_insurance_history": flag(r.HasInsuranceHistory),
	}
	cat := map[string]string{
		"state":           r.State,
		"crop_type":       crop,
		"irrigation_type": r.IrrigationType,
		"season":          r.Season,
	}

	vec := make(Vector, e.schema.Len())
	for i, name := range e.schema.Names {
		if e.schema.IsCategorical(i) {
			vec[i] = Value{Cat: cat[name]}
		} else {
			vec[i] = Value{Num: num[name]}
		}
	}
	return vec
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
