package features

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

// Stats are the training-time statistics the engineer reapplies at scoring
// time: fill values for missing inputs, regional rainfall baselines and the
// year origin. They are fitted once and never recomputed from a live batch.
type Stats struct {
	Medians            map[string]float64            `json:"medians"`
	StateMedians       map[string]map[string]float64 `json:"state_medians"`
	Modes              map[string]string             `json:"modes"`
	StateRainfallMean  map[string]float64            `json:"state_rainfall_mean"`
	GlobalRainfallMean float64                       `json:"global_rainfall_mean"`
	YearOrigin         int                           `json:"year_origin"`
	DefaultYear        int                           `json:"default_year"`
}

type rawField struct {
	name string
	ptr  func(*model.FarmRecord) **float64
}

var rawNumeric = []rawField{
	{"land_acres", func(r *model.FarmRecord) **float64 { return &r.LandAcres }},
	{"water_source_count", func(r *model.FarmRecord) **float64 { return &r.WaterSourceCount }},
	{"borewell_count", func(r *model.FarmRecord) **float64 { return &r.BorewellCount }},
	{"borewell_depth_ft", func(r *model.FarmRecord) **float64 { return &r.BorewellDepthFt }},
	{"crop_count", func(r *model.FarmRecord) **float64 { return &r.CropCount }},
	{"livestock_count", func(r *model.FarmRecord) **float64 { return &r.LivestockCount }},
	{"kcc_score", func(r *model.FarmRecord) **float64 { return &r.KCCScore }},
	{"kcc_repayment_rate", func(r *model.FarmRecord) **float64 { return &r.KCCRepaymentRate }},
	{"outstanding_debt_ratio", func(r *model.FarmRecord) **float64 { return &r.OutstandingDebtRatio }},
	{"rainfall_deficit_pct", func(r *model.FarmRecord) **float64 { return &r.RainfallDeficitPct }},
	{"actual_rainfall_mm", func(r *model.FarmRecord) **float64 { return &r.ActualRainfallMM }},
	{"heatwave_days", func(r *model.FarmRecord) **float64 { return &r.HeatwaveDays }},
	{"monsoon_reliability", func(r *model.FarmRecord) **float64 { return &r.MonsoonReliability }},
	{"ndvi_score", func(r *model.FarmRecord) **float64 { return &r.NDVIScore }},
	{"soil_moisture_percent", func(r *model.FarmRecord) **float64 { return &r.SoilMoisturePercent }},
	{"soil_fertility_index", func(r *model.FarmRecord) **float64 { return &r.SoilFertilityIndex }},
}

// Satellite readings go missing under cloud cover; they are filled from the
// same state's distribution rather than the national one.
var stateImputed = map[string]bool{
	"ndvi_score":            true,
	"soil_moisture_percent": true,
}

// Fill values used when a field never appears in the training data.
var fallbackDefaults = map[string]float64{
	"kcc_score":           700,
	"crop_count":          1,
	"land_acres":          1,
	"monsoon_reliability": 0.5,
}

var rawCategorical = []struct {
	name string
	ptr  func(*model.FarmRecord) *string
}{
	{"state", func(r *model.FarmRecord) *string { return &r.State }},
	{"crop_type", func(r *model.FarmRecord) *string { return &r.CropType }},
	{"irrigation_type", func(r *model.FarmRecord) *string { return &r.IrrigationType }},
	{"season", func(r *model.FarmRecord) *string { return &r.Season }},
}

// FitStats computes imputation statistics and regional baselines from the
// fit split of a training set.
func FitStats(records []model.FarmRecord) (Stats, error) {
	if len(records) == 0 {
		return Stats{}, fmt.Errorf("fit feature stats: %w", model.ErrInsufficientData)
	}

	st := Stats{
		Medians:           make(map[string]float64, len(rawNumeric)),
		StateMedians:      make(map[string]map[string]float64, len(stateImputed)),
		Modes:             make(map[string]string, len(rawCategorical)),
		StateRainfallMean: make(map[string]float64),
	}

	prepared := make([]model.FarmRecord, len(records))
	for i := range records {
		prepared[i] = records[i]
		applyContextOverrides(&prepared[i])
	}

	for _, f := range rawNumeric {
		values := make(stats.Float64Data, 0, len(prepared))
		byState := make(map[string]stats.Float64Data)
		for i := range prepared {
			v := *f.ptr(&prepared[i])
			if v == nil {
				continue
			}
			values = append(values, *v)
			if stateImputed[f.name] && prepared[i].State != "" {
				byState[prepared[i].State] = append(byState[prepared[i].State], *v)
			}
		}

		st.Medians[f.name] = fallbackDefaults[f.name]
		if len(values) > 0 {
			m, err := stats.Median(values)
			if err != nil {
				return Stats{}, fmt.Errorf("median of %s: %w", f.name, err)
			}
			st.Medians[f.name] = m
		}

		if stateImputed[f.name] {
			st.StateMedians[f.name] = make(map[string]float64, len(byState))
			for state, vs := range byState {
				m, err := stats.Median(vs)
				if err != nil {
					return Stats{}, fmt.Errorf("median of %s in %s: %w", f.name, state, err)
				}
				st.StateMedians[f.name][state] = m
			}
		}
	}

	for _, f := range rawCategorical {
		st.Modes[f.name] = mode(prepared, f.ptr)
	}

	if err := st.fitRainfallBaselines(prepared); err != nil {
		return Stats{}, err
	}
	st.fitYears(prepared)

	return st, nil
}

func (st *Stats) fitRainfallBaselines(records []model.FarmRecord) error {
	all := make(stats.Float64Data, 0, len(records))
	byState := make(map[string]stats.Float64Data)
	for i := range records {
		if records[i].ActualRainfallMM == nil {
			continue
		}
		v := *records[i].ActualRainfallMM
		all = append(all, v)
		if records[i].State != "" {
			byState[records[i].State] = append(byState[records[i].State], v)
		}
	}
	if len(all) == 0 {
		return nil
	}

	mean, err := stats.Mean(all)
	if err != nil {
		return fmt.Errorf("mean rainfall: %w", err)
	}
	st.GlobalRainfallMean = mean

	for state, vs := range byState {
		m, err := stats.Mean(vs)
		if err != nil {
			return fmt.Errorf("mean rainfall in %s: %w", state, err)
		}
		st.StateRainfallMean[state] = m
	}
	return nil
}

func (st *Stats) fitYears(records []model.FarmRecord) {
	years := make(stats.Float64Data, 0, len(records))
	for i := range records {
		if records[i].Year != nil {
			years = append(years, float64(*records[i].Year))
		}
	}
	if len(years) == 0 {
		return
	}
	lo, _ := stats.Min(years)
	med, _ := stats.Median(years)
	st.YearOrigin = int(lo)
	st.DefaultYear = int(med)
}

func mode(records []model.FarmRecord, ptr func(*model.FarmRecord) *string) string {
	counts := make(map[string]int)
	for i := range records {
		if v := *ptr(&records[i]); v != "" {
			counts[v]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// applyContextOverrides zeroes borewell fields for farms without managed
// irrigation and defaults a missing borewell count to zero.
func applyContextOverrides(r *model.FarmRecord) {
	if r.IsRainfed() {
		r.BorewellDepthFt = model.Float(0)
		r.BorewellCount = model.Float(0)
	}
}

// Impute returns a complete copy of r and the names of the fields that were
// filled in. Fill order: context overrides, state medians for satellite
// readings, global medians, categorical modes. Complete records come back
// unchanged.
func (st Stats) Impute(r model.FarmRecord) (model.FarmRecord, []string) {
	var imputed []string

	for _, f := range rawCategorical {
		p := f.ptr(&r)
		if *p == "" {
			*p = st.Modes[f.name]
			imputed = append(imputed, f.name)
		}
	}

	if r.BorewellCount == nil && !r.IsRainfed() {
		r.BorewellCount = model.Float(0)
		imputed = append(imputed, "borewell_count")
	}
	applyContextOverrides(&r)

	for _, f := range rawNumeric {
		p := f.ptr(&r)
		if *p != nil {
			continue
		}
		v := st.Medians[f.name]
		if stateImputed[f.name] {
			if m, ok := st.StateMedians[f.name][r.State]; ok {
				v = m
			}
		}
		*p = model.Float(v)
		imputed = append(imputed, f.name)
	}

	if r.Year == nil {
		r.Year = model.Int(st.DefaultYear)
		imputed = append(imputed, "year")
	}

	return r, imputed
}

// RainfallBaseline returns the training-time mean rainfall of a state,
// falling back to the national mean for states unseen in training.
func (st Stats) RainfallBaseline(state string) float64 {
	if m, ok := st.StateRainfallMean[state]; ok {
		return m
	}
	return st.GlobalRainfallMean
}
