package features_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/features"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func regionalRecords() []model.FarmRecord {
	var records []model.FarmRecord
	for i, ndvi := range []float64{0.2, 0.3, 0.4} {
		records = append(records, testutil.FarmRecord(func(r *model.FarmRecord) {
			r.State = "Rajasthan"
			r.NDVIScore = model.Float(ndvi)
			r.SoilMoisturePercent = model.Float(20 + float64(i))
			r.ActualRainfallMM = model.Float(300)
			r.Year = model.Int(2019 + i)
		}))
	}
	for i, ndvi := range []float64{0.7, 0.8, 0.9, 0.85} {
		records = append(records, testutil.FarmRecord(func(r *model.FarmRecord) {
			r.State = "Punjab"
			r.NDVIScore = model.Float(ndvi)
			r.SoilMoisturePercent = model.Float(60 + float64(i))
			r.ActualRainfallMM = model.Float(700)
			r.CropType = "wheat"
		}))
	}
	return records
}

func TestFitStats(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	assert.InDelta(t, 0.3, st.StateMedians["ndvi_score"]["Rajasthan"], 1e-9)
	assert.InDelta(t, 0.825, st.StateMedians["ndvi_score"]["Punjab"], 1e-9)
	assert.InDelta(t, 0.7, st.Medians["ndvi_score"], 1e-9)
	assert.InDelta(t, 300, st.StateRainfallMean["Rajasthan"], 1e-9)
	assert.InDelta(t, (3*300+4*700)/7.0, st.GlobalRainfallMean, 1e-9)
	assert.Equal(t, 2019, st.YearOrigin)
	assert.Equal(t, "Punjab", st.Modes["state"])
	assert.Equal(t, "wheat", st.Modes["crop_type"])
}

func TestFitStats_Empty(t *testing.T) {
	_, err := features.FitStats(nil)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestImpute_StateMedianForSatelliteData(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	rec := testutil.FarmRecord(func(r *model.FarmRecord) {
		r.State = "Rajasthan"
		r.NDVIScore = nil
		r.SoilMoisturePercent = nil
	})

	full, imputed := st.Impute(rec)
	require.NotNil(t, full.NDVIScore)
	assert.InDelta(t, st.StateMedians["ndvi_score"]["Rajasthan"], *full.NDVIScore, 1e-9)
	assert.NotEqual(t, st.Medians["ndvi_score"], *full.NDVIScore)
	assert.InDelta(t, st.StateMedians["soil_moisture_percent"]["Rajasthan"], *full.SoilMoisturePercent, 1e-9)
	assert.ElementsMatch(t, []string{"ndvi_score", "soil_moisture_percent"}, imputed)

	assert.Nil(t, rec.NDVIScore, "input record must not be modified")
}

func TestImpute_UnknownStateFallsBackToGlobalMedian(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	rec := testutil.FarmRecord(func(r *model.FarmRecord) {
		r.State = "Kerala"
		r.NDVIScore = nil
	})

	full, _ := st.Impute(rec)
	assert.InDelta(t, st.Medians["ndvi_score"], *full.NDVIScore, 1e-9)
}

func TestImpute_RainfedOverridesBorewell(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	rec := testutil.FarmRecord(func(r *model.FarmRecord) {
		r.IrrigationType = model.IrrigationRainfed
		r.BorewellDepthFt = nil
		r.BorewellCount = nil
	})

	full, _ := st.Impute(rec)
	assert.Equal(t, 0.0, *full.BorewellDepthFt)
	assert.Equal(t, 0.0, *full.BorewellCount)
}

func TestImpute_CategoricalModeAndGlobalMedian(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	rec := testutil.FarmRecord(func(r *model.FarmRecord) {
		r.CropType = ""
		r.KCCScore = nil
		r.Year = nil
	})

	full, imputed := st.Impute(rec)
	assert.Equal(t, "wheat", full.CropType)
	assert.Equal(t, st.Medians["kcc_score"], *full.KCCScore)
	assert.Equal(t, st.DefaultYear, *full.Year)
	assert.ElementsMatch(t, []string{"crop_type", "kcc_score", "year"}, imputed)
}

func TestImpute_Idempotent(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	rec := testutil.FarmRecord(func(r *model.FarmRecord) {
		r.NDVIScore = nil
		r.KCCScore = nil
		r.Season = ""
	})

	once, _ := st.Impute(rec)
	twice, imputed := st.Impute(once)
	assert.Equal(t, once, twice)
	assert.Empty(t, imputed)

	complete := testutil.FarmRecord()
	same, imputed := st.Impute(complete)
	assert.Equal(t, complete, same)
	assert.Empty(t, imputed)
}

func TestImpute_IgnoresFieldsNoFeatureReads(t *testing.T) {
	st, err := features.FitStats(regionalRecords())
	require.NoError(t, err)

	rec := testutil.FarmRecord(func(r *model.FarmRecord) { r.AvgTemperatureC = nil })
	full, imputed := st.Impute(rec)
	assert.Nil(t, full.AvgTemperatureC)
	assert.Empty(t, imputed)
	assert.NotContains(t, st.Medians, "avg_temperature_c")
}
