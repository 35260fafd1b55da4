package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/infrastructure/dataset"
)

const table = `farmer_id,state,season,year,crop_type,land_acres,irrigation_type,water_source_count,borewell_depth_ft,has_canal_access,crop_count,has_livestock,livestock_count,kcc_repayment_rate,outstanding_debt_ratio,rainfall_deficit_pct,actual_rainfall_mm,heatwave_days,monsoon_reliability,ndvi_score,soil_moisture_percent,pest_attack_flag,claim_filed
F-1,maharashtra,Kharif,2022,Cotton,1.5,rainfed,0,,0,1,0,0,48,1.4,0.45,480,12,0.35,0.3,22,1,1
F-2,ANDHRA  PRADESH,rabi,2023.0,rice,6,drip,2,180.5,1,3,1,4,92,0.2,-0.05,1010,1,0.8,nan,,0,0
`

func TestReadLabeled(t *testing.T) {
	rows, err := dataset.ReadLabeled(strings.NewReader(table))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.True(t, first.Claimed)
	assert.Equal(t, "F-1", first.Record.FarmerID)
	assert.Equal(t, "Maharashtra", first.Record.State)
	assert.Equal(t, model.SeasonKharif, first.Record.Season)
	assert.Equal(t, "cotton", first.Record.CropType)
	assert.Equal(t, 2022, *first.Record.Year)
	assert.Nil(t, first.Record.BorewellDepthFt)
	assert.False(t, first.Record.HasCanalAccess)
	assert.InDelta(t, 0.45, *first.Record.RainfallDeficitPct, 1e-12)

	second := rows[1]
	assert.False(t, second.Claimed)
	assert.Equal(t, "Andhra Pradesh", second.Record.State)
	assert.Equal(t, 2023, *second.Record.Year)
	assert.True(t, second.Record.HasCanalAccess)
	assert.True(t, second.Record.HasLivestock)
	assert.Nil(t, second.Record.NDVIScore)
	assert.Nil(t, second.Record.SoilMoisturePercent)
	assert.Nil(t, second.Record.KCCScore, "absent column stays missing")

	for _, r := range rows {
		assert.NoError(t, r.Record.Validate(model.ValidateForTraining))
	}
}

func TestReadFarms_IgnoresLabel(t *testing.T) {
	farms, err := dataset.ReadFarms(strings.NewReader(table))
	require.NoError(t, err)
	assert.Len(t, farms, 2)

	unlabelled := "state,season,crop_type,irrigation_type\nPunjab,rabi,wheat,canal\n"
	farms, err = dataset.ReadFarms(strings.NewReader(unlabelled))
	require.NoError(t, err)
	require.Len(t, farms, 1)
	assert.Equal(t, model.IrrigationCanal, farms[0].IrrigationType)
}

func TestReadLabeled_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "empty input"},
		{name: "missing label", input: "state,season,crop_type,irrigation_type\nPunjab,rabi,wheat,canal\n", want: "missing label column"},
		{name: "missing required column", input: "state,season,crop_type,claim_filed\nPunjab,rabi,wheat,1\n", want: `missing column "irrigation_type"`},
		{name: "duplicate column", input: "state,state,season,crop_type,irrigation_type,claim_filed\n", want: "duplicate column"},
		{name: "bad number", input: "state,season,crop_type,irrigation_type,land_acres,claim_filed\nPunjab,rabi,wheat,canal,lots,0\n", want: "line 2: column land_acres"},
		{name: "bad label", input: "state,season,crop_type,irrigation_type,claim_filed\nPunjab,rabi,wheat,canal,2\n", want: "column claim_filed"},
		{name: "fractional year", input: "state,season,crop_type,irrigation_type,year,claim_filed\nPunjab,rabi,wheat,canal,2021.5,0\n", want: "column year"},
		{name: "ragged row", input: "state,season,crop_type,irrigation_type,claim_filed\nPunjab,rabi\n", want: "dataset:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.ReadLabeled(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadLabeled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farms.csv")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o600))

	rows, err := dataset.LoadLabeled(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = dataset.LoadLabeled(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
