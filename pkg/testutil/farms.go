package testutil

import (
	"math"
	"math/rand"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

type stateProfile struct {
	name     string
	rainfall float64
	ndvi     float64
}

var stateProfiles = []stateProfile{
	{"Maharashtra", 900, 0.45},
	{"Punjab", 650, 0.70},
	{"Karnataka", 1100, 0.55},
	{"Rajasthan", 380, 0.32},
	{"Andhra Pradesh", 950, 0.52},
}

var (
	crops       = []string{"cotton", "rice", "soybean", "wheat", "sugarcane", "pulses"}
	irrigations = []string{
		model.IrrigationDrip, model.IrrigationSprinkler, model.IrrigationCanal,
		model.IrrigationBorewell, model.IrrigationFlood, model.IrrigationRainfed,
		model.IrrigationRainfed, model.IrrigationNone,
	}
	irrigationProtection = map[string]float64{
		model.IrrigationDrip: 0.9, model.IrrigationSprinkler: 0.8, model.IrrigationCanal: 0.6,
		model.IrrigationBorewell: 0.5, model.IrrigationFlood: 0.4,
	}
)

// LabeledFarms generates n labelled farm-seasons from a fixed seed. Claims
// are driven mostly by uncovered drought, heat, debt, repayment and
// diversification, so a fitted model has a strong, learnable signal. About
// five percent of records lack satellite readings.
func LabeledFarms(n int, seed int64) []model.LabeledRecord {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]model.LabeledRecord, n)

	for i := range out {
		st := stateProfiles[rnd.Intn(len(stateProfiles))]
		irrigation := irrigations[rnd.Intn(len(irrigations))]
		rainfed := irrigation == model.IrrigationRainfed || irrigation == model.IrrigationNone
		crop := crops[rnd.Intn(len(crops))]

		deficit := clamp(0.05+rnd.NormFloat64()*0.25, -0.8, 0.8)
		positiveDeficit := math.Max(deficit, 0)
		heat := math.Floor(rnd.Float64()*6 + positiveDeficit*rnd.Float64()*30)
		ndvi := clamp(st.ndvi-0.3*positiveDeficit+rnd.NormFloat64()*0.05, 0.05, 0.95)
		cropCount := float64(1 + rnd.Intn(3))
		hasLivestock := rnd.Float64() < 0.5
		livestock := 0.0
		if hasLivestock {
			livestock = float64(1 + rnd.Intn(6))
		}
		repay := 40 + rnd.Float64()*60
		debt := clamp(rnd.ExpFloat64()*0.6, 0, 2)

		var borewells, depth float64
		if !rainfed {
			borewells = float64(rnd.Intn(3))
			depth = math.Round(rnd.Float64() * 250)
		}

		r := model.FarmRecord{
			State:                st.name,
			Season:               []string{model.SeasonKharif, model.SeasonRabi}[rnd.Intn(2)],
			Year:                 model.Int(2018 + rnd.Intn(6)),
			CropType:             crop,
			LandAcres:            model.Float(0.5 + rnd.Float64()*14.5),
			IrrigationType:       irrigation,
			WaterSourceCount:     model.Float(float64(rnd.Intn(5))),
			BorewellCount:        model.Float(borewells),
			BorewellDepthFt:      model.Float(depth),
			HasCanalAccess:       irrigation == model.IrrigationCanal || rnd.Float64() < 0.1,
			CropCount:            model.Float(cropCount),
			HasLivestock:         hasLivestock,
			LivestockCount:       model.Float(livestock),
			OwnsTractor:          rnd.Float64() < 0.3,
			HasStorage:           rnd.Float64() < 0.25,
			KCCScore:             model.Float(math.Round(clamp(600+rnd.NormFloat64()*80, 300, 900))),
			KCCRepaymentRate:     model.Float(repay),
			OutstandingDebtRatio: model.Float(debt),
			HasInsuranceHistory:  rnd.Float64() < 0.4,
			RainfallDeficitPct:   model.Float(deficit),
			ActualRainfallMM:     model.Float(math.Max(0, st.rainfall*(1-deficit))),
			HeatwaveDays:         model.Float(heat),
			AvgTemperatureC:      model.Float(26 + rnd.Float64()*8),
			MonsoonReliability:   model.Float(0.3 + rnd.Float64()*0.65),
			NDVIScore:            model.Float(ndvi),
			SoilMoisturePercent:  model.Float(clamp(20+40*ndvi+rnd.NormFloat64()*5, 0, 100)),
			SoilFertilityIndex:   model.Float(0.3 + rnd.Float64()*0.6),
		}
		if rnd.Float64() < 0.05 {
			r.NDVIScore = nil
			r.SoilMoisturePercent = nil
		}

		logit := -2.6 +
			5.0*positiveDeficit*(1-irrigationProtection[irrigation]) +
			1.5*positiveDeficit +
			0.08*heat +
			0.9*debt +
			0.04*(70-repay) -
			0.5*(cropCount-1) -
			1.5*(ndvi-0.5)
		if debt > 1.0 {
			logit += 1.8
		}
		if hasLivestock {
			logit -= 0.6
		}
		if crop == "cotton" || crop == "rice" || crop == "soybean" {
			logit += 0.4
		}

		out[i] = model.LabeledRecord{
			Record:  r,
			Claimed: rnd.Float64() < 1/(1+math.Exp(-logit)),
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
