package testutil

import (
	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

// Fixed UUIDs for deterministic testing
var (
	TestBundleID     = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestBundleID2    = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestAssessmentID = uuid.MustParse("00000000-0000-0000-0000-000000000010")
)

// FarmRecord returns a complete, valid mid-risk record. Options mutate it
// before it is returned.
func FarmRecord(opts ...func(*model.FarmRecord)) model.FarmRecord {
	r := model.FarmRecord{
		FarmerID:             "F-0001",
		State:                "Maharashtra",
		Season:               model.SeasonKharif,
		Year:                 model.Int(2022),
		CropType:             "soybean",
		LandAcres:            model.Float(4),
		IrrigationType:       model.IrrigationBorewell,
		WaterSourceCount:     model.Float(1),
		BorewellCount:        model.Float(1),
		BorewellDepthFt:      model.Float(120),
		CropCount:            model.Float(2),
		LivestockCount:       model.Float(2),
		HasLivestock:         true,
		KCCScore:             model.Float(690),
		KCCRepaymentRate:     model.Float(75),
		OutstandingDebtRatio: model.Float(0.6),
		RainfallDeficitPct:   model.Float(0.1),
		ActualRainfallMM:     model.Float(820),
		HeatwaveDays:         model.Float(3),
		AvgTemperatureC:      model.Float(29),
		MonsoonReliability:   model.Float(0.65),
		NDVIScore:            model.Float(0.55),
		SoilMoisturePercent:  model.Float(42),
		SoilFertilityIndex:   model.Float(0.6),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RainfedDroughtFarm is a single-crop rainfed cotton farm in a drought year
// with heavy debt and poor repayment.
func RainfedDroughtFarm() model.FarmRecord {
	return FarmRecord(func(r *model.FarmRecord) {
		r.FarmerID = "F-DROUGHT"
		r.CropType = "cotton"
		r.IrrigationType = model.IrrigationRainfed
		r.WaterSourceCount = model.Float(0)
		r.BorewellCount = model.Float(0)
		r.BorewellDepthFt = model.Float(0)
		r.CropCount = model.Float(1)
		r.HasLivestock = false
		r.LivestockCount = model.Float(0)
		r.LandAcres = model.Float(1.5)
		r.KCCRepaymentRate = model.Float(48)
		r.OutstandingDebtRatio = model.Float(1.4)
		r.RainfallDeficitPct = model.Float(0.45)
		r.ActualRainfallMM = model.Float(480)
		r.HeatwaveDays = model.Float(12)
		r.MonsoonReliability = model.Float(0.35)
		r.NDVIScore = model.Float(0.3)
		r.SoilMoisturePercent = model.Float(22)
	})
}

// IrrigatedDiversifiedFarm is a drip-irrigated three-crop farm with
// livestock, low debt and strong repayment in a normal rainfall year.
func IrrigatedDiversifiedFarm() model.FarmRecord {
	return FarmRecord(func(r *model.FarmRecord) {
		r.FarmerID = "F-SAFE"
		r.State = "Punjab"
		r.CropType = "wheat"
		r.Season = model.SeasonRabi
		r.IrrigationType = model.IrrigationDrip
		r.WaterSourceCount = model.Float(3)
		r.BorewellCount = model.Float(2)
		r.BorewellDepthFt = model.Float(180)
		r.CropCount = model.Float(3)
		r.HasLivestock = true
		r.LivestockCount = model.Float(4)
		r.OwnsTractor = true
		r.HasStorage = true
		r.LandAcres = model.Float(12)
		r.KCCScore = model.Float(820)
		r.KCCRepaymentRate = model.Float(92)
		r.OutstandingDebtRatio = model.Float(0.3)
		r.RainfallDeficitPct = model.Float(0.02)
		r.ActualRainfallMM = model.Float(640)
		r.HeatwaveDays = model.Float(0)
		r.MonsoonReliability = model.Float(0.85)
		r.NDVIScore = model.Float(0.75)
		r.SoilMoisturePercent = model.Float(55)
		r.HasInsuranceHistory = true
	})
}
