// Package dataset reads farm-season tables exported by the underwriting
// warehouse.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

// LabelColumn holds the claim outcome (0/1 or true/false).
const LabelColumn = "claim_filed"

// Casers are stateful, so each cell gets a fresh one.
func titleCase() cases.Caser { return cases.Title(language.English) }
func lowerCase() cases.Caser { return cases.Lower(language.English) }

type setter func(r *model.FarmRecord, raw string) error

func text(dst func(*model.FarmRecord) *string, normalise func() cases.Caser) setter {
	return func(r *model.FarmRecord, raw string) error {
		*dst(r) = normalise().String(strings.Join(strings.Fields(raw), " "))
		return nil
	}
}

func number(dst func(*model.FarmRecord) **float64) setter {
	return func(r *model.FarmRecord, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) {
			return nil
		}
		*dst(r) = &v
		return nil
	}
}

func flag(dst func(*model.FarmRecord) *bool) setter {
	return func(r *model.FarmRecord, raw string) error {
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		*dst(r) = v
		return nil
	}
}

var columns = map[string]setter{
	"farmer_id": func(r *model.FarmRecord, raw string) error {
		r.FarmerID = raw
		return nil
	},
	"state":           text(func(r *model.FarmRecord) *string { return &r.State }, titleCase),
	"season":          text(func(r *model.FarmRecord) *string { return &r.Season }, lowerCase),
	"crop_type":       text(func(r *model.FarmRecord) *string { return &r.CropType }, lowerCase),
	"irrigation_type": text(func(r *model.FarmRecord) *string { return &r.IrrigationType }, lowerCase),
	"year": func(r *model.FarmRecord, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		if v != math.Trunc(v) {
			return fmt.Errorf("year %q is not a whole number", raw)
		}
		r.Year = model.Int(int(v))
		return nil
	},

	"land_acres":             number(func(r *model.FarmRecord) **float64 { return &r.LandAcres }),
	"water_source_count":     number(func(r *model.FarmRecord) **float64 { return &r.WaterSourceCount }),
	"borewell_count":         number(func(r *model.FarmRecord) **float64 { return &r.BorewellCount }),
	"borewell_depth_ft":      number(func(r *model.FarmRecord) **float64 { return &r.BorewellDepthFt }),
	"crop_count":             number(func(r *model.FarmRecord) **float64 { return &r.CropCount }),
	"livestock_count":        number(func(r *model.FarmRecord) **float64 { return &r.LivestockCount }),
	"kcc_score":              number(func(r *model.FarmRecord) **float64 { return &r.KCCScore }),
	"kcc_repayment_rate":     number(func(r *model.FarmRecord) **float64 { return &r.KCCRepaymentRate }),
	"outstanding_debt_ratio": number(func(r *model.FarmRecord) **float64 { return &r.OutstandingDebtRatio }),
	"rainfall_deficit_pct":   number(func(r *model.FarmRecord) **float64 { return &r.RainfallDeficitPct }),
	"actual_rainfall_mm":     number(func(r *model.FarmRecord) **float64 { return &r.ActualRainfallMM }),
	"heatwave_days":          number(func(r *model.FarmRecord) **float64 { return &r.HeatwaveDays }),
	"avg_temperature_c":      number(func(r *model.FarmRecord) **float64 { return &r.AvgTemperatureC }),
	"monsoon_reliability":    number(func(r *model.FarmRecord) **float64 { return &r.MonsoonReliability }),
	"ndvi_score":             number(func(r *model.FarmRecord) **float64 { return &r.NDVIScore }),
	"soil_moisture_percent":  number(func(r *model.FarmRecord) **float64 { return &r.SoilMoisturePercent }),
	"soil_fertility_index":   number(func(r *model.FarmRecord) **float64 { return &r.SoilFertilityIndex }),

	"has_canal_access":      flag(func(r *model.FarmRecord) *bool { return &r.HasCanalAccess }),
	"has_livestock":         flag(func(r *model.FarmRecord) *bool { return &r.HasLivestock }),
	"owns_tractor":          flag(func(r *model.FarmRecord) *bool { return &r.OwnsTractor }),
	"has_storage":           flag(func(r *model.FarmRecord) *bool { return &r.HasStorage }),
	"has_insurance_history": flag(func(r *model.FarmRecord) *bool { return &r.HasInsuranceHistory }),
}

var requiredColumns = []string{"state", "season", "crop_type", "irrigation_type"}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true, nil
	case "0", "0.0", "false", "f", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", raw)
}

func isMissing(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}

// LoadLabeled reads a labelled training table from path.
func LoadLabeled(path string) ([]model.LabeledRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return ReadLabeled(f)
}

// ReadLabeled parses a CSV table whose header names FarmRecord fields plus
// LabelColumn. Unknown columns are ignored and empty or NaN cells are
// missing values.
func ReadLabeled(r io.Reader) ([]model.LabeledRecord, error) {
	var out []model.LabeledRecord
	err := read(r, true, func(rec model.FarmRecord, label bool) {
		out = append(out, model.LabeledRecord{Record: rec, Claimed: label})
	})
	return out, err
}

// ReadFarms parses an unlabelled CSV table. A label column, if present, is
// ignored.
func ReadFarms(r io.Reader) ([]model.FarmRecord, error) {
	var out []model.FarmRecord
	err := read(r, false, func(rec model.FarmRecord, _ bool) {
		out = append(out, rec)
	})
	return out, err
}

func read(r io.Reader, labelled bool, emit func(model.FarmRecord, bool)) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("dataset: empty input")
	}
	if err != nil {
		return fmt.Errorf("dataset: read header: %w", err)
	}

	setters := make([]setter, len(header))
	names := make([]string, len(header))
	labelIdx := -1
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		names[i] = name
		if seen[name] {
			return fmt.Errorf("dataset: duplicate column %q", name)
		}
		seen[name] = true
		if name == LabelColumn {
			labelIdx = i
			continue
		}
		setters[i] = columns[name]
	}
	for _, name := range requiredColumns {
		if !seen[name] {
			return fmt.Errorf("dataset: missing column %q", name)
		}
	}
	if labelled && labelIdx < 0 {
		return fmt.Errorf("dataset: missing label column %q", LabelColumn)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dataset: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var rec model.FarmRecord
		for i, raw := range row {
			set := setters[i]
			raw = strings.TrimSpace(raw)
			if set == nil || isMissing(raw) {
				continue
			}
			if err := set(&rec, raw); err != nil {
				return fmt.Errorf("dataset: line %d: column %s: %w", line, names[i], err)
			}
		}

		var label bool
		if labelled {
			raw := strings.TrimSpace(row[labelIdx])
			if label, err = parseBool(raw); err != nil {
				return fmt.Errorf("dataset: line %d: column %s: %w", line, LabelColumn, err)
			}
		}
		emit(rec, label)
	}
}
