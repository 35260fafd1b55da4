package model

import (
	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/valueobject"
)

// UnknownFarmer is reported when a record carries no farmer ID.
const UnknownFarmer = "Unknown"

// Driver is one feature's contribution to the claim log-odds.
type Driver struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
}

// RiskReport is the scored, explained view of one farm record.
type RiskReport struct {
	FarmerID             string                   `json:"farmer_id"`
	RiskScore            int                      `json:"risk_score"`
	RiskCategory         valueobject.RiskCategory `json:"risk_category"`
	CategoryLabel        string                   `json:"category_label"`
	ClaimProbability     float64                  `json:"claim_probability"`
	Confidence           valueobject.Confidence   `json:"confidence"`
	ImputedFields        []string                 `json:"imputed_fields"`
	Breakdown            valueobject.Breakdown    `json:"breakdown"`
	TopRiskDrivers       []Driver                 `json:"top_risk_drivers"`
	TopProtectiveFactors []Driver                 `json:"top_protective_factors"`
	BundleID             uuid.UUID                `json:"bundle_id"`
}

// Band returns the risk band the report's score falls in.
func (r RiskReport) Band() valueobject.RiskBand {
	return valueobject.RiskBandFromScore(r.RiskScore)
}

// DriverNames returns the feature names of the top risk drivers.
func (r RiskReport) DriverNames() []string {
	names := make([]string, 0, len(r.TopRiskDrivers))
	for _, d := range r.TopRiskDrivers {
		names = append(names, d.Feature)
	}
	return names
}
