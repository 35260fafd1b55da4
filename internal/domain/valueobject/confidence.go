package valueobject

// Confidence grades how much of a report rests on imputed inputs.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFromImputed grades a report by the number of imputed fields.
func ConfidenceFromImputed(imputed int) Confidence {
	switch {
	case imputed == 0:
		return ConfidenceHigh
	case imputed <= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
