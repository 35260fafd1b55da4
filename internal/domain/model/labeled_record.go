package model

// LabeledRecord is one historical farm-season with its claim outcome.
type LabeledRecord struct {
	Record  FarmRecord `json:"record"`
	Claimed bool       `json:"claimed"`
}
