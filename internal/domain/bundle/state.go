package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/calibration"
	"github.com/mkdev28/Cropp/internal/domain/features"
	"github.com/mkdev28/Cropp/internal/domain/gbdt"
)

// StateVersion is the layout version written by MarshalState.
const StateVersion = 1

type state struct {
	Version    int                   `json:"version"`
	ID         uuid.UUID             `json:"id"`
	CreatedAt  time.Time             `json:"created_at"`
	Config     TrainingConfig        `json:"config"`
	Schema     features.Schema       `json:"schema"`
	Stats      features.Stats        `json:"stats"`
	Model      *gbdt.Model           `json:"model"`
	Calibrator *calibration.Isotonic `json:"calibrator,omitempty"`
	Metrics    Metrics               `json:"metrics"`
}

// MarshalState encodes everything needed to score with the bundle again.
func (b *Bundle) MarshalState() ([]byte, error) {
	if !b.Ready() {
		return nil, fmt.Errorf("marshal bundle: not fitted")
	}
	data, err := json.Marshal(state{
		Version:    StateVersion,
		ID:         b.id,
		CreatedAt:  b.createdAt,
		Config:     b.config,
		Schema:     b.engineer.Schema(),
		Stats:      b.engineer.Stats(),
		Model:      b.model,
		Calibrator: b.calibrator,
		Metrics:    b.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal bundle %s: %w", b.id, err)
	}
	return data, nil
}

// UnmarshalState restores a bundle written by MarshalState. It refuses
// state whose feature layout differs from the one this build produces.
func UnmarshalState(data []byte) (*Bundle, error) {
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode bundle state: %w", err)
	}
	if s.Version != StateVersion {
		return nil, fmt.Errorf("unsupported bundle state version %d", s.Version)
	}
	if s.Model == nil {
		return nil, fmt.Errorf("bundle state %s has no model", s.ID)
	}
	if err := features.DefaultSchema().Compatible(s.Schema); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", s.ID, err)
	}

	b, err := New(Components{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		Config:     s.Config,
		Stats:      s.Stats,
		Model:      s.Model,
		Calibrator: s.Calibrator,
		Metrics:    s.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("restore bundle %s: %w", s.ID, err)
	}
	return b, nil
}
