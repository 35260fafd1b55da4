package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkdev28/Cropp/internal/domain/service"
)

// LoadTrainingConfig overlays the YAML file at path onto the default
// training configuration. An empty path returns the defaults. Unknown keys
// are rejected.
func LoadTrainingConfig(path string) (service.TrainingConfig, error) {
	if path == "" {
		return service.DefaultTrainingConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return service.TrainingConfig{}, fmt.Errorf("config: read training config: %w", err)
	}
	return ParseTrainingConfig(data)
}

// ParseTrainingConfig overlays YAML data onto the defaults and validates the
// result.
func ParseTrainingConfig(data []byte) (service.TrainingConfig, error) {
	cfg := service.DefaultTrainingConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return service.TrainingConfig{}, fmt.Errorf("config: parse training config: %w", err)
	}
	if err := service.ValidateTrainingConfig(cfg); err != nil {
		return service.TrainingConfig{}, fmt.Errorf("config: invalid training config: %w", err)
	}
	return cfg, nil
}
