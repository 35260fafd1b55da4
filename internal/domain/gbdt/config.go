package gbdt

import "fmt"

// Config holds the boosting hyperparameters. The defaults are the fixed
// production settings; they are not tuned per dataset.
type Config struct {
	Iterations          int     `yaml:"iterations" json:"iterations"`
	LearningRate        float64 `yaml:"learning_rate" json:"learning_rate"`
	Depth               int     `yaml:"depth" json:"depth"`
	L2LeafReg           float64 `yaml:"l2_leaf_reg" json:"l2_leaf_reg"`
	EarlyStoppingRounds int     `yaml:"early_stopping_rounds" json:"early_stopping_rounds"`
	BorderCount         int     `yaml:"border_count" json:"border_count"`
	MinDataInLeaf       int     `yaml:"min_data_in_leaf" json:"min_data_in_leaf"`
	BalancedClassWeight bool    `yaml:"balanced_class_weight" json:"balanced_class_weight"`
}

// DefaultConfig returns the production boosting configuration.
func DefaultConfig() Config {
	return Config{
		Iterations:          2000,
		LearningRate:        0.03,
		Depth:               6,
		L2LeafReg:           3,
		EarlyStoppingRounds: 150,
		BorderCount:         128,
		MinDataInLeaf:       5,
		BalancedClassWeight: true,
	}
}

// Validate rejects configurations the booster cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return fmt.Errorf("learning rate must be in (0, 1], got %g", c.LearningRate)
	case c.Depth <= 0 || c.Depth > 16:
		return fmt.Errorf("depth must be in [1, 16], got %d", c.Depth)
	case c.L2LeafReg < 0:
		return fmt.Errorf("l2 leaf regularisation must not be negative, got %g", c.L2LeafReg)
	case c.EarlyStoppingRounds < 0:
		return fmt.Errorf("early stopping rounds must not be negative, got %d", c.EarlyStoppingRounds)
	case c.BorderCount < 1 || c.BorderCount > 65534:
		return fmt.Errorf("border count must be in [1, 65534], got %d", c.BorderCount)
	case c.MinDataInLeaf < 1:
		return fmt.Errorf("min data in leaf must be at least 1, got %d", c.MinDataInLeaf)
	}
	return nil
}
