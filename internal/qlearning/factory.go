package qlearning

import (
	"fmt"

	"github.com/att-innovate/rainman2/internal/config"
)

// NewAgent builds the requested value model from the algorithm
// configuration.
func NewAgent(name string, cfg config.Algorithm) (Agent, error) {
	switch name {
	case AgentNaive:
		return NewNaive(cfg.Alpha), nil
	case AgentLinearRegression:
		return NewLinearRegression(cfg.Alpha), nil
	case AgentNN:
		if cfg.L1Activation != "relu" || cfg.L2Activation != "relu" {
			return nil, fmt.Errorf("unsupported activation: %s/%s",
				cfg.L1Activation, cfg.L2Activation)
		}
		if cfg.LossFunction != "mean_squared_error" {
			return nil, fmt.Errorf("unsupported loss function: %s",
				cfg.LossFunction)
		}
		if cfg.Optimizer != "Adam" {
			return nil, fmt.Errorf("unsupported optimizer: %s", cfg.Optimizer)
		}
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		return NewNN(NNConfig{
			L1HiddenUnits: cfg.L1HiddenUnits,
			L2HiddenUnits: cfg.L2HiddenUnits,
			LearningRate:  cfg.Alpha,
			Seed:          seed,
		}), nil
	default:
		return nil, fmt.Errorf("unknown agent: %q", name)
	}
}
