// Package experiment is rainman2's internal interface: it knows which
// environments and algorithms exist, builds the client → environment
// → algorithm chain and runs it with wall-clock timing.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/cellular"
	"github.com/att-innovate/rainman2/internal/config"
	"github.com/att-innovate/rainman2/internal/qlearning"
)

// Names of the supported pieces.
const (
	EnvCellular        = "Cellular"
	AlgorithmQlearning = "Qlearning"
)

var (
	// ErrEnvironmentNotImplemented reports a request for an unknown
	// environment.
	ErrEnvironmentNotImplemented = errors.New("environment not implemented")

	// ErrAlgorithmNotImplemented reports a request for an unknown
	// algorithm.
	ErrAlgorithmNotImplemented = errors.New("algorithm not implemented")
)

// Runner builds and executes experiments.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New returns a Runner over the given configuration.
func New(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger.Named("experiment")}
}

// buildClient picks the environment's client by configured type.
func (r *Runner) buildClient() (cellular.Client, error) {
	switch r.cfg.Cellular.Type {
	case config.EnvTypeDev:
		return cellular.NewDevClient(r.cfg.Cellular.BaseURL(), r.logger), nil
	case config.EnvTypeProd:
		return cellular.NewProdClient(r.cfg.Cellular.BaseURL(), r.logger)
	default:
		return nil, fmt.Errorf("%w: client for %q",
			cellular.ErrClientNotImplemented, r.cfg.Cellular.Type)
	}
}

// BuildEnv instantiates the named environment.
func (r *Runner) BuildEnv(envName string) (*cellular.Env, error) {
	if envName != EnvCellular {
		return nil, fmt.Errorf("%w: %q", ErrEnvironmentNotImplemented, envName)
	}
	r.logger.Info("building environment instance",
		zap.String("environment", envName),
		zap.String("type", r.cfg.Cellular.Type))
	client, err := r.buildClient()
	if err != nil {
		return nil, err
	}
	return cellular.NewEnv(client, r.logger), nil
}

// BuildAlgorithm instantiates the named algorithm over an
// environment.
func (r *Runner) BuildAlgorithm(algorithmName string, env *cellular.Env,
	agentName string) (*qlearning.Controller, error) {

	if algorithmName != AlgorithmQlearning {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithmNotImplemented, algorithmName)
	}
	r.logger.Debug("building algorithm instance",
		zap.String("algorithm", algorithmName),
		zap.String("agent", agentName))
	agent, err := qlearning.NewAgent(agentName, r.cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return qlearning.NewController(
		r.cfg.Algorithm, env, agent, r.logger), nil
}

// Run executes an experiment end to end and reports its duration.
func (r *Runner) Run(ctx context.Context, envName, algorithmName,
	agentName string) (*qlearning.Results, error) {

	r.logger.Info("starting experiment",
		zap.String("environment", envName),
		zap.String("algorithm", algorithmName),
		zap.String("agent", agentName),
		zap.Int("episodes", r.cfg.Algorithm.Episodes))

	env, err := r.BuildEnv(envName)
	if err != nil {
		return nil, err
	}
	algorithm, err := r.BuildAlgorithm(algorithmName, env, agentName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := algorithm.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("experiment failed: %w", err)
	}
	results.Duration = time.Since(start)

	r.logger.Info("experiment finished",
		zap.Duration("duration", results.Duration),
		zap.Int("q_states", results.QStates),
		zap.Int("q_ap_states", results.QAPStates))
	return results, nil
}
