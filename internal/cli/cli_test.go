package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/config"
	"github.com/att-innovate/rainman2/internal/qlearning"
)

// recorder captures what the command asked the runner to do.
type recorder struct {
	cfg           *config.Config
	envName       string
	algorithmName string
	agentName     string
	calls         int
	err           error
}

func (r *recorder) run(_ context.Context, cfg *config.Config,
	envName, algorithmName, agentName string) (*qlearning.Results, error) {

	r.cfg = cfg
	r.envName = envName
	r.algorithmName = algorithmName
	r.agentName = agentName
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &qlearning.Results{
		Agent: agentName,
		Episodes: []qlearning.EpisodeStats{
			{Episode: 1, TotalReward: 12.5, Handoffs: 3},
		},
		QStates:   7,
		QAPStates: 4,
		Duration:  time.Second,
	}, nil
}

func runCommand(t *testing.T, rec *recorder, args ...string) (string, error) {
	t.Helper()
	cfg := config.Default()
	out := &bytes.Buffer{}
	root := New(cfg,
		WithRunFunc(rec.run),
		WithLogger(zap.NewNop()),
		WithOutput(out))
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		command string
		agent   string
	}{
		{"qlearning_naive", qlearning.AgentNaive},
		{"qlearning_linear_regression", qlearning.AgentLinearRegression},
		{"qlearning_nn", qlearning.AgentNN},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			rec := &recorder{}
			out, err := runCommand(t, rec, "Cellular", tt.command)
			require.NoError(t, err)

			assert.Equal(t, 1, rec.calls)
			assert.Equal(t, "Cellular", rec.envName)
			assert.Equal(t, "Qlearning", rec.algorithmName)
			assert.Equal(t, tt.agent, rec.agentName)
			assert.Contains(t, out, "Experiment finished")
			assert.Contains(t, out, tt.agent)
		})
	}
}

func TestHyperparameterFlags(t *testing.T) {
	rec := &recorder{}
	_, err := runCommand(t, rec,
		"--alpha", "0.3",
		"--gamma", "0.8",
		"--epsilon", "0.2",
		"--epsilon_decay", "0.95",
		"--epsilon_min", "0.05",
		"--episodes", "10",
		"Cellular", "qlearning_naive")
	require.NoError(t, err)

	require.NotNil(t, rec.cfg)
	assert.Equal(t, 0.3, rec.cfg.Algorithm.Alpha)
	assert.Equal(t, 0.8, rec.cfg.Algorithm.Gamma)
	assert.Equal(t, 0.2, rec.cfg.Algorithm.Epsilon)
	assert.Equal(t, 0.95, rec.cfg.Algorithm.EpsilonDecay)
	assert.Equal(t, 0.05, rec.cfg.Algorithm.EpsilonMin)
	assert.Equal(t, 10, rec.cfg.Algorithm.Episodes)
}

func TestEnvTypeFlag(t *testing.T) {
	rec := &recorder{}
	_, err := runCommand(t, rec,
		"Cellular", "--env_type", "Prod", "qlearning_naive")
	require.NoError(t, err)
	assert.Equal(t, config.EnvTypeProd, rec.cfg.Cellular.Type)
}

func TestNNFlags(t *testing.T) {
	rec := &recorder{}
	_, err := runCommand(t, rec,
		"Cellular", "qlearning_nn",
		"--l1_hidden_units", "26",
		"--l2_hidden_units", "20",
		"--l1_activation", "relu",
		"--loss_function", "mean_squared_error",
		"--optimizer", "Adam")
	require.NoError(t, err)

	assert.Equal(t, qlearning.AgentNN, rec.agentName)
	assert.Equal(t, 26, rec.cfg.Algorithm.L1HiddenUnits)
	assert.Equal(t, 20, rec.cfg.Algorithm.L2HiddenUnits)
}

func TestInvalidFlagsRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad env_type", []string{"Cellular", "--env_type", "Staging", "qlearning_naive"}},
		{"bad alpha", []string{"--alpha", "3", "Cellular", "qlearning_naive"}},
		{"bad episodes", []string{"--episodes", "0", "Cellular", "qlearning_naive"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			_, err := runCommand(t, rec, tt.args...)
			assert.Error(t, err)
			assert.Equal(t, 0, rec.calls)
		})
	}
}

func TestRunErrorPropagates(t *testing.T) {
	rec := &recorder{err: errors.New("connection refused")}
	_, err := runCommand(t, rec, "Cellular", "qlearning_naive")
	assert.ErrorContains(t, err, "connection refused")
}

func TestUnknownCommand(t *testing.T) {
	rec := &recorder{}
	_, err := runCommand(t, rec, "Cellular", "qlearning_deep")
	assert.Error(t, err)
	assert.Equal(t, 0, rec.calls)
}
