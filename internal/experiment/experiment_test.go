package experiment

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/cellular"
	"github.com/att-innovate/rainman2/internal/cellular/simsrv"
	"github.com/att-innovate/rainman2/internal/config"
	"github.com/att-innovate/rainman2/internal/qlearning"
)

func testRunner(t *testing.T) *Runner {
	t.Helper()
	return New(config.Default(), zap.NewNop())
}

func TestBuildEnv(t *testing.T) {
	runner := testRunner(t)

	env, err := runner.BuildEnv(EnvCellular)
	require.NoError(t, err)
	assert.NotNil(t, env)

	_, err = runner.BuildEnv("CartPole")
	assert.ErrorIs(t, err, ErrEnvironmentNotImplemented)
}

func TestBuildEnvProdNotImplemented(t *testing.T) {
	cfg := config.Default()
	cfg.Cellular.Type = config.EnvTypeProd
	runner := New(cfg, zap.NewNop())

	_, err := runner.BuildEnv(EnvCellular)
	assert.ErrorIs(t, err, cellular.ErrClientNotImplemented)
}

func TestBuildAlgorithm(t *testing.T) {
	runner := testRunner(t)
	env, err := runner.BuildEnv(EnvCellular)
	require.NoError(t, err)

	for _, agent := range []string{
		qlearning.AgentNaive,
		qlearning.AgentLinearRegression,
		qlearning.AgentNN,
	} {
		controller, err := runner.BuildAlgorithm(AlgorithmQlearning, env, agent)
		require.NoError(t, err)
		assert.NotNil(t, controller)
	}

	_, err = runner.BuildAlgorithm("Sarsa", env, qlearning.AgentNaive)
	assert.ErrorIs(t, err, ErrAlgorithmNotImplemented)

	_, err = runner.BuildAlgorithm(AlgorithmQlearning, env, "DeepDoubleQ")
	assert.Error(t, err)
}

func TestRunAgainstSimulatedNetwork(t *testing.T) {
	network, err := cellular.NewStaticNetwork(cellular.NetworkParams{
		NumUEs:        20,
		NumAPs:        9,
		Scale:         100.0,
		ExploreRadius: 1,
		Seed:          23,
	}, zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(simsrv.New(network, zap.NewNop()).Handler())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Cellular.Server = u.Hostname()
	cfg.Cellular.Port = port
	cfg.Algorithm.Episodes = 2
	cfg.Algorithm.Seed = 19

	runner := New(cfg, zap.NewNop())
	res, err := runner.Run(context.Background(),
		EnvCellular, AlgorithmQlearning, qlearning.AgentNaive)
	require.NoError(t, err)

	assert.Equal(t, qlearning.AgentNaive, res.Agent)
	assert.Len(t, res.Episodes, 2)
	assert.Equal(t, 20, res.Episodes[0].Steps)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunUnknownEnvironment(t *testing.T) {
	runner := testRunner(t)
	_, err := runner.Run(context.Background(),
		"CartPole", AlgorithmQlearning, qlearning.AgentNaive)
	assert.ErrorIs(t, err, ErrEnvironmentNotImplemented)
}
