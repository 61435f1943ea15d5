package qlearning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/cellular"
	"github.com/att-innovate/rainman2/internal/config"
)

// localClient drives a StaticNetwork in-process so the controller can
// be exercised without the REST server.
type localClient struct {
	network *cellular.StaticNetwork
}

func (c *localClient) APList() ([]*cellular.AP, error) { return c.network.APList(), nil }

func (c *localClient) UEList() ([]*cellular.UE, error) { return c.network.UEList(), nil }

func (c *localClient) ResetNetwork() error { c.network.Reset(); return nil }

func (c *localClient) APInfo(apID int) (*cellular.AP, error) {
	return c.network.APInfo(apID)
}

func (c *localClient) UEInfo(ueID int) (*cellular.UE, error) {
	return c.network.UEInfo(ueID)
}

func (c *localClient) UESLA(ueID int) (int, error) {
	return c.network.UESLA(ueID)
}

func (c *localClient) UESignalPower(ueID int) (float64, error) {
	return c.network.UESignalPower(ueID)
}

func (c *localClient) NeighboringAPs(ueID int) ([]int, error) {
	return c.network.NeighboringAPs(ueID)
}

func (c *localClient) PerformHandoff(ueID, apID int) (*cellular.HandoffResult, error) {
	return c.network.PerformHandoff(ueID, apID)
}

func testController(t *testing.T, agent Agent, cfg config.Algorithm) *Controller {
	t.Helper()
	network, err := cellular.NewStaticNetwork(cellular.NetworkParams{
		NumUEs:        25,
		NumAPs:        9,
		Scale:         100.0,
		ExploreRadius: 1,
		Seed:          13,
	}, zap.NewNop())
	require.NoError(t, err)

	env := cellular.NewEnv(&localClient{network: network}, zap.NewNop())
	return NewController(cfg, env, agent, zap.NewNop())
}

func algorithmConfig() config.Algorithm {
	cfg := config.Default().Algorithm
	cfg.Episodes = 3
	cfg.Epsilon = 0.5
	cfg.Seed = 17
	return cfg
}

func TestControllerExecute(t *testing.T) {
	cfg := algorithmConfig()
	controller := testController(t, NewNaive(cfg.Alpha), cfg)

	results, err := controller.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, AgentNaive, results.Agent)
	require.Len(t, results.Episodes, 3)
	for i, episode := range results.Episodes {
		assert.Equal(t, i+1, episode.Episode)
		assert.Equal(t, 25, episode.Steps)
		assert.Equal(t, 25, episode.Handoffs+episode.Staying)
		assert.Equal(t, 25, episode.SLAMeets+episode.SLAViolations)
	}
	assert.Greater(t, results.QStates, 0)
}

func TestControllerEpsilonDecay(t *testing.T) {
	cfg := algorithmConfig()
	cfg.Episodes = 5
	cfg.Epsilon = 0.5
	cfg.EpsilonDecay = 0.5
	cfg.EpsilonMin = 0.1
	controller := testController(t, NewNaive(cfg.Alpha), cfg)

	results, err := controller.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results.Episodes, 5)

	// 0.5, 0.25, 0.125, then clamped at the floor.
	assert.Equal(t, 0.5, results.Episodes[0].Epsilon)
	assert.Equal(t, 0.25, results.Episodes[1].Epsilon)
	assert.Equal(t, 0.125, results.Episodes[2].Epsilon)
	assert.Equal(t, 0.1, results.Episodes[3].Epsilon)
	assert.Equal(t, 0.1, results.Episodes[4].Epsilon)
}

func TestControllerHonorsContext(t *testing.T) {
	cfg := algorithmConfig()
	controller := testController(t, NewNaive(cfg.Alpha), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := controller.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestControllerWithFunctionApproximators(t *testing.T) {
	cfg := algorithmConfig()
	cfg.Episodes = 2
	cfg.Alpha = 0.01

	for _, agent := range []Agent{
		NewLinearRegression(cfg.Alpha),
		NewNN(NNConfig{
			L1HiddenUnits: 13, L2HiddenUnits: 13,
			LearningRate: cfg.Alpha, Seed: 1,
		}),
	} {
		t.Run(agent.Name(), func(t *testing.T) {
			controller := testController(t, agent, cfg)
			results, err := controller.Execute(context.Background())
			require.NoError(t, err)
			assert.Len(t, results.Episodes, 2)
			assert.Equal(t, agent.Name(), results.Agent)
		})
	}
}
