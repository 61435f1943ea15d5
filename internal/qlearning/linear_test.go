package qlearning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/att-innovate/rainman2/internal/cellular"
)

func TestLinearRegressionLearnsConstantTarget(t *testing.T) {
	agent := NewLinearRegression(0.01)
	state := cellular.NetworkState{
		UESLA: 1, App: 1, SigPower: -5, VideoUEs: 2, WebUEs: 4,
		AvgVideoSLA: 0.5, AvgWebSLA: 0.8,
	}

	assert.Equal(t, []float64{0, 0}, agent.QValues(state))

	for i := 0; i < 500; i++ {
		agent.Learn(state, cellular.ActionHandoff, 3.0)
	}
	assert.InDelta(t, 3.0, agent.QValues(state)[cellular.ActionHandoff], 0.05)
	// The other action's model is untouched.
	assert.Equal(t, 0.0, agent.QValues(state)[cellular.ActionStay])
}

func TestLinearRegressionGeneralizes(t *testing.T) {
	agent := NewLinearRegression(0.005)

	// Target depends linearly on the UE's SLA, so the model can fit it
	// exactly and carry it over to pairs it never trained on.
	train := []struct {
		state  cellular.NetworkState
		target float64
	}{
		{cellular.NetworkState{UESLA: 1, WebUEs: 2}, 1},
		{cellular.NetworkState{UESLA: 0, WebUEs: 2}, -1},
		{cellular.NetworkState{UESLA: 1, WebUEs: 5}, 1},
		{cellular.NetworkState{UESLA: 0, WebUEs: 5}, -1},
	}
	for i := 0; i < 2000; i++ {
		for _, sample := range train {
			agent.Learn(sample.state, cellular.ActionStay, sample.target)
		}
	}

	unseen := cellular.NetworkState{UESLA: 1, WebUEs: 3}
	assert.InDelta(t, 1.0, agent.QValues(unseen)[cellular.ActionStay], 0.1)
	unseen.UESLA = 0
	assert.InDelta(t, -1.0, agent.QValues(unseen)[cellular.ActionStay], 0.1)

	assert.Equal(t, 4, agent.States())
}

func TestLinearRegressionAPModel(t *testing.T) {
	agent := NewLinearRegression(0.01)
	state := cellular.UEAPState{App: 1, SigPower: -4, WebUEs: 3}

	assert.Equal(t, 0.0, agent.APValue(state))
	for i := 0; i < 500; i++ {
		agent.LearnAP(state, -2.0)
	}
	assert.InDelta(t, -2.0, agent.APValue(state), 0.05)
	assert.Equal(t, 1, agent.APStates())
}
