// Package qlearning implements the Q-learning controller and its
// three value-model variants: tabular, linear-regression function
// approximation and a neural-network function approximator.
package qlearning

import (
	"github.com/att-innovate/rainman2/internal/cellular"
)

// Agent names accepted by the controller.
const (
	AgentNaive            = "Naive"
	AgentLinearRegression = "LinearRegression"
	AgentNN               = "NN"
)

// Agent is a Q value model. The controller owns exploration and the
// TD target; agents only predict and absorb updates.
type Agent interface {
	Name() string

	// QValues returns the estimated action values for a state, in
	// action order (STAY, HANDOFF).
	QValues(state cellular.NetworkState) []float64

	// Learn moves Q(state, action) toward the TD target.
	Learn(state cellular.NetworkState, action cellular.Action, target float64)

	// APValue scores a candidate handoff target.
	APValue(state cellular.UEAPState) float64

	// LearnAP moves the candidate's score toward the observed
	// reward.
	LearnAP(state cellular.UEAPState, reward float64)

	// States and APStates report how many distinct states the model
	// has absorbed, for the experiment summary.
	States() int
	APStates() int
}

// APCandidate pairs a neighboring AP with the state describing it.
type APCandidate struct {
	APID  int
	State cellular.UEAPState
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}

func maxValue(values []float64) float64 {
	return values[argmax(values)]
}
