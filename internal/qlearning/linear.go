package qlearning

import (
	"gonum.org/v1/gonum/mat"

	"github.com/att-innovate/rainman2/internal/cellular"
)

// LinearRegression approximates Q with one linear model per action
// over the state feature vector (plus bias), trained by stochastic
// gradient descent on the TD target. A second single-output model
// scores handoff candidates.
type LinearRegression struct {
	alpha float64

	// weights[action] has cellular.StateDim+1 entries, bias first.
	weights [cellular.NumActions]*mat.VecDense
	// apWeights has cellular.APStateDim+1 entries, bias first.
	apWeights *mat.VecDense

	seenStates   map[cellular.NetworkState]struct{}
	seenAPStates map[cellular.UEAPState]struct{}
}

// NewLinearRegression builds the linear-FA agent with zero-valued
// weights.
func NewLinearRegression(alpha float64) *LinearRegression {
	a := &LinearRegression{
		alpha:        alpha,
		apWeights:    mat.NewVecDense(cellular.APStateDim+1, nil),
		seenStates:   make(map[cellular.NetworkState]struct{}),
		seenAPStates: make(map[cellular.UEAPState]struct{}),
	}
	for action := range a.weights {
		a.weights[action] = mat.NewVecDense(cellular.StateDim+1, nil)
	}
	return a
}

func (a *LinearRegression) Name() string { return AgentLinearRegression }

func biased(features []float64) *mat.VecDense {
	x := mat.NewVecDense(len(features)+1, nil)
	x.SetVec(0, 1)
	for i, f := range features {
		x.SetVec(i+1, f)
	}
	return x
}

func (a *LinearRegression) QValues(state cellular.NetworkState) []float64 {
	x := biased(state.Vector())
	values := make([]float64, cellular.NumActions)
	for action, w := range a.weights {
		values[action] = mat.Dot(w, x)
	}
	return values
}

func (a *LinearRegression) Learn(state cellular.NetworkState, action cellular.Action, target float64) {
	a.seenStates[state] = struct{}{}
	x := biased(state.Vector())
	w := a.weights[action]
	err := target - mat.Dot(w, x)
	w.AddScaledVec(w, a.alpha*err, x)
}

func (a *LinearRegression) APValue(state cellular.UEAPState) float64 {
	return mat.Dot(a.apWeights, biased(state.Vector()))
}

func (a *LinearRegression) LearnAP(state cellular.UEAPState, reward float64) {
	a.seenAPStates[state] = struct{}{}
	x := biased(state.Vector())
	err := reward - mat.Dot(a.apWeights, x)
	a.apWeights.AddScaledVec(a.apWeights, a.alpha*err, x)
}

func (a *LinearRegression) States() int   { return len(a.seenStates) }
func (a *LinearRegression) APStates() int { return len(a.seenAPStates) }
