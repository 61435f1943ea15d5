package qlearning

import (
	"github.com/att-innovate/rainman2/internal/cellular"
)

// Naive is plain tabular Q-learning: one Q entry per distinct
// NetworkState and one scalar value per distinct UE/AP state. State
// structs are comparable, so they key the maps directly.
type Naive struct {
	alpha float64
	q     map[cellular.NetworkState]*[cellular.NumActions]float64
	qAP   map[cellular.UEAPState]float64
}

// NewNaive builds the tabular agent.
func NewNaive(alpha float64) *Naive {
	return &Naive{
		alpha: alpha,
		q:     make(map[cellular.NetworkState]*[cellular.NumActions]float64),
		qAP:   make(map[cellular.UEAPState]float64),
	}
}

func (a *Naive) Name() string { return AgentNaive }

func (a *Naive) row(state cellular.NetworkState) *[cellular.NumActions]float64 {
	row, ok := a.q[state]
	if !ok {
		row = &[cellular.NumActions]float64{}
		a.q[state] = row
	}
	return row
}

func (a *Naive) QValues(state cellular.NetworkState) []float64 {
	row := a.row(state)
	return row[:]
}

func (a *Naive) Learn(state cellular.NetworkState, action cellular.Action, target float64) {
	row := a.row(state)
	row[action] += a.alpha * (target - row[action])
}

func (a *Naive) APValue(state cellular.UEAPState) float64 {
	return a.qAP[state]
}

func (a *Naive) LearnAP(state cellular.UEAPState, reward float64) {
	a.qAP[state] += a.alpha * (reward - a.qAP[state])
}

func (a *Naive) States() int   { return len(a.q) }
func (a *Naive) APStates() int { return len(a.qAP) }

// Q exposes the learned table for reporting.
func (a *Naive) Q() map[cellular.NetworkState]*[cellular.NumActions]float64 {
	return a.q
}

// QAP exposes the learned per-AP values for reporting.
func (a *Naive) QAP() map[cellular.UEAPState]float64 { return a.qAP }
