package qlearning

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/cellular"
	"github.com/att-innovate/rainman2/internal/config"
)

// EpisodeStats summarizes one episode for reporting.
type EpisodeStats struct {
	Episode       int
	Steps         int
	TotalReward   float64
	Handoffs      int
	Staying       int
	SLAMeets      int
	SLAViolations int
	Epsilon       float64
}

// Results is what an experiment hands back to the caller.
type Results struct {
	Agent     string
	Episodes  []EpisodeStats
	QStates   int
	QAPStates int
	Duration  time.Duration
}

// Controller runs epsilon-greedy Q-learning over the cellular
// environment: every episode walks the whole UE population once,
// deciding STAY or HANDOFF per UE and updating the agent's value
// model from the observed reward.
type Controller struct {
	cfg     config.Algorithm
	env     *cellular.Env
	agent   Agent
	epsilon float64
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewController wires an agent to the environment.
func NewController(cfg config.Algorithm, env *cellular.Env, agent Agent,
	logger *zap.Logger) *Controller {

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Controller{
		cfg:     cfg,
		env:     env,
		agent:   agent,
		epsilon: cfg.Epsilon,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger.Named("qlearning").With(zap.String("agent", agent.Name())),
	}
}

// Execute runs the configured number of episodes.
func (c *Controller) Execute(ctx context.Context) (*Results, error) {
	results := &Results{Agent: c.agent.Name()}

	for episode := 1; episode <= c.cfg.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats, err := c.runEpisode(episode)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", episode, err)
		}
		results.Episodes = append(results.Episodes, stats)

		c.logger.Info("episode finished",
			zap.Int("episode", episode),
			zap.Float64("total_reward", stats.TotalReward),
			zap.Int("handoffs", stats.Handoffs),
			zap.Float64("epsilon", stats.Epsilon),
		)

		// Decay exploration once per episode, never below the floor.
		c.epsilon *= c.cfg.EpsilonDecay
		if c.epsilon < c.cfg.EpsilonMin {
			c.epsilon = c.cfg.EpsilonMin
		}
	}

	results.QStates = c.agent.States()
	results.QAPStates = c.agent.APStates()
	return results, nil
}

func (c *Controller) runEpisode(episode int) (EpisodeStats, error) {
	if err := c.env.Reset(); err != nil {
		return EpisodeStats{}, err
	}

	stats := EpisodeStats{Episode: episode, Epsilon: c.epsilon}

	for _, ueID := range c.env.UEIDs() {
		ue, err := c.env.UE(ueID)
		if err != nil {
			return EpisodeStats{}, err
		}
		state, err := c.env.NetworkState(ue, ue.AP)
		if err != nil {
			return EpisodeStats{}, err
		}

		action := c.chooseAction(state)

		// STAY targets the current AP; HANDOFF targets the most
		// valuable neighboring AP (or a random one while exploring).
		targetAP := ue.AP
		var apState cellular.UEAPState
		apChosen := false
		if action == cellular.ActionHandoff {
			candidates, err := c.candidates(ue)
			if err != nil {
				return EpisodeStats{}, err
			}
			if len(candidates) == 0 {
				// An isolated UE has nowhere to go.
				action = cellular.ActionStay
			} else {
				chosen := c.chooseAP(candidates)
				targetAP = chosen.APID
				apState = chosen.State
				apChosen = true
			}
		}

		nextState, reward, err := c.env.Step(state, action, ue, targetAP)
		if err != nil {
			return EpisodeStats{}, err
		}

		target := reward + c.cfg.Gamma*maxValue(c.agent.QValues(nextState))
		c.agent.Learn(state, action, target)
		if apChosen {
			c.agent.LearnAP(apState, reward)
		}

		stats.Steps++
		stats.TotalReward += reward
	}

	stats.Handoffs = c.env.Handoffs()
	stats.Staying = c.env.Staying()
	stats.SLAMeets = c.env.SLAStats["Meets"]
	stats.SLAViolations = c.env.SLAStats["Doesnot"]
	return stats, nil
}

// chooseAction is epsilon-greedy over the action values.
func (c *Controller) chooseAction(state cellular.NetworkState) cellular.Action {
	if c.rng.Float64() < c.epsilon {
		return cellular.Action(c.rng.Intn(cellular.NumActions))
	}
	return cellular.Action(argmax(c.agent.QValues(state)))
}

// candidates builds the scored list of neighboring APs for a UE.
func (c *Controller) candidates(ue *cellular.UE) ([]APCandidate, error) {
	candidates := make([]APCandidate, 0, len(ue.NeighboringAPs))
	for _, apID := range ue.NeighboringAPs {
		apState, err := c.env.UEAPState(ue, apID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, APCandidate{APID: apID, State: apState})
	}
	return candidates, nil
}

// chooseAP is epsilon-greedy over the candidates' learned values.
func (c *Controller) chooseAP(candidates []APCandidate) APCandidate {
	if c.rng.Float64() < c.epsilon {
		return candidates[c.rng.Intn(len(candidates))]
	}
	best := candidates[0]
	bestValue := c.agent.APValue(best.State)
	for _, candidate := range candidates[1:] {
		if v := c.agent.APValue(candidate.State); v > bestValue {
			bestValue = v
			best = candidate
		}
	}
	return best
}
