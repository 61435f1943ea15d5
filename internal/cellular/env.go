package cellular

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Env is the cellular network environment the Q-learning controller
// steps through. It mirrors the network state fetched over the client
// and computes the reward signal.
type Env struct {
	client Client
	logger *zap.Logger

	aps      map[int]*AP
	ues      map[int]*UE
	ueOrder  []int
	SLAStats map[string]int
	handoffs int
	staying  int
}

// NewEnv wraps a network client in the environment abstraction.
func NewEnv(client Client, logger *zap.Logger) *Env {
	return &Env{
		client:   client,
		logger:   logger.Named("cellular-env"),
		aps:      make(map[int]*AP),
		ues:      make(map[int]*UE),
		SLAStats: make(map[string]int),
	}
}

// Actions describes the action space.
func (e *Env) Actions() map[Action]string {
	return map[Action]string{
		ActionStay:    ActionStay.String(),
		ActionHandoff: ActionHandoff.String(),
	}
}

// StateDim is the size of the observed state.
func (e *Env) StateDim() int { return StateDim }

// Reset refetches the AP and UE populations. It fails when the
// network cannot be reached or reports an empty topology.
func (e *Env) Reset() error {
	e.logger.Debug("resetting the environment")

	e.aps = make(map[int]*AP)
	e.ues = make(map[int]*UE)
	e.ueOrder = e.ueOrder[:0]
	e.SLAStats = make(map[string]int)
	e.handoffs = 0
	e.staying = 0

	aps, err := e.client.APList()
	if err != nil {
		return fmt.Errorf("resetting environment: %w", err)
	}
	for _, ap := range aps {
		e.aps[ap.APID] = ap
	}

	ues, err := e.client.UEList()
	if err != nil {
		return fmt.Errorf("resetting environment: %w", err)
	}
	for _, ue := range ues {
		e.ues[ue.UEID] = ue
		e.ueOrder = append(e.ueOrder, ue.UEID)
		if ue.SLA == 1 {
			e.SLAStats["Meets"]++
		} else {
			e.SLAStats["Doesnot"]++
		}
	}

	if len(e.aps) == 0 || len(e.ues) == 0 {
		return fmt.Errorf(
			"%w: empty topology after reset, check connectivity",
			ErrExternalServer)
	}
	return nil
}

// UEIDs lists the UE population in the order it was fetched.
func (e *Env) UEIDs() []int { return e.ueOrder }

// UE returns a UE from the environment's mirror.
func (e *Env) UE(ueID int) (*UE, error) {
	ue, ok := e.ues[ueID]
	if !ok {
		return nil, fmt.Errorf("%w: UE %d", ErrUnknownUE, ueID)
	}
	return ue, nil
}

// AP returns an AP from the environment's mirror.
func (e *Env) AP(apID int) (*AP, error) {
	ap, ok := e.aps[apID]
	if !ok {
		return nil, fmt.Errorf("%w: AP %d", ErrUnknownAP, apID)
	}
	return ap, nil
}

// Handoffs returns how many handoffs happened since the last Reset.
func (e *Env) Handoffs() int { return e.handoffs }

// Staying returns how many STAY steps happened since the last Reset.
func (e *Env) Staying() int { return e.staying }

// apStats aggregates the AP's per-app UE counts and average SLA.
func (e *Env) apStats(apID int) (nUEs map[App]int, avgSLA map[App]float64, err error) {
	ap, err := e.AP(apID)
	if err != nil {
		return nil, nil, err
	}
	nUEs = make(map[App]int, len(AppID))
	avgSLA = make(map[App]float64, len(AppID))
	for app := range AppID {
		count := len(ap.NUEs[app])
		nUEs[app] = count
		avgSLA[app] = avgAppSLA(count, ap.UEsMeetingSLA[app])
	}
	return nUEs, avgSLA, nil
}

// avgAppSLA is the share of an AP's UEs meeting their SLA for one
// app, rounded to one decimal. Ties round half to even, so 1 of 4
// UEs meeting SLA yields 0.2.
func avgAppSLA(nAppUEs, uesMeetingSLA int) float64 {
	if nAppUEs == 0 || uesMeetingSLA == 0 {
		return 0.0
	}
	avg := float64(uesMeetingSLA) / float64(nAppUEs)
	return math.RoundToEven(avg*10) / 10
}

// NetworkState builds the agent's observation for a UE/AP pair.
func (e *Env) NetworkState(ue *UE, apID int) (NetworkState, error) {
	nUEs, avgSLA, err := e.apStats(apID)
	if err != nil {
		return NetworkState{}, err
	}
	return NetworkState{
		UESLA:       ue.SLA,
		App:         AppID[ue.App],
		SigPower:    ue.SignalPower,
		VideoUEs:    nUEs[AppVideo],
		WebUEs:      nUEs[AppWeb],
		AvgVideoSLA: avgSLA[AppVideo],
		AvgWebSLA:   avgSLA[AppWeb],
	}, nil
}

// UEAPState scores a candidate AP from the UE's perspective.
func (e *Env) UEAPState(ue *UE, apID int) (UEAPState, error) {
	nUEs, avgSLA, err := e.apStats(apID)
	if err != nil {
		return UEAPState{}, err
	}
	return UEAPState{
		App:         AppID[ue.App],
		SigPower:    ue.SignalPower,
		VideoUEs:    nUEs[AppVideo],
		WebUEs:      nUEs[AppWeb],
		AvgVideoSLA: avgSLA[AppVideo],
		AvgWebSLA:   avgSLA[AppWeb],
	}, nil
}

// performHandoff executes the handoff and folds the network's answer
// back into the local mirrors. A handoff the network declined keeps
// the old state and reports done=false.
func (e *Env) performHandoff(ue *UE, apID int, oldState NetworkState) (NetworkState, bool, error) {
	result, err := e.client.PerformHandoff(ue.UEID, apID)
	if err != nil {
		return NetworkState{}, false, err
	}
	if !result.Done {
		e.logger.Debug("handoff declined, keeping old state",
			zap.Int("ue_id", ue.UEID), zap.Int("ap_id", apID))
		return oldState, false, nil
	}

	// The handoff response carries the updated UE and both APs so the
	// environment does not need three extra fetches.
	*ue = *result.UE
	if old, ok := e.aps[result.OldAP.APID]; ok {
		*old = *result.OldAP
	}
	if updated, ok := e.aps[result.NewAP.APID]; ok {
		*updated = *result.NewAP
	}
	nextState, err := e.NetworkState(ue, apID)
	if err != nil {
		return NetworkState{}, false, err
	}
	return nextState, true, nil
}

// Step applies the agent's decision for one UE: hand off when the
// chosen AP differs from the current one, otherwise keep the state.
// It returns the next state and the reward.
func (e *Env) Step(state NetworkState, action Action, ue *UE, apID int) (NetworkState, float64, error) {
	e.logger.Debug("taking next step for the UE",
		zap.Int("ue_id", ue.UEID),
		zap.Stringer("action", action),
		zap.Int("target_ap", apID))

	slaBeforeHandoff := ue.SLA
	nextState := state
	if ue.AP != apID {
		var done bool
		var err error
		nextState, done, err = e.performHandoff(ue, apID, state)
		if err != nil {
			return NetworkState{}, 0, err
		}
		// A declined handoff left the UE where it was.
		if done {
			e.handoffs++
		} else {
			e.staying++
		}
	} else {
		e.staying++
	}
	reward := e.reward(action, state, nextState, ue, slaBeforeHandoff)
	return nextState, reward, nil
}

// reward combines the UE-level and AP-level shaping terms.
func (e *Env) reward(action Action, oldState, newState NetworkState, ue *UE, oldSLA int) float64 {
	reward := rewardFromUESLA(action, oldSLA, ue.SLA) +
		rewardFromAPState(action, oldState, newState)
	e.logger.Debug("reward computed",
		zap.Stringer("action", action),
		zap.Float64("reward", reward))
	return reward
}

// rewardFromUESLA shapes the reward on the UE's own SLA transition.
func rewardFromUESLA(action Action, oldSLA, newSLA int) float64 {
	if action == ActionHandoff {
		switch {
		case oldSLA == 0 && newSLA == 0:
			return -2
		case oldSLA == 0 && newSLA == 1:
			return 3
		case oldSLA == 1 && newSLA == 0:
			return -4
		default:
			return -1
		}
	}
	switch {
	case oldSLA == 0 && newSLA == 0:
		return -1
	case oldSLA == 1 && newSLA == 1:
		return 1
	}
	return 0
}

// rewardFromAPState shapes the reward on the AP-level average SLA
// movement for video and web traffic.
func rewardFromAPState(action Action, oldState, newState NetworkState) float64 {
	reward := 0.0

	if action == ActionHandoff {
		switch {
		case oldState.AvgVideoSLA != 1.0 && oldState.AvgVideoSLA == newState.AvgVideoSLA:
			reward -= 1
		case oldState.AvgVideoSLA == 1.0 && oldState.AvgVideoSLA == newState.AvgVideoSLA:
			reward -= 0.5
		case oldState.AvgVideoSLA < newState.AvgVideoSLA:
			reward += 1
		case oldState.AvgVideoSLA > newState.AvgVideoSLA:
			reward -= 1
		}
		switch {
		case oldState.AvgWebSLA != 1.0 && oldState.AvgWebSLA == newState.AvgWebSLA:
			reward -= 0.5
		case oldState.AvgWebSLA == 1.0 && oldState.AvgWebSLA == newState.AvgWebSLA:
			reward -= 0.25
		case oldState.AvgWebSLA < newState.AvgWebSLA:
			reward += 0.5
		case oldState.AvgWebSLA > newState.AvgWebSLA:
			reward -= 0.5
		}
		return reward
	}

	// STAY is rewarded when the AP is already meeting its SLAs.
	if oldState.AvgVideoSLA == 1.0 {
		reward += 1
	}
	if oldState.AvgWebSLA == 1.0 {
		reward += 0.5
	}
	return reward
}
