// Package cellular models the simulated cellular network rainman2
// experiments against: access points on a square grid, UEs attached
// to them, and the environment/client pair the Q-learning controller
// drives.
package cellular

import (
	"encoding/json"
	"fmt"
	"sort"
)

// App identifies the application a UE is running. The app determines
// the bandwidth the UE needs to meet its SLA.
type App string

const (
	AppWeb    App = "web"
	AppVideo  App = "video"
	AppVoice  App = "voice"
	AppOthers App = "others"
)

// AppBandwidth maps each application to its required bandwidth.
var AppBandwidth = map[App]float64{
	AppWeb:    0.25,
	AppVideo:  2.0,
	AppVoice:  0.1,
	AppOthers: 0.05,
}

// AppID maps the applications UEs actually run to the numeric ids
// used inside Q-learning states.
var AppID = map[App]int{
	AppWeb:   1,
	AppVideo: 2,
}

// Action is a decision the agent takes for a UE at each step.
type Action int

const (
	ActionStay    Action = 0
	ActionHandoff Action = 1
)

// NumActions is the size of the action space.
const NumActions = 2

func (a Action) String() string {
	switch a {
	case ActionStay:
		return "STAY"
	case ActionHandoff:
		return "HANDOFF"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Point is a location on the grid. It marshals as the [x, y] pair the
// REST API exchanges.
type Point struct {
	X float64
	Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// UESet is a set of UE ids. It marshals as a sorted array so API
// responses are stable.
type UESet map[int]struct{}

func (s UESet) Add(ueID int)    { s[ueID] = struct{}{} }
func (s UESet) Remove(ueID int) { delete(s, ueID) }

func (s UESet) Contains(ueID int) bool {
	_, ok := s[ueID]
	return ok
}

func (s UESet) MarshalJSON() ([]byte, error) {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return json.Marshal(ids)
}

func (s *UESet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = make(UESet, len(ids))
	for _, id := range ids {
		(*s)[id] = struct{}{}
	}
	return nil
}

// AP is an access point (cell tower) placed in the grid.
type AP struct {
	APID     int   `json:"ap_id"`
	Location Point `json:"location"`
	// UEs currently connected, bucketed by application.
	NUEs map[App]UESet `json:"n_ues"`
	// Running sum of SLA outcomes per application.
	UEsMeetingSLA    map[App]int `json:"ues_meeting_sla"`
	MaxConnections   int         `json:"max_connections"`
	UplinkBandwidth  float64     `json:"uplink_bandwidth"`
	ChannelBandwidth float64     `json:"channel_bandwidth"`
}

// NewAP returns an AP with the stock radio profile and empty UE
// buckets for every application type.
func NewAP(apID int, location Point) *AP {
	nUEs := make(map[App]UESet, len(AppBandwidth))
	meeting := make(map[App]int, len(AppBandwidth))
	for app := range AppBandwidth {
		nUEs[app] = make(UESet)
		meeting[app] = 0
	}
	return &AP{
		APID:             apID,
		Location:         location,
		NUEs:             nUEs,
		UEsMeetingSLA:    meeting,
		MaxConnections:   50,
		UplinkBandwidth:  25.0,
		ChannelBandwidth: 10.0,
	}
}

// clone deep-copies the AP so snapshots handed out of the network
// are detached from the live struct.
func (ap *AP) clone() *AP {
	out := *ap
	out.NUEs = make(map[App]UESet, len(ap.NUEs))
	for app, set := range ap.NUEs {
		copied := make(UESet, len(set))
		for id := range set {
			copied[id] = struct{}{}
		}
		out.NUEs[app] = copied
	}
	out.UEsMeetingSLA = make(map[App]int, len(ap.UEsMeetingSLA))
	for app, count := range ap.UEsMeetingSLA {
		out.UEsMeetingSLA[app] = count
	}
	return &out
}

// TotalUEs is the number of UEs connected across all applications.
func (ap *AP) TotalUEs() int {
	total := 0
	for _, set := range ap.NUEs {
		total += len(set)
	}
	return total
}

// UE is a mobile device attached to an AP.
type UE struct {
	UEID              int     `json:"ue_id"`
	AP                int     `json:"ap"`
	Location          Point   `json:"location"`
	App               App     `json:"app"`
	RequiredBandwidth float64 `json:"required_bandwidth"`
	NeighboringAPs    []int   `json:"neighboring_aps"`
	Distance          float64 `json:"distance"`
	Throughput        float64 `json:"throughput"`
	// SLA is 1 when the UE's throughput meets its required
	// bandwidth, otherwise 0.
	SLA         int     `json:"sla"`
	SignalPower float64 `json:"signal_power"`
}

// clone deep-copies the UE.
func (ue *UE) clone() *UE {
	out := *ue
	out.NeighboringAPs = append([]int(nil), ue.NeighboringAPs...)
	return &out
}

// NetworkState is the state the agent observes for a UE/AP pair. All
// fields are scalars so the struct is directly usable as a tabular
// Q key.
type NetworkState struct {
	UESLA       int
	App         int
	SigPower    float64
	VideoUEs    int
	WebUEs      int
	AvgVideoSLA float64
	AvgWebSLA   float64
}

// StateDim is the dimensionality of NetworkState, the input size of
// the function approximators.
const StateDim = 7

// Vector flattens the state in declaration order for the
// function-approximation agents.
func (s NetworkState) Vector() []float64 {
	return []float64{
		float64(s.UESLA),
		float64(s.App),
		s.SigPower,
		float64(s.VideoUEs),
		float64(s.WebUEs),
		s.AvgVideoSLA,
		s.AvgWebSLA,
	}
}

// UEAPState scores a candidate AP from a UE's perspective. It is the
// key of the per-AP value table used when picking a handoff target.
type UEAPState struct {
	App         int
	SigPower    float64
	VideoUEs    int
	WebUEs      int
	AvgVideoSLA float64
	AvgWebSLA   float64
}

// APStateDim is the dimensionality of UEAPState.
const APStateDim = 6

// Vector flattens the state in declaration order.
func (s UEAPState) Vector() []float64 {
	return []float64{
		float64(s.App),
		s.SigPower,
		float64(s.VideoUEs),
		float64(s.WebUEs),
		s.AvgVideoSLA,
		s.AvgWebSLA,
	}
}

// HandoffResult is the network's answer to a handoff request. Field
// names follow the wire format.
type HandoffResult struct {
	Done  bool `json:"DONE"`
	UE    *UE  `json:"UE"`
	OldAP *AP  `json:"OLD_AP"`
	NewAP *AP  `json:"NEW_AP"`
}
