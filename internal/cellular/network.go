package cellular

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"
)

// NetworkParams sizes a StaticNetwork.
type NetworkParams struct {
	NumUEs        int
	NumAPs        int
	Scale         float64
	ExploreRadius int
	Seed          int64
}

// DefaultNetworkParams is the server profile rainman2 experiments are
// tuned against.
var DefaultNetworkParams = NetworkParams{
	NumUEs:        200,
	NumAPs:        16,
	Scale:         200.0,
	ExploreRadius: 1,
}

// StaticNetwork simulates a cellular network whose APs sit at fixed
// positions, one per grid cell. It is safe for concurrent use so it
// can back the REST server directly.
type StaticNetwork struct {
	mu sync.Mutex

	params NetworkParams
	rng    *rand.Rand
	logger *zap.Logger

	// AP positions along each axis; the grid is square.
	apsPerAxis   []float64
	locationToAP map[Point]int
	aps          map[int]*AP
	ues          map[int]*UE

	ueAppStats map[App]int
	ueSLAStats map[string]int
}

// NewStaticNetwork builds the grid, places the APs and instantiates
// the UE population.
func NewStaticNetwork(params NetworkParams, logger *zap.Logger) (*StaticNetwork, error) {
	xUnits := int(math.Sqrt(float64(params.NumAPs)))
	if xUnits < 2 || xUnits*xUnits != params.NumAPs {
		return nil, fmt.Errorf(
			"num_aps must be a square number >= 4, got %d", params.NumAPs)
	}
	if params.NumUEs < 1 {
		return nil, fmt.Errorf("num_ues must be >= 1, got %d", params.NumUEs)
	}
	if params.Scale <= 0 {
		return nil, fmt.Errorf("scale must be > 0, got %g", params.Scale)
	}
	if params.ExploreRadius < 1 {
		return nil, fmt.Errorf(
			"explore_radius must be >= 1, got %d", params.ExploreRadius)
	}

	seed := params.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	n := &StaticNetwork{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.Named("network"),
	}

	n.apsPerAxis = make([]float64, xUnits)
	for i := 0; i < xUnits; i++ {
		n.apsPerAxis[i] = float64(1+2*i) * params.Scale
	}

	n.logger.Info("specifications of the simulated cellular network",
		zap.Int("num_ues", params.NumUEs),
		zap.Int("num_aps", params.NumAPs),
		zap.Float64("scale", params.Scale),
		zap.Int("explore_radius", params.ExploreRadius),
		zap.Int64("seed", seed),
		zap.Float64s("aps_per_axis", n.apsPerAxis),
	)

	n.initialize()
	return n, nil
}

// initialize (re)builds APs and UEs from scratch. Callers hold no
// lock; the network is not shared until construction returns, and
// Reset takes the lock itself.
func (n *StaticNetwork) initialize() {
	n.locationToAP = make(map[Point]int, n.params.NumAPs)
	n.aps = make(map[int]*AP, n.params.NumAPs)
	n.ues = make(map[int]*UE, n.params.NumUEs)
	n.ueAppStats = make(map[App]int)
	n.ueSLAStats = make(map[string]int)

	n.placeAPs()
	n.instantiateUEs()
}

// placeAPs positions one AP per grid cell, ids assigned column-major
// along the axes.
func (n *StaticNetwork) placeAPs() {
	apID := 1
	for _, x := range n.apsPerAxis {
		for _, y := range n.apsPerAxis {
			location := Point{X: x, Y: y}
			n.locationToAP[location] = apID
			n.aps[apID] = NewAP(apID, location)
			n.logger.Debug("placed AP",
				zap.Int("ap_id", apID),
				zap.Float64("x", x), zap.Float64("y", y))
			apID++
		}
	}
}

// randomApp assigns the application a UE runs: 70% web, the rest
// video.
func (n *StaticNetwork) randomApp() App {
	if round3(n.rng.Float64()) < 0.7 {
		return AppWeb
	}
	return AppVideo
}

func (n *StaticNetwork) randomLocation(min, max float64) Point {
	span := max - min
	return Point{
		X: math.Floor(min + n.rng.Float64()*span),
		Y: math.Floor(min + n.rng.Float64()*span),
	}
}

// ueLocation places video UEs near the center of the grid to create
// hotspots that force handoffs, and web UEs anywhere.
func (n *StaticNetwork) ueLocation(app App) Point {
	if app == AppVideo {
		var sum float64
		for _, coord := range n.apsPerAxis {
			sum += coord
		}
		mid := sum / float64(len(n.apsPerAxis))
		return n.randomLocation(
			mid-1.5*n.params.Scale, mid+1.5*n.params.Scale)
	}
	max := 1 + 2*float64(len(n.apsPerAxis))*n.params.Scale
	return n.randomLocation(0, max)
}

// neighborIDs converts neighboring AP locations to ids, dropping the
// UE's current AP.
func (n *StaticNetwork) neighborIDs(currentAP Point, neighbors []Point) []int {
	ids := make([]int, 0, len(neighbors))
	for _, location := range neighbors {
		if location != currentAP {
			ids = append(ids, n.locationToAP[location])
		}
	}
	return ids
}

func (n *StaticNetwork) instantiateUEs() {
	n.logger.Debug("instantiating UEs", zap.Int("count", n.params.NumUEs))
	for ueID := 1; ueID <= n.params.NumUEs; ueID++ {
		app := n.randomApp()
		n.ueAppStats[app]++

		location := n.ueLocation(app)
		neighborhood := neighboringAPs(
			location, n.apsPerAxis, n.params.ExploreRadius)
		apLocation := closestAP(neighborhood.WithinGrid, location)
		apID := n.locationToAP[apLocation]

		// Connect before computing stats so the UE's own load is
		// part of its throughput.
		ap := n.aps[apID]
		ap.NUEs[app].Add(ueID)

		ue := &UE{
			UEID:              ueID,
			AP:                apID,
			Location:          location,
			App:               app,
			RequiredBandwidth: AppBandwidth[app],
			NeighboringAPs:    n.neighborIDs(apLocation, neighborhood.All()),
		}
		n.updateUEStats(ue, ap)
		n.ues[ueID] = ue
	}
}

// updateUEStats refreshes the UE's distance, throughput, SLA and
// signal power against the given AP, and folds the SLA outcome into
// the AP's counters.
func (n *StaticNetwork) updateUEStats(ue *UE, ap *AP) {
	ue.Distance = distance(ue.Location, ap.Location)
	ue.Throughput = ueThroughput(
		n.params.Scale,
		ue.Distance,
		ap.TotalUEs(),
		ap.UplinkBandwidth,
		ap.ChannelBandwidth,
		ue.RequiredBandwidth,
	)
	ue.SLA = ueSLA(ue.Throughput, ue.RequiredBandwidth)
	if ue.SLA == 1 {
		n.ueSLAStats["Meets"]++
	} else {
		n.ueSLAStats["Doesnot"]++
	}
	ap.UEsMeetingSLA[ue.App] += ue.SLA
	ue.SignalPower = ueSignalPower(ue.Distance)
}

func (n *StaticNetwork) validUE(ueID int) (*UE, error) {
	ue, ok := n.ues[ueID]
	if !ok {
		return nil, fmt.Errorf("%w: UE %d", ErrUnknownUE, ueID)
	}
	return ue, nil
}

func (n *StaticNetwork) validAP(apID int) (*AP, error) {
	ap, ok := n.aps[apID]
	if !ok {
		return nil, fmt.Errorf("%w: AP %d", ErrUnknownAP, apID)
	}
	return ap, nil
}

// PerformHandoff moves the UE to the requested AP and refreshes both
// sides' stats. A request naming the UE's current AP is a no-op
// reported as not done.
func (n *StaticNetwork) PerformHandoff(ueID, apID int) (*HandoffResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ue, err := n.validUE(ueID)
	if err != nil {
		return nil, err
	}
	currentAP := n.aps[ue.AP]

	if ue.AP == apID {
		n.logger.Debug("handoff aborted: requested AP is current AP",
			zap.Int("ue_id", ueID), zap.Int("ap_id", apID))
		return &HandoffResult{Done: false}, nil
	}

	newAP, err := n.validAP(apID)
	if err != nil {
		return nil, err
	}

	// Detach from the current AP.
	currentAP.NUEs[ue.App].Remove(ue.UEID)
	currentAP.UEsMeetingSLA[ue.App] -= ue.SLA

	// Attach to the new one and refresh everything derived.
	ue.AP = apID
	newAP.NUEs[ue.App].Add(ue.UEID)

	neighborhood := neighboringAPs(
		ue.Location, n.apsPerAxis, n.params.ExploreRadius)
	ue.NeighboringAPs = n.neighborIDs(newAP.Location, neighborhood.All())

	n.updateUEStats(ue, newAP)

	n.logger.Debug("handoff complete",
		zap.Int("ue_id", ueID),
		zap.Int("from_ap", currentAP.APID),
		zap.Int("to_ap", apID))

	return &HandoffResult{
		Done:  true,
		UE:    ue.clone(),
		OldAP: currentAP.clone(),
		NewAP: newAP.clone(),
	}, nil
}

// Reset re-places APs and re-instantiates the UE population.
func (n *StaticNetwork) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logger.Info("resetting the simulated network")
	n.initialize()
}

// NumUEs returns the configured UE population size.
func (n *StaticNetwork) NumUEs() int { return n.params.NumUEs }

// NumAPs returns the number of APs on the grid.
func (n *StaticNetwork) NumAPs() int { return n.params.NumAPs }

// APList snapshots all APs in id order. The snapshot is deep-copied;
// callers may read it while handoffs keep mutating the network.
func (n *StaticNetwork) APList() []*AP {
	n.mu.Lock()
	defer n.mu.Unlock()
	list := make([]*AP, 0, len(n.aps))
	for apID := 1; apID <= len(n.aps); apID++ {
		list = append(list, n.aps[apID].clone())
	}
	return list
}

// UEList snapshots all UEs in id order, deep-copied like APList.
func (n *StaticNetwork) UEList() []*UE {
	n.mu.Lock()
	defer n.mu.Unlock()
	list := make([]*UE, 0, len(n.ues))
	for ueID := 1; ueID <= len(n.ues); ueID++ {
		list = append(list, n.ues[ueID].clone())
	}
	return list
}

// APInfo returns a copy of a single AP.
func (n *StaticNetwork) APInfo(apID int) (*AP, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ap, err := n.validAP(apID)
	if err != nil {
		return nil, err
	}
	return ap.clone(), nil
}

// UEInfo returns a copy of a single UE.
func (n *StaticNetwork) UEInfo(ueID int) (*UE, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ue, err := n.validUE(ueID)
	if err != nil {
		return nil, err
	}
	return ue.clone(), nil
}

// NeighboringAPs returns the ids of the APs a UE could hand off to.
func (n *StaticNetwork) NeighboringAPs(ueID int) ([]int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ue, err := n.validUE(ueID)
	if err != nil {
		return nil, err
	}
	return append([]int(nil), ue.NeighboringAPs...), nil
}

// UEThroughput returns the UE's current throughput.
func (n *StaticNetwork) UEThroughput(ueID int) (float64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ue, err := n.validUE(ueID)
	if err != nil {
		return 0, err
	}
	return ue.Throughput, nil
}

// UESLA returns the UE's current SLA outcome.
func (n *StaticNetwork) UESLA(ueID int) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ue, err := n.validUE(ueID)
	if err != nil {
		return 0, err
	}
	return ue.SLA, nil
}

// UESignalPower returns the UE's discretized signal power.
func (n *StaticNetwork) UESignalPower(ueID int) (float64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ue, err := n.validUE(ueID)
	if err != nil {
		return 0, err
	}
	return ue.SignalPower, nil
}

// APSLAs returns the AP's per-application SLA counters.
func (n *StaticNetwork) APSLAs(apID int) (map[App]int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ap, err := n.validAP(apID)
	if err != nil {
		return nil, err
	}
	slas := make(map[App]int, len(ap.UEsMeetingSLA))
	for app, count := range ap.UEsMeetingSLA {
		slas[app] = count
	}
	return slas, nil
}

// AppStats reports how many UEs run each application.
func (n *StaticNetwork) AppStats() map[App]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	stats := make(map[App]int, len(n.ueAppStats))
	for app, count := range n.ueAppStats {
		stats[app] = count
	}
	return stats
}
