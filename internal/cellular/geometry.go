package cellular

import (
	"math"
)

// Neighborhood splits a UE's nearby APs into the ones bounding its
// grid cell and the rest reachable within the explore radius.
type Neighborhood struct {
	WithinGrid []Point
	Rest       []Point
}

// All returns the full neighborhood, grid cell first.
func (n Neighborhood) All() []Point {
	all := make([]Point, 0, len(n.WithinGrid)+len(n.Rest))
	all = append(all, n.WithinGrid...)
	all = append(all, n.Rest...)
	return all
}

// round3 mirrors the 3-decimal rounding applied throughout the
// network math.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// interval finds the pair of axis coordinates bounding value. Values
// off the grid collapse to the nearest edge coordinate.
func interval(value float64, axis []float64) (float64, float64) {
	switch {
	case value < axis[0]:
		return axis[0], axis[0]
	case value > axis[len(axis)-1]:
		return axis[len(axis)-1], axis[len(axis)-1]
	case value == axis[0]:
		return axis[0], axis[1]
	case value == axis[len(axis)-1]:
		return axis[len(axis)-2], axis[len(axis)-1]
	}
	for i, coord := range axis {
		if value <= coord {
			return axis[i-1], axis[i]
		}
	}
	// Unreachable: value > last coordinate is handled above.
	return axis[len(axis)-1], axis[len(axis)-1]
}

// apsInGrid returns the APs at the corners of the grid cell
// containing the UE.
func apsInGrid(ueLocation Point, axis []float64) []Point {
	xLo, xHi := interval(ueLocation.X, axis)
	yLo, yHi := interval(ueLocation.Y, axis)

	seen := make(map[Point]struct{}, 4)
	var corners []Point
	for _, x := range []float64{xLo, xHi} {
		for _, y := range []float64{yLo, yHi} {
			p := Point{X: x, Y: y}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			corners = append(corners, p)
		}
	}
	return corners
}

func validAP(ap Point, axis []float64) bool {
	return onAxis(ap.X, axis) && onAxis(ap.Y, axis)
}

func onAxis(v float64, axis []float64) bool {
	for _, coord := range axis {
		if coord == v {
			return true
		}
	}
	return false
}

// validNeighbors returns the orthogonally adjacent AP locations that
// actually exist on the grid.
func validNeighbors(ap Point, axis []float64) []Point {
	spacing := axis[1] - axis[0]
	candidates := []Point{
		{X: ap.X - spacing, Y: ap.Y},
		{X: ap.X + spacing, Y: ap.Y},
		{X: ap.X, Y: ap.Y - spacing},
		{X: ap.X, Y: ap.Y + spacing},
	}
	var valid []Point
	for _, c := range candidates {
		if validAP(c, axis) {
			valid = append(valid, c)
		}
	}
	return valid
}

// extendedNeighbors expands the closest APs outward radius steps,
// one ring of orthogonal neighbors per step.
func extendedNeighbors(closest []Point, axis []float64, radius int) []Point {
	if radius == 0 {
		return closest
	}
	all := make(map[Point]struct{}, len(closest))
	for _, ap := range closest {
		all[ap] = struct{}{}
	}
	for _, ap := range closest {
		for _, n := range validNeighbors(ap, axis) {
			all[n] = struct{}{}
		}
	}
	expanded := make([]Point, 0, len(all))
	for ap := range all {
		expanded = append(expanded, ap)
	}
	return extendedNeighbors(expanded, axis, radius-1)
}

// neighboringAPs collects the APs within radius of the UE, split into
// the bounding grid cell and the extended ring beyond it.
func neighboringAPs(ueLocation Point, axis []float64, radius int) Neighborhood {
	withinGrid := apsInGrid(ueLocation, axis)
	var rest []Point
	if radius > 1 {
		inGrid := make(map[Point]struct{}, len(withinGrid))
		for _, ap := range withinGrid {
			inGrid[ap] = struct{}{}
		}
		for _, ap := range extendedNeighbors(withinGrid, axis, radius-1) {
			if _, ok := inGrid[ap]; !ok {
				rest = append(rest, ap)
			}
		}
	}
	return Neighborhood{WithinGrid: withinGrid, Rest: rest}
}

// distance is the euclidean UE-AP distance, rounded like the rest of
// the network math.
func distance(a, b Point) float64 {
	return round3(math.Hypot(a.X-b.X, a.Y-b.Y))
}

// closestAP picks the nearest AP location from a non-empty candidate
// list.
func closestAP(candidates []Point, ueLocation Point) Point {
	closest := candidates[0]
	minDistance := distance(closest, ueLocation)
	for _, ap := range candidates[1:] {
		if d := distance(ap, ueLocation); d < minDistance {
			minDistance = d
			closest = ap
		}
	}
	return closest
}

// distanceFactor models signal attenuation over distance on a grid of
// the given scale.
func distanceFactor(ueAPDistance, scale float64) float64 {
	return round3(math.Exp(-ueAPDistance / (2 * scale)))
}

// radioBandwidth is the share of channel bandwidth surviving
// attenuation.
func radioBandwidth(distanceFactor, channelBandwidth float64) float64 {
	return round3(distanceFactor * channelBandwidth)
}

// networkBandwidth is the AP's uplink bandwidth split across its
// connected UEs.
func networkBandwidth(nUEsOnAP int, uplinkBandwidth float64) float64 {
	apFactor := 1.0
	if nUEsOnAP > 0 {
		apFactor /= float64(nUEsOnAP)
	}
	return round3(apFactor * uplinkBandwidth)
}

// ueThroughput is the bandwidth the UE actually gets: the worst of
// radio conditions, uplink contention and what the app asks for.
func ueThroughput(scale, ueAPDistance float64, nUEsOnAP int,
	uplinkBandwidth, channelBandwidth, requiredBandwidth float64) float64 {

	radio := radioBandwidth(
		distanceFactor(ueAPDistance, scale), channelBandwidth)
	network := networkBandwidth(nUEsOnAP, uplinkBandwidth)
	return math.Min(radio, math.Min(network, requiredBandwidth))
}

// ueSignalPower discretizes the UE-AP path loss into a small signed
// bucket. Zero distance yields zero.
func ueSignalPower(ueAPDistance float64) float64 {
	if ueAPDistance == 0 {
		return 0
	}
	db := 10 * math.Log10(1/math.Pow(ueAPDistance, 2))
	return math.Round(db / 10)
}

// ueSLA is 1 when the achieved throughput meets the app's required
// bandwidth.
func ueSLA(throughput, requiredBandwidth float64) int {
	if throughput >= requiredBandwidth {
		return 1
	}
	return 0
}
