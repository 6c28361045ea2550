package resilience

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// Impact holds the relative change of each metric between a baseline and a
// disrupted snapshot.
type Impact struct {
	AverageDegreeChange       float64 `json:"avg_degree_change"`
	AverageShortestPathChange float64 `json:"avg_shortest_path_change"`
	TotalCapacityChange       float64 `json:"total_capacity_change"`
	TotalDemandChange         float64 `json:"total_demand_change"`
	SafetyStockChange         float64 `json:"total_safety_stock_change"`
	CapacityLoss              float64 `json:"capacity_loss"`
	CapacityLossPercent       float64 `json:"capacity_loss_percent"`
	LostPairs                 int     `json:"lost_pairs"` // baseline-reachable pairs now unreachable
	Disconnected              bool    `json:"disconnected"`
}

// RelativeChange returns (current - baseline) / baseline. A zero or
// non-finite baseline has no defined ratio and yields a computation error.
func RelativeChange(baseline, current float64) (float64, error) {
	if baseline == 0 || math.IsNaN(baseline) || math.IsInf(baseline, 0) {
		return 0, simerr.Computation("relative change").
			Contextf("baseline %v", baseline).
			Cause(simerr.ErrOutOfRange).
			Err()
	}
	return finite((current - baseline) / baseline), nil
}

// PathChange compares hop lengths pair by pair over every ordered pair that
// is reachable in the baseline. A pair that became unreachable counts as the
// maximum change of 1.0. The result is the mean over those pairs and the
// number of pairs lost; with no baseline pair the change is 0.
func PathChange(baseline, disrupted *network.Graph) (float64, int) {
	return pathChange(algorithms.AllPairsHopLengths(baseline), disrupted)
}

func pathChange(base map[string]map[string]int, disrupted *network.Graph) (float64, int) {
	total, pairs, lost := 0.0, 0, 0

	for _, src := range sortedSources(base) {
		var after map[string]int
		if disrupted.HasNode(src) {
			after = algorithms.HopLengthsFrom(disrupted, src)
		}
		for dst, d := range base[src] {
			if dst == src || d == 0 {
				continue
			}
			pairs++
			dNew, ok := after[dst]
			if !ok {
				total += 1.0
				lost++
				continue
			}
			total += float64(dNew-d) / float64(d)
		}
	}

	if pairs == 0 {
		return 0, 0
	}
	return total / float64(pairs), lost
}

// CapacityLossPercent returns max(0, baseline-current)/baseline, or 0 when
// the baseline has no capacity.
func CapacityLossPercent(baseline, current float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return clamp01(math.Max(0, baseline-current) / baseline)
}

func sortedSources(base map[string]map[string]int) []string {
	ids := make([]string, 0, len(base))
	for id := range base {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
