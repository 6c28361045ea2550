package algorithms

import (
	"testing"

	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// setupTestGraph creates facilities for every id with no routes
func setupTestGraph(t *testing.T, ids ...string) *network.Graph {
	t.Helper()
	g := network.NewGraph()
	for i, id := range ids {
		if err := g.AddFacility(network.Facility{ID: id, Location: network.Location{Lat: float64(i), Lon: 0}, Echelon: 1}); err != nil {
			t.Fatalf("AddFacility(%s) failed: %v", id, err)
		}
	}
	return g
}

func addRoute(t *testing.T, g *network.Graph, id, from, to string, km float64) {
	t.Helper()
	err := g.AddRoute(network.Route{
		ID: id, Origin: from, Destination: to,
		DistanceKm: km, TransitTimeHours: km / 50, Mode: network.ModeRoad, Cost: km * 2,
	})
	if err != nil {
		t.Fatalf("AddRoute(%s) failed: %v", id, err)
	}
}
