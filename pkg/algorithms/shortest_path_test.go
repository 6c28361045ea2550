package algorithms

import (
	"reflect"
	"testing"

	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// TestShortestPath_SameNode tests path from node to itself
func TestShortestPath_SameNode(t *testing.T) {
	g := setupTestGraph(t, "A")

	res := ShortestPath(g, "A", "A")
	if !res.Reachable {
		t.Fatal("node should reach itself")
	}
	if len(res.Nodes) != 1 || res.Hops != 0 {
		t.Errorf("Expected single-node path, got %+v", res)
	}
}

// TestShortestPath_LinearPath tests A->B->C
func TestShortestPath_LinearPath(t *testing.T) {
	g := setupTestGraph(t, "A", "B", "C")
	addRoute(t, g, "AB", "A", "B", 10)
	addRoute(t, g, "BC", "B", "C", 10)

	res := ShortestPath(g, "A", "C")
	if !res.Reachable {
		t.Fatal("Expected C reachable from A")
	}
	if !reflect.DeepEqual(res.Nodes, []string{"A", "B", "C"}) {
		t.Errorf("Nodes = %v", res.Nodes)
	}
	if !reflect.DeepEqual(res.Routes, []string{"AB", "BC"}) {
		t.Errorf("Routes = %v", res.Routes)
	}
	if res.Hops != 2 {
		t.Errorf("Hops = %d, want 2", res.Hops)
	}
}

// TestShortestPath_Unreachable tests the explicit unreachable result
func TestShortestPath_Unreachable(t *testing.T) {
	g := setupTestGraph(t, "A", "B", "C")
	addRoute(t, g, "AB", "A", "B", 10)

	for _, tc := range []struct{ from, to string }{
		{"B", "A"}, // wrong direction
		{"A", "C"}, // isolated
		{"A", "Z"}, // unknown node
	} {
		res := ShortestPath(g, tc.from, tc.to)
		if res.Reachable {
			t.Errorf("%s->%s should be unreachable, got %+v", tc.from, tc.to, res)
		}
		if res.Hops != -1 || len(res.Nodes) != 0 {
			t.Errorf("%s->%s unreachable result malformed: %+v", tc.from, tc.to, res)
		}
	}
}

// TestShortestPath_Deterministic checks equal-length alternatives resolve by id
func TestShortestPath_Deterministic(t *testing.T) {
	g := setupTestGraph(t, "S", "M2", "M1", "T")
	addRoute(t, g, "S-M2", "S", "M2", 1)
	addRoute(t, g, "S-M1", "S", "M1", 1)
	addRoute(t, g, "M2-T", "M2", "T", 1)
	addRoute(t, g, "M1-T", "M1", "T", 1)

	for i := 0; i < 20; i++ {
		res := ShortestPath(g, "S", "T")
		if !reflect.DeepEqual(res.Nodes, []string{"S", "M1", "T"}) {
			t.Fatalf("iteration %d: Nodes = %v", i, res.Nodes)
		}
	}
}

// TestWeightedShortestPath prefers a longer hop count with lower weight
func TestWeightedShortestPath(t *testing.T) {
	g := setupTestGraph(t, "A", "B", "C", "D")
	addRoute(t, g, "AD", "A", "D", 100)
	addRoute(t, g, "AB", "A", "B", 10)
	addRoute(t, g, "BC", "B", "C", 10)
	addRoute(t, g, "CD", "C", "D", 10)

	res := WeightedShortestPath(g, "A", "D", ByDistance)
	if !res.Reachable {
		t.Fatal("Expected path")
	}
	if !reflect.DeepEqual(res.Nodes, []string{"A", "B", "C", "D"}) {
		t.Errorf("Nodes = %v", res.Nodes)
	}
	if res.Weight != 30 {
		t.Errorf("Weight = %v, want 30", res.Weight)
	}

	hop := ShortestPath(g, "A", "D")
	if hop.Hops != 1 {
		t.Errorf("hop path should take the direct route, got %v", hop.Nodes)
	}

	if WeightedShortestPath(g, "D", "A", nil).Reachable {
		t.Error("D->A should be unreachable")
	}
}

// TestWeightedShortestPath_ParallelRoutes picks the lightest parallel route
func TestWeightedShortestPath_ParallelRoutes(t *testing.T) {
	g := setupTestGraph(t, "A", "B")
	addRoute(t, g, "road", "A", "B", 40)
	addRoute(t, g, "rail", "A", "B", 25)

	res := WeightedShortestPath(g, "A", "B", ByDistance)
	if !reflect.DeepEqual(res.Routes, []string{"rail"}) {
		t.Errorf("Routes = %v, want [rail]", res.Routes)
	}

	byCost := WeightedShortestPath(g, "A", "B", ByCost)
	if byCost.Weight != 50 {
		t.Errorf("cost weight = %v, want 50", byCost.Weight)
	}

	hop := ShortestPath(g, "A", "B")
	if !reflect.DeepEqual(hop.Routes, []string{"rail"}) {
		t.Errorf("hop path should use lowest route id, got %v", hop.Routes)
	}
}

// TestHopLengthsFrom tests BFS distances
func TestHopLengthsFrom(t *testing.T) {
	g := network.KenyaReference()

	lengths := HopLengthsFrom(g, "Mombasa_DC")
	want := map[string]int{
		"Mombasa_DC":      0,
		"Nairobi_DC":      1,
		"Mombasa_Retail1": 1,
		"Mombasa_D1":      2,
		"Malindi_D1":      2,
		"Nairobi_Retail1": 2,
		"Nakuru_WH":       2,
		"Kisumu_WH":       2,
		"Eldoret_WH":      2,
		"Nairobi_D1":      3,
	}
	for id, hops := range want {
		if lengths[id] != hops {
			t.Errorf("hops to %s = %d, want %d", id, lengths[id], hops)
		}
	}
	if _, ok := lengths["Nakuru_D1"]; !ok {
		t.Error("Nakuru_D1 should be reachable from Mombasa_DC")
	}
	if len(HopLengthsFrom(g, "missing")) != 0 {
		t.Error("unknown source should reach nothing")
	}

	all := AllPairsHopLengths(g)
	if len(all) != g.NodeCount() {
		t.Errorf("AllPairsHopLengths has %d sources, want %d", len(all), g.NodeCount())
	}
}
