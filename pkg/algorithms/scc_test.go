package algorithms

import (
	"reflect"
	"testing"
)

func TestStronglyConnectedComponents(t *testing.T) {
	g := setupTestGraph(t, "A", "B", "C", "D", "E")
	addRoute(t, g, "AB", "A", "B", 1)
	addRoute(t, g, "BA", "B", "A", 1)
	addRoute(t, g, "BC", "B", "C", 1)
	addRoute(t, g, "CD", "C", "D", 1)
	addRoute(t, g, "DC", "D", "C", 1)

	res := StronglyConnectedComponents(g)
	if len(res.Components) != 3 {
		t.Fatalf("expected 3 components, got %v", res.Components)
	}
	if res.NodeComponent["A"] != res.NodeComponent["B"] {
		t.Error("A and B should share a component")
	}
	if res.NodeComponent["C"] != res.NodeComponent["D"] {
		t.Error("C and D should share a component")
	}
	if res.NodeComponent["A"] == res.NodeComponent["C"] {
		t.Error("A and C should not share a component")
	}
	if res.SingletonCount != 1 {
		t.Errorf("SingletonCount = %d, want 1", res.SingletonCount)
	}
	if len(res.Largest) != 2 {
		t.Errorf("Largest = %v", res.Largest)
	}

	again := StronglyConnectedComponents(g)
	if !reflect.DeepEqual(res.Components, again.Components) {
		t.Error("component numbering should be stable")
	}
}
