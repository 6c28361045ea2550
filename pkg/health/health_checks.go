package health

import (
	"context"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// Common health check functions

// PingCheck reports a dependency unhealthy when ping fails.
func PingCheck(name string, ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name: name,
		}

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Reachable"
		}

		return check
	}
}

// NetworkCheck reports the structure of the loaded network. A network with
// no nodes or no routes is unhealthy. Supply networks are directed and
// rarely strongly connected, so unreachable pairs are only reported.
func NetworkCheck(baseline func() resilience.Metrics) CheckFunc {
	return func(context.Context) Check {
		m := baseline()
		check := Check{
			Name: "network",
			Details: map[string]any{
				"nodes":              m.Nodes,
				"routes":             m.Routes,
				"reachable_pairs":    m.ReachablePairs,
				"unreachable_pairs":  m.UnreachablePairs,
				"strongly_connected": !m.Disconnected,
				"components":         m.Components,
			},
		}

		switch {
		case m.Nodes == 0:
			check.Status = StatusUnhealthy
			check.Message = "Network has no nodes"
		case m.Routes == 0:
			check.Status = StatusUnhealthy
			check.Message = "Network has no routes"
		case m.ReachablePairs == 0:
			check.Status = StatusDegraded
			check.Message = "No node reaches any other"
		default:
			check.Status = StatusHealthy
			check.Message = "Network loaded"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys == 0 {
			check.Status = StatusHealthy
			check.Message = "Memory usage unknown"
			return check
		}

		usagePercent := float64(alloc) / float64(sys) * 100
		check.Details["usage_percent"] = usagePercent

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
