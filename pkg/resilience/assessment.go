package resilience

import (
	"fmt"
	"strings"
	"time"
)

// LowResilienceThreshold is the score below which the network is flagged.
const LowResilienceThreshold = 0.5

// Recommendation priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Recommendation is an actionable finding of an assessment.
type Recommendation struct {
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// CorridorSummary is the part of a ranked corridor an assessment reports.
type CorridorSummary struct {
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Nodes       []string `json:"path"`
	Description string   `json:"path_description"`
	Criticality float64  `json:"criticality"`
}

// Assessment is a network-level resilience report with recommendations.
type Assessment struct {
	OverallScore    float64           `json:"overall_resilience_score"`
	Baseline        Metrics           `json:"baseline_metrics"`
	CriticalPaths   []CorridorSummary `json:"critical_paths"`
	Disruption      *Report           `json:"disruption_impact,omitempty"`
	Recommendations []Recommendation  `json:"recommendations"`
	GeneratedAt     time.Time         `json:"timestamp"`
}

// PathDescription renders a node sequence as "A → B → C".
func PathDescription(nodes []string) string {
	return strings.Join(nodes, " → ")
}

// OverallFromCorridors returns one minus the mean criticality, or 1 when no
// corridor was found.
func OverallFromCorridors(corridors []CorridorSummary) float64 {
	if len(corridors) == 0 {
		return 1
	}
	sum := 0.0
	for _, c := range corridors {
		sum += c.Criticality
	}
	return clamp01(1 - sum/float64(len(corridors)))
}

// BuildAssessment assembles an assessment. Corridors are expected in rank
// order; the three most critical each get a recommendation.
func BuildAssessment(baseline Metrics, score float64, corridors []CorridorSummary, at time.Time) Assessment {
	a := Assessment{
		OverallScore:    clamp01(score),
		Baseline:        baseline,
		CriticalPaths:   append([]CorridorSummary(nil), corridors...),
		Recommendations: []Recommendation{},
		GeneratedAt:     at,
	}

	if a.OverallScore < LowResilienceThreshold {
		a.Recommendations = append(a.Recommendations, Recommendation{
			Priority:    PriorityHigh,
			Description: "Network resilience is low. Consider adding redundant routes and facilities.",
		})
	}
	for i, c := range corridors {
		if i == 3 {
			break
		}
		a.Recommendations = append(a.Recommendations, Recommendation{
			Priority:    PriorityMedium,
			Description: fmt.Sprintf("Add alternative routes for critical path: %s", c.Description),
		})
	}
	return a
}
