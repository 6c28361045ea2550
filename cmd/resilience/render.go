package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(26)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#874BFD")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// scoreStyle colours a resilience score or any other value in [0, 1] where
// higher is better.
func scoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= 0.7:
		return goodStyle
	case v >= 0.4:
		return warnStyle
	default:
		return badStyle
	}
}

type field struct {
	label string
	value string
}

func kv(label string, format string, args ...any) field {
	return field{label: label, value: fmt.Sprintf(format, args...)}
}

// panel renders a titled box of label/value rows.
func panel(title string, fields ...field) string {
	rows := make([]string, 0, len(fields)+1)
	rows = append(rows, titleStyle.Render(title))
	for _, f := range fields {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(f.label),
			valueStyle.Render(f.value),
		))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func grid(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func writeln(w io.Writer, blocks ...string) {
	fmt.Fprintln(w, strings.Join(blocks, "\n"))
}

func renderReport(w io.Writer, r resilience.Report) {
	score := scoreStyle(r.ResilienceScore).Render(fmt.Sprintf("%.3f", r.ResilienceScore))
	writeln(w, panel("Resilience report",
		kv("Fingerprint", "%s", r.Fingerprint),
		kv("Scenario", "%s %s", r.ScenarioType, r.ScenarioID),
		field{label: "Resilience score", value: score},
		kv("Estimated recovery", "%.0f days", r.EstimatedRecoveryDays),
		kv("Capacity loss", "%.1f (%.1f%%)", r.Impact.CapacityLoss, r.Impact.CapacityLossPercent*100),
		kv("Avg degree change", "%+.3f", r.Impact.AverageDegreeChange),
		kv("Avg path change", "%+.3f", r.Impact.AverageShortestPathChange),
		kv("Lost pairs", "%d", r.Impact.LostPairs),
		kv("Disconnected", "%t", r.Impact.Disconnected),
	))
	writeln(w, grid(
		[]string{"Metric", "Baseline", "Disrupted"},
		[][]string{
			{"Nodes", fmt.Sprint(r.Baseline.Nodes), fmt.Sprint(r.Disrupted.Nodes)},
			{"Routes", fmt.Sprint(r.Baseline.Routes), fmt.Sprint(r.Disrupted.Routes)},
			{"Avg degree", fmt.Sprintf("%.3f", r.Baseline.AverageDegree), fmt.Sprintf("%.3f", r.Disrupted.AverageDegree)},
			{"Avg shortest path", fmt.Sprintf("%.3f", r.Baseline.AverageShortestPath), fmt.Sprintf("%.3f", r.Disrupted.AverageShortestPath)},
			{"Total capacity", fmt.Sprintf("%.1f", r.Baseline.TotalCapacity), fmt.Sprintf("%.1f", r.Disrupted.TotalCapacity)},
			{"Total demand", fmt.Sprintf("%.1f", r.Baseline.TotalDemand), fmt.Sprintf("%.1f", r.Disrupted.TotalDemand)},
			{"Safety stock", fmt.Sprintf("%.1f", r.Baseline.TotalSafetyStock), fmt.Sprintf("%.1f", r.Disrupted.TotalSafetyStock)},
		},
	))
}

func renderAssessment(w io.Writer, a resilience.Assessment) {
	overall := scoreStyle(a.OverallScore).Render(fmt.Sprintf("%.3f", a.OverallScore))
	writeln(w, panel("Network assessment",
		field{label: "Overall resilience", value: overall},
		kv("Nodes / routes", "%d / %d", a.Baseline.Nodes, a.Baseline.Routes),
		kv("Avg degree", "%.3f", a.Baseline.AverageDegree),
		kv("Avg shortest path", "%.3f", a.Baseline.AverageShortestPath),
		kv("Disconnected", "%t", a.Baseline.Disconnected),
	))
	if len(a.CriticalPaths) > 0 {
		rows := make([][]string, 0, len(a.CriticalPaths))
		for _, c := range a.CriticalPaths {
			rows = append(rows, []string{c.Description, fmt.Sprintf("%.3f", c.Criticality)})
		}
		writeln(w, grid([]string{"Critical corridor", "Criticality"}, rows))
	}
	if a.Disruption != nil {
		renderReport(w, *a.Disruption)
	}
	for _, r := range a.Recommendations {
		style := warnStyle
		if r.Priority == resilience.PriorityHigh {
			style = badStyle
		}
		writeln(w, style.Render("["+strings.ToUpper(r.Priority)+"]")+" "+r.Description)
	}
}
