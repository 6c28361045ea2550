// Package storetest holds the behaviour every store.ReportStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/store"
)

// Report builds a fully populated report for fingerprint.
func Report(fingerprint string, score float64) resilience.Report {
	return resilience.Report{
		Fingerprint:  fingerprint,
		ScenarioType: "natural_disaster",
		ScenarioID:   "natural_disaster_1704067200_0a1b2c3d",
		Baseline: resilience.Metrics{
			Nodes:               18,
			Routes:              34,
			AverageDegree:       34.0 / 18.0,
			DegreeDefined:       true,
			AverageShortestPath: 2.25,
			ReachablePairs:      120,
			TotalCapacity:       3680,
			TotalDemand:         1290,
			TotalSafetyStock:    412.5,
		},
		Disrupted: resilience.Metrics{
			Nodes:               18,
			Routes:              30,
			AverageDegree:       30.0 / 18.0,
			DegreeDefined:       true,
			AverageShortestPath: 2.5,
			ReachablePairs:      110,
			UnreachablePairs:    10,
			TotalCapacity:       2900,
			TotalDemand:         1290,
			TotalSafetyStock:    450.25,
		},
		Impact: resilience.Impact{
			AverageDegreeChange:       -4.0 / 34.0,
			AverageShortestPathChange: 0.125,
			CapacityLoss:              780,
			CapacityLossPercent:       780.0 / 3680.0,
			LostPairs:                 10,
		},
		ResilienceScore:       score,
		EstimatedRecoveryDays: 30,
		GeneratedAt:           time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC),
	}
}

// Run exercises s against the ReportStore contract. s must start empty.
func Run(t *testing.T, s store.ReportStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		require.Error(t, err)
		assert.True(t, simerr.IsNotFound(err))
	})

	t.Run("SaveRejectsEmptyFingerprint", func(t *testing.T) {
		err := s.Save(ctx, Report("", 0.5))
		require.Error(t, err)
		assert.True(t, simerr.IsValidation(err))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := Report("b2", 0.61)
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Get(ctx, "b2")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, Report("b2", 0.8)))

		got, err := s.Get(ctx, "b2")
		require.NoError(t, err)
		assert.Equal(t, 0.8, got.ResilienceScore)
	})

	t.Run("ListOrdered", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, Report("c3", 0.3)))
		require.NoError(t, s.Save(ctx, Report("a1", 0.1)))

		reports, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.Equal(t, "a1", reports[0].Fingerprint)
		assert.Equal(t, "b2", reports[1].Fingerprint)
		assert.Equal(t, "c3", reports[2].Fingerprint)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "a1"))
		_, err := s.Get(ctx, "a1")
		assert.True(t, simerr.IsNotFound(err))

		err = s.Delete(ctx, "a1")
		assert.True(t, simerr.IsNotFound(err))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
