package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucketCounts(s R2Summary) []int {
	out := make([]int, len(s.Buckets))
	for i, b := range s.Buckets {
		out[i] = b.Count
	}
	return out
}

func TestSummarizeTrainingR2(t *testing.T) {
	s := SummarizeTrainingR2([]float64{0.9, 0.7, 0.5, 0.1})

	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 0.55, s.Mean, 1e-12)
	assert.Equal(t, 0.9, s.Max)
	assert.Equal(t, 0.1, s.Min)
	assert.InDelta(t, math.Sqrt(0.0875), s.StdDev, 1e-12)
	assert.Equal(t, []int{1, 1, 1, 1}, bucketCounts(s))
	assert.Equal(t, ">=0.8", s.Buckets[0].Label)
	assert.Equal(t, "0.6-0.8", s.Buckets[1].Label)
	assert.Equal(t, "<0.4", s.Buckets[3].Label)
}

func TestSummarizePerformance(t *testing.T) {
	s := SummarizePerformance([]float64{0.95, 0.9, 0.85, 0.75, 0.2})

	assert.Equal(t, []int{2, 1, 1, 1}, bucketCounts(s))
	assert.InDelta(t, 0.73, s.Mean, 1e-12)

	var ss float64
	for _, v := range []float64{0.95, 0.9, 0.85, 0.75, 0.2} {
		ss += (v - 0.73) * (v - 0.73)
	}
	assert.InDelta(t, math.Sqrt(ss/4), s.StdDev, 1e-12)

	single := SummarizePerformance([]float64{0.5})
	assert.Zero(t, single.StdDev)

	empty := SummarizePerformance(nil)
	assert.Zero(t, empty.Count)
	assert.Equal(t, []int{0, 0, 0, 0}, bucketCounts(empty))
}

func TestPerformanceReport(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.TrainAll(context.Background(), mixedRecords())
	require.NoError(t, err)

	report := env.svc.PerformanceReport()
	assert.Equal(t, 3, report.Count)
	total := 0
	for _, b := range report.Buckets {
		total += b.Count
	}
	assert.Equal(t, 3, total)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.TrainAll(ctx, mixedRecords())
	require.NoError(t, err)

	now := time.Date(2024, 8, 30, 15, 0, 0, 0, time.UTC)
	doc, err := env.svc.Export(ctx, now, 0)
	require.NoError(t, err)

	require.Len(t, doc.Sites, 2)
	site1 := doc.Sites[0]
	assert.Equal(t, int64(1), site1.SiteID)
	assert.Equal(t, []string{"1", "2"}, site1.Thresholds)
	require.Len(t, site1.Days, 30)
	assert.Equal(t, "2024-08-30", site1.Days[0].Date)
	assert.Equal(t, "2024-09-28", site1.Days[29].Date)

	var groups [2][]float64
	for i, gm := range env.svc.Groups()[:2] {
		groups[i] = gm.Model.Forecast(30)
	}
	for d, day := range site1.Days {
		assert.InDelta(t, (groups[0][d]+groups[1][d])/2, day.Prediction, 1e-9)
	}

	site2 := doc.Sites[1]
	assert.Equal(t, []string{"1"}, site2.Thresholds)

	short, err := env.svc.Export(ctx, now, 3)
	require.NoError(t, err)
	assert.Len(t, short.Sites[0].Days, 3)

	full, err := env.svc.Export(ctx, now, testForecastConfig().MaxHorizon)
	require.NoError(t, err)
	assert.Len(t, full.Sites[0].Days, testForecastConfig().MaxHorizon)

	_, err = env.svc.Export(ctx, now, testForecastConfig().MaxHorizon+1)
	assert.Equal(t, CodeInvalidHorizon, ErrorCode(err))

	_, err = env.svc.Export(ctx, now, 1_000_000_000)
	assert.Equal(t, CodeInvalidHorizon, ErrorCode(err))
}
