package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/sitecast/internal/utils"
)

// R2Bucket counts models whose R² falls in one band.
type R2Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// R2Summary describes the R² distribution over a set of groups.
type R2Summary struct {
	Count   int        `json:"count"`
	Mean    float64    `json:"mean"`
	Max     float64    `json:"max"`
	Min     float64    `json:"min"`
	StdDev  float64    `json:"std_dev"`
	Buckets []R2Bucket `json:"buckets"`
}

var (
	trainingCuts    = [3]float64{0.8, 0.6, 0.4}
	performanceCuts = [3]float64{0.9, 0.8, 0.7}
)

// SummarizeTrainingR2 reports a training run: population standard deviation,
// bands at 0.8, 0.6 and 0.4.
func SummarizeTrainingR2(values []float64) R2Summary {
	return summarizeR2(values, trainingCuts, false)
}

// SummarizePerformance reports the models currently held: sample standard
// deviation, bands at 0.9, 0.8 and 0.7.
func SummarizePerformance(values []float64) R2Summary {
	return summarizeR2(values, performanceCuts, true)
}

func summarizeR2(values []float64, cuts [3]float64, sample bool) R2Summary {
	s := R2Summary{Count: len(values), Buckets: bucketR2(values, cuts)}
	if len(values) == 0 {
		return s
	}

	s.Max = floats.Max(values)
	s.Min = floats.Min(values)
	if sample {
		s.Mean = stat.Mean(values, nil)
		if len(values) > 1 {
			s.StdDev = stat.StdDev(values, nil)
		}
	} else {
		s.Mean, s.StdDev = stat.PopMeanStdDev(values, nil)
	}
	return s
}

func bucketR2(values []float64, cuts [3]float64) []R2Bucket {
	buckets := []R2Bucket{
		{Label: fmt.Sprintf(">=%.1f", cuts[0])},
		{Label: fmt.Sprintf("%.1f-%.1f", cuts[1], cuts[0])},
		{Label: fmt.Sprintf("%.1f-%.1f", cuts[2], cuts[1])},
		{Label: fmt.Sprintf("<%.1f", cuts[2])},
	}
	for _, v := range values {
		switch {
		case v >= cuts[0]:
			buckets[0].Count++
		case v >= cuts[1]:
			buckets[1].Count++
		case v >= cuts[2]:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

// PerformanceReport summarizes the R² of every model currently held.
func (s *ForecastService) PerformanceReport() R2Summary {
	groups := s.Groups()
	values := make([]float64, len(groups))
	for i, gm := range groups {
		values[i] = gm.Metrics.R2
	}
	return SummarizePerformance(values)
}

// ExportDay is one site's averaged prediction for a calendar day.
type ExportDay struct {
	Date       string  `json:"date"`
	Prediction float64 `json:"prediction"`
}

// SiteExport holds the daily predictions of one site, averaged over its thresholds.
type SiteExport struct {
	SiteID     int64       `json:"site_id"`
	Thresholds []string    `json:"thresholds"`
	Days       []ExportDay `json:"days"`
}

// ExportDocument is the per-site daily forecast export.
type ExportDocument struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Sites       []SiteExport `json:"sites"`
}

// Export forecasts days steps for every group and averages them per site.
// Dates start at now. days <= 0 uses utils.ExportDays; more than the
// configured maximum horizon is rejected.
func (s *ForecastService) Export(ctx context.Context, now time.Time, days int) (*ExportDocument, error) {
	if days > s.cfg.MaxHorizon {
		return nil, NewServiceErrorWithDetails(CodeInvalidHorizon,
			fmt.Sprintf("days must be at most %d", s.cfg.MaxHorizon),
			map[string]interface{}{"days": days, "max": s.cfg.MaxHorizon})
	}
	if days <= 0 {
		days = utils.ExportDays
	}

	type siteAcc struct {
		thresholds []string
		sums       []float64
	}
	sites := make(map[int64]*siteAcc)

	for _, gm := range s.Groups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		acc, ok := sites[gm.Key.SiteID]
		if !ok {
			acc = &siteAcc{sums: make([]float64, days)}
			sites[gm.Key.SiteID] = acc
		}
		acc.thresholds = append(acc.thresholds, gm.Key.ThresholdType)
		floats.Add(acc.sums, gm.Model.Forecast(days))
	}

	ids := make([]int64, 0, len(sites))
	for id := range sites {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	doc := &ExportDocument{GeneratedAt: now, Sites: make([]SiteExport, 0, len(ids))}
	for _, id := range ids {
		acc := sites[id]
		n := float64(len(acc.thresholds))
		site := SiteExport{SiteID: id, Thresholds: acc.thresholds, Days: make([]ExportDay, days)}
		for d := range site.Days {
			site.Days[d] = ExportDay{
				Date:       now.AddDate(0, 0, d).Format("2006-01-02"),
				Prediction: acc.sums[d] / n,
			}
		}
		doc.Sites = append(doc.Sites, site)
	}
	return doc, nil
}

