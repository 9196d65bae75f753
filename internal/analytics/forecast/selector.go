package forecast

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/sitecast/internal/analytics/cleaning"
)

// SelectOptions tunes SelectBest.
type SelectOptions struct {
	// Parallelism bounds concurrent candidate fits. Zero means GOMAXPROCS.
	Parallelism int
	// Candidates overrides CandidateOrders when non-empty.
	Candidates []SarimaOrder
	// Normalization is attached to every returned model.
	Normalization cleaning.NormalizationParams
}

// CandidateResult is the outcome of fitting one candidate order.
type CandidateResult struct {
	Order   SarimaOrder       `json:"order"`
	Metrics EvaluationMetrics `json:"metrics"`
	Model   *FittedModel      `json:"-"`
}

// CandidateResults fits every candidate and returns the results in candidate order.
func CandidateResults(ctx context.Context, series []float64, opts SelectOptions) ([]CandidateResult, error) {
	if len(series) < MinTrainingPoints {
		return nil, fmt.Errorf("%w: need %d points, have %d", ErrInsufficientData, MinTrainingPoints, len(series))
	}

	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = CandidateOrders()
	}
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	norm := opts.Normalization
	if norm.Std == 0 {
		norm = cleaning.IdentityParams()
	}

	results := make([]CandidateResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, order := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model, metrics := Train(series, order)
			results[i] = CandidateResult{
				Order:   order,
				Metrics: metrics,
				Model:   model.WithNormalization(norm),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SelectBest fits every candidate and keeps the one with the lowest AIC. Ties go
// to the earlier candidate. When every fit fails, the first candidate is
// returned with sentinel metrics.
func SelectBest(ctx context.Context, series []float64, opts SelectOptions) (*FittedModel, EvaluationMetrics, error) {
	results, err := CandidateResults(ctx, series, opts)
	if err != nil {
		return nil, SentinelMetrics(), err
	}
	best := Best(results)
	return best.Model, best.Metrics, nil
}

// Best folds results in order, replacing the incumbent only on strictly lower AIC.
func Best(results []CandidateResult) CandidateResult {
	if len(results) == 0 {
		return CandidateResult{Metrics: SentinelMetrics()}
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Metrics.AIC < best.Metrics.AIC {
			best = r
		}
	}
	return best
}
