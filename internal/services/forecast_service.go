package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/sitecast/internal/analytics/cleaning"
	"github.com/soltixdb/sitecast/internal/analytics/forecast"
	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/metrics"
	"github.com/soltixdb/sitecast/internal/modelstore"
	"github.com/soltixdb/sitecast/internal/queue"
	"github.com/soltixdb/sitecast/internal/source"
	"github.com/soltixdb/sitecast/internal/utils"
)

const (
	// eventForecastDays is the number of forecast points attached to model events.
	eventForecastDays = 7

	// maxUpdateAttempts bounds how often Update reapplies observations after
	// the group was replaced underneath it.
	maxUpdateAttempts = 3
)

// GroupModel is the selected model of one (site, threshold) group.
type GroupModel struct {
	Key          source.GroupKey
	Model        *forecast.FittedModel
	Metrics      forecast.EvaluationMetrics
	Cleaning     cleaning.Report
	DataPoints   int
	LastObserved time.Time
	UpdatedAt    time.Time
}

// Info summarizes the model for API responses.
func (g *GroupModel) Info() forecast.ModelInfo {
	return forecast.NewModelInfo(g.Model, g.Metrics, g.DataPoints)
}

// ForecastService trains, holds and serves one model per group.
type ForecastService struct {
	logger  *logging.Logger
	cfg     config.ForecastConfig
	store   modelstore.Store
	events  *queue.EventPublisher
	metrics *metrics.Metrics

	mu     sync.RWMutex
	groups map[source.GroupKey]*GroupModel

	// updateMu serializes online updates.
	updateMu sync.Mutex

	retrain func(*forecast.FittedModel, []float64) (*forecast.FittedModel, forecast.EvaluationMetrics)
}

// NewForecastService creates a ForecastService. store, events and m may be nil.
func NewForecastService(
	logger *logging.Logger,
	cfg config.ForecastConfig,
	store modelstore.Store,
	events *queue.EventPublisher,
	m *metrics.Metrics,
) *ForecastService {
	if cfg.MinPoints < forecast.MinTrainingPoints {
		cfg.MinPoints = forecast.MinTrainingPoints
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 30
	}
	if cfg.MaxHorizon < cfg.Horizon {
		cfg.MaxHorizon = cfg.Horizon
	}
	return &ForecastService{
		logger:  logger,
		cfg:     cfg,
		store:   store,
		events:  events,
		metrics: m,
		groups:  make(map[source.GroupKey]*GroupModel),
		retrain: forecast.Retrain,
	}
}

// GroupResult is the training outcome of one group within a run.
type GroupResult struct {
	Group   source.GroupKey     `json:"group"`
	Status  string              `json:"status"`
	Records int                 `json:"records"`
	Model   *forecast.ModelInfo `json:"model,omitempty"`
	Code    string              `json:"code,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// TrainReport summarizes a TrainAll run.
type TrainReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Trained   int           `json:"trained"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Groups    []GroupResult `json:"groups"`
	R2        R2Summary     `json:"r2"`
}

// TrainAll groups records by (site, threshold) and trains every group.
// Groups that are too short or whose candidates all fail are recorded in the
// report; only cancellation aborts the run.
func (s *ForecastService) TrainAll(ctx context.Context, records []source.SummaryRecord) (*TrainReport, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	if s.cfg.TrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TrainTimeout)
		defer cancel()
	}
	log := s.logger.WithContext(ctx)

	start := time.Now()
	groups := source.GroupRecords(records)
	keys := make([]source.GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sortGroupKeys(keys)

	log.Info("Training started", "records", len(records), "groups", len(keys))

	workers := s.cfg.GroupWorkers
	if workers <= 0 {
		workers = 1
	}

	results := make([]GroupResult, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, key := range keys {
		g.Go(func() error {
			gm, err := s.TrainGroup(gctx, key, groups[key])
			if err != nil && isCancellation(err) {
				return err
			}
			results[i] = newGroupResult(key, len(groups[key]), gm, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("training run %s: %w", runID, err)
	}

	report := &TrainReport{
		RunID:     runID,
		StartedAt: start.UTC(),
		Duration:  time.Since(start),
		Groups:    results,
	}
	var r2 []float64
	for _, r := range results {
		switch r.Status {
		case metrics.StatusTrained:
			report.Trained++
			r2 = append(r2, r.Model.R2)
		case metrics.StatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	report.R2 = SummarizeTrainingR2(r2)

	log.Info("Training finished",
		"trained", report.Trained,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"r2_mean", report.R2.Mean,
		"duration_ms", report.Duration.Milliseconds())
	return report, nil
}

func newGroupResult(key source.GroupKey, records int, gm *GroupModel, err error) GroupResult {
	r := GroupResult{Group: key, Records: records}
	if err == nil {
		info := gm.Info()
		r.Status = metrics.StatusTrained
		r.Model = &info
		return r
	}
	r.Code = ErrorCode(err)
	r.Error = err.Error()
	if r.Code == CodeInsufficientData {
		r.Status = metrics.StatusSkipped
	} else {
		r.Status = metrics.StatusFailed
	}
	return r
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// TrainGroup cleans the group's series, fits every candidate order and keeps
// the lowest-AIC model.
func (s *ForecastService) TrainGroup(ctx context.Context, key source.GroupKey, records []source.SummaryRecord) (*GroupModel, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx).With("group", key.String())

	series := source.ExtractSeries(records)
	if series.Len() < s.cfg.MinPoints {
		s.metrics.GroupTrained(key.String(), metrics.StatusSkipped, 0, 0)
		log.Warn("Not enough points, skipping group", "points", series.Len(), "required", s.cfg.MinPoints)
		return nil, insufficientData(key, series.Len(), s.cfg.MinPoints, "raw")
	}

	cleaned, report := cleaning.CleanWithReport(series.Values())
	if len(cleaned) < s.cfg.MinPoints {
		s.metrics.GroupTrained(key.String(), metrics.StatusSkipped, 0, 0)
		log.Warn("Not enough points after cleaning, skipping group", "points", len(cleaned))
		return nil, insufficientData(key, len(cleaned), s.cfg.MinPoints, "cleaned")
	}
	log.Debug("Series cleaned",
		"points", report.InputPoints,
		"outliers_replaced", report.OutliersReplaced,
		"missing_filled", report.MissingFilled,
		"smoothing_window", report.SmoothingWindow,
		"seasonal_adjusted", report.SeasonalAdjusted)

	candidates, err := forecast.CandidateResults(ctx, cleaned, forecast.SelectOptions{
		Parallelism:   s.cfg.Parallelism,
		Normalization: report.Params,
	})
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			return nil, insufficientData(key, len(cleaned), forecast.MinTrainingPoints, "cleaned")
		}
		return nil, fmt.Errorf("select model for %s: %w", key, err)
	}
	for i, c := range candidates {
		log.Debug("Candidate fitted",
			"index", i+1,
			"order", c.Order.String(),
			"aic", c.Metrics.AIC,
			"bic", c.Metrics.BIC,
			"r2", c.Metrics.R2)
	}

	// With every candidate at sentinel metrics the first order still wins
	// and forecasts, as long as its coefficients are finite. Constant series
	// end up here.
	best := forecast.Best(candidates)
	if best.Metrics.IsSentinel() {
		if best.Model == nil || !best.Model.Usable() {
			s.metrics.GroupTrained(key.String(), metrics.StatusFailed, 0, 0)
			log.Warn("Every candidate failed to fit")
			return nil, NewServiceErrorWithDetails(CodeModelFailed,
				fmt.Sprintf("no candidate order could be fitted for group %s", key),
				map[string]interface{}{"candidates": len(candidates)})
		}
		log.Warn("Every candidate has sentinel metrics, keeping first order", "order", best.Order.String())
	}

	last, _ := series.Last()
	gm := &GroupModel{
		Key:          key,
		Model:        best.Model,
		Metrics:      best.Metrics,
		Cleaning:     report,
		DataPoints:   series.Len(),
		LastObserved: last.Time,
		UpdatedAt:    time.Now().UTC(),
	}
	s.put(gm)

	took := time.Since(start)
	s.metrics.GroupTrained(key.String(), metrics.StatusTrained, took, best.Metrics.R2)
	log.Info("Group trained",
		"order", best.Order.String(),
		"aic", best.Metrics.AIC,
		"r2", best.Metrics.R2,
		"duration_ms", took.Milliseconds())

	s.persist(ctx, gm)
	s.announce(ctx, queue.EventTrained, gm)
	return gm, nil
}

func insufficientData(key source.GroupKey, have, need int, stage string) error {
	return NewServiceErrorWithDetails(CodeInsufficientData,
		fmt.Sprintf("group %s has %d %s points, need %d", key, have, stage, need),
		map[string]interface{}{"points": have, "required": need, "stage": stage})
}

// GroupForecast is a dated forecast for one group.
type GroupForecast struct {
	Group       source.GroupKey          `json:"group"`
	Predictions []forecast.ForecastPoint `json:"predictions"`
	ModelInfo   forecast.ModelInfo       `json:"model_info"`
}

// Predict forecasts horizon days after the group's last observation.
// A horizon of zero uses the configured default.
func (s *ForecastService) Predict(ctx context.Context, key source.GroupKey, horizon int) (*GroupForecast, error) {
	gm, ok := s.Model(key)
	if !ok {
		return nil, groupNotFound(key)
	}
	h, err := s.horizon(horizon)
	if err != nil {
		return nil, err
	}

	s.metrics.ForecastServed()
	return &GroupForecast{
		Group:       key,
		Predictions: datedForecast(gm, h),
		ModelInfo:   gm.Info(),
	}, nil
}

func datedForecast(gm *GroupModel, horizon int) []forecast.ForecastPoint {
	values := gm.Model.Forecast(horizon)
	points := make([]forecast.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = forecast.ForecastPoint{
			Time:  gm.LastObserved.Add(time.Duration(i+1) * utils.ForecastInterval1d),
			Value: v,
		}
	}
	return points
}

func (s *ForecastService) horizon(h int) (int, error) {
	if h == 0 {
		return s.cfg.Horizon, nil
	}
	if h < 0 || h > s.cfg.MaxHorizon {
		return 0, NewServiceErrorWithDetails(CodeInvalidHorizon,
			fmt.Sprintf("horizon must be between 1 and %d", s.cfg.MaxHorizon),
			map[string]interface{}{"horizon": h, "max": s.cfg.MaxHorizon})
	}
	return h, nil
}

// BatchForecast is the result of PredictRecords.
type BatchForecast struct {
	Report    *TrainReport    `json:"report"`
	Forecasts []GroupForecast `json:"forecasts"`
}

// PredictRecords retrains every group in records and forecasts each group
// that produced a model.
func (s *ForecastService) PredictRecords(ctx context.Context, records []source.SummaryRecord, horizon int) (*BatchForecast, error) {
	if _, err := s.horizon(horizon); err != nil {
		return nil, err
	}
	report, err := s.TrainAll(ctx, records)
	if err != nil {
		return nil, err
	}

	out := &BatchForecast{Report: report, Forecasts: make([]GroupForecast, 0, report.Trained)}
	for _, r := range report.Groups {
		if r.Status != metrics.StatusTrained {
			continue
		}
		fc, err := s.Predict(ctx, r.Group, horizon)
		if err != nil {
			return nil, err
		}
		out.Forecasts = append(out.Forecasts, *fc)
	}
	return out, nil
}

// Update appends raw observations to the group's series and retrains its
// selected order. Values are normalized with the group's stored parameters;
// NaN marks a missing day. The previous model stays in place if the retrain
// fails. When the group is retrained while the update runs, the update is
// reapplied on top of the newer model.
func (s *ForecastService) Update(ctx context.Context, key source.GroupKey, values []float64) (*GroupModel, error) {
	if len(values) == 0 || len(values) > utils.MaxObservationBatch {
		s.metrics.ObservationsApplied(false)
		return nil, NewServiceErrorWithDetails(CodeInvalidObservations,
			fmt.Sprintf("expected between 1 and %d values", utils.MaxObservationBatch),
			map[string]interface{}{"count": len(values)})
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	var gm *GroupModel
	for attempt := 1; ; attempt++ {
		current, ok := s.Model(key)
		if !ok {
			s.metrics.ObservationsApplied(false)
			return nil, groupNotFound(key)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := s.extend(current, values)
		if err != nil {
			s.metrics.ObservationsApplied(false)
			return nil, err
		}
		if s.replace(current, next) {
			gm = next
			break
		}
		if attempt >= maxUpdateAttempts {
			s.metrics.ObservationsApplied(false)
			return nil, NewServiceErrorWithDetails(CodeConflict,
				fmt.Sprintf("group %s kept changing during update", key),
				map[string]interface{}{"attempts": attempt})
		}
		s.logger.Debug("Group replaced during update, retrying", "group", key.String(), "attempt", attempt)
	}
	s.metrics.ObservationsApplied(true)

	s.logger.WithContext(ctx).Info("Group updated",
		"group", key.String(),
		"new_points", len(values),
		"aic", gm.Metrics.AIC,
		"r2", gm.Metrics.R2)

	s.persist(ctx, gm)
	s.announce(ctx, queue.EventUpdated, gm)
	return gm, nil
}

// extend retrains current's order on its series plus values. A retrain that
// degrades a fitted model to sentinel metrics is an error; a model that was
// already degenerate may stay so while it remains usable.
func (s *ForecastService) extend(current *GroupModel, values []float64) (*GroupModel, error) {
	normalized := current.Model.Normalization.Normalize(values)
	next, m := s.retrain(current.Model, normalized)
	if m.IsSentinel() && (!current.Metrics.IsSentinel() || !next.Usable()) {
		s.logger.Warn("Retrain failed, keeping previous model", "group", current.Key.String(), "new_points", len(values))
		return nil, NewServiceError(CodeModelFailed, fmt.Sprintf("retraining group %s failed", current.Key))
	}

	return &GroupModel{
		Key:          current.Key,
		Model:        next,
		Metrics:      m,
		Cleaning:     current.Cleaning,
		DataPoints:   current.DataPoints + len(values),
		LastObserved: current.LastObserved.Add(time.Duration(len(values)) * utils.ForecastInterval1d),
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// Model returns the group's current model.
func (s *ForecastService) Model(key source.GroupKey) (*GroupModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gm, ok := s.groups[key]
	return gm, ok
}

// Groups returns every group model ordered by site then threshold.
func (s *ForecastService) Groups() []*GroupModel {
	s.mu.RLock()
	out := make([]*GroupModel, 0, len(s.groups))
	for _, gm := range s.groups {
		out = append(out, gm)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return groupKeyLess(out[i].Key, out[j].Key)
	})
	return out
}

// Forget drops the group's model from memory and from the store.
func (s *ForecastService) Forget(ctx context.Context, key source.GroupKey) error {
	s.mu.Lock()
	_, ok := s.groups[key]
	delete(s.groups, key)
	n := len(s.groups)
	s.mu.Unlock()

	if !ok {
		return groupNotFound(key)
	}
	s.metrics.SetModels(n)

	if s.store != nil {
		sctx, cancel := context.WithTimeout(ctx, utils.StoreOpTimeout)
		defer cancel()
		if err := s.store.Delete(sctx, key); err != nil {
			return fmt.Errorf("delete snapshot %s: %w", key, err)
		}
	}
	return nil
}

// Restore loads every stored snapshot into memory and returns how many were loaded.
func (s *ForecastService) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	keys, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	loaded := 0
	for _, key := range keys {
		snap, err := s.store.Load(ctx, key)
		if err != nil {
			s.logger.Warn("Failed to load snapshot", "group", key.String(), "error", err)
			continue
		}
		if snap.Model == nil {
			s.logger.Warn("Snapshot has no model", "group", key.String())
			continue
		}
		s.put(&GroupModel{
			Key:          key,
			Model:        snap.Model,
			Metrics:      snap.Model.Metrics,
			DataPoints:   snap.DataPoints,
			LastObserved: snap.LastObserved,
			UpdatedAt:    snap.SavedAt,
		})
		loaded++
	}
	s.logger.Info("Restored model snapshots", "loaded", loaded, "stored", len(keys))
	return loaded, nil
}

// replace stores next only while old is still the group's model.
func (s *ForecastService) replace(old, next *GroupModel) bool {
	s.mu.Lock()
	if s.groups[next.Key] != old {
		s.mu.Unlock()
		return false
	}
	s.groups[next.Key] = next
	n := len(s.groups)
	s.mu.Unlock()
	s.metrics.SetModels(n)
	return true
}

func (s *ForecastService) put(gm *GroupModel) {
	s.mu.Lock()
	s.groups[gm.Key] = gm
	n := len(s.groups)
	s.mu.Unlock()
	s.metrics.SetModels(n)
}

// persist saves a snapshot. Store failures are logged, not returned.
func (s *ForecastService) persist(ctx context.Context, gm *GroupModel) {
	if s.store == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, utils.StoreOpTimeout)
	defer cancel()

	err := s.store.Save(sctx, &modelstore.Snapshot{
		Key:          gm.Key,
		Model:        gm.Model,
		DataPoints:   gm.DataPoints,
		LastObserved: gm.LastObserved,
		SavedAt:      gm.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to persist model", "group", gm.Key.String(), "error", err)
	}
}

// announce publishes a model event. Publish failures are logged, not returned.
func (s *ForecastService) announce(ctx context.Context, eventType string, gm *GroupModel) {
	if s.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	err := s.events.Publish(pctx, queue.ModelEvent{
		Type:       eventType,
		Group:      gm.Key,
		Order:      gm.Model.Order.String(),
		Metrics:    gm.Metrics,
		DataPoints: gm.DataPoints,
		Forecast:   datedForecast(gm, eventForecastDays),
		Time:       gm.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to publish model event", "group", gm.Key.String(), "type", eventType, "error", err)
	}
}

func groupNotFound(key source.GroupKey) error {
	return NewServiceErrorWithDetails(CodeGroupNotFound,
		fmt.Sprintf("no model for group %s", key),
		map[string]interface{}{"site_id": key.SiteID, "threshold_type": key.ThresholdType})
}

func groupKeyLess(a, b source.GroupKey) bool {
	if a.SiteID != b.SiteID {
		return a.SiteID < b.SiteID
	}
	return a.ThresholdType < b.ThresholdType
}

func sortGroupKeys(keys []source.GroupKey) {
	sort.Slice(keys, func(i, j int) bool { return groupKeyLess(keys[i], keys[j]) })
}
