package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/sitecast/internal/analytics/forecast"
	"github.com/soltixdb/sitecast/internal/models"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/source"
	"github.com/soltixdb/sitecast/internal/utils"
)

// BatchForecastResponse is returned by POST /v1/forecast.
type BatchForecastResponse struct {
	Report    *services.TrainReport          `json:"report"`
	Forecasts []models.GroupForecastResponse `json:"forecasts"`
}

// Train fits a model for every (site, threshold) group in the request.
// POST /v1/train
func (h *Handler) Train(c *fiber.Ctx) error {
	var body models.TrainRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}
	records, problem := h.records(body.Records)
	if problem != "" {
		return invalidRequest(c, problem)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.TrainRequestTimeout)
	defer cancel()

	report, err := h.service.TrainAll(ctx, records)
	if err != nil {
		return h.writeError(c, err, "TRAIN_FAILED")
	}
	return c.JSON(report)
}

// Forecast trains the groups in the request and forecasts each trained group.
// POST /v1/forecast
func (h *Handler) Forecast(c *fiber.Ctx) error {
	var body models.ForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}
	records, problem := h.records(body.Records)
	if problem != "" {
		return invalidRequest(c, problem)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.TrainRequestTimeout)
	defer cancel()

	batch, err := h.service.PredictRecords(ctx, records, body.Horizon)
	if err != nil {
		return h.writeError(c, err, "FORECAST_FAILED")
	}

	resp := BatchForecastResponse{
		Report:    batch.Report,
		Forecasts: make([]models.GroupForecastResponse, len(batch.Forecasts)),
	}
	for i, f := range batch.Forecasts {
		resp.Forecasts[i] = models.NewGroupForecastResponse(f.Group, f.Predictions, f.ModelInfo)
	}
	return c.JSON(resp)
}

// ForecastSeries forecasts an ad-hoc series with a registered method.
// POST /v1/forecast/series
func (h *Handler) ForecastSeries(c *fiber.Ctx) error {
	var body models.SeriesForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}
	if len(body.Points) == 0 {
		return invalidRequest(c, "points are required")
	}

	points := make([]forecast.DataPoint, len(body.Points))
	for i, p := range body.Points {
		points[i] = forecast.DataPoint{Time: p.Time, Value: p.Value}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	result, err := h.service.ForecastSeries(ctx, body.Method, points, body.Horizon)
	if err != nil {
		return h.writeError(c, err, "FORECAST_FAILED")
	}
	return c.JSON(result)
}

// records converts page records. A non-empty problem describes why the
// request cannot be served.
func (h *Handler) records(pages []source.PageRecord) (records []source.SummaryRecord, problem string) {
	if len(pages) == 0 {
		return nil, "records are required"
	}
	records = h.converter.Convert(pages)
	if len(records) == 0 {
		return nil, "no record could be converted"
	}
	return records, ""
}
