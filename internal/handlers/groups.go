package handlers

import (
	"context"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/sitecast/internal/models"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/utils"
)

// ListGroups handles list groups requests
// GET /v1/groups
func (h *Handler) ListGroups(c *fiber.Ctx) error {
	groups := h.service.Groups()
	resp := models.GroupListResponse{
		Groups: make([]models.GroupResponse, len(groups)),
		Count:  len(groups),
	}
	for i, gm := range groups {
		resp.Groups[i] = groupResponse(gm)
	}
	return c.JSON(resp)
}

// GetGroup returns the model held for one group.
// GET /v1/groups/:site/:threshold
func (h *Handler) GetGroup(c *fiber.Ctx) error {
	key, err := groupKeyParam(c)
	if err != nil {
		return invalidRequest(c, err.Error())
	}
	gm, ok := h.service.Model(key)
	if !ok {
		return h.writeError(c, services.NewServiceError(services.CodeGroupNotFound,
			"no model for group "+key.String()), "")
	}
	return c.JSON(groupResponse(gm))
}

// GroupForecast forecasts from the group's stored model.
// GET /v1/groups/:site/:threshold/forecast?horizon=N
func (h *Handler) GroupForecast(c *fiber.Ctx) error {
	key, err := groupKeyParam(c)
	if err != nil {
		return invalidRequest(c, err.Error())
	}
	horizon, err := intQuery(c, "horizon")
	if err != nil {
		return h.writeError(c, services.NewServiceError(services.CodeInvalidHorizon,
			"horizon must be an integer"), "")
	}

	fc, err := h.service.Predict(c.UserContext(), key, horizon)
	if err != nil {
		return h.writeError(c, err, "FORECAST_FAILED")
	}
	return c.JSON(models.NewGroupForecastResponse(fc.Group, fc.Predictions, fc.ModelInfo))
}

// AddObservations appends raw values to a group and retrains its model.
// POST /v1/groups/:site/:threshold/observations
func (h *Handler) AddObservations(c *fiber.Ctx) error {
	key, err := groupKeyParam(c)
	if err != nil {
		return invalidRequest(c, err.Error())
	}
	var body models.ObservationsRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}

	values := make([]float64, len(body.Values))
	for i, v := range body.Values {
		if v == nil {
			values[i] = math.NaN()
			continue
		}
		values[i] = *v
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.ObservationTimeout)
	defer cancel()

	gm, err := h.service.Update(ctx, key, values)
	if err != nil {
		return h.writeError(c, err, "UPDATE_FAILED")
	}
	return c.JSON(groupResponse(gm))
}

// DeleteGroup drops the group's model from memory and the model store.
// DELETE /v1/groups/:site/:threshold
func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	key, err := groupKeyParam(c)
	if err != nil {
		return invalidRequest(c, err.Error())
	}
	if err := h.service.Forget(c.UserContext(), key); err != nil {
		return h.writeError(c, err, "DELETE_FAILED")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
