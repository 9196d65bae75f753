package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/models"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/source"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	service   *services.ForecastService
	converter *source.Converter
}

// New creates a new handler instance
func New(logger *logging.Logger, service *services.ForecastService, converter *source.Converter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		converter: converter,
	}
}

// statusForCode maps service error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case services.CodeGroupNotFound:
		return fiber.StatusNotFound
	case services.CodeInvalidHorizon, services.CodeInvalidMethod, services.CodeInvalidObservations:
		return fiber.StatusBadRequest
	case services.CodeInsufficientData, services.CodeModelFailed:
		return fiber.StatusUnprocessableEntity
	case services.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse. fallback is used as the code for
// errors that did not come from the service layer.
func (h *Handler) writeError(c *fiber.Ctx, err error, fallback string) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return c.Status(statusForCode(svcErr.Code)).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	status := fiber.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = fiber.StatusGatewayTimeout
		fallback = "TIMEOUT"
	}
	h.logger.WithContext(c.UserContext()).Error("Request failed", "path", c.Path(), "error", err)
	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    fallback,
			Message: err.Error(),
		},
	})
}

func invalidJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_JSON",
			Message: "Failed to parse JSON body",
			Details: map[string]interface{}{"error": err.Error()},
		},
	})
}

func invalidRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: message,
		},
	})
}

// groupKeyParam reads the :site and :threshold route parameters.
func groupKeyParam(c *fiber.Ctx) (source.GroupKey, error) {
	site, err := strconv.ParseInt(c.Params("site"), 10, 64)
	if err != nil {
		return source.GroupKey{}, errors.New("site must be an integer")
	}
	threshold := c.Params("threshold")
	if threshold == "" {
		return source.GroupKey{}, errors.New("threshold is required")
	}
	return source.GroupKey{SiteID: site, ThresholdType: threshold}, nil
}

// intQuery parses an optional integer query parameter.
func intQuery(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func groupResponse(gm *services.GroupModel) models.GroupResponse {
	report := gm.Cleaning
	return models.GroupResponse{
		SiteID:        gm.Key.SiteID,
		ThresholdType: gm.Key.ThresholdType,
		Model:         gm.Info(),
		Cleaning:      &report,
		LastObserved:  gm.LastObserved.Format(time.DateOnly),
		UpdatedAt:     gm.UpdatedAt.Format(time.RFC3339),
	}
}
