package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// PerformanceReport returns the R² distribution of the held models.
// GET /v1/reports/performance
func (h *Handler) PerformanceReport(c *fiber.Ctx) error {
	return c.JSON(h.service.PerformanceReport())
}

// Export returns daily per-site predictions averaged over thresholds.
// GET /v1/export?days=N
func (h *Handler) Export(c *fiber.Ctx) error {
	days, err := intQuery(c, "days")
	if err != nil || days < 0 {
		return invalidRequest(c, "days must be a non-negative integer")
	}
	doc, err := h.service.Export(c.UserContext(), time.Now().UTC(), days)
	if err != nil {
		return h.writeError(c, err, "EXPORT_FAILED")
	}
	return c.JSON(doc)
}
