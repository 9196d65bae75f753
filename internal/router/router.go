package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/handlers"
	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/metrics"
	"github.com/soltixdb/sitecast/internal/middleware"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/source"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, svc *services.ForecastService,
	converter *source.Converter, m *metrics.Metrics, cfg config.Config,
) *handlers.Handler {
	h := handlers.New(logger, svc, converter)

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// No auth
	app.Get("/health", h.Health)
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	// Batch training and forecasting
	v1.Post("/train", h.Train)
	v1.Post("/forecast", h.Forecast)
	v1.Post("/forecast/series", h.ForecastSeries)

	// Per-group models
	v1.Get("/groups", h.ListGroups)
	v1.Get("/groups/:site/:threshold", h.GetGroup)
	v1.Delete("/groups/:site/:threshold", h.DeleteGroup)
	v1.Get("/groups/:site/:threshold/forecast", h.GroupForecast)
	v1.Post("/groups/:site/:threshold/observations", h.AddObservations)

	// Reports
	v1.Get("/reports/performance", h.PerformanceReport)
	v1.Get("/export", h.Export)

	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, svc *services.ForecastService,
	converter *source.Converter, m *metrics.Metrics, cfg config.Config,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Sitecast Forecaster",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimitBytes(),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, svc, converter, m, cfg)

	return app
}
