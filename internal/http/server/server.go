// Package server assembles the Fiber application: middleware, CORS, metrics, docs and API routes.
package server

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"comicapi/docs"
	handlers "comicapi/internal/http/handler"
	"comicapi/internal/http/middleware"
	"comicapi/internal/logging"
	"comicapi/internal/service"
)

// Options carries the dependencies of the HTTP application.
type Options struct {
	Service service.ImageService
	Log     *logging.Logger
	// AccessLog receives one JSON line per request; os.Stdout when nil.
	AccessLog io.Writer
	Location  *time.Location
	// Registry enables /metrics and the HTTP metrics middleware when non-nil.
	Registry *prometheus.Registry
}

// CORSConfig permits every origin, method and header.
func CORSConfig() cors.Config {
	return cors.Config{
		AllowOrigins: "*",
		AllowMethods: "*",
		AllowHeaders: "*",
	}
}

// New builds the Fiber app with all middleware and routes registered.
func New(opts Options) (*fiber.App, error) {
	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	app := fiber.New(fiber.Config{
		AppName:      "comicapi",
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(accessLog, opts.Location))
	app.Use(cors.New(CORSConfig()))
	app.Use(otelfiber.Middleware())

	if opts.Registry != nil {
		promMiddleware, err := middleware.NewPrometheusMiddleware(opts.Registry)
		if err != nil {
			return nil, err
		}
		app.Use(promMiddleware.Handler())
		app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	handlers.RegisterRoutes(app, opts.Service, opts.Log)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	return app, nil
}
