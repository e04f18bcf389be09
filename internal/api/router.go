package api

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/exercisetracker/internal/observability"
)

// RouterConfig controls the surfaces around the API routes.
type RouterConfig struct {
	StaticDir      string
	ViewsDir       string
	AllowOrigins   []string
	MetricsEnabled bool
	Logger         *slog.Logger
}

// NewRouter builds the echo instance serving the API, the landing page and
// static assets.
func NewRouter(handler *Handler, cfg RouterConfig) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HandleError

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(recordMetrics)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
	}))
	if cfg.StaticDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root: cfg.StaticDir,
		}))
	}

	landing := filepath.Join(cfg.ViewsDir, "index.html")
	e.GET("/", func(c echo.Context) error {
		return c.File(landing)
	})

	handler.RegisterRoutes(e)

	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	return e
}

// requestLogger logs one line per request. A handler error has not been
// written yet when this runs, so its status is derived from the error.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status
			if v.Error != nil {
				status = errorStatus(v.Error)
			}

			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", status,
				"duration_ms", v.Latency.Milliseconds(),
			}
			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request failed", append(attrs, "error", v.Error)...)
			case status >= http.StatusBadRequest:
				logger.Warn("request rejected", append(attrs, "error", v.Error)...)
			default:
				logger.Info("request served", attrs...)
			}
			return nil
		},
	})
}

func recordMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response().Status
		if err != nil {
			status = errorStatus(err)
		}
		observability.RecordHTTPRequest(route, c.Request().Method, status, time.Since(start))
		return err
	}
}
