package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auditcore/cryptoagent/config"
	agentcore "github.com/auditcore/cryptoagent/internal/agent/core"
	agenttele "github.com/auditcore/cryptoagent/internal/agent/telemetry"
)

// Run builds the echo server, wires the orchestrator and blocks serving.
func Run(cfg *config.Config) error {
	e := New(cfg)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// New assembles the echo instance with all routes registered. Split from Run
// so tests can drive it through httptest.
func New(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	tele := agenttele.NewTelemetry(cfg.Telemetry)
	orchLogger := log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	orch := agentcore.NewOrchestrator(cfg, orchLogger, tele)
	kb := agentcore.NewKBClient(cfg.Providers.KB)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(tele.Registry(), promhttp.HandlerOpts{})))

	api := e.Group("/api")

	ah := &AgentHandler{Orch: orch, Telemetry: tele}
	ah.Register(api.Group("/agent"))

	sh := &SearchHandler{KB: kb}
	sh.Register(api)

	return e
}
