package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/auditcore/cryptoagent/internal/agent/classify"
	agentcore "github.com/auditcore/cryptoagent/internal/agent/core"
	agenttele "github.com/auditcore/cryptoagent/internal/agent/telemetry"
)

// AgentHandler exposes the agent query endpoint and its capability document.
type AgentHandler struct {
	Orch      *agentcore.Orchestrator
	Telemetry *agenttele.Telemetry
	Logger    *log.Logger
}

func (h *AgentHandler) Register(g *echo.Group) {
	if h.Logger == nil {
		h.Logger = log.New(log.Writer(), "[AGENT-API] ", log.LstdFlags)
	}
	g.POST("/query", h.query)
	g.GET("/query", h.health)
}

func (h *AgentHandler) query(c echo.Context) error {
	var req agentcore.QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query is required"})
	}
	if req.Context.SearchMode != "" && !classify.Valid(req.Context.SearchMode) {
		// unknown overrides pass through and simply dispatch nothing; flag
		// them for operators since that is almost always a caller bug
		h.Logger.Printf("unknown searchMode override %q", req.Context.SearchMode)
	}

	resp, err := h.Orch.Handle(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, agentcore.ErrEmptyQuery) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query is required"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Agent processing failed",
			"queryId": resp.QueryID,
			"details": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// health returns the static capability/status document.
func (h *AgentHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"agent":  "crypto-auditor-agent-v1",
		"capabilities": []string{
			"kb_search", "price_fetch", "query_classification", "parallel_execution",
		},
		"endpoints": map[string]string{
			"query_endpoint": "POST /api/agent/query",
			"kb_only":        `POST /api/agent/query with context.searchMode="kb_only"`,
			"price_only":     `POST /api/agent/query with context.searchMode="price_only"`,
			"combined":       `POST /api/agent/query with context.searchMode="combined"`,
			"auto":           `POST /api/agent/query with context.searchMode="auto" (default)`,
		},
	})
}
