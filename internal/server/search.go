package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	agentcore "github.com/auditcore/cryptoagent/internal/agent/core"
)

const rawSearchLimit = 10

// SearchHandler exposes the raw knowledge-base lookup route. Unlike the
// agent endpoint it does no classification and no fan-out; provider failures
// surface as errors.
type SearchHandler struct {
	KB *agentcore.KBClient
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/search", h.search)
}

type searchRequest struct {
	Question string `json:"question"`
}

func (h *SearchHandler) search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil || req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No question provided"})
	}

	rows, err := h.KB.Lookup(c.Request().Context(), req.Question, rawSearchLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if rows == nil {
		rows = []agentcore.RawRow{}
	}
	return c.JSON(http.StatusOK, rows)
}
