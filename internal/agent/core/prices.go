package core

import (
	"context"
	"log"
	"time"

	"github.com/auditcore/cryptoagent/config"
)

// PriceClient fetches live market data for a batch of projects from the
// price provider in a single request.
type PriceClient struct {
	cfg    config.PriceConfig
	http   *HTTPClient
	logger *log.Logger
}

func NewPriceClient(cfg config.PriceConfig) *PriceClient {
	return &PriceClient{
		cfg:    cfg,
		http:   NewHTTPClient(cfg.Timeout),
		logger: log.New(log.Writer(), "[PRICE] ", log.LstdFlags),
	}
}

// Fetch requests prices for all named projects at once. Empty input
// short-circuits to an empty result with zero duration and no network call.
// Transport or parse failures degrade to empty results plus elapsed time,
// logged for operators.
func (p *PriceClient) Fetch(ctx context.Context, projects []string) ([]PriceResult, time.Duration) {
	if len(projects) == 0 {
		return nil, 0
	}
	start := time.Now()

	var resp struct {
		Prices []PriceResult `json:"prices"`
	}
	body := map[string]any{
		"projects":     projects,
		"forceRefresh": false, // cache-friendly by default
	}
	if err := p.http.DoJSON(ctx, "POST", p.cfg.Endpoint+"/api/prices", nil, body, &resp); err != nil {
		p.logger.Printf("price fetch failed: %v", err)
		return nil, time.Since(start)
	}
	return resp.Prices, time.Since(start)
}
