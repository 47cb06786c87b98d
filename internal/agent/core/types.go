package core

import "github.com/auditcore/cryptoagent/internal/agent/classify"

// QueryContext carries optional caller directives alongside the query.
// Timeout is accepted for wire compatibility but not enforced; a slow
// provider call delays only its own branch.
type QueryContext struct {
	SearchMode string `json:"searchMode,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
	Timeout    int    `json:"timeout,omitempty"`
}

// QueryRequest is the inbound body of the agent query endpoint.
type QueryRequest struct {
	Query   string       `json:"query"`
	Context QueryContext `json:"context,omitempty"`
}

// KBResult is one normalized knowledge-base chunk.
type KBResult struct {
	Content    string                 `json:"content"`
	Relevance  float64                `json:"relevance"`
	Metadata   map[string]interface{} `json:"metadata"`
	Source     string                 `json:"source"`
	SearchMode string                 `json:"searchMode"`
}

// PriceResult is one provider price record, passed through field-for-field
// with no unit conversion.
type PriceResult struct {
	Project        string  `json:"project"`
	PriceUSD       float64 `json:"price_usd"`
	MarketCapUSD   float64 `json:"market_cap_usd"`
	Volume24hUSD   float64 `json:"volume_24h_usd"`
	PriceChange24h float64 `json:"price_change_24h"`
	PriceChange7d  float64 `json:"price_change_7d"`
	LastUpdated    string  `json:"last_updated"`
}

// BranchResults holds the per-branch outcome. A results array is omitted
// entirely when its branch produced nothing; the completion flags report
// whether the branch was dispatched and joined, not whether it yielded rows.
type BranchResults struct {
	KBResults           []KBResult    `json:"kb_results,omitempty"`
	PriceResults        []PriceResult `json:"price_results,omitempty"`
	KBSearchComplete    bool          `json:"kbSearchComplete"`
	PriceSearchComplete bool          `json:"priceSearchComplete"`
}

// Timings records wall-clock durations in milliseconds.
type Timings struct {
	KBSearchMs   int64 `json:"kb_search_ms"`
	PriceFetchMs int64 `json:"price_fetch_ms"`
	TotalMs      int64 `json:"total_ms"`
}

// AgentResponse is the full per-request envelope. It is built once, returned
// and discarded; nothing about it survives the request.
type AgentResponse struct {
	QueryID        string            `json:"queryId"`
	OriginalQuery  string            `json:"originalQuery"`
	ClassifiedAs   classify.Category `json:"classifiedAs"`
	Results        BranchResults     `json:"results"`
	ExecutedAt     Timings           `json:"executedAt"`
	AgentReasoning string            `json:"agentReasoning"`
}
