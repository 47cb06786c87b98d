package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/auditcore/cryptoagent/config"
	"github.com/auditcore/cryptoagent/internal/agent/classify"
)

// Similarity-weighting parameter passed to the knowledge base. It biases the
// engine between literal-term matching (low) and meaning-based matching (high).
const (
	alphaKeyword  = 0.3
	alphaHybrid   = 0.5
	alphaSemantic = 0.7
)

// KBClient issues hybrid-search queries against the knowledge-base provider's
// SQL-over-HTTP API and normalizes the tabular response.
type KBClient struct {
	cfg    config.KBConfig
	http   *HTTPClient
	logger *log.Logger
}

func NewKBClient(cfg config.KBConfig) *KBClient {
	return &KBClient{
		cfg:    cfg,
		http:   NewHTTPClient(cfg.Timeout),
		logger: log.New(log.Writer(), "[KB] ", log.LstdFlags),
	}
}

// kbRow matches one provider row. relevance and metadata may arrive either
// native or string-encoded, so both stay raw until normalization.
type kbRow struct {
	Content   string          `json:"content"`
	Relevance json.RawMessage `json:"relevance"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Search runs one knowledge-base query and returns normalized results plus
// elapsed wall-clock time. It never returns an error: transport or parse
// failures degrade to an empty result list, logged for operators.
func (k *KBClient) Search(ctx context.Context, query string, maxResults int) ([]KBResult, time.Duration) {
	start := time.Now()

	alpha := alphaForQuery(query)

	var resp struct {
		Data []kbRow `json:"data"`
	}
	body := map[string]string{"query": k.buildQuery(query, alpha, maxResults)}
	if err := k.http.DoJSON(ctx, "POST", k.cfg.Endpoint+"/api/sql", nil, body, &resp); err != nil {
		k.logger.Printf("kb search failed: %v", err)
		return nil, time.Since(start)
	}

	results := make([]KBResult, 0, len(resp.Data))
	for _, row := range resp.Data {
		results = append(results, normalizeRow(row, alpha))
	}
	return results, time.Since(start)
}

// alphaForQuery derives the similarity weighting from the query's own
// classification: price-leaning queries favor literal matching, combined
// queries sit in the middle, everything else leans semantic.
func alphaForQuery(query string) float64 {
	switch classify.Classify(query).Category {
	case classify.CategoryPriceOnly:
		return alphaKeyword
	case classify.CategoryCombined:
		return alphaHybrid
	default:
		return alphaSemantic
	}
}

// buildQuery templates the hybrid-search SELECT. The LIKE pattern keeps only
// the first three words of the query, matching them in order.
func (k *KBClient) buildQuery(query string, alpha float64, maxResults int) string {
	words := strings.Fields(query)
	if len(words) > 3 {
		words = words[:3]
	}
	pattern := "%" + strings.Join(words, "%") + "%"
	return fmt.Sprintf(`SELECT content, relevance, metadata FROM %s WHERE content LIKE '%s' AND hybrid_search = true AND hybrid_search_alpha = %g ORDER BY relevance DESC LIMIT %d;`,
		k.cfg.Table, pattern, alpha, maxResults)
}

func normalizeRow(row kbRow, alpha float64) KBResult {
	res := KBResult{
		Content:    row.Content,
		Relevance:  parseRelevance(row.Relevance),
		Metadata:   parseMetadata(row.Metadata),
		SearchMode: searchModeLabel(alpha),
	}
	res.Source = "Unknown Source"
	if s, ok := res.Metadata["_source"].(string); ok && s != "" {
		res.Source = s
	}
	return res
}

// parseRelevance accepts either a native number or a string-encoded one.
func parseRelevance(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

// parseMetadata accepts either a native object or a JSON-encoded string.
func parseMetadata(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
	}
	return nil
}

func searchModeLabel(alpha float64) string {
	switch alpha {
	case alphaSemantic:
		return "semantic"
	case alphaKeyword:
		return "keyword"
	default:
		return "hybrid"
	}
}

// RawRow is one row from the raw lookup endpoint: metadata plus relevance,
// no content column.
type RawRow struct {
	Metadata  map[string]interface{} `json:"metadata"`
	Relevance float64                `json:"relevance"`
}

// Lookup runs a plain semantic lookup for the raw search route. Unlike
// Search, provider failures propagate: the route reports them as errors
// instead of degrading.
func (k *KBClient) Lookup(ctx context.Context, question string, limit int) ([]RawRow, error) {
	var resp struct {
		Data []kbRow `json:"data"`
	}
	q := fmt.Sprintf(`SELECT metadata, relevance FROM %s WHERE content = '%s' LIMIT %d;`,
		k.cfg.Table, strings.ReplaceAll(question, "'", "''"), limit)
	if err := k.http.DoJSON(ctx, "POST", k.cfg.Endpoint+"/api/sql", nil, map[string]string{"query": q}, &resp); err != nil {
		return nil, err
	}
	rows := make([]RawRow, 0, len(resp.Data))
	for _, r := range resp.Data {
		rows = append(rows, RawRow{Metadata: parseMetadata(r.Metadata), Relevance: parseRelevance(r.Relevance)})
	}
	return rows, nil
}
