package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/auditcore/cryptoagent/config"
	"github.com/auditcore/cryptoagent/internal/agent/classify"
	"github.com/auditcore/cryptoagent/internal/agent/telemetry"
)

var orchestratorTracer trace.Tracer = otel.Tracer("cryptoagent/internal/agent/orchestrator")

// ErrEmptyQuery is returned when the caller supplied no query text. The
// handler maps it to a 400.
var ErrEmptyQuery = errors.New("query is required")

const defaultMaxResults = 5

// KBSearcher is the knowledge-base branch seen by the orchestrator.
type KBSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]KBResult, time.Duration)
}

// PriceFetcher is the price branch seen by the orchestrator.
type PriceFetcher interface {
	Fetch(ctx context.Context, projects []string) ([]PriceResult, time.Duration)
}

// Orchestrator classifies incoming queries and fans out to the knowledge-base
// and price branches concurrently, joining both before assembling the
// response envelope. It holds no per-request state; every call owns its own
// classification and client calls.
type Orchestrator struct {
	cfg       *config.Config
	logger    *log.Logger
	telemetry *telemetry.Telemetry

	kb     KBSearcher
	prices PriceFetcher
}

// NewOrchestrator wires the orchestrator with concrete provider clients.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tele *telemetry.Telemetry) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		telemetry: tele,
		kb:        NewKBClient(cfg.Providers.KB),
		prices:    NewPriceClient(cfg.Providers.Price),
	}
}

// Handle processes one agent query end to end. It fails only on missing
// query text; provider failures are absorbed by the branch clients and show
// up as absent result arrays, never as an error.
func (o *Orchestrator) Handle(ctx context.Context, req QueryRequest) (AgentResponse, error) {
	start := time.Now()
	queryID := newQueryID()

	ctx, span := orchestratorTracer.Start(ctx, "agent.handle_query",
		trace.WithAttributes(attribute.String("query.id", queryID)))
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		span.SetStatus(codes.Error, "empty query")
		if o.telemetry != nil {
			o.telemetry.RecordQueryEvent(telemetry.QueryEvent{
				QueryID: queryID, Category: "invalid", Success: false, Error: ErrEmptyQuery.Error(),
			})
		}
		return AgentResponse{QueryID: queryID}, ErrEmptyQuery
	}

	classification := classify.Classify(req.Query)

	// caller override short-circuits the category for dispatch only; the
	// classification itself is still computed and reported
	mode := classification.Category
	if req.Context.SearchMode != "" {
		mode = classify.Category(req.Context.SearchMode)
	}
	maxResults := req.Context.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	runKB := mode == classify.CategoryKBOnly || mode == classify.CategoryCombined ||
		(mode == classify.CategoryAuto && classification.Category != classify.CategoryPriceOnly)
	runPrice := mode == classify.CategoryPriceOnly || mode == classify.CategoryCombined ||
		(mode == classify.CategoryAuto && len(classification.DetectedProjects) > 0)

	o.logger.Printf("(%s) query %q classified as %s (mode %s, projects %v)",
		queryID, req.Query, classification.Category, mode, classification.DetectedProjects)
	span.SetAttributes(
		attribute.String("query.category", string(classification.Category)),
		attribute.String("query.mode", string(mode)),
		attribute.Bool("dispatch.kb", runKB),
		attribute.Bool("dispatch.price", runPrice),
		attribute.Int("query.projects", len(classification.DetectedProjects)),
	)

	var (
		kbResults    []KBResult
		kbDuration   time.Duration
		priceResults []PriceResult
		priceDur     time.Duration
	)

	// Both branches run to completion before assembly: a join, not a race.
	// A slow or failing branch never blocks or cancels its sibling.
	var wg sync.WaitGroup
	if runKB {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kbCtx, kbSpan := orchestratorTracer.Start(ctx, "agent.kb_search")
			defer kbSpan.End()
			kbResults, kbDuration = o.kb.Search(kbCtx, req.Query, maxResults)
			kbSpan.SetAttributes(attribute.Int("kb.results", len(kbResults)))
		}()
	}
	if runPrice {
		wg.Add(1)
		go func() {
			defer wg.Done()
			priceCtx, priceSpan := orchestratorTracer.Start(ctx, "agent.price_fetch")
			defer priceSpan.End()
			priceResults, priceDur = o.prices.Fetch(priceCtx, classification.DetectedProjects)
			priceSpan.SetAttributes(attribute.Int("price.results", len(priceResults)))
		}()
	}
	wg.Wait()

	total := time.Since(start)
	resp := AgentResponse{
		QueryID:       queryID,
		OriginalQuery: req.Query,
		ClassifiedAs:  classification.Category,
		Results: BranchResults{
			KBResults:           kbResults,
			PriceResults:        priceResults,
			KBSearchComplete:    runKB,
			PriceSearchComplete: runPrice,
		},
		ExecutedAt: Timings{
			KBSearchMs:   kbDuration.Milliseconds(),
			PriceFetchMs: priceDur.Milliseconds(),
			TotalMs:      total.Milliseconds(),
		},
		AgentReasoning: classification.Reasoning,
	}

	if o.telemetry != nil {
		o.telemetry.RecordQueryEvent(telemetry.QueryEvent{
			QueryID:         queryID,
			Query:           req.Query,
			Category:        string(classification.Category),
			KBDispatched:    runKB,
			PriceDispatched: runPrice,
			KBResults:       len(kbResults),
			PriceResults:    len(priceResults),
			KBDuration:      kbDuration,
			PriceDuration:   priceDur,
			TotalDuration:   total,
			Success:         true,
		})
	}

	o.logger.Printf("(%s) done in %v: kb=%d price=%d", queryID, total, len(kbResults), len(priceResults))
	span.SetStatus(codes.Ok, "completed")
	return resp, nil
}

// newQueryID derives a process-unique id. Not globally durable; nothing is
// persisted under it.
func newQueryID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("q_%d_%s", time.Now().UnixMilli(), suffix)
}
