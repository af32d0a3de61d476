package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/replify/kbengine/internal/config"
	"github.com/replify/kbengine/internal/corpus"
	"github.com/replify/kbengine/internal/embed"
	"github.com/replify/kbengine/internal/index"
	"github.com/replify/kbengine/internal/telemetry"
	"github.com/replify/kbengine/internal/vector"
)

// Engine is the hybrid retrieval engine. Safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	manager  *index.Manager
	embedder embed.Generator
	enhancer *Enhancer
	reranker *Reranker
	logger   *slog.Logger
	metrics  *telemetry.Recorder
	now      func() time.Time
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(rec *telemetry.Recorder) EngineOption {
	return func(e *Engine) { e.metrics = rec }
}

// WithClock injects the time source used for recency boosts.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates the engine. The configuration is validated up front;
// invalid weights or constants fail here, never at query time.
func NewEngine(cfg *config.Config, manager *index.Manager, embedder embed.Generator, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		manager:  manager,
		embedder: embedder,
		enhancer: NewEnhancer(),
		logger:   slog.Default(),
		metrics:  telemetry.NewRecorder(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reranker = NewReranker(cfg.Rerank, e.now)
	return e, nil
}

// NewSnapshotBuilder returns the index.BuildFunc the manager uses to build
// per-tenant snapshots: load the corpus, build the keyword index, embed the
// documents into the vector index.
func NewSnapshotBuilder(provider corpus.Provider, embedder embed.Generator, cfg *config.Config) index.BuildFunc {
	return func(ctx context.Context, tenantID string) (*index.Snapshot, error) {
		docs, err := provider.LoadDocuments(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		vectorIdx, err := vector.Build(ctx, docs, embedder)
		if err != nil {
			return nil, err
		}

		return &index.Snapshot{
			TenantID: tenantID,
			Docs:     docs,
			Keyword:  index.BuildKeywordIndex(docs, cfg.BM25.K1, cfg.BM25.B),
			Semantic: vectorIdx,
			BuiltAt:  time.Now(),
		}, nil
	}
}

// Search runs a hybrid retrieval call for one tenant. It never returns an
// error: provider failures degrade to keyword-only results and corpus
// failures degrade to an empty response with ContextSufficient == false.
func (e *Engine) Search(ctx context.Context, tenantID, query string, opts Options) *Response {
	start := e.now()
	requestID := uuid.NewString()

	limit := opts.Limit
	if limit <= 0 {
		limit = e.cfg.Search.DefaultLimit
	}
	if limit > e.cfg.Search.MaxLimit {
		limit = e.cfg.Search.MaxLimit
	}
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = e.cfg.Search.SimilarityThreshold
	}
	semanticWeight := opts.SemanticWeight
	if semanticWeight <= 0 {
		semanticWeight = e.cfg.Search.SemanticWeight
	}
	semanticTimeout := opts.Timeout
	if semanticTimeout <= 0 {
		semanticTimeout = e.cfg.Search.SemanticTimeout
	}

	enhanced := e.enhancer.Enhance(query, opts.Vertical)

	snap, err := e.manager.Get(ctx, tenantID)
	if err != nil {
		e.logger.Warn("index_unavailable",
			slog.String("request_id", requestID),
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
		return e.finish(tenantID, query, start, requestID, nil, 0, 0, true)
	}

	var (
		semHits  []index.SemanticHit
		kwHits   []index.Hit
		degraded bool
	)

	g, gctx := errgroup.WithContext(ctx)

	if !opts.DisableHybrid && snap.Semantic != nil {
		g.Go(func() error {
			semCtx, cancel := context.WithTimeout(gctx, semanticTimeout)
			defer cancel()

			vec, err := e.embedder.Embed(semCtx, query)
			if err != nil {
				e.logger.Warn("semantic_path_degraded",
					slog.String("request_id", requestID),
					slog.String("tenant_id", tenantID),
					slog.String("error", err.Error()))
				degraded = true
				return nil
			}
			hits, err := snap.Semantic.Search(semCtx, vec, limit, threshold)
			if err != nil {
				e.logger.Warn("semantic_path_degraded",
					slog.String("request_id", requestID),
					slog.String("tenant_id", tenantID),
					slog.String("error", err.Error()))
				degraded = true
				return nil
			}
			semHits = hits
			return nil
		})
	}

	g.Go(func() error {
		kwHits = snap.Keyword.Search(enhanced.Expanded, limit)
		return nil
	})

	// Both paths recover internally; Wait never sees an error.
	_ = g.Wait()

	semList := RankedList{Source: SourceSemantic, Weight: semanticWeight, Items: make([]RankedItem, len(semHits))}
	for i, h := range semHits {
		semList.Items[i] = RankedItem{Doc: h.Doc, Score: h.Similarity}
	}
	kwList := RankedList{Source: SourceKeyword, Weight: 1 - semanticWeight, Items: make([]RankedItem, len(kwHits))}
	for i, h := range kwHits {
		kwList.Items[i] = RankedItem{Doc: h.Doc, Score: h.Score}
	}

	results := fuse([]RankedList{semList, kwList}, e.cfg.Search.RRFConstant)
	normalizeScores(results)

	if opts.DisableReranking {
		for _, r := range results {
			r.FinalScore = r.RRFScore
			r.ContextSufficient = r.FinalScore >= e.cfg.Rerank.SufficientScore
		}
	} else {
		e.reranker.Rerank(results, enhanced.Keywords, enhanced.Categories, opts.PreferredCategories)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	return e.finish(tenantID, query, start, requestID, results, len(semHits), len(kwHits), degraded)
}

// finish assembles the response, logs, and records telemetry.
func (e *Engine) finish(tenantID, query string, start time.Time, requestID string, results []*Result, semCount, kwCount int, degraded bool) *Response {
	if results == nil {
		results = []*Result{}
	}

	elapsed := e.now().Sub(start)
	suff := sufficiencyScore(results)

	resp := &Response{
		Results: results,
		Metrics: Metrics{
			RequestID:        requestID,
			SemanticCount:    semCount,
			KeywordCount:     kwCount,
			FusedCount:       len(results),
			SufficiencyScore: suff,
			Degraded:         degraded,
			ProcessingTime:   elapsed,
		},
	}

	e.logger.Info("query_complete",
		slog.String("request_id", requestID),
		slog.String("tenant_id", tenantID),
		slog.String("query", query),
		slog.Int("semantic_count", semCount),
		slog.Int("keyword_count", kwCount),
		slog.Int("result_count", len(results)),
		slog.Float64("sufficiency_score", suff),
		slog.Bool("degraded", degraded),
		slog.Duration("duration", elapsed))

	e.metrics.RecordQuery(tenantID, elapsed, len(results), degraded, suff)
	return resp
}

// RefreshIndex rebuilds a tenant's index immediately.
func (e *Engine) RefreshIndex(ctx context.Context, tenantID string) error {
	_, err := e.manager.ForceReload(ctx, tenantID)
	return err
}

// ClearIndex drops a tenant's cached index.
func (e *Engine) ClearIndex(tenantID string) {
	e.manager.Clear(tenantID)
}

// ClearAllIndexes drops every cached index.
func (e *Engine) ClearAllIndexes() {
	e.manager.ClearAll()
}

// IndexStats returns per-tenant index stats; ok is false when the tenant
// has no cached index.
func (e *Engine) IndexStats(tenantID string) (index.TenantStats, bool) {
	stats, ok := e.manager.Stats()[tenantID]
	return stats, ok
}

// AllIndexStats returns stats for every cached tenant index.
func (e *Engine) AllIndexStats() map[string]index.TenantStats {
	return e.manager.Stats()
}

// QueryStats returns aggregate query telemetry.
func (e *Engine) QueryStats() telemetry.QueryStats {
	return e.metrics.Overall()
}

// TenantQueryStats returns query telemetry for one tenant.
func (e *Engine) TenantQueryStats(tenantID string) telemetry.QueryStats {
	return e.metrics.Tenant(tenantID)
}
