// Package search implements hybrid retrieval: semantic and keyword paths
// fused with Reciprocal Rank Fusion, then re-ranked with metadata signals
// and scored for context sufficiency.
package search

import (
	"time"

	"github.com/replify/kbengine/internal/corpus"
)

// Source names for rank-list contributions.
const (
	SourceSemantic = "semantic"
	SourceKeyword  = "keyword"
)

// Options controls a single search call. Zero values fall back to the
// engine configuration.
type Options struct {
	// Limit is the maximum number of results (default: config default_limit).
	Limit int

	// SimilarityThreshold overrides the minimum semantic similarity.
	SimilarityThreshold float64

	// DisableHybrid turns off the semantic path (keyword-only search).
	DisableHybrid bool

	// DisableReranking skips the re-ranker; results keep normalized RRF
	// order and score.
	DisableReranking bool

	// PreferredCategories mark categories that get the full category boost.
	PreferredCategories []string

	// SemanticWeight overrides the fusion weight of the semantic list.
	SemanticWeight float64

	// Vertical selects the synonym and category tables ("dental",
	// "restaurant", or empty for generic).
	Vertical string

	// Timeout overrides the semantic path timeout.
	Timeout time.Duration
}

// Contribution records one source list's rank for a fused result.
type Contribution struct {
	Source string  `json:"source"`
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
}

// Result is one enriched search hit.
type Result struct {
	Document *corpus.Document `json:"document"`

	// RRFScore is the fused score, min-max normalized into [0,1].
	RRFScore float64 `json:"rrf_score"`

	// FinalScore is the re-ranked score combining all four signals.
	FinalScore float64 `json:"final_score"`

	SemanticScore float64 `json:"semantic_score"`
	KeywordScore  float64 `json:"keyword_score"`
	RecencyBoost  float64 `json:"recency_boost"`
	CategoryBoost float64 `json:"category_boost"`

	// ContextSufficient is true when FinalScore clears the configured
	// sufficiency threshold.
	ContextSufficient bool `json:"context_sufficient"`

	// Contributions lists the source ranks that produced RRFScore.
	Contributions []Contribution `json:"contributions"`
}

// Metrics describes one search call.
type Metrics struct {
	RequestID        string        `json:"request_id"`
	SemanticCount    int           `json:"semantic_count"`
	KeywordCount     int           `json:"keyword_count"`
	FusedCount       int           `json:"fused_count"`
	SufficiencyScore float64       `json:"sufficiency_score"`
	Degraded         bool          `json:"degraded"`
	ProcessingTime   time.Duration `json:"processing_time"`
}

// Response is the complete output of a search call.
type Response struct {
	Results []*Result `json:"results"`
	Metrics Metrics   `json:"metrics"`
}
