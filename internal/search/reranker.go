package search

import (
	"sort"
	"strings"
	"time"

	"github.com/replify/kbengine/internal/config"
	"github.com/replify/kbengine/internal/corpus"
	"github.com/replify/kbengine/internal/index"
)

// Recency boost tiers by document age.
const (
	recencyBoostWeek    = 0.10
	recencyBoostMonth   = 0.05
	recencyBoostQuarter = 0.02
)

// Category boost tiers.
const (
	categoryBoostPreferred = 0.15
	categoryBoostInferred  = 0.10
)

// Reranker combines semantic, keyword, recency, and category signals into
// one final score per result. Pure and synchronous: no I/O.
type Reranker struct {
	cfg config.RerankConfig
	now func() time.Time
}

// NewReranker creates a re-ranker with the given weights. now may be nil
// (defaults to time.Now); tests inject a fixed clock.
func NewReranker(cfg config.RerankConfig, now func() time.Time) *Reranker {
	if now == nil {
		now = time.Now
	}
	return &Reranker{cfg: cfg, now: now}
}

// Rerank computes the final score for every result and re-sorts descending.
// The sort is stable, so fusion order decides ties.
func (r *Reranker) Rerank(results []*Result, keywords []string, inferredCategories, preferredCategories []string) {
	now := r.now()
	for _, res := range results {
		res.KeywordScore = keywordOverlap(keywords, res.Document)
		res.RecencyBoost = recencyBoost(res.Document.UpdatedAt, now)
		res.CategoryBoost = categoryBoost(res.Document.Category, inferredCategories, preferredCategories)

		res.FinalScore = r.cfg.SemanticWeight*res.SemanticScore +
			r.cfg.KeywordWeight*res.KeywordScore +
			r.cfg.RecencyWeight*res.RecencyBoost +
			r.cfg.CategoryWeight*res.CategoryBoost
		res.ContextSufficient = res.FinalScore >= r.cfg.SufficientScore
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
}

// keywordOverlap scores how many of the query keywords appear in the
// document, with linear decay so earlier keywords weigh more:
//
//	Σ max(0, 1 - i*0.1) * [keyword_i present] / numKeywords
func keywordOverlap(keywords []string, doc *corpus.Document) float64 {
	if len(keywords) == 0 {
		return 0
	}

	terms := make(map[string]struct{})
	for _, t := range index.Tokenize(doc.Text()) {
		terms[t] = struct{}{}
	}

	var sum float64
	for i, kw := range keywords {
		weight := 1 - float64(i)*0.1
		if weight <= 0 {
			break
		}
		if _, ok := terms[kw]; ok {
			sum += weight
		}
	}
	return sum / float64(len(keywords))
}

// recencyBoost returns the age-tier bonus. Zero timestamps get no boost.
func recencyBoost(updatedAt, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 0
	}
	age := now.Sub(updatedAt)
	switch {
	case age <= 7*24*time.Hour:
		return recencyBoostWeek
	case age <= 30*24*time.Hour:
		return recencyBoostMonth
	case age <= 90*24*time.Hour:
		return recencyBoostQuarter
	default:
		return 0
	}
}

// categoryBoost rewards documents whose category the caller prefers, or
// that matches an inferred category hint.
func categoryBoost(category string, inferred, preferred []string) float64 {
	if category == "" {
		return 0
	}
	cat := strings.ToLower(category)

	for _, p := range preferred {
		if strings.ToLower(p) == cat {
			return categoryBoostPreferred
		}
	}
	for _, inf := range inferred {
		if strings.ToLower(inf) == cat {
			return categoryBoostInferred
		}
	}
	return 0
}
