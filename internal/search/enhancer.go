package search

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/replify/kbengine/internal/index"
)

// Intent labels produced by the enhancer.
const (
	IntentPricing      = "pricing"
	IntentHours        = "hours"
	IntentBooking      = "booking"
	IntentCancellation = "cancellation"
	IntentGeneral      = "general"
)

// maxKeywords bounds the ordered keyword list. Earlier keywords carry more
// weight in re-ranking, so order follows the query.
const maxKeywords = 8

const enhancerCacheSize = 1024

// Enhanced is the canonical form of a user query.
type Enhanced struct {
	// Original is the raw query as received.
	Original string

	// Keywords are the query's own terms, ordered as written.
	Keywords []string

	// Expanded is Keywords plus synonym expansions, deduplicated. This is
	// what the keyword path searches with.
	Expanded []string

	// Rewritten is the expanded term list joined into a single query
	// string.
	Rewritten string

	// Categories are the inferred category hints, ordered by first match.
	Categories []string

	// Intent is the classified query intent.
	Intent string
}

// Enhancer rewrites raw queries into canonical, expanded form. Enhancement
// is deterministic for a fixed query and vertical, so results are cached
// in a small LRU.
type Enhancer struct {
	cache *lru.Cache[string, *Enhanced]
}

// NewEnhancer creates a query enhancer.
func NewEnhancer() *Enhancer {
	// Size is fixed; lru.New only fails on non-positive sizes.
	cache, _ := lru.New[string, *Enhanced](enhancerCacheSize)
	return &Enhancer{cache: cache}
}

// Enhance tokenizes the query, expands synonyms for the vertical, infers
// category hints, and classifies intent.
func (e *Enhancer) Enhance(query, vertical string) *Enhanced {
	cacheKey := vertical + "|" + strings.ToLower(strings.TrimSpace(query))
	if cached, ok := e.cache.Get(cacheKey); ok {
		return cached
	}

	tokens := index.Tokenize(query)

	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		keywords = append(keywords, t)
		if len(keywords) == maxKeywords {
			break
		}
	}

	expanded := make([]string, 0, len(keywords)*2)
	expanded = append(expanded, keywords...)
	for _, kw := range keywords {
		added := 0
		for _, syn := range synonymsFor(vertical, kw) {
			if added == maxExpansionsPerTerm {
				break
			}
			if _, dup := seen[syn]; dup {
				continue
			}
			seen[syn] = struct{}{}
			expanded = append(expanded, syn)
			added++
		}
	}

	catSeen := make(map[string]struct{})
	var categories []string
	for _, term := range expanded {
		for _, cat := range categoriesFor(vertical, term) {
			if _, dup := catSeen[cat]; dup {
				continue
			}
			catSeen[cat] = struct{}{}
			categories = append(categories, cat)
		}
	}

	result := &Enhanced{
		Original:   query,
		Keywords:   keywords,
		Expanded:   expanded,
		Rewritten:  strings.Join(expanded, " "),
		Categories: categories,
		Intent:     classifyIntent(categories),
	}
	e.cache.Add(cacheKey, result)
	return result
}

// classifyIntent picks the intent label from the first matching category.
func classifyIntent(categories []string) string {
	for _, cat := range categories {
		switch cat {
		case "pricing":
			return IntentPricing
		case "hours":
			return IntentHours
		case "booking":
			return IntentBooking
		case "policies":
			return IntentCancellation
		}
	}
	return IntentGeneral
}
