package search

import (
	"sort"

	"github.com/replify/kbengine/internal/corpus"
)

// DefaultRRFConstant is the standard RRF smoothing parameter. k=60 is the
// value validated across retrieval systems.
const DefaultRRFConstant = 60

// Weight clamp bounds. A zero-weight list would be silently ignored and
// break the cross-method agreement property, so weights are forced into
// [0.1, 1.0] before fusion.
const (
	minListWeight = 0.1
	maxListWeight = 1.0
)

// RankedItem is one entry of a source list, already in rank order.
type RankedItem struct {
	Doc   *corpus.Document
	Score float64
}

// RankedList is a named, weighted source list for fusion.
type RankedList struct {
	Source string
	Weight float64
	Items  []RankedItem
}

// clampWeight forces a fusion weight into [0.1, 1.0].
func clampWeight(w float64) float64 {
	if w < minListWeight {
		return minListWeight
	}
	if w > maxListWeight {
		return maxListWeight
	}
	return w
}

// fuse combines the source lists with Reciprocal Rank Fusion:
//
//	rrf(id) = Σ weight(L) / (k + rank_in_L(id))
//
// A document absent from a list contributes zero from that list. Output is
// sorted descending by RRF score; ties keep first-appearance order across
// the lists, which makes fusion deterministic.
func fuse(lists []RankedList, k int) []*Result {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	type key struct {
		tenant string
		id     string
	}
	byDoc := make(map[key]*Result)
	var order []*Result

	for _, list := range lists {
		weight := clampWeight(list.Weight)
		for i, item := range list.Items {
			rank := i + 1
			dk := key{item.Doc.TenantID, item.Doc.ID}

			r, ok := byDoc[dk]
			if !ok {
				r = &Result{Document: item.Doc}
				byDoc[dk] = r
				order = append(order, r)
			}

			r.RRFScore += weight / float64(k+rank)
			r.Contributions = append(r.Contributions, Contribution{
				Source: list.Source,
				Rank:   rank,
				Score:  item.Score,
			})

			// Similarity is already normalized; keep it for re-ranking.
			// Raw keyword scores stay in Contributions only.
			if list.Source == SourceSemantic {
				r.SemanticScore = item.Score
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].RRFScore > order[j].RRFScore
	})
	return order
}

// normalizeScores rescales RRF scores into [0,1] with min-max scaling.
// When max == min (single result or all equal) every score becomes 1.0.
func normalizeScores(results []*Result) {
	if len(results) == 0 {
		return
	}

	minScore, maxScore := results[0].RRFScore, results[0].RRFScore
	for _, r := range results[1:] {
		if r.RRFScore < minScore {
			minScore = r.RRFScore
		}
		if r.RRFScore > maxScore {
			maxScore = r.RRFScore
		}
	}

	if maxScore == minScore {
		for _, r := range results {
			r.RRFScore = 1.0
		}
		return
	}

	span := maxScore - minScore
	for _, r := range results {
		r.RRFScore = (r.RRFScore - minScore) / span
	}
}
