package index

import (
	"math"
	"sort"

	"github.com/replify/kbengine/internal/corpus"
)

// BM25 parameter defaults.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Hit is a single keyword match.
type Hit struct {
	Doc   *corpus.Document
	Score float64
}

type postingList struct {
	docIDs []int // positions into docs, ascending
	freqs  []int
}

// KeywordIndex is an immutable in-memory BM25 index over one tenant's
// corpus. Built once, then read concurrently without locking; rebuilds
// produce a fresh index that the manager swaps in atomically.
type KeywordIndex struct {
	k1 float64
	b  float64

	docs     []*corpus.Document
	docLens  []int
	avgLen   float64
	postings map[string]*postingList
}

// BuildKeywordIndex tokenizes docs and constructs the inverted index.
// Document order is preserved and decides score ties.
func BuildKeywordIndex(docs []*corpus.Document, k1, b float64) *KeywordIndex {
	idx := &KeywordIndex{
		k1:       k1,
		b:        b,
		docs:     docs,
		docLens:  make([]int, len(docs)),
		postings: make(map[string]*postingList),
	}

	totalLen := 0
	for i, doc := range docs {
		tokens := Tokenize(doc.Text())
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)

		counts := make(map[string]int, len(tokens))
		for _, t := range tokens {
			counts[t]++
		}
		for term, freq := range counts {
			pl := idx.postings[term]
			if pl == nil {
				pl = &postingList{}
				idx.postings[term] = pl
			}
			pl.docIDs = append(pl.docIDs, i)
			pl.freqs = append(pl.freqs, freq)
		}
	}
	if len(docs) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(docs))
	}

	// Map iteration order is random; keep postings in document order.
	for _, pl := range idx.postings {
		sortPostings(pl)
	}

	return idx
}

func sortPostings(pl *postingList) {
	type pair struct{ id, freq int }
	pairs := make([]pair, len(pl.docIDs))
	for i := range pl.docIDs {
		pairs[i] = pair{pl.docIDs[i], pl.freqs[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })
	for i, p := range pairs {
		pl.docIDs[i] = p.id
		pl.freqs[i] = p.freq
	}
}

// Len returns the number of indexed documents.
func (idx *KeywordIndex) Len() int { return len(idx.docs) }

// Documents returns the indexed documents in corpus order.
func (idx *KeywordIndex) Documents() []*corpus.Document { return idx.docs }

// idf uses the BM25+ style formula, always positive:
// ln((N - df + 0.5) / (df + 0.5) + 1).
func (idx *KeywordIndex) idf(df int) float64 {
	n := float64(len(idx.docs))
	return math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

// Search scores the query tokens against the corpus and returns up to limit
// hits in descending score order. Documents with zero score are excluded.
// Ties keep corpus insertion order (stable sort).
func (idx *KeywordIndex) Search(queryTokens []string, limit int) []Hit {
	if len(queryTokens) == 0 || len(idx.docs) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, term := range queryTokens {
		pl, ok := idx.postings[term]
		if !ok {
			continue
		}
		termIDF := idx.idf(len(pl.docIDs))
		for i, docID := range pl.docIDs {
			tf := float64(pl.freqs[i])
			docLen := float64(idx.docLens[docID])
			denom := tf + idx.k1*(1-idx.b+idx.b*docLen/idx.avgLen)
			scores[docID] += termIDF * tf * (idx.k1 + 1) / denom
		}
	}

	type scored struct {
		docID int
		score float64
	}
	ranked := make([]scored, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 {
			continue
		}
		ranked = append(ranked, scored{docID, score})
	}

	// Sort by corpus position first so the stable score sort breaks ties
	// in insertion order, regardless of map iteration.
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].docID < ranked[j].docID })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hits := make([]Hit, len(ranked))
	for i, r := range ranked {
		hits[i] = Hit{Doc: idx.docs[r.docID], Score: r.score}
	}
	return hits
}
