package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replify/kbengine/internal/config"
	"github.com/replify/kbengine/internal/corpus"
)

var fixedNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func newTestReranker() *Reranker {
	return NewReranker(config.Default().Rerank, func() time.Time { return fixedNow })
}

func TestKeywordOverlap_LinearDecay(t *testing.T) {
	doc := &corpus.Document{Title: "Precios", Content: "lista de precios y horarios"}

	// First keyword present (weight 1.0), second absent, third present (weight 0.8).
	score := keywordOverlap([]string{"precios", "cancelacion", "horarios"}, doc)
	assert.InDelta(t, (1.0+0.8)/3.0, score, 1e-9)
}

func TestKeywordOverlap_NoKeywords(t *testing.T) {
	doc := &corpus.Document{Content: "algo"}
	assert.Zero(t, keywordOverlap(nil, doc))
}

func TestKeywordOverlap_AccentInsensitive(t *testing.T) {
	doc := &corpus.Document{Content: "atención los sábados"}
	score := keywordOverlap([]string{"sabados", "atencion"}, doc)
	assert.InDelta(t, (1.0+0.9)/2.0, score, 1e-9)
}

func TestRecencyBoost_Tiers(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"three days", 3 * 24 * time.Hour, 0.10},
		{"exactly a week", 7 * 24 * time.Hour, 0.10},
		{"two weeks", 14 * 24 * time.Hour, 0.05},
		{"two months", 60 * 24 * time.Hour, 0.02},
		{"half a year", 180 * 24 * time.Hour, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recencyBoost(fixedNow.Add(-tt.age), fixedNow))
		})
	}
}

func TestRecencyBoost_ZeroTimestamp(t *testing.T) {
	assert.Zero(t, recencyBoost(time.Time{}, fixedNow))
}

func TestCategoryBoost(t *testing.T) {
	tests := []struct {
		name      string
		category  string
		inferred  []string
		preferred []string
		want      float64
	}{
		{"preferred match", "pricing", []string{"pricing"}, []string{"pricing"}, 0.15},
		{"inferred only", "pricing", []string{"pricing"}, nil, 0.10},
		{"preferred beats inferred", "hours", []string{"hours"}, []string{"hours"}, 0.15},
		{"no match", "events", []string{"pricing"}, []string{"hours"}, 0.0},
		{"empty category", "", []string{"pricing"}, []string{"pricing"}, 0.0},
		{"case insensitive", "Pricing", []string{"pricing"}, nil, 0.10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categoryBoost(tt.category, tt.inferred, tt.preferred))
		})
	}
}

func TestRerank_WeightsAndThreshold(t *testing.T) {
	r := newTestReranker()

	doc := &corpus.Document{
		ID: "d1", SourceType: corpus.SourceFAQ,
		Title: "Precios", Content: "lista de precios",
		Category:  "pricing",
		UpdatedAt: fixedNow.Add(-2 * 24 * time.Hour),
	}
	results := []*Result{{Document: doc, SemanticScore: 0.9, RRFScore: 1.0}}

	r.Rerank(results, []string{"precios"}, []string{"pricing"}, []string{"pricing"})

	// 0.5*0.9 + 0.25*1.0 + 0.10*0.10 + 0.15*0.15
	want := 0.5*0.9 + 0.25*1.0 + 0.10*0.10 + 0.15*0.15
	assert.InDelta(t, want, results[0].FinalScore, 1e-9)
	assert.True(t, results[0].ContextSufficient)
	assert.Equal(t, 1.0, results[0].KeywordScore)
	assert.Equal(t, 0.10, results[0].RecencyBoost)
	assert.Equal(t, 0.15, results[0].CategoryBoost)
}

func TestRerank_ReordersByFinalScore(t *testing.T) {
	r := newTestReranker()

	weak := &corpus.Document{ID: "weak", SourceType: corpus.SourceArticle, Content: "irrelevante"}
	strong := &corpus.Document{ID: "strong", SourceType: corpus.SourceFAQ, Content: "precios actualizados"}

	results := []*Result{
		{Document: weak, SemanticScore: 0.3, RRFScore: 1.0},
		{Document: strong, SemanticScore: 0.8, RRFScore: 0.5},
	}
	r.Rerank(results, []string{"precios"}, nil, nil)

	require.Equal(t, "strong", results[0].Document.ID)
	assert.Greater(t, results[0].FinalScore, results[1].FinalScore)
}

func TestRerank_BelowThresholdNotSufficient(t *testing.T) {
	r := newTestReranker()

	doc := &corpus.Document{ID: "d1", SourceType: corpus.SourceArticle, Content: "otra cosa"}
	results := []*Result{{Document: doc, SemanticScore: 0.4}}

	r.Rerank(results, []string{"precios"}, nil, nil)
	assert.False(t, results[0].ContextSufficient)
}
