package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replify/kbengine/internal/corpus"
)

func fdoc(id string) *corpus.Document {
	return &corpus.Document{ID: id, TenantID: "t1", SourceType: corpus.SourceArticle}
}

func TestFuse_CrossMethodAgreementWins(t *testing.T) {
	// "both" is rank 1 in both lists; "solo" is rank 1 in one list only.
	both := fdoc("both")
	solo := fdoc("solo")

	results := fuse([]RankedList{
		{Source: SourceSemantic, Weight: 0.5, Items: []RankedItem{{Doc: both, Score: 0.9}}},
		{Source: SourceKeyword, Weight: 0.5, Items: []RankedItem{{Doc: both, Score: 3.1}, {Doc: solo, Score: 2.0}}},
	}, DefaultRRFConstant)

	require.Len(t, results, 2)
	assert.Equal(t, "both", results[0].Document.ID)
	assert.Greater(t, results[0].RRFScore, results[1].RRFScore)
}

func TestFuse_SingleListKeepsRelativeOrder(t *testing.T) {
	results := fuse([]RankedList{
		{Source: SourceKeyword, Weight: 0.7, Items: []RankedItem{
			{Doc: fdoc("a"), Score: 5},
			{Doc: fdoc("b"), Score: 3},
			{Doc: fdoc("c"), Score: 1},
		}},
		{Source: SourceSemantic, Weight: 0.3},
	}, DefaultRRFConstant)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "b", results[1].Document.ID)
	assert.Equal(t, "c", results[2].Document.ID)
}

func TestFuse_AbsentListContributesZero(t *testing.T) {
	// Doc at rank 1 in a single list with weight w scores exactly w/(k+1).
	results := fuse([]RankedList{
		{Source: SourceKeyword, Weight: 0.5, Items: []RankedItem{{Doc: fdoc("a"), Score: 2}}},
	}, 60)

	require.Len(t, results, 1)
	assert.InDelta(t, 0.5/61.0, results[0].RRFScore, 1e-12)
}

func TestFuse_RetainsContributions(t *testing.T) {
	both := fdoc("both")
	results := fuse([]RankedList{
		{Source: SourceSemantic, Weight: 0.7, Items: []RankedItem{{Doc: both, Score: 0.8}}},
		{Source: SourceKeyword, Weight: 0.3, Items: []RankedItem{{Doc: fdoc("x"), Score: 4}, {Doc: both, Score: 2}}},
	}, DefaultRRFConstant)

	var found *Result
	for _, r := range results {
		if r.Document.ID == "both" {
			found = r
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Contributions, 2)
	assert.Equal(t, Contribution{Source: SourceSemantic, Rank: 1, Score: 0.8}, found.Contributions[0])
	assert.Equal(t, Contribution{Source: SourceKeyword, Rank: 2, Score: 2}, found.Contributions[1])
	assert.Equal(t, 0.8, found.SemanticScore)
}

func TestFuse_EmptyInput(t *testing.T) {
	results := fuse([]RankedList{
		{Source: SourceSemantic, Weight: 0.7},
		{Source: SourceKeyword, Weight: 0.3},
	}, DefaultRRFConstant)
	assert.Empty(t, results)
}

func TestClampWeight(t *testing.T) {
	assert.Equal(t, 0.1, clampWeight(0))
	assert.Equal(t, 0.1, clampWeight(-2))
	assert.Equal(t, 0.1, clampWeight(0.05))
	assert.Equal(t, 0.5, clampWeight(0.5))
	assert.Equal(t, 1.0, clampWeight(1.7))
}

func TestNormalizeScores_MinMax(t *testing.T) {
	results := []*Result{
		{Document: fdoc("a"), RRFScore: 0.03},
		{Document: fdoc("b"), RRFScore: 0.02},
		{Document: fdoc("c"), RRFScore: 0.01},
	}
	normalizeScores(results)

	assert.Equal(t, 1.0, results[0].RRFScore)
	assert.InDelta(t, 0.5, results[1].RRFScore, 1e-9)
	assert.Equal(t, 0.0, results[2].RRFScore)
}

func TestNormalizeScores_AllEqualBecomeOne(t *testing.T) {
	results := []*Result{
		{Document: fdoc("a"), RRFScore: 0.02},
		{Document: fdoc("b"), RRFScore: 0.02},
	}
	normalizeScores(results)
	assert.Equal(t, 1.0, results[0].RRFScore)
	assert.Equal(t, 1.0, results[1].RRFScore)

	single := []*Result{{Document: fdoc("c"), RRFScore: 0.007}}
	normalizeScores(single)
	assert.Equal(t, 1.0, single[0].RRFScore)
}

func TestNormalizeScores_Idempotent(t *testing.T) {
	results := []*Result{
		{Document: fdoc("a"), RRFScore: 0.9},
		{Document: fdoc("b"), RRFScore: 0.4},
		{Document: fdoc("c"), RRFScore: 0.1},
	}
	normalizeScores(results)
	first := []float64{results[0].RRFScore, results[1].RRFScore, results[2].RRFScore}

	normalizeScores(results)
	assert.Equal(t, first[0], results[0].RRFScore)
	assert.InDelta(t, first[1], results[1].RRFScore, 1e-9)
	assert.Equal(t, first[2], results[2].RRFScore)
}
