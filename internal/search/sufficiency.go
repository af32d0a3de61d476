package search

// Sufficiency thresholds for the decision rule.
const (
	highConfidenceScore   = 0.7
	sufficiencyFloor      = 0.4
	topResultScoreFloor   = 0.5
	sourceDiversityTarget = 3
)

// sufficiencyScore computes a single confidence value over the final
// ranked list:
//
//   - top result >= 0.7 contributes 0.4, otherwise 0.2
//   - source-type diversity in the top results contributes up to 0.3
//   - the mean final score of the top 3 contributes up to 0.3
//
// The sum is capped at 1. An empty list scores 0.
func sufficiencyScore(results []*Result) float64 {
	if len(results) == 0 {
		return 0
	}

	var score float64
	if results[0].FinalScore >= highConfidenceScore {
		score += 0.4
	} else {
		score += 0.2
	}

	top := results
	if len(top) > sourceDiversityTarget {
		top = top[:sourceDiversityTarget]
	}
	types := make(map[string]struct{}, len(top))
	for _, r := range top {
		types[string(r.Document.SourceType)] = struct{}{}
	}
	diversity := float64(len(types)) / sourceDiversityTarget
	if diversity > 1 {
		diversity = 1
	}
	score += diversity * 0.3

	var sum float64
	for _, r := range top {
		sum += r.FinalScore
	}
	score += (sum / float64(len(top))) * 0.3

	if score > 1 {
		score = 1
	}
	return score
}

// IsContextSufficient is the decision rule upstream callers use to choose
// between answering directly and escalating. Pure function over a search
// response.
func IsContextSufficient(resp *Response) bool {
	if resp == nil || len(resp.Results) == 0 {
		return false
	}
	if resp.Metrics.SufficiencyScore < sufficiencyFloor {
		return false
	}
	return resp.Results[0].FinalScore >= topResultScoreFloor
}
