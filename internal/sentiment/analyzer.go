// Package sentiment derives a polarity label, score, and aggregation weight
// from free-text vote comments. The analysis is deterministic, stateless, and
// never fails: an empty comment yields a neutral result.
package sentiment

import (
	"strings"

	"github.com/edunova/platform/internal/domain"
)

// Keyword sets for the lexical strategy. Matching is case-insensitive
// substring matching.
var (
	positiveWords = []string{"excellent", "great", "innovative", "impact", "strong", "promising", "success"}
	negativeWords = []string{"difficult", "weak", "risk", "problem", "limited", "poor"}
)

// Result is the output of one analysis run.
type Result struct {
	Label        domain.SentimentLabel
	Score        float64 // normalized to [0,100]
	Weight       float64 // aggregation weight, >= 0
	PositiveHits int
	NegativeHits int
}

const (
	rawScoreMin = -5
	rawScoreMax = 5
)

// Analyze runs the lexical polarity strategy: counts keyword occurrences,
// clamps the hit delta to [-5,5], normalizes to [0,100], and buckets the label
// through the same five-way thresholds as ClassifyCompound. The weight grows
// with positive hits: 1.0 + 0.1 per hit.
func Analyze(comment string) Result {
	lower := strings.ToLower(comment)

	positiveHits := countHits(lower, positiveWords)
	negativeHits := countHits(lower, negativeWords)

	raw := positiveHits - negativeHits
	if raw > rawScoreMax {
		raw = rawScoreMax
	}
	if raw < rawScoreMin {
		raw = rawScoreMin
	}

	label, _ := ClassifyCompound(float64(raw) / rawScoreMax)

	return Result{
		Label:        label,
		Score:        float64(raw+5) * 10,
		Weight:       1.0 + 0.1*float64(positiveHits),
		PositiveHits: positiveHits,
		NegativeHits: negativeHits,
	}
}

// ClassifyCompound buckets a compound polarity value in [-1,1] into the five
// sentiment labels and returns the confidence weight abs(compound).
// Thresholds: >=0.6 very_positive, >=0.2 positive, >-0.2 neutral,
// >-0.6 negative, else very_negative.
func ClassifyCompound(compound float64) (domain.SentimentLabel, float64) {
	weight := compound
	if weight < 0 {
		weight = -weight
	}

	switch {
	case compound >= 0.6:
		return domain.SentimentVeryPositive, weight
	case compound >= 0.2:
		return domain.SentimentPositive, weight
	case compound > -0.2:
		return domain.SentimentNeutral, weight
	case compound > -0.6:
		return domain.SentimentNegative, weight
	default:
		return domain.SentimentVeryNegative, weight
	}
}

func countHits(lowerText string, words []string) int {
	hits := 0
	for _, word := range words {
		if strings.Contains(lowerText, word) {
			hits++
		}
	}
	return hits
}
