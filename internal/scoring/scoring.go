// Package scoring contains the pure score formulas: text-length sub-scores,
// the community score derived from ratings, and the ai/expert/final blends.
// All outputs are rounded to two decimals; recomputation over an unchanged
// input set is bit-identical.
package scoring

import (
	"math"
	"strings"

	"github.com/edunova/platform/internal/domain"
)

// Alpha factors for the saturating logarithmic length curve.
const (
	AlphaClarity    = 12.0
	AlphaInnovation = 10.0
	AlphaImpact     = 14.0

	maxScore = 100.0

	feasibilityBase        = 95.0
	feasibilityLinePenalty = 5.0
	feasibilityTeamBonus   = 3.0
	feasibilityFloor       = 35.0
)

// Inputs is everything a scoring run reads. It is a snapshot of the current
// project text, team size, and full vote set.
type Inputs struct {
	Description       string
	Objectives        string
	ExpectedImpact    string
	RequiredResources string
	TeamSize          int
	Ratings           []int
}

// ScoreFromLength maps a word count onto a saturating logarithmic curve:
// min(100, log_1.5(words+1) * alpha). Empty text yields 20% of the maximum.
func ScoreFromLength(text string, alpha float64) float64 {
	if strings.TrimSpace(text) == "" {
		return Round2(maxScore * 0.2)
	}
	words := len(strings.Fields(text))
	score := math.Log(float64(words)+1) / math.Log(1.5) * alpha
	return Round2(math.Min(maxScore, score))
}

// Feasibility penalizes each line of required resources and rewards team size:
// clamp(95 - 5*lines + 3*teamSize, 35, 100).
func Feasibility(requiredResources string, teamSize int) float64 {
	lines := 0
	if requiredResources != "" {
		lines = len(strings.Split(strings.TrimSuffix(requiredResources, "\n"), "\n"))
	}
	score := feasibilityBase - feasibilityLinePenalty*float64(lines) + feasibilityTeamBonus*float64(teamSize)
	score = math.Max(feasibilityFloor, score)
	return Round2(math.Min(score, maxScore))
}

// AverageRating returns the plain mean of the ratings, or 0 for an empty set.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// CommunityScore maps the average rating onto [0,100]: round(avg/5*100, 2).
// An empty vote set scores 0.
func CommunityScore(ratings []int) float64 {
	avg := AverageRating(ratings)
	if avg == 0 {
		return 0
	}
	return Round2(avg / 5 * 100)
}

// Compute derives the full score set from a snapshot of the project.
//
// ai     = 0.35*feasibility + 0.30*innovation + 0.20*clarity + 0.15*impact
// expert = (feasibility + innovation + clarity) / 3
// final  = 0.40*community + 0.30*ai + 0.20*expert + 0.10*impact
func Compute(in Inputs) domain.Scores {
	clarity := ScoreFromLength(in.Description, AlphaClarity)
	innovation := ScoreFromLength(firstNonEmpty(in.Objectives, in.Description), AlphaInnovation)
	impact := ScoreFromLength(in.ExpectedImpact, AlphaImpact)
	feasibility := Feasibility(in.RequiredResources, in.TeamSize)

	community := CommunityScore(in.Ratings)
	aiScore := Round2(0.35*feasibility + 0.30*innovation + 0.20*clarity + 0.15*impact)
	expertScore := Round2((feasibility + innovation + clarity) / 3)
	finalScore := Round2(0.40*community + 0.30*aiScore + 0.20*expertScore + 0.10*impact)

	return domain.Scores{
		Feasibility:    feasibility,
		Innovation:     innovation,
		Impact:         impact,
		Clarity:        clarity,
		CommunityScore: community,
		ExpertScore:    expertScore,
		AIScore:        aiScore,
		FinalScore:     finalScore,
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
