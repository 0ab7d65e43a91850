// Package score reduces raw token alignments into word and session grades.
package score

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yaplingo/echo/internal/api"
)

// Band is the three-way quality classification used for token/word coloring.
type Band string

const (
	BandGood Band = "good" // score >= 0.75
	BandFair Band = "fair" // 0.50 <= score < 0.75
	BandPoor Band = "poor" // score < 0.50
)

// Message labels for the overall session-item grade, ordered high to low.
const (
	MessageExceptional = "exceptional"
	MessageStrong      = "strong"
	MessageModerate    = "moderate"
	MessageWeak        = "weak"
	MessageMinimal     = "minimal"
)

// Summary is the presentation-ready grade of one scored attempt.
type Summary struct {
	Percentage int
	Band       Band
	Message    string
}

// BandOf classifies one score in [0,1].
func BandOf(score float64) Band {
	switch {
	case score >= 0.75:
		return BandGood
	case score >= 0.50:
		return BandFair
	default:
		return BandPoor
	}
}

// WordScore is the arithmetic mean of a word's token alignment scores.
func WordScore(alignments []api.Alignment) float64 {
	if len(alignments) == 0 {
		return 0
	}
	scores := make([]float64, len(alignments))
	for i, alignment := range alignments {
		scores[i] = alignment.Score
	}
	return stat.Mean(scores, nil)
}

// Summarize grades one result.
//
// The overall percentage averages ALL alignment scores, not word means,
// scaled to 0-100 and rounded to the nearest integer. Returns false when the
// result carries no alignments to grade.
func Summarize(result *api.Result) (Summary, bool) {
	if result == nil || len(result.Pronunciation.Alignments) == 0 {
		return Summary{}, false
	}

	scores := make([]float64, len(result.Pronunciation.Alignments))
	for i, alignment := range result.Pronunciation.Alignments {
		scores[i] = alignment.Score
	}

	percentage := int(math.Round(stat.Mean(scores, nil) * 100))
	return Summary{
		Percentage: percentage,
		Band:       BandOf(float64(percentage) / 100),
		Message:    messageFor(percentage),
	}, true
}

// messageFor maps a 0-100 percentage onto the five ordered message bands.
func messageFor(percentage int) string {
	switch {
	case percentage >= 90:
		return MessageExceptional
	case percentage >= 75:
		return MessageStrong
	case percentage >= 50:
		return MessageModerate
	case percentage >= 25:
		return MessageWeak
	default:
		return MessageMinimal
	}
}
