// Package transcript shapes prompt and result text for presentation.
package transcript

import (
	"strings"

	"github.com/yaplingo/echo/internal/api"
	"github.com/yaplingo/echo/internal/score"
)

// FormatPhonetic renders a slash-delimited phonetic sequence for display.
func FormatPhonetic(sequence string) string {
	return strings.ReplaceAll(sequence, "/", "")
}

// WordView is one word of a scored attempt with its quality band.
type WordView struct {
	Word string
	Band score.Band
}

// TokenView is one phonetic token of a scored attempt with its quality band.
type TokenView struct {
	Token string
	Band  score.Band
	Last  bool // last token of its word
}

// Words grades each word of a result by the mean of its token scores.
func Words(result *api.Result) []WordView {
	if result == nil {
		return nil
	}
	views := make([]WordView, 0, len(result.Pronunciation.Words))
	for _, word := range result.Pronunciation.Words {
		views = append(views, WordView{
			Word: word.Word,
			Band: score.BandOf(score.WordScore(word.Alignments)),
		})
	}
	return views
}

// Tokens flattens a result's word alignments into banded phonetic tokens.
func Tokens(result *api.Result) []TokenView {
	if result == nil {
		return nil
	}
	var views []TokenView
	for _, word := range result.Pronunciation.Words {
		for i, alignment := range word.Alignments {
			views = append(views, TokenView{
				Token: alignment.Token,
				Band:  score.BandOf(alignment.Score),
				Last:  i == len(word.Alignments)-1,
			})
		}
	}
	return views
}
