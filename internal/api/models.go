package api

import (
	"encoding/json"
	"fmt"
)

// User identifies the authenticated account.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transcript is one prompt the user is asked to pronounce.
type Transcript struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Audio    string `json:"audio"`
	Sequence string `json:"sequence"`
}

// TranscriptSession is the ordered prompt set for one practice run.
//
// Items order is significant and fixed for the session lifetime.
type TranscriptSession struct {
	ID       string       `json:"id"`
	Topic    string       `json:"topic"`
	Scenario string       `json:"scenario"`
	Items    []Transcript `json:"items"`
}

// Alignment scores one phonetic token against the spoken audio.
type Alignment struct {
	Token    string  `json:"token"`
	Score    float64 `json:"score"`
	Interval [2]int  `json:"interval"`
}

// WordAlignment groups the alignments belonging to one word.
type WordAlignment struct {
	Word       string
	Alignments []Alignment
}

// UnmarshalJSON decodes the wire pair form ["word", [alignment, ...]].
func (w *WordAlignment) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode word alignment pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("word alignment pair has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &w.Word); err != nil {
		return fmt.Errorf("decode word: %w", err)
	}
	if err := json.Unmarshal(pair[1], &w.Alignments); err != nil {
		return fmt.Errorf("decode alignments for %q: %w", w.Word, err)
	}
	return nil
}

// MarshalJSON encodes the pair form used by the scoring service.
func (w WordAlignment) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{w.Word, w.Alignments})
}

// Feedback is the model-generated commentary attached to a result.
type Feedback struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

// Pronunciation carries the per-token scoring detail of one attempt.
type Pronunciation struct {
	Phonemes   []string        `json:"phonemes"`
	Alignments []Alignment     `json:"alignments"`
	Words      []WordAlignment `json:"words"`
}

// Result is the scored outcome of one submission. Immutable once produced.
type Result struct {
	Feedback      Feedback      `json:"feedback"`
	Pronunciation Pronunciation `json:"pronunciation"`
}
