package session

import (
	"context"

	"github.com/yaplingo/echo/internal/api"
	"github.com/yaplingo/echo/internal/poller"
	"github.com/yaplingo/echo/internal/recorder"
	"github.com/yaplingo/echo/internal/score"
)

// Fetcher retrieves the ordered prompt set once per session.
type Fetcher interface {
	FetchTranscripts(ctx context.Context) (*api.TranscriptSession, error)
}

// Recorder abstracts the capture lifecycle needed by session orchestration.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (recorder.Recording, bool, error)
	Cancel() error
	Recording() bool
}

// Submitter uploads one captured recording for a transcript.
type Submitter interface {
	Submit(ctx context.Context, transcriptID string, audio []byte) error
}

// Watcher produces the cancellable readiness sequence for one handle.
type Watcher interface {
	Watch(ctx context.Context, handle poller.Handle) <-chan poller.Update
}

// Player renders an opaque audio reference for the user.
type Player interface {
	Play(ctx context.Context, reference string) error
}

// Presenter is the session-facing subset of presentation behavior.
type Presenter interface {
	ShowSession(ctx context.Context, session *api.TranscriptSession)
	ShowPrompt(ctx context.Context, item api.Transcript, index, total int, flipped bool)
	ShowAnalyzing(ctx context.Context)
	ShowScore(ctx context.Context, summary score.Summary, result *api.Result)
	ShowSpeakUp(ctx context.Context)
	ShowError(ctx context.Context, message string)
	ConfirmRelinquish(ctx context.Context) bool
}

// noopPresenter preserves session flow when no presenter is wired.
type noopPresenter struct{}

func (noopPresenter) ShowSession(context.Context, *api.TranscriptSession)        {}
func (noopPresenter) ShowPrompt(context.Context, api.Transcript, int, int, bool) {}
func (noopPresenter) ShowAnalyzing(context.Context)                              {}
func (noopPresenter) ShowScore(context.Context, score.Summary, *api.Result)      {}
func (noopPresenter) ShowSpeakUp(context.Context)                                {}
func (noopPresenter) ShowError(context.Context, string)                          {}
func (noopPresenter) ConfirmRelinquish(context.Context) bool                     { return true }

// noopPlayer ignores playback when no audio output is wired.
type noopPlayer struct{}

func (noopPlayer) Play(context.Context, string) error { return nil }
