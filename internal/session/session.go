// Package session drives one practice session from prompt fetch to completion.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/yaplingo/echo/internal/api"
	"github.com/yaplingo/echo/internal/fsm"
	"github.com/yaplingo/echo/internal/ipc"
	"github.com/yaplingo/echo/internal/poller"
	"github.com/yaplingo/echo/internal/score"
)

// ErrNoPrompts indicates the server returned an empty practice set.
var ErrNoPrompts = errors.New("practice session has no prompts")

// Attempt records one completed scoring for historical accounting.
type Attempt struct {
	TranscriptID string
	Summary      score.Summary
}

type command int

const (
	cmdRecord command = iota + 1
	cmdStop
	cmdFlip
	cmdSay
	cmdNext
	cmdQuit
)

type outcome int

const (
	outcomeAdvance outcome = iota
	outcomeQuit
	outcomeShutdown
)

// Options wires the collaborators for a session controller. Nil presenter and
// player fall back to no-ops; the rest are required.
type Options struct {
	Logger           *slog.Logger
	Fetcher          Fetcher
	Recorder         Recorder
	Submitter        Submitter
	Watcher          Watcher
	Player           Player
	Presenter        Presenter
	Cache            *ResultCache
	FeedbackAutoplay bool
	KeepRecordings   bool
}

// Controller owns all session state and mutates it from a single goroutine
// inside Run. IPC and stdin commands enter through Handle, which only
// validates and enqueues.
type Controller struct {
	logger           *slog.Logger
	fetch            Fetcher
	rec              Recorder
	submit           Submitter
	watch            Watcher
	player           Player
	present          Presenter
	cache            *ResultCache
	feedbackAutoplay bool
	keepRecordings   bool

	commands chan command

	mu         sync.RWMutex
	state      fsm.State
	index      int
	total      int
	generation uint64
	history    []Attempt
}

// NewController builds a session controller over the given collaborators.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	present := opts.Presenter
	if present == nil {
		present = noopPresenter{}
	}
	player := opts.Player
	if player == nil {
		player = noopPlayer{}
	}
	return &Controller{
		logger:           logger,
		fetch:            opts.Fetcher,
		rec:              opts.Recorder,
		submit:           opts.Submitter,
		watch:            opts.Watcher,
		player:           player,
		present:          present,
		cache:            opts.Cache,
		feedbackAutoplay: opts.FeedbackAutoplay,
		keepRecordings:   opts.KeepRecordings,
		commands:         make(chan command, 4),
		state:            fsm.StatePresenting,
	}
}

// State reports the current session phase.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// History returns the attempts scored so far, in completion order.
func (c *Controller) History() []Attempt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Attempt, len(c.history))
	copy(out, c.history)
	return out
}

// Handle validates an incoming control command against the current phase and
// enqueues it for the Run goroutine. Status is answered inline.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	state := c.State()

	var cmd command
	switch req.Command {
	case "status":
		c.mu.RLock()
		index, total := c.index, c.total
		c.mu.RUnlock()
		return ipc.Response{OK: true, State: string(state), Message: fmt.Sprintf("prompt %d/%d", index+1, total)}
	case "record":
		if state != fsm.StatePresenting {
			return ipc.Response{OK: false, State: string(state), Error: "cannot record now"}
		}
		cmd = cmdRecord
	case "stop":
		if state != fsm.StateRecording {
			return ipc.Response{OK: false, State: string(state), Error: "not recording"}
		}
		cmd = cmdStop
	case "flip":
		if state == fsm.StateRecording {
			return ipc.Response{OK: false, State: string(state), Error: "cannot flip while recording"}
		}
		cmd = cmdFlip
	case "say":
		if state == fsm.StateRecording {
			return ipc.Response{OK: false, State: string(state), Error: "cannot play while recording"}
		}
		cmd = cmdSay
	case "next":
		cmd = cmdNext
	case "quit":
		cmd = cmdQuit
	default:
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("unknown command %q", req.Command)}
	}

	select {
	case c.commands <- cmd:
		return ipc.Response{OK: true, State: string(state)}
	default:
		return ipc.Response{OK: false, State: string(state), Error: "session busy, try again"}
	}
}

// Run fetches the prompt set and works through it until completion, an early
// exit, or context cancellation.
func (c *Controller) Run(ctx context.Context) error {
	session, err := c.fetch.FetchTranscripts(ctx)
	if err != nil {
		c.present.ShowError(ctx, "could not load practice prompts")
		return fmt.Errorf("fetch transcripts: %w", err)
	}
	if len(session.Items) == 0 {
		return ErrNoPrompts
	}

	c.mu.Lock()
	c.total = len(session.Items)
	c.mu.Unlock()

	c.present.ShowSession(ctx, session)

	for i := range session.Items {
		c.mu.Lock()
		c.index = i
		c.state = fsm.StatePresenting
		c.mu.Unlock()

		switch c.runItem(ctx, session.Items[i], i) {
		case outcomeAdvance:
		case outcomeQuit:
			c.logger.Info("session relinquished", "completed", i, "total", len(session.Items))
			return nil
		case outcomeShutdown:
			return nil
		}
	}

	c.logger.Info("session completed", "total", len(session.Items))
	return nil
}

// runItem loops over one prompt until the user advances past it.
func (c *Controller) runItem(ctx context.Context, item api.Transcript, index int) outcome {
	flipped := false
	var scored *api.Result

	var attemptCancel context.CancelFunc
	var updates <-chan poller.Update
	teardown := func() {
		if attemptCancel != nil {
			attemptCancel()
			attemptCancel = nil
		}
		updates = nil
	}
	defer teardown()

	c.present.ShowPrompt(ctx, item, index, c.totalItems(), flipped)

	for {
		select {
		case <-ctx.Done():
			if c.rec.Recording() {
				_ = c.rec.Cancel()
			}
			return outcomeShutdown

		case cmd := <-c.commands:
			switch cmd {
			case cmdRecord:
				if !c.transition(fsm.EventRecord) {
					continue
				}
				if err := c.rec.Start(ctx); err != nil {
					c.failAndReset(ctx, fmt.Sprintf("microphone unavailable: %v", err))
				}

			case cmdStop:
				if c.State() != fsm.StateRecording {
					continue
				}
				recording, ok, err := c.rec.Stop(ctx)
				if err != nil {
					c.failAndReset(ctx, fmt.Sprintf("recording failed: %v", err))
					continue
				}
				if !ok {
					c.transition(fsm.EventDiscard)
					c.present.ShowPrompt(ctx, item, index, c.totalItems(), flipped)
					continue
				}
				c.transition(fsm.EventStop)

				handle, ch, cancel, err := c.submitRecording(ctx, item.ID, recording.URI)
				if err != nil {
					if errors.Is(err, api.ErrAuthExpired) {
						c.failAndReset(ctx, "session expired, log in again")
						continue
					}
					c.failAndReset(ctx, fmt.Sprintf("submission failed: %v", err))
					continue
				}
				teardown()
				attemptCancel = cancel
				updates = ch
				c.transition(fsm.EventSubmitted)
				c.present.ShowAnalyzing(ctx)
				c.logger.Info("recording submitted",
					"transcript", handle.TranscriptID,
					"generation", handle.Generation,
					"duration_ms", recording.DurationMillis)

			case cmdFlip:
				flipped = !flipped
				c.present.ShowPrompt(ctx, item, index, c.totalItems(), flipped)
				if scored != nil {
					if summary, ok := score.Summarize(scored); ok {
						c.present.ShowScore(ctx, summary, scored)
					}
				}

			case cmdSay:
				c.playAsync(ctx, item.Audio)

			case cmdNext:
				if c.State() != fsm.StateScored {
					if !c.present.ConfirmRelinquish(ctx) {
						continue
					}
				}
				if c.rec.Recording() {
					_ = c.rec.Cancel()
				}
				return outcomeAdvance

			case cmdQuit:
				if c.State() != fsm.StateScored {
					if !c.present.ConfirmRelinquish(ctx) {
						continue
					}
				}
				if c.rec.Recording() {
					_ = c.rec.Cancel()
				}
				return outcomeQuit
			}

		case update, open := <-updates:
			if !open {
				updates = nil
				continue
			}
			if update.Handle.Generation != c.currentGeneration() {
				c.logger.Debug("stale poll update dropped",
					"transcript", update.Handle.TranscriptID,
					"generation", update.Handle.Generation)
				continue
			}

			switch update.State {
			case poller.StatePending:
				// Already presenting the analyzing view; nothing to redraw.

			case poller.StateReady:
				summary, ok := score.Summarize(update.Result)
				if !ok {
					c.transition(fsm.EventNoResult)
					c.present.ShowSpeakUp(ctx)
					c.present.ShowPrompt(ctx, item, index, c.totalItems(), flipped)
					continue
				}
				c.transition(fsm.EventScored)
				scored = update.Result
				if c.cache != nil {
					c.cache.Put(item.ID, update.Result)
				}
				c.recordAttempt(Attempt{TranscriptID: item.ID, Summary: summary})
				c.present.ShowScore(ctx, summary, update.Result)
				if c.feedbackAutoplay && update.Result.Feedback.Audio != "" {
					c.playAsync(ctx, update.Result.Feedback.Audio)
				}

			case poller.StateAbsent:
				c.transition(fsm.EventNoResult)
				c.present.ShowSpeakUp(ctx)
				c.present.ShowPrompt(ctx, item, index, c.totalItems(), flipped)

			case poller.StateFailed:
				c.failAndReset(ctx, fmt.Sprintf("scoring failed: %v", update.Err))
			}
		}
	}
}

// submitRecording reads the capture artifact, uploads it, and starts a fresh
// readiness watch under a new generation. Any prior watch for this transcript
// is superseded by the bumped generation.
func (c *Controller) submitRecording(ctx context.Context, transcriptID, uri string) (poller.Handle, <-chan poller.Update, context.CancelFunc, error) {
	audio, err := os.ReadFile(uri)
	if err != nil {
		return poller.Handle{}, nil, nil, fmt.Errorf("read recording artifact: %w", err)
	}
	if !c.keepRecordings {
		_ = os.Remove(uri)
	}

	if err := c.submit.Submit(ctx, transcriptID, audio); err != nil {
		return poller.Handle{}, nil, nil, err
	}

	c.mu.Lock()
	c.generation++
	handle := poller.Handle{TranscriptID: transcriptID, Generation: c.generation}
	c.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	return handle, c.watch.Watch(watchCtx, handle), cancel, nil
}

// playAsync renders a reference without blocking session command handling.
func (c *Controller) playAsync(ctx context.Context, reference string) {
	if reference == "" {
		return
	}
	go func() {
		if err := c.player.Play(ctx, reference); err != nil {
			c.logger.Warn("playback failed", "error", err.Error())
		}
	}()
}

// transition applies an event, logging and ignoring illegal ones.
func (c *Controller) transition(event fsm.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.logger.Debug("transition ignored", "state", string(c.state), "event", string(event))
		return false
	}
	c.state = next
	return true
}

// failAndReset surfaces an attempt-scoped failure and returns to presenting.
func (c *Controller) failAndReset(ctx context.Context, message string) {
	c.logger.Error("attempt failed", "message", message)
	c.present.ShowError(ctx, message)
	c.transition(fsm.EventFail)
	c.transition(fsm.EventReset)
}

func (c *Controller) recordAttempt(attempt Attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, attempt)
}

func (c *Controller) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *Controller) totalItems() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}
