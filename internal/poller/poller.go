// Package poller drives readiness polling for submitted scoring jobs.
package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/yaplingo/echo/internal/api"
)

// DefaultInterval is the fixed wait between readiness queries.
const DefaultInterval = 1000 * time.Millisecond

// Handle identifies one outstanding (or completed) scoring request.
//
// At most one live handle exists per transcript; a newer generation for the
// same transcript supersedes all earlier ones.
type Handle struct {
	TranscriptID string
	Generation   uint64
}

// State is the observable phase of one readiness sequence.
type State string

const (
	StatePending State = "pending"
	StateReady   State = "ready"
	StateAbsent  State = "absent"
	StateFailed  State = "failed"
)

// Update is one emission of the lazy readiness sequence.
type Update struct {
	Handle Handle
	State  State
	Result *api.Result
	Err    error
}

// Fetcher issues a single readiness query for a transcript.
type Fetcher interface {
	FetchResult(ctx context.Context, transcriptID string) (*api.Result, error)
}

// Evictor drops any cached view of a handle whose result is gone server-side.
type Evictor interface {
	Evict(transcriptID string)
}

// Poller produces cancellable readiness sequences, one goroutine per watch.
//
// With no handle to watch the poller is inert; it owns no background work of
// its own.
type Poller struct {
	fetch    Fetcher
	evict    Evictor
	logger   *slog.Logger
	interval time.Duration
}

// New builds a poller over a readiness fetcher.
func New(fetch Fetcher, evict Evictor, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		fetch:    fetch,
		evict:    evict,
		logger:   logger,
		interval: DefaultInterval,
	}
}

// Watch starts one readiness sequence for a handle.
//
// The channel yields Pending once when the job is still computing, then ends
// with exactly one terminal update: Ready, Absent, or Failed. Queries are
// strictly sequential; a new query is issued only after the previous one
// resolves and the fixed interval elapses. Cancelling ctx stops the sequence
// at the next suspension boundary with no further network activity.
func (p *Poller) Watch(ctx context.Context, handle Handle) <-chan Update {
	updates := make(chan Update, 1)

	go func() {
		defer close(updates)

		pendingSent := false
		for {
			if ctx.Err() != nil {
				return
			}

			result, err := p.fetch.FetchResult(ctx, handle.TranscriptID)
			switch {
			case err == nil:
				p.send(ctx, updates, Update{Handle: handle, State: StateReady, Result: result})
				return
			case errors.Is(err, api.ErrNotReady):
				if !pendingSent {
					pendingSent = true
					p.send(ctx, updates, Update{Handle: handle, State: StatePending})
				}
			case errors.Is(err, api.ErrNoResult):
				if p.evict != nil {
					p.evict.Evict(handle.TranscriptID)
				}
				p.send(ctx, updates, Update{Handle: handle, State: StateAbsent})
				return
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return
			default:
				p.logger.Warn("result poll failed", "transcript", handle.TranscriptID, "error", err.Error())
				p.send(ctx, updates, Update{Handle: handle, State: StateFailed, Err: err})
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(p.interval):
			}
		}
	}()

	return updates
}

// send delivers an update unless the watch was cancelled meanwhile.
func (p *Poller) send(ctx context.Context, updates chan<- Update, update Update) {
	select {
	case updates <- update:
	case <-ctx.Done():
	}
}
