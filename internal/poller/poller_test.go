package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yaplingo/echo/internal/api"
)

// scriptedFetcher replays a fixed sequence of readiness outcomes.
type scriptedFetcher struct {
	mu      sync.Mutex
	outcome []error
	result  *api.Result
	calls   int

	active  atomic.Int32
	overlap atomic.Bool
}

func (f *scriptedFetcher) FetchResult(_ context.Context, _ string) (*api.Result, error) {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.calls < len(f.outcome) {
		err = f.outcome[f.calls]
	}
	f.calls++
	if err != nil {
		return nil, err
	}
	return f.result, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingEvictor struct {
	mu      sync.Mutex
	evicted []string
}

func (e *recordingEvictor) Evict(tid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evicted = append(e.evicted, tid)
}

func collect(t *testing.T, updates <-chan Update) []Update {
	t.Helper()
	var out []Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return out
			}
			out = append(out, update)
		case <-timeout:
			t.Fatal("poll sequence did not terminate")
		}
	}
}

func TestWatchReadyAfterNotReady(t *testing.T) {
	fetcher := &scriptedFetcher{
		outcome: []error{api.ErrNotReady, api.ErrNotReady, nil},
		result:  &api.Result{Feedback: api.Feedback{Text: "nice"}},
	}
	p := New(fetcher, nil, nil)
	p.interval = time.Millisecond

	handle := Handle{TranscriptID: "t1", Generation: 1}
	updates := collect(t, p.Watch(context.Background(), handle))

	require.Len(t, updates, 2)
	require.Equal(t, StatePending, updates[0].State)
	require.Equal(t, StateReady, updates[1].State)
	require.Equal(t, "nice", updates[1].Result.Feedback.Text)
	require.Equal(t, handle, updates[1].Handle)
	require.Equal(t, 3, fetcher.callCount())
	require.False(t, fetcher.overlap.Load(), "queries must never overlap")
}

func TestWatchPendingEmittedOnce(t *testing.T) {
	fetcher := &scriptedFetcher{
		outcome: []error{api.ErrNotReady, api.ErrNotReady, api.ErrNotReady, nil},
		result:  &api.Result{},
	}
	p := New(fetcher, nil, nil)
	p.interval = time.Millisecond

	updates := collect(t, p.Watch(context.Background(), Handle{TranscriptID: "t1"}))
	require.Len(t, updates, 2)
	require.Equal(t, StatePending, updates[0].State)
	require.Equal(t, StateReady, updates[1].State)
}

func TestWatchAbsentEvictsCachedHandle(t *testing.T) {
	fetcher := &scriptedFetcher{outcome: []error{api.ErrNoResult}}
	evictor := &recordingEvictor{}
	p := New(fetcher, evictor, nil)
	p.interval = time.Millisecond

	updates := collect(t, p.Watch(context.Background(), Handle{TranscriptID: "t9"}))
	require.Len(t, updates, 1)
	require.Equal(t, StateAbsent, updates[0].State)
	require.Equal(t, []string{"t9"}, evictor.evicted)
}

func TestWatchImmediateReady(t *testing.T) {
	fetcher := &scriptedFetcher{result: &api.Result{}}
	p := New(fetcher, nil, nil)
	p.interval = time.Millisecond

	updates := collect(t, p.Watch(context.Background(), Handle{TranscriptID: "t1"}))
	require.Len(t, updates, 1)
	require.Equal(t, StateReady, updates[0].State)
}

func TestWatchFailureIsTerminal(t *testing.T) {
	boom := errors.New("server exploded")
	fetcher := &scriptedFetcher{outcome: []error{api.ErrNotReady, boom}}
	p := New(fetcher, nil, nil)
	p.interval = time.Millisecond

	updates := collect(t, p.Watch(context.Background(), Handle{TranscriptID: "t1"}))
	require.Len(t, updates, 2)
	require.Equal(t, StateFailed, updates[1].State)
	require.ErrorIs(t, updates[1].Err, boom)
}

func TestWatchCancellationStopsPolling(t *testing.T) {
	fetcher := &scriptedFetcher{
		outcome: []error{api.ErrNotReady, api.ErrNotReady, api.ErrNotReady, api.ErrNotReady},
	}
	p := New(fetcher, nil, nil)
	p.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	updates := p.Watch(ctx, Handle{TranscriptID: "t1"})

	// Drain the single Pending emission, then cancel mid-interval.
	select {
	case update := <-updates:
		require.Equal(t, StatePending, update.State)
	case <-time.After(time.Second):
		t.Fatal("no pending update")
	}
	cancel()

	select {
	case _, ok := <-updates:
		require.False(t, ok, "sequence must close without a terminal state")
	case <-time.After(time.Second):
		t.Fatal("sequence did not close after cancel")
	}

	calls := fetcher.callCount()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, calls, fetcher.callCount(), "cancelled watch must not poll again")
}

func TestWatchContextCancelledDuringFetchClosesQuietly(t *testing.T) {
	fetcher := &scriptedFetcher{outcome: []error{context.Canceled}}
	p := New(fetcher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	updates := collect(t, p.Watch(ctx, Handle{TranscriptID: "t1"}))
	require.Empty(t, updates)
}
