// Package audio handles device selection, PCM capture, and playback for echo.
package audio

import (
	"fmt"
	"sync"
)

// Mode names one exclusive use of the device audio path.
type Mode string

const (
	ModeCapture  Mode = "capture"
	ModePlayback Mode = "playback"
)

// ModeGuard serializes capture and playback so they never contend for the
// audio device. The recorder is the sole holder for its whole
// idle -> recording -> idle cycle.
type ModeGuard struct {
	mu     sync.Mutex
	holder Mode
}

// Acquire claims the audio path for one mode.
//
// Fails when any mode currently holds the path; callers must release the
// other mode first rather than waiting.
func (g *ModeGuard) Acquire(mode Mode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holder != "" {
		return fmt.Errorf("audio device busy: held by %s", g.holder)
	}
	g.holder = mode
	return nil
}

// Release frees the audio path if held by mode; releasing another holder's
// claim is a no-op.
func (g *ModeGuard) Release(mode Mode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holder == mode {
		g.holder = ""
	}
}

// Holder reports the current claimant, empty when the path is free.
func (g *ModeGuard) Holder() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder
}
