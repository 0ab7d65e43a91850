// Package recorder owns the microphone capture lifecycle and validity gating.
package recorder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/yaplingo/echo/internal/audio"
	"github.com/yaplingo/echo/internal/config"
)

// ValidityThreshold is the minimum capture length that produces an artifact.
// Shorter captures are discarded silently.
const ValidityThreshold = 1500 * time.Millisecond

var (
	// ErrAlreadyRecording indicates Start was called while a capture is live.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording indicates Stop/Cancel was called with no live capture.
	ErrNotRecording = errors.New("no recording in progress")
)

// Recording is one validated capture artifact, owned by the caller once
// returned and discarded after submission.
type Recording struct {
	URI            string
	DurationMillis int64
}

// Capture is the live PCM source behind one recording attempt.
type Capture interface {
	Stop() error
	RawPCM() []byte
	Duration() time.Duration
}

// StartFunc opens a capture stream for the selected device.
type StartFunc func(context.Context, audio.Device) (Capture, error)

// SelectFunc resolves configured input preferences to a device.
type SelectFunc func(ctx context.Context, input, fallback string) (audio.Selection, error)

// Controller drives Idle -> Recording -> Idle capture cycles.
//
// It is the sole mutator of the shared device audio mode for the duration of
// each cycle.
type Controller struct {
	cfg    config.AudioConfig
	logger *slog.Logger
	guard  *audio.ModeGuard
	dir    string

	startCapture StartFunc
	selectDevice SelectFunc

	mu      sync.Mutex
	capture Capture
}

// NewController builds a production controller writing artifacts under dir.
func NewController(cfg config.AudioConfig, logger *slog.Logger, guard *audio.ModeGuard, dir string) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		cfg:    cfg,
		logger: logger,
		guard:  guard,
		dir:    dir,
		startCapture: func(ctx context.Context, device audio.Device) (Capture, error) {
			return audio.StartCapture(ctx, device)
		},
		selectDevice: audio.SelectDevice,
	}
}

// Recording reports whether a capture is currently live.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

// Start acquires the device audio mode and begins capturing.
//
// Illegal while a capture is already live. Microphone acquisition failure is
// fatal to the attempt and reported; it is never retried here.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return ErrAlreadyRecording
	}

	if c.guard != nil {
		if err := c.guard.Acquire(audio.ModeCapture); err != nil {
			return err
		}
	}

	selection, err := c.selectDevice(ctx, c.cfg.Input, c.cfg.Fallback)
	if err != nil {
		c.releaseGuard()
		return fmt.Errorf("select input device: %w", err)
	}
	if selection.Warning != "" {
		c.logger.Warn("input device fallback", "warning", selection.Warning)
	}

	capture, err := c.startCapture(ctx, selection.Device)
	if err != nil {
		c.releaseGuard()
		return fmt.Errorf("acquire microphone: %w", err)
	}

	c.capture = capture
	c.logger.Info("recording started", "device", selection.Device.ID)
	return nil
}

// Stop ends the capture and gates on validity.
//
// Captures shorter than ValidityThreshold are discarded: no artifact is
// produced, ok is false, and no error is raised. Valid captures are encoded
// to a WAV artifact and returned.
func (c *Controller) Stop(_ context.Context) (Recording, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	capture := c.capture
	if capture == nil {
		return Recording{}, false, ErrNotRecording
	}
	c.capture = nil

	_ = capture.Stop()
	c.releaseGuard()

	duration := capture.Duration()
	if duration < ValidityThreshold {
		c.logger.Info("capture discarded", "duration_ms", duration.Milliseconds())
		return Recording{}, false, nil
	}

	uri, err := c.writeArtifact(capture.RawPCM())
	if err != nil {
		return Recording{}, false, err
	}

	c.logger.Info("recording stopped", "duration_ms", duration.Milliseconds(), "uri", uri)
	return Recording{URI: uri, DurationMillis: duration.Milliseconds()}, true, nil
}

// Cancel ends the capture and discards it unconditionally.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	capture := c.capture
	if capture == nil {
		return ErrNotRecording
	}
	c.capture = nil

	_ = capture.Stop()
	c.releaseGuard()
	return nil
}

// releaseGuard frees the device audio mode; callers hold c.mu.
func (c *Controller) releaseGuard() {
	if c.guard != nil {
		c.guard.Release(audio.ModeCapture)
	}
}

// writeArtifact encodes raw s16le PCM into a uniquely named WAV file.
func (c *Controller) writeArtifact(pcm []byte) (string, error) {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure recording dir: %w", err)
	}

	path := filepath.Join(c.dir, uuid.NewString()+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create recording artifact: %w", err)
	}

	encoder := wav.NewEncoder(f, audio.CaptureSampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.CaptureSampleRate},
		SourceBitDepth: 16,
		Data:           pcmToSamples(pcm),
	}
	if err := encoder.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode WAV artifact: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("finalize WAV artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close WAV artifact: %w", err)
	}
	return path, nil
}

// pcmToSamples widens little-endian s16 bytes into encoder samples.
func pcmToSamples(pcm []byte) []int {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return samples
}
