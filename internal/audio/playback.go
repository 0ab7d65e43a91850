package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Player renders WAV audio through Pulse, respecting the shared mode guard.
type Player struct {
	guard *ModeGuard
}

// NewPlayer binds a player to the device mode guard.
func NewPlayer(guard *ModeGuard) *Player {
	return &Player{guard: guard}
}

// PlayWAV decodes and plays one in-memory WAV artifact to completion.
//
// Fails immediately when the capture path holds the device; playback never
// waits out an active recording.
func (p *Player) PlayWAV(ctx context.Context, data []byte) error {
	if p.guard != nil {
		if err := p.guard.Acquire(ModePlayback); err != nil {
			return err
		}
		defer p.guard.Release(ModePlayback)
	}

	pcm, format, err := decodeWAV(data)
	if err != nil {
		return err
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("echo"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	opts := []pulse.PlaybackOption{
		pulse.PlaybackSampleRate(format.sampleRate),
		pulse.PlaybackMediaName("echo pronunciation"),
	}
	if format.channels == 2 {
		opts = append(opts, pulse.PlaybackStereo)
	} else {
		opts = append(opts, pulse.PlaybackMono)
	}

	stream, err := client.NewPlayback(pulse.NewReader(bytes.NewReader(pcm), pulseproto.FormatInt16LE), opts...)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stream.Stop()
		case <-done:
		}
	}()

	stream.Start()
	stream.Drain()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// wavFormat is the subset of header fields playback needs.
type wavFormat struct {
	sampleRate int
	channels   int
}

// decodeWAV extracts interleaved s16le PCM from a WAV container.
func decodeWAV(data []byte) ([]byte, wavFormat, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, wavFormat{}, errors.New("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, wavFormat{}, fmt.Errorf("decode WAV PCM: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, wavFormat{}, errors.New("WAV file missing format header")
	}

	shift := int(decoder.BitDepth) - 16
	if shift < 0 {
		return nil, wavFormat{}, fmt.Errorf("unsupported WAV bit depth %d", decoder.BitDepth)
	}

	pcm := make([]byte, 0, len(buf.Data)*2)
	var sample [2]byte
	for _, v := range buf.Data {
		binary.LittleEndian.PutUint16(sample[:], uint16(int16(v>>shift)))
		pcm = append(pcm, sample[0], sample[1])
	}

	return pcm, wavFormat{
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
	}, nil
}
