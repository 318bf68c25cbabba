// SPDX-License-Identifier: EPL-2.0

package oto

import (
	"fmt"
	"io"
	"sync"

	ebiten "github.com/ebitengine/oto/v3"

	"github.com/ik5/audstream/audio"
)

// A process gets a single oto context, so every Output shares it.
var device struct {
	mu     sync.Mutex
	ctx    *ebiten.Context
	format audio.Format
}

// Output plays 16-bit little-endian PCM pulled from a reader on the system
// audio device.
type Output struct {
	player *ebiten.Player
	format audio.Format
}

// Open starts playing voice, typically a memory.Voice, in format. The first
// call opens the audio device; later calls must use the same format.
func Open(voice io.Reader, format audio.Format) (*Output, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	ctx, err := context(format)
	if err != nil {
		return nil, err
	}

	p := ctx.NewPlayer(voice)
	p.Play()

	return &Output{player: p, format: format}, nil
}

func context(format audio.Format) (*ebiten.Context, error) {
	device.mu.Lock()
	defer device.mu.Unlock()

	if device.format.Channels != 0 {
		if device.format != format {
			return nil, fmt.Errorf("%w: device is %+v, want %+v", ErrFormatMismatch, device.format, format)
		}
		return device.ctx, nil
	}

	ctx, ready, err := ebiten.NewContext(&ebiten.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       ebiten.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDevice, err)
	}
	<-ready

	device.ctx = ctx
	device.format = format
	return ctx, nil
}

func (o *Output) Format() audio.Format { return o.format }

// Playing reports whether the device is still pulling from the voice.
func (o *Output) Playing() bool {
	return o.player != nil && o.player.IsPlaying()
}

// Close stops pulling from the voice. The device stays open for later outputs.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}

	o.player.Pause()
	o.player = nil
	return nil
}
