// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"fmt"

	"github.com/ik5/audstream/audio"
)

type nullCodec struct{ name string }

func (c nullCodec) Name() string                       { return c.name }
func (c nullCodec) NewDecoder() (audio.Decoder, error) { return nil, errors.New("not implemented") }

// ExampleRegistry_Lookup picks a codec by file extension.
func ExampleRegistry_Lookup() {
	registry := audio.NewRegistry()
	registry.Register("ogg", nullCodec{"vorbis"})
	registry.Register("wav", nullCodec{"wav"})

	for _, path := range []string{"music/theme.ogg", "sfx/HIT.WAV", "notes.txt"} {
		codec, err := registry.Lookup(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%s: %s\n", path, codec.Name())
	}
	// Output:
	// music/theme.ogg: vorbis
	// sfx/HIT.WAV: wav
	// notes.txt: unknown audio format
}

// ExampleFormat_Validate shows which layouts can be streamed.
func ExampleFormat_Validate() {
	for _, f := range []audio.Format{
		{Channels: 1, SampleRate: 22050},
		{Channels: 2, SampleRate: 44100},
		{Channels: 6, SampleRate: 48000},
	} {
		fmt.Printf("%d ch: %v\n", f.Channels, f.Validate())
	}
	// Output:
	// 1 ch: <nil>
	// 2 ch: <nil>
	// 6 ch: unsupported format: only mono and stereo are supported
}
