// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audstream/audio"
)

// Writer encodes 16-bit PCM to WAV incrementally. The header sizes are
// patched on Close, which is why it needs an io.WriteSeeker.
type Writer struct {
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	written int64
}

func NewWriter(w io.WriteSeeker, format audio.Format) (*Writer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &Writer{
		enc: wav.NewEncoder(w, format.SampleRate, 16, format.Channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends interleaved samples.
func (w *Writer) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	w.written += int64(len(samples))
	return nil
}

// Samples counts interleaved samples written so far.
func (w *Writer) Samples() int64 { return w.written }

// Close finishes the file. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	return nil
}
