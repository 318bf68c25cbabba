// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/backends/memory"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/stream"
)

type ExportCmd struct {
	File   string `arg:"" help:"Audio file." type:"existingfile"`
	Output string `arg:"" help:"WAV file to write."`
	Loops  int    `help:"Number of times to play the file through." default:"1"`
}

func (c *ExportCmd) Run(cfg *Config) error {
	if c.Loops < 1 {
		return ErrBadLoops
	}

	a, err := audstream.OpenFile(c.File)
	if err != nil {
		return err
	}
	info, err := a.Info()
	if err != nil {
		return err
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	defer f.Close()

	backend := memory.New()
	s := a.OpenStream(backend, cfg.streamOptions()...)
	s.SetLooping(c.Loops > 1)
	defer func() {
		s.Close()
		<-s.Done()
		backend.RunPending()
	}()

	w, err := wav.NewWriter(f, info.Format)
	if err != nil {
		return err
	}

	start := time.Now()
	total := int64(c.Loops) * info.Samples
	if err := pump(context.Background(), s, backend, w, total, cfg.Poll); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	slog.Info("exported", "file", c.Output, "samples", w.Samples(), "took", time.Since(start))
	return f.Close()
}

// pump moves buffers from s into w until total samples were written or the
// stream ends.
func pump(ctx context.Context, s *stream.Stream, backend *memory.Backend, w *wav.Writer, total int64, poll time.Duration) error {
	s.Start()
	if err := s.JoinContext(ctx); err != nil {
		return err
	}

	for w.Samples() < total {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf, ok, err := s.NextBuffer()
		if err != nil {
			return err
		}
		if !ok {
			if !s.Playing() && s.Queued() == 0 {
				return nil
			}
			time.Sleep(poll)
			continue
		}

		samples, _, _ := backend.Data(buf)
		samples = samples[:min(int64(len(samples)), total-w.Samples())]
		if err := w.Write(samples); err != nil {
			return fmt.Errorf("writing wav: %w", err)
		}
		if err := s.ReturnBuffer(buf); err != nil {
			return err
		}
	}
	return nil
}
