// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/backends/memory"
	"github.com/ik5/audstream/backends/oto"
	"github.com/ik5/audstream/player"
)

type PlayCmd struct {
	File  string  `arg:"" help:"Audio file." type:"existingfile"`
	Loop  bool    `help:"Start again at the end until interrupted."`
	Start float64 `help:"Start position in seconds." default:"0"`
}

func (c *PlayCmd) Run(cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := audstream.OpenFile(c.File)
	if err != nil {
		return err
	}

	backend := memory.New()
	voice := backend.NewVoice()
	s := a.OpenStream(backend, cfg.streamOptions()...)
	p := player.New(s, voice)
	p.SetLooping(c.Loop)

	defer func() {
		if err := p.Stop(); err != nil {
			slog.Warn("stopping player", "err", err)
		}
		<-s.Done()
		backend.RunPending()
	}()

	p.Play()
	if err := s.JoinContext(ctx); err != nil {
		return err
	}
	if c.Start > 0 {
		p.Seek(time.Duration(c.Start * float64(time.Second)))
	}

	out, err := oto.Open(voice, s.Format())
	if err != nil {
		return err
	}
	defer out.Close()

	fmt.Printf("playing %s (%d ch, %d Hz)\n", c.File, s.Channels(), s.SampleRate())
	return loop(ctx, p, backend, cfg.Poll)
}

// loop drives the player until it finishes or ctx is done.
func loop(ctx context.Context, p *player.Player, backend *memory.Backend, poll time.Duration) error {
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for !p.Finished() {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "elapsed", p.Elapsed())
			return nil
		case <-tick.C:
		}

		if err := p.Update(); err != nil {
			return err
		}
		backend.RunPending()
	}

	slog.Info("finished", "elapsed", p.Elapsed())
	return nil
}
