// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/formats/vorbis"
)

type InfoCmd struct {
	File string `arg:"" help:"Audio file." type:"existingfile"`

	out io.Writer `kong:"-"`
}

func (c *InfoCmd) Run(cfg *Config) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	a, err := audstream.OpenFile(c.File)
	if err != nil {
		return err
	}

	info, err := a.Info()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "file:        %s\n", c.File)
	fmt.Fprintf(out, "codec:       %s\n", a.Codec.Name())
	fmt.Fprintf(out, "channels:    %d\n", info.Format.Channels)
	fmt.Fprintf(out, "sample rate: %d Hz\n", info.Format.SampleRate)
	fmt.Fprintf(out, "samples:     %d\n", info.Samples)
	fmt.Fprintf(out, "duration:    %v\n", info.Duration())

	if a.Codec.Name() == "vorbis" {
		return oggDetails(out, c.File)
	}
	return nil
}

// oggDetails prints what the identification header and the last Ogg page
// claim without decoding. They can disagree with the decoded values for
// damaged files.
func oggDetails(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := vorbis.Probe(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "header:      %d ch, %d Hz\n", header.Channels, header.SampleRate)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	frames, err := vorbis.Length(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "granule:     %d frames\n", frames)
	return nil
}
