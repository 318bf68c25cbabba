// SPDX-License-Identifier: EPL-2.0

// Command audstream inspects, exports and plays audio files through the
// streaming engine.
package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/ik5/audstream/internal/logging"
)

// version is set via ldflags at build time.
var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config   string           `help:"Config file (yaml, toml or json)." type:"path" default:"audstream.yaml"`
	LogLevel string           `help:"Log level: none, error, warn, info or debug."`
	LogFile  string           `help:"Write JSON logs to this file instead of stderr." type:"path"`
	Version  kong.VersionFlag `help:"Show version information."`
}

type CLI struct {
	Globals

	Info   InfoCmd   `cmd:"" help:"Print the format and duration of a file."`
	Export ExportCmd `cmd:"" help:"Stream a file into a 16-bit WAV file."`
	Play   PlayCmd   `cmd:"" help:"Play a file on the default audio device."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("audstream"),
		kong.Description("Stream compressed audio into playback buffers."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(cli.Globals)
	ctx.FatalIfErrorf(err)

	logFile, err := logging.Configure(cfg.LogLevel, cfg.LogFile)
	ctx.FatalIfErrorf(err)
	if logFile != nil {
		defer logFile.Close()
	}
	slog.Debug("configuration loaded", "buffered", cfg.Buffered, "buffers", cfg.Buffers, "poll", cfg.Poll)

	err = ctx.Run(cfg)
	if err != nil {
		slog.Error("command failed", "command", ctx.Command(), "err", err)
	}
	ctx.FatalIfErrorf(err)
}
