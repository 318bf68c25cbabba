// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/ik5/audstream/stream"
)

// Config is the merged result of defaults, the config file and flags.
type Config struct {
	LogLevel string
	LogFile  string
	Buffered time.Duration
	Buffers  int
	Poll     time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "warn")
	v.SetDefault("logfile", "")
	v.SetDefault("buffered", stream.DefaultBufferedDuration)
	v.SetDefault("buffers", stream.DefaultBuffers)
	v.SetDefault("poll", stream.DefaultPollInterval)
}

// loadConfig reads path if it exists. A missing file is not an error; flags
// set in g win over the file.
func loadConfig(g Globals) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if g.Config != "" {
		v.SetConfigFile(g.Config)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", g.Config, err)
			}
			slog.Debug("no config file found", "config", g.Config)
		}
	}

	if g.LogLevel != "" {
		v.Set("loglevel", g.LogLevel)
	}
	if g.LogFile != "" {
		v.Set("logfile", g.LogFile)
	}

	cfg := &Config{
		LogLevel: v.GetString("loglevel"),
		LogFile:  v.GetString("logfile"),
		Buffered: v.GetDuration("buffered"),
		Buffers:  v.GetInt("buffers"),
		Poll:     v.GetDuration("poll"),
	}
	if cfg.Buffers <= 0 || cfg.Buffered <= 0 || cfg.Poll <= 0 {
		return nil, fmt.Errorf("%w: buffered=%v buffers=%d poll=%v", ErrBadConfig, cfg.Buffered, cfg.Buffers, cfg.Poll)
	}

	return cfg, nil
}

func (c *Config) streamOptions() []stream.Option {
	return []stream.Option{
		stream.WithBufferedDuration(c.Buffered),
		stream.WithBuffers(c.Buffers),
		stream.WithPollInterval(c.Poll),
	}
}
