// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/audstream/stream"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(Globals{Config: filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	want := Config{
		LogLevel: "warn",
		Buffered: stream.DefaultBufferedDuration,
		Buffers:  stream.DefaultBuffers,
		Poll:     stream.DefaultPollInterval,
	}
	if *cfg != want {
		t.Errorf("loadConfig() = %+v, want %+v", *cfg, want)
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "audstream.yaml", "loglevel: debug\nbuffered: 2s\nbuffers: 16\npoll: 10ms\n")

	cfg, err := loadConfig(Globals{Config: path})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Buffered != 2*time.Second || cfg.Buffers != 16 || cfg.Poll != 10*time.Millisecond {
		t.Errorf("loadConfig() = %+v", *cfg)
	}
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "audstream.toml", "loglevel = \"debug\"\nlogfile = \"a.log\"\n")

	cfg, err := loadConfig(Globals{Config: path, LogLevel: "error", LogFile: "b.log"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LogLevel != "error" || cfg.LogFile != "b.log" {
		t.Errorf("loadConfig() = %s/%s, want error/b.log", cfg.LogLevel, cfg.LogFile)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		body string
		want error
	}{
		{"zero buffers", "a.yaml", "buffers: 0\n", ErrBadConfig},
		{"negative poll", "b.yaml", "poll: -1s\n", ErrBadConfig},
		{"broken yaml", "c.yaml", "buffers: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadConfig(Globals{Config: writeConfig(t, tt.file, tt.body)})
			if err == nil {
				t.Fatal("loadConfig() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("loadConfig() error = %v, want %v", err, tt.want)
			}
		})
	}
}
