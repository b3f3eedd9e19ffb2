package config

import (
	"log/slog"
	"testing"

	"github.com/visiona/deskpipe/decode"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Accel != "auto" {
		t.Errorf("Accel = %q, want auto", cfg.Accel)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DESKPIPE_ACCEL", "Software")
	t.Setenv("DESKPIPE_POOL_MAX_PER_BUCKET", "4")
	t.Setenv("DESKPIPE_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Accel != "software" {
		t.Errorf("Accel = %q, want software", cfg.Accel)
	}
	if cfg.PoolMaxPerBucket != 4 {
		t.Errorf("PoolMaxPerBucket = %d, want 4", cfg.PoolMaxPerBucket)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Unset values keep their defaults.
	if cfg.FrameChannelDepth != 8 {
		t.Errorf("FrameChannelDepth = %d, want default 8", cfg.FrameChannelDepth)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad accel", "DESKPIPE_ACCEL", "quantum"},
		{"non-integer bucket", "DESKPIPE_POOL_MAX_PER_BUCKET", "many"},
		{"zero bucket", "DESKPIPE_POOL_MAX_PER_BUCKET", "0"},
		{"bad level", "DESKPIPE_LOG_LEVEL", "verbose"},
		{"oversized width", "DESKPIPE_SYNTHETIC_WIDTH", "10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestAccelMode(t *testing.T) {
	tests := []struct {
		accel string
		want  decode.Accel
	}{
		{"auto", decode.AccelAuto},
		{"hardware", decode.AccelHardware},
		{"software", decode.AccelSoftware},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Accel = tt.accel
		if got := cfg.AccelMode(); got != tt.want {
			t.Errorf("AccelMode(%q) = %v, want %v", tt.accel, got, tt.want)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	if got := cfg.SlogLevel(); got != slog.LevelWarn {
		t.Errorf("SlogLevel = %v, want warn", got)
	}
}
