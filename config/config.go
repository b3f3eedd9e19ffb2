// Package config provides configuration for the graphics pipeline.
// Configuration can be loaded from environment variables or initialized with
// defaults.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/visiona/deskpipe/decode"
)

// Config holds the pipeline configuration.
type Config struct {
	// Accel selects the decode backend ("auto", "hardware", "software").
	// Default: "auto"
	Accel string

	// PoolMaxPerBucket bounds the number of retained buffers per pool
	// bucket. Default: 8
	PoolMaxPerBucket int

	// FrameChannelDepth is the depth of the decoded-frame channel between
	// the decode callback and the consumer. Default: 8
	FrameChannelDepth int

	// LogLevel specifies logging verbosity ("debug", "info", "warn",
	// "error"). Default: "info"
	LogLevel string

	// SyntheticWidth is the desktop width for the synthetic exerciser.
	// Default: 1280
	SyntheticWidth int

	// SyntheticHeight is the desktop height for the synthetic exerciser.
	// Default: 720
	SyntheticHeight int
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Accel:             "auto",
		PoolMaxPerBucket:  8,
		FrameChannelDepth: 8,
		LogLevel:          "info",
		SyntheticWidth:    1280,
		SyntheticHeight:   720,
	}
}

// Load loads configuration from environment variables, falling back to
// defaults for any values not specified.
//
// Environment variables:
//   - DESKPIPE_ACCEL: decode backend (auto, hardware, software)
//   - DESKPIPE_POOL_MAX_PER_BUCKET: retained buffers per pool bucket
//   - DESKPIPE_FRAME_CHANNEL_DEPTH: decoded-frame channel depth
//   - DESKPIPE_LOG_LEVEL: logging level (debug, info, warn, error)
//   - DESKPIPE_SYNTHETIC_WIDTH: synthetic desktop width
//   - DESKPIPE_SYNTHETIC_HEIGHT: synthetic desktop height
func Load() (*Config, error) {
	cfg := Default()

	if val := os.Getenv("DESKPIPE_ACCEL"); val != "" {
		cfg.Accel = strings.ToLower(strings.TrimSpace(val))
	}

	if val := os.Getenv("DESKPIPE_POOL_MAX_PER_BUCKET"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, errors.New("DESKPIPE_POOL_MAX_PER_BUCKET must be a valid integer")
		}
		cfg.PoolMaxPerBucket = n
	}

	if val := os.Getenv("DESKPIPE_FRAME_CHANNEL_DEPTH"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, errors.New("DESKPIPE_FRAME_CHANNEL_DEPTH must be a valid integer")
		}
		cfg.FrameChannelDepth = n
	}

	if val := os.Getenv("DESKPIPE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	if val := os.Getenv("DESKPIPE_SYNTHETIC_WIDTH"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, errors.New("DESKPIPE_SYNTHETIC_WIDTH must be a valid integer")
		}
		cfg.SyntheticWidth = n
	}

	if val := os.Getenv("DESKPIPE_SYNTHETIC_HEIGHT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, errors.New("DESKPIPE_SYNTHETIC_HEIGHT must be a valid integer")
		}
		cfg.SyntheticHeight = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	validAccel := map[string]bool{"auto": true, "hardware": true, "software": true}
	if !validAccel[c.Accel] {
		return errors.New("Accel must be 'auto', 'hardware', or 'software'")
	}

	if c.PoolMaxPerBucket <= 0 {
		return errors.New("PoolMaxPerBucket must be a positive integer")
	}

	if c.FrameChannelDepth <= 0 {
		return errors.New("FrameChannelDepth must be a positive integer")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LogLevel must be 'debug', 'info', 'warn', or 'error'")
	}

	if c.SyntheticWidth <= 0 || c.SyntheticWidth > 7680 {
		return errors.New("SyntheticWidth must be between 1 and 7680")
	}
	if c.SyntheticHeight <= 0 || c.SyntheticHeight > 4320 {
		return errors.New("SyntheticHeight must be between 1 and 4320")
	}

	return nil
}

// AccelMode maps the configured backend name to the decode mode constant.
func (c *Config) AccelMode() decode.Accel {
	switch c.Accel {
	case "hardware":
		return decode.AccelHardware
	case "software":
		return decode.AccelSoftware
	default:
		return decode.AccelAuto
	}
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
