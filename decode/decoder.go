package decode

import (
	"fmt"
	"log/slog"
)

// Backend names reported by Name(), used in logs and telemetry.
const (
	// NameHardware identifies the VAAPI hardware-accelerated backend.
	NameHardware = "vaapi-h264"
	// NameSoftware identifies the libav software backend.
	NameSoftware = "avdec-h264"
)

// Frame is one decoded video frame in RGBA (4 bytes per pixel,
// len(Data) = Width*Height*4).
//
// Frames are ephemeral: produced by a Decode call, consumed immediately by a
// blit, and handed back to the owning decoder with Release so the backing
// buffer returns to the pool.
type Frame struct {
	Width  int
	Height int
	Data   []byte
}

// Decoder is the shared contract of the decode backends.
//
// Implementations must guarantee:
//   - Decode accepts one Annex-B NAL unit sequence and returns zero or more
//     frames; decoders may buffer internally for reordering, so the output
//     count need not match the input count 1:1
//   - Flush drains any internally buffered frames (default: none)
//   - Release is the only correct way to dispose of a returned Frame
//   - A Decoder and its buffer pool belong to a single worker goroutine;
//     methods are not required to be safe for concurrent use
type Decoder interface {
	// Decode feeds one Annex-B NAL byte sequence and returns the frames
	// that became available. A decode failure drops the frame and returns
	// an error; the decoder stays usable for subsequent calls.
	Decode(nal []byte) ([]Frame, error)

	// Flush returns any frames still buffered inside the backend. It is
	// not terminal: the decoder keeps accepting Decode calls afterwards.
	Flush() []Frame

	// Name identifies the backend for diagnostics and telemetry.
	Name() string

	// Release returns a frame's backing buffer to the decoder's pool.
	Release(f Frame)

	// Close tears down the backend. An in-flight Decode is allowed to
	// complete first; Close is not preemptive.
	Close() error
}

// Accel selects the decode backend.
type Accel int

const (
	// AccelAuto tries the hardware backend and falls back to software
	// on initialization failure (logged, not surfaced).
	AccelAuto Accel = iota
	// AccelHardware forces the VAAPI backend; initialization failure is
	// returned to the caller.
	AccelHardware
	// AccelSoftware forces the libav backend; initialization failure is
	// returned to the caller.
	AccelSoftware
)

// String returns a human-readable name for the acceleration mode.
func (a Accel) String() string {
	switch a {
	case AccelAuto:
		return "auto"
	case AccelHardware:
		return "hardware"
	case AccelSoftware:
		return "software"
	default:
		return "unknown"
	}
}

// Config contains decoder construction parameters.
type Config struct {
	// Accel selects the backend (default: AccelAuto).
	Accel Accel
	// PoolMaxPerBucket bounds each size class of the decoder's private
	// buffer pool (default: bufpool.DefaultMaxPerBucket).
	PoolMaxPerBucket int
	// ChannelDepth is the decoded-frame buffer between the GStreamer
	// callback and Decode (default: 8).
	ChannelDepth int
}

// Backend constructors are package variables so the selection policy can be
// exercised without a GStreamer installation.
var (
	newHardwareBackend = func(cfg Config) (Decoder, error) {
		return newGstDecoder(cfg, true)
	}
	newSoftwareBackend = func(cfg Config) (Decoder, error) {
		return newGstDecoder(cfg, false)
	}
)

// New constructs a Decoder according to the configured acceleration mode.
//
// In forced modes an initialization failure is surfaced directly: a caller
// that asked for a specific backend has made a capability decision and must
// be told when it cannot be honored. In automatic mode a hardware failure is
// logged as a warning and the software backend is substituted.
func New(cfg Config) (Decoder, error) {
	switch cfg.Accel {
	case AccelHardware:
		d, err := newHardwareBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("decode: hardware backend unavailable: %w", err)
		}
		return d, nil

	case AccelSoftware:
		d, err := newSoftwareBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("decode: software backend unavailable: %w", err)
		}
		return d, nil

	case AccelAuto:
		d, err := newHardwareBackend(cfg)
		if err == nil {
			slog.Info("decode: using hardware backend", "backend", d.Name())
			return d, nil
		}
		slog.Warn("decode: hardware backend unavailable, falling back to software",
			"error", err,
		)
		d, err = newSoftwareBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("decode: software fallback unavailable: %w", err)
		}
		return d, nil

	default:
		return nil, fmt.Errorf("decode: invalid acceleration mode: %d", int(cfg.Accel))
	}
}
