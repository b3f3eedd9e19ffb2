// Package session ties the graphics pipeline of one remote session together:
// decoder, surface manager, shared frame store and telemetry.
//
// Philosophy: "the session survives bad frames". A decode or conversion
// failure drops the offending update, counts it, and keeps the channel
// alive; only structural errors (unknown surface, out-of-bounds update)
// are surfaced to the protocol layer, which decides whether to tear down.
package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/visiona/deskpipe/decode"
	"github.com/visiona/deskpipe/framestore"
	"github.com/visiona/deskpipe/input"
	"github.com/visiona/deskpipe/stats"
	"github.com/visiona/deskpipe/surface"
)

// Graphics is the per-session graphics state. One protocol worker goroutine
// drives it; the frame store and stats are safe for concurrent readers.
type Graphics struct {
	id       string
	decoder  decode.Decoder
	surfaces *surface.Manager
	store    *framestore.Store
	stats    *stats.Session

	width  int
	height int
}

// NewGraphics registers a session-scoped slot in the shared frame store and
// wires the decoder to it. The session id is generated here and used as the
// frame store key.
func NewGraphics(store *framestore.Store, dec decode.Decoder, width, height int) (*Graphics, error) {
	id := uuid.NewString()

	if err := store.Init(id, width, height); err != nil {
		return nil, fmt.Errorf("session: frame store init: %w", err)
	}

	g := &Graphics{
		id:       id,
		decoder:  dec,
		surfaces: surface.NewManager(),
		store:    store,
		stats:    stats.NewSession(id),
		width:    width,
		height:   height,
	}
	g.stats.SetPhase("connected")

	slog.Info("session: graphics ready",
		"session_id", id,
		"width", width,
		"height", height,
		"backend", dec.Name(),
	)
	return g, nil
}

// ID returns the session identifier used as the frame store key.
func (g *Graphics) ID() string { return g.id }

// Stats exposes the session counters for the telemetry loop.
func (g *Graphics) Stats() *stats.Session { return g.stats }

// CreateSurface allocates a virtual surface.
func (g *Graphics) CreateSurface(id uint16, width, height int) error {
	return g.surfaces.Create(id, width, height)
}

// DeleteSurface removes a virtual surface.
func (g *Graphics) DeleteSurface(id uint16) error {
	return g.surfaces.Delete(id)
}

// MapSurfaceToOutput gives a surface an on-screen origin; mapped surfaces
// are propagated into the frame store after each update.
func (g *Graphics) MapSurfaceToOutput(id uint16, x, y int) error {
	return g.surfaces.MapToOutput(id, x, y)
}

// SurfaceBits decodes an H.264 update and blits every produced frame into
// the destination rectangle of the target surface, then propagates mapped
// surfaces into the frame store.
//
// Decode failures are recovered: counted, logged, and the session stays
// usable. A frame that does not fit the destination rectangle is a protocol
// violation and is returned as an error.
func (g *Graphics) SurfaceBits(surfaceID uint16, destLeft, destTop, destWidth, destHeight int, h264 []byte) error {
	g.stats.AddPDUReceived()
	g.stats.AddBytesReceived(uint64(len(h264)))

	frames, err := g.decoder.Decode(h264)
	if err != nil {
		for _, f := range frames {
			g.decoder.Release(f)
		}
		g.stats.AddRecoveredError()
		g.stats.SetLastError(err.Error())
		slog.Warn("session: decode failed, frame dropped",
			"session_id", g.id,
			"surface_id", surfaceID,
			"error", err,
		)
		return nil
	}

	for i, f := range frames {
		blitErr := g.surfaces.Blit(surfaceID, f.Data, f.Width, destLeft, destTop, destWidth, destHeight)
		g.decoder.Release(f)
		if blitErr != nil {
			for _, rest := range frames[i+1:] {
				g.decoder.Release(rest)
			}
			return fmt.Errorf("session: surface bits: %w", blitErr)
		}
		g.stats.AddFrameDecoded()
	}

	if len(frames) > 0 {
		return g.propagate()
	}
	return nil
}

// RawBitmap applies an uncompressed RGBA update directly to the session
// canvas, bypassing surfaces. rect addresses the same coordinates in the
// source framebuffer and the canvas.
func (g *Graphics) RawBitmap(pixels []byte, srcWidth int, rect framestore.Rect) error {
	g.stats.AddPDUReceived()
	g.stats.AddBytesReceived(uint64(len(pixels)))

	if err := g.store.UpdateRegion(g.id, pixels, srcWidth, rect); err != nil {
		return fmt.Errorf("session: raw bitmap: %w", err)
	}
	return nil
}

// propagate pushes every mapped surface into the shared frame store at its
// output origin. Surface rows copy straight into the canvas; this runs once
// per decoded frame, so it must not allocate. Surfaces that hang off the
// visible desktop are rejected by the store's bounds checks; that is a
// protocol violation, not a crash.
func (g *Graphics) propagate() error {
	for _, s := range g.surfaces.MappedSurfaces() {
		r := framestore.Rect{
			Left:   s.OriginX,
			Top:    s.OriginY,
			Right:  s.OriginX + s.Width - 1,
			Bottom: s.OriginY + s.Height - 1,
		}
		if err := g.store.UpdateRegionFrom(g.id, s.Data, s.Width, 0, 0, r); err != nil {
			return fmt.Errorf("session: propagate surface %d: %w", s.ID, err)
		}
	}
	return nil
}

// ResetGraphics discards all surfaces, keeping the desktop canvas.
func (g *Graphics) ResetGraphics() {
	g.surfaces.Reset()
}

// Reactivate resizes the desktop: the canvas is replaced with a zeroed one
// of the new geometry and all surfaces are discarded.
func (g *Graphics) Reactivate(width, height int) error {
	if err := g.store.Reinit(g.id, width, height); err != nil {
		return fmt.Errorf("session: reactivate: %w", err)
	}
	g.surfaces.Reset()
	g.width = width
	g.height = height
	g.stats.AddReactivation()

	slog.Info("session: reactivated",
		"session_id", g.id,
		"width", width,
		"height", height,
	)
	return nil
}

// SendInput translates a UI action and returns the serialized fast-path
// events ready for the wire, counting them as sent traffic.
func (g *Graphics) SendInput(a input.Action) [][]byte {
	events := input.Translate(a)
	out := make([][]byte, 0, len(events))
	for _, ev := range events {
		data := ev.Serialize()
		out = append(out, data)
		g.stats.AddInputEvent()
		g.stats.AddPDUSent()
		g.stats.AddBytesSent(uint64(len(data)))
	}
	return out
}

// Screenshot extracts an owned copy of the current desktop canvas.
func (g *Graphics) Screenshot() ([]byte, error) {
	return g.store.ExtractRegion(g.id, 0, 0, g.width, g.height)
}

// Close tears down the decoder and unregisters the frame store slot. Frames
// still buffered in the decoder are discarded.
func (g *Graphics) Close() error {
	g.stats.SetPhase("closed")
	g.store.Remove(g.id)

	for _, f := range g.decoder.Flush() {
		g.decoder.Release(f)
	}
	if err := g.decoder.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	slog.Info("session: closed", "session_id", g.id)
	return nil
}
