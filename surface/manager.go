// Package surface tracks the server-defined virtual drawing surfaces of a
// graphics channel: create, map-to-output, blit, delete, reset.
//
// Every write into a surface canvas is bounds-checked against both the
// source buffer and the canvas before any byte moves. A malformed or hostile
// peer must never be able to corrupt memory; offending operations are
// rejected whole, never clipped silently.
package surface

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrSurfaceNotFound is returned for operations on an id that is
	// absent or deleted.
	ErrSurfaceNotFound = errors.New("surface: surface not found")
	// ErrSurfaceExists is returned when creating an id that is already live.
	ErrSurfaceExists = errors.New("surface: surface already exists")
	// ErrOutOfBounds is returned when a blit would overrun the source
	// buffer or the surface canvas. Nothing is written.
	ErrOutOfBounds = errors.New("surface: operation out of bounds")
	// ErrBadGeometry is returned for non-positive surface dimensions.
	ErrBadGeometry = errors.New("surface: invalid geometry")
)

// Surface is one virtual drawing canvas. Size is fixed for its lifetime; an
// output origin appears once the server maps the surface on screen.
type Surface struct {
	ID     uint16
	Width  int
	Height int

	// Data is the RGBA canvas, len = Width*Height*4.
	Data []byte

	// Output origin, valid only when Mapped.
	Mapped  bool
	OriginX int
	OriginY int
}

// Manager owns the surfaces of one session's graphics channel.
//
// The per-id lifecycle is absent → created → mapped → deleted; a deleted id
// becomes reusable only through a fresh Create. The manager has a single
// writer (the session's protocol worker), but methods are guarded so the
// occasional diagnostic read from another goroutine stays safe.
type Manager struct {
	mu       sync.Mutex
	surfaces map[uint16]*Surface
}

// NewManager creates an empty surface manager.
func NewManager() *Manager {
	return &Manager{surfaces: make(map[uint16]*Surface)}
}

// Create allocates a zeroed canvas for a new surface id.
func (m *Manager) Create(id uint16, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadGeometry, width, height)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.surfaces[id]; ok {
		return fmt.Errorf("%w: id %d", ErrSurfaceExists, id)
	}
	m.surfaces[id] = &Surface{
		ID:     id,
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*4),
	}

	slog.Debug("surface: created",
		"surface_id", id,
		"width", width,
		"height", height,
	)
	return nil
}

// Delete removes a surface. The id becomes reusable via a fresh Create.
func (m *Manager) Delete(id uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.surfaces[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrSurfaceNotFound, id)
	}
	delete(m.surfaces, id)

	slog.Debug("surface: deleted", "surface_id", id)
	return nil
}

// MapToOutput records the on-screen origin of a created surface.
func (m *Manager) MapToOutput(id uint16, x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrSurfaceNotFound, id)
	}
	s.Mapped = true
	s.OriginX = x
	s.OriginY = y

	slog.Debug("surface: mapped to output",
		"surface_id", id,
		"origin_x", x,
		"origin_y", y,
	)
	return nil
}

// Lookup returns the surface for id, or ErrSurfaceNotFound.
//
// The returned pointer shares the live canvas; only the owning worker may
// write through it.
func (m *Manager) Lookup(id uint16) (*Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSurfaceNotFound, id)
	}
	return s, nil
}

// Mapped returns every surface that has an output origin, for the
// propagation pass into the shared frame store.
func (m *Manager) MappedSurfaces() []*Surface {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Surface
	for _, s := range m.surfaces {
		if s.Mapped {
			out = append(out, s)
		}
	}
	return out
}

// Blit copies a destination rectangle row by row from src into the surface
// canvas. src rows are srcWidth*4 bytes apart, destination rows start at
// (destLeft, destTop) and span destWidth pixels for destHeight rows.
//
// The whole operation is validated before any write: if any row would
// overrun the source buffer or the canvas, ErrOutOfBounds is returned and
// the canvas is left byte-for-byte unchanged. No partial writes.
func (m *Manager) Blit(id uint16, src []byte, srcWidth, destLeft, destTop, destWidth, destHeight int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrSurfaceNotFound, id)
	}

	if srcWidth <= 0 || destWidth <= 0 || destHeight <= 0 || destLeft < 0 || destTop < 0 {
		return fmt.Errorf("%w: blit %dx%d at (%d,%d) src width %d",
			ErrOutOfBounds, destWidth, destHeight, destLeft, destTop, srcWidth)
	}
	if destWidth > srcWidth {
		return fmt.Errorf("%w: destination row wider than source stride", ErrOutOfBounds)
	}
	if destLeft+destWidth > s.Width || destTop+destHeight > s.Height {
		return fmt.Errorf("%w: blit %dx%d at (%d,%d) exceeds surface %dx%d",
			ErrOutOfBounds, destWidth, destHeight, destLeft, destTop, s.Width, s.Height)
	}

	rowBytes := destWidth * 4
	// Last source row read: offset + length must fit in src.
	lastSrcEnd := (destHeight-1)*srcWidth*4 + rowBytes
	if lastSrcEnd > len(src) {
		return fmt.Errorf("%w: source buffer %d bytes, need %d", ErrOutOfBounds, len(src), lastSrcEnd)
	}
	// Last destination row write: redundant with the geometry check above,
	// but the canvas length is the real bound against corruption.
	lastDstEnd := ((destTop+destHeight-1)*s.Width+destLeft)*4 + rowBytes
	if lastDstEnd > len(s.Data) {
		return fmt.Errorf("%w: canvas %d bytes, need %d", ErrOutOfBounds, len(s.Data), lastDstEnd)
	}

	for row := 0; row < destHeight; row++ {
		srcOff := row * srcWidth * 4
		dstOff := ((destTop+row)*s.Width + destLeft) * 4
		copy(s.Data[dstOff:dstOff+rowBytes], src[srcOff:srcOff+rowBytes])
	}
	return nil
}

// Reset discards all surfaces. Invoked when the channel signals a full
// graphics reset, e.g. after a resolution change.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.surfaces)
	m.surfaces = make(map[uint16]*Surface)

	slog.Info("surface: reset", "surfaces_discarded", n)
}

// Count returns the number of live surfaces.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.surfaces)
}
