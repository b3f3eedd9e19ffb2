// Package framestore holds the per-session composite framebuffers shared
// between each session's decode worker (sole writer) and the UI layer
// (reader).
//
// Locking discipline: one reader/writer lock guards the session map, and
// each slot carries its own reader/writer lock over the pixel canvas. A
// writer in session A therefore blocks only the map-lookup portion of a
// concurrent read in session B, never the pixel-row copy. Readers receive
// owned copies, so the UI never holds a shared lock while it serializes or
// renders.
package framestore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrSessionNotFound is returned for operations on an uninitialized
	// or removed session.
	ErrSessionNotFound = errors.New("framestore: session not found")
	// ErrOutOfBounds is returned when a region would overrun the source
	// buffer or the session canvas. Nothing is written.
	ErrOutOfBounds = errors.New("framestore: region out of bounds")
	// ErrBadGeometry is returned for non-positive canvas dimensions.
	ErrBadGeometry = errors.New("framestore: invalid geometry")
)

// Rect is a dirty rectangle in the protocol's inclusive convention:
// (Left, Top) through (Right, Bottom), both edges inside the region.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns the pixel width of the rectangle.
func (r Rect) Width() int { return r.Right - r.Left + 1 }

// Height returns the pixel height of the rectangle.
func (r Rect) Height() int { return r.Bottom - r.Top + 1 }

func (r Rect) valid() bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right >= r.Left && r.Bottom >= r.Top
}

// slot is one session's composite framebuffer.
type slot struct {
	mu     sync.RWMutex
	width  int
	height int
	data   []byte // RGBA, len = width*height*4
}

// Store maps session ids to frame slots.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// NewStore creates an empty frame store.
func NewStore() *Store {
	return &Store{slots: make(map[string]*slot)}
}

// Init allocates a zeroed canvas for a session. Re-initializing an existing
// session replaces its slot (see Reinit).
func (s *Store) Init(session string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadGeometry, width, height)
	}

	s.mu.Lock()
	s.slots[session] = &slot{
		width:  width,
		height: height,
		data:   make([]byte, width*height*4),
	}
	s.mu.Unlock()

	slog.Debug("framestore: slot initialized",
		"session", session,
		"width", width,
		"height", height,
	)
	return nil
}

// Reinit is a full re-allocation after a desktop resize or reactivation.
func (s *Store) Reinit(session string, width, height int) error {
	s.mu.RLock()
	_, ok := s.slots[session]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	return s.Init(session, width, height)
}

// Remove frees a session's slot at teardown. Removing an absent session is
// a no-op.
func (s *Store) Remove(session string) {
	s.mu.Lock()
	delete(s.slots, session)
	s.mu.Unlock()

	slog.Debug("framestore: slot removed", "session", session)
}

// lookup fetches the slot under the map read lock.
func (s *Store) lookup(session string) (*slot, error) {
	s.mu.RLock()
	sl, ok := s.slots[session]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	return sl, nil
}

// UpdateRegion copies the rows and columns inside r from src into the
// session canvas. src is a framebuffer whose rows are srcWidth*4 bytes
// apart; the rectangle addresses the same coordinates in both buffers.
//
// Only the changed rectangle moves: most protocol updates are small (a
// cursor, one window region), and copying just those rows is what keeps the
// pipeline interactive at high update rates.
func (s *Store) UpdateRegion(session string, src []byte, srcWidth int, r Rect) error {
	return s.UpdateRegionFrom(session, src, srcWidth, r.Left, r.Top, r)
}

// UpdateRegionFrom copies the destination rectangle r from a source
// framebuffer whose region of interest starts at (srcX, srcY) with rows
// srcWidth*4 bytes apart. It is the zero-allocation path for callers whose
// source buffer has its own origin, e.g. a surface canvas propagated to a
// different desktop position: rows move src→canvas directly, no
// intermediate view.
//
// Every row's source and destination offsets are bounded by the geometry
// checks below before any byte is written; an overrun rejects the whole
// operation.
func (s *Store) UpdateRegionFrom(session string, src []byte, srcWidth, srcX, srcY int, r Rect) error {
	sl, err := s.lookup(session)
	if err != nil {
		return err
	}

	if !r.valid() || srcWidth <= 0 || srcX < 0 || srcY < 0 {
		return fmt.Errorf("%w: rect (%d,%d)-(%d,%d) from (%d,%d) src width %d",
			ErrOutOfBounds, r.Left, r.Top, r.Right, r.Bottom, srcX, srcY, srcWidth)
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if r.Right >= sl.width || r.Bottom >= sl.height {
		return fmt.Errorf("%w: rect (%d,%d)-(%d,%d) exceeds canvas %dx%d",
			ErrOutOfBounds, r.Left, r.Top, r.Right, r.Bottom, sl.width, sl.height)
	}
	if srcX+r.Width() > srcWidth {
		return fmt.Errorf("%w: source row at x=%d width %d exceeds source width %d",
			ErrOutOfBounds, srcX, r.Width(), srcWidth)
	}

	rowBytes := r.Width() * 4
	lastSrcEnd := ((srcY+r.Height()-1)*srcWidth+srcX)*4 + rowBytes
	if lastSrcEnd > len(src) {
		return fmt.Errorf("%w: source buffer %d bytes, need %d", ErrOutOfBounds, len(src), lastSrcEnd)
	}

	for row := 0; row < r.Height(); row++ {
		srcOff := ((srcY+row)*srcWidth + srcX) * 4
		dstOff := ((r.Top+row)*sl.width + r.Left) * 4
		copy(sl.data[dstOff:dstOff+rowBytes], src[srcOff:srcOff+rowBytes])
	}
	return nil
}

// ExtractRegion returns an owned copy of the requested sub-rectangle
// (x, y, w, h) with row stride w*4, for the UI layer to consume without
// holding any shared lock.
func (s *Store) ExtractRegion(session string, x, y, w, h int) ([]byte, error) {
	sl, err := s.lookup(session)
	if err != nil {
		return nil, err
	}

	if x < 0 || y < 0 || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: region %dx%d at (%d,%d)", ErrOutOfBounds, w, h, x, y)
	}

	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if x+w > sl.width || y+h > sl.height {
		return nil, fmt.Errorf("%w: region %dx%d at (%d,%d) exceeds canvas %dx%d",
			ErrOutOfBounds, w, h, x, y, sl.width, sl.height)
	}

	out := make([]byte, w*h*4)
	rowBytes := w * 4
	for row := 0; row < h; row++ {
		srcOff := ((y+row)*sl.width + x) * 4
		copy(out[row*rowBytes:(row+1)*rowBytes], sl.data[srcOff:srcOff+rowBytes])
	}
	return out, nil
}

// Size returns a session's canvas dimensions.
func (s *Store) Size(session string) (width, height int, err error) {
	sl, err := s.lookup(session)
	if err != nil {
		return 0, 0, err
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.width, sl.height, nil
}
