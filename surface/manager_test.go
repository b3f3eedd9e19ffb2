package surface

import (
	"bytes"
	"errors"
	"testing"
)

func TestLifecycle(t *testing.T) {
	m := NewManager()

	if err := m.Create(1, 8, 8); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Create(1, 8, 8); !errors.Is(err, ErrSurfaceExists) {
		t.Errorf("duplicate Create error = %v, want ErrSurfaceExists", err)
	}

	s, err := m.Lookup(1)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if s.Mapped {
		t.Error("fresh surface reports Mapped")
	}
	if len(s.Data) != 8*8*4 {
		t.Errorf("canvas length = %d, want %d", len(s.Data), 8*8*4)
	}

	if err := m.MapToOutput(1, 100, 50); err != nil {
		t.Fatalf("MapToOutput: %v", err)
	}
	s, _ = m.Lookup(1)
	if !s.Mapped || s.OriginX != 100 || s.OriginY != 50 {
		t.Errorf("origin = (%d,%d) mapped=%v, want (100,50) mapped=true", s.OriginX, s.OriginY, s.Mapped)
	}

	if err := m.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Lookup(1); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Lookup after Delete error = %v, want ErrSurfaceNotFound", err)
	}

	// A deleted id is reusable via a fresh Create.
	if err := m.Create(1, 4, 4); err != nil {
		t.Errorf("Create after Delete: %v", err)
	}
}

func TestCreate_BadGeometry(t *testing.T) {
	m := NewManager()
	for _, dims := range [][2]int{{0, 4}, {4, 0}, {-1, 4}} {
		if err := m.Create(7, dims[0], dims[1]); !errors.Is(err, ErrBadGeometry) {
			t.Errorf("Create(%dx%d) error = %v, want ErrBadGeometry", dims[0], dims[1], err)
		}
	}
}

// fillPattern writes a deterministic byte pattern over a pixel buffer.
func fillPattern(buf []byte, seed byte) {
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

func TestBlit(t *testing.T) {
	m := NewManager()
	if err := m.Create(3, 4, 4); err != nil {
		t.Fatal(err)
	}

	// 2x2 source framebuffer (srcWidth 2), blitted at (1,1).
	src := make([]byte, 2*2*4)
	fillPattern(src, 0x10)

	if err := m.Blit(3, src, 2, 1, 1, 2, 2); err != nil {
		t.Fatalf("Blit: %v", err)
	}

	s, _ := m.Lookup(3)
	for row := 0; row < 2; row++ {
		srcRow := src[row*2*4 : row*2*4+2*4]
		dstOff := ((1+row)*4 + 1) * 4
		dstRow := s.Data[dstOff : dstOff+2*4]
		if !bytes.Equal(srcRow, dstRow) {
			t.Errorf("row %d: canvas = % x, want % x", row, dstRow, srcRow)
		}
	}

	// Pixels outside the destination rectangle stay zero.
	if s.Data[0] != 0 {
		t.Error("pixel outside blit rectangle was modified")
	}
}

func TestBlit_WideSourceStride(t *testing.T) {
	m := NewManager()
	if err := m.Create(9, 8, 8); err != nil {
		t.Fatal(err)
	}

	// Source framebuffer wider than the copied rectangle: rows are
	// srcWidth apart, only destWidth pixels per row move.
	src := make([]byte, 6*2*4)
	fillPattern(src, 0x40)

	if err := m.Blit(9, src, 6, 0, 0, 3, 2); err != nil {
		t.Fatalf("Blit: %v", err)
	}

	s, _ := m.Lookup(9)
	for row := 0; row < 2; row++ {
		want := src[row*6*4 : row*6*4+3*4]
		got := s.Data[row*8*4 : row*8*4+3*4]
		if !bytes.Equal(got, want) {
			t.Errorf("row %d: canvas = % x, want % x", row, got, want)
		}
	}
}

// Property: a blit that would exceed any bound fails whole and leaves the
// canvas byte-for-byte unchanged.
func TestBlit_RejectedWithoutPartialWrite(t *testing.T) {
	tests := []struct {
		name       string
		srcBytes   int
		srcWidth   int
		destLeft   int
		destTop    int
		destWidth  int
		destHeight int
	}{
		{"exceeds right edge", 4 * 4 * 4, 4, 3, 0, 2, 2},
		{"exceeds bottom edge", 4 * 4 * 4, 4, 0, 3, 2, 2},
		{"negative origin", 4 * 4 * 4, 4, -1, 0, 2, 2},
		{"source buffer too small", 4, 4, 0, 0, 4, 4},
		{"dest row wider than source stride", 2 * 2 * 4, 2, 0, 0, 3, 1},
		{"zero width", 4 * 4 * 4, 4, 0, 0, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			if err := m.Create(5, 4, 4); err != nil {
				t.Fatal(err)
			}
			s, _ := m.Lookup(5)
			fillPattern(s.Data, 0x77)
			before := append([]byte(nil), s.Data...)

			src := make([]byte, tt.srcBytes)
			err := m.Blit(5, src, tt.srcWidth, tt.destLeft, tt.destTop, tt.destWidth, tt.destHeight)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("Blit error = %v, want ErrOutOfBounds", err)
			}
			if !bytes.Equal(s.Data, before) {
				t.Error("rejected blit modified the canvas")
			}
		})
	}
}

func TestBlit_UnknownSurface(t *testing.T) {
	m := NewManager()
	err := m.Blit(42, make([]byte, 16), 2, 0, 0, 1, 1)
	if !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Blit error = %v, want ErrSurfaceNotFound", err)
	}
}

// Property: after Reset, every previously created id is gone.
func TestReset(t *testing.T) {
	m := NewManager()
	ids := []uint16{1, 2, 7, 30000}
	for _, id := range ids {
		if err := m.Create(id, 2, 2); err != nil {
			t.Fatal(err)
		}
	}

	m.Reset()

	if m.Count() != 0 {
		t.Errorf("Count after Reset = %d, want 0", m.Count())
	}
	for _, id := range ids {
		if _, err := m.Lookup(id); !errors.Is(err, ErrSurfaceNotFound) {
			t.Errorf("Lookup(%d) after Reset error = %v, want ErrSurfaceNotFound", id, err)
		}
	}
}

func TestMappedSurfaces(t *testing.T) {
	m := NewManager()
	m.Create(1, 2, 2)
	m.Create(2, 2, 2)
	m.MapToOutput(2, 10, 20)

	mapped := m.MappedSurfaces()
	if len(mapped) != 1 || mapped[0].ID != 2 {
		t.Errorf("MappedSurfaces = %v, want exactly surface 2", mapped)
	}
}
