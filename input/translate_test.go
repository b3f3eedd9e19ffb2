package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_MouseMove(t *testing.T) {
	events := Translate(MouseMove{X: 100, Y: 200})
	require.Len(t, events, 1)

	ev, ok := events[0].(PointerEvent)
	require.True(t, ok, "expected PointerEvent, got %T", events[0])
	assert.Equal(t, uint16(PtrFlagsMove), ev.Flags)
	assert.Equal(t, uint16(100), ev.X)
	assert.Equal(t, uint16(200), ev.Y)
}

func TestTranslate_StandardButtons(t *testing.T) {
	tests := []struct {
		name    string
		button  uint8
		pressed bool
		flags   uint16
	}{
		{"left press", 0, true, PtrFlagsDown | PtrFlagsButton1},
		{"left release", 0, false, PtrFlagsButton1},
		{"middle press", 1, true, PtrFlagsDown | PtrFlagsButton3},
		{"right press", 2, true, PtrFlagsDown | PtrFlagsButton2},
		{"right release", 2, false, PtrFlagsButton2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Translate(MouseButton{Button: tt.button, Pressed: tt.pressed, X: 10, Y: 20})
			require.Len(t, events, 1)

			ev, ok := events[0].(PointerEvent)
			require.True(t, ok, "expected PointerEvent, got %T", events[0])
			assert.Equal(t, tt.flags, ev.Flags)
			assert.Equal(t, uint16(10), ev.X)
			assert.Equal(t, uint16(20), ev.Y)
		})
	}
}

// Button 3 pressed yields exactly one extended-button event carrying the
// down flag and XBUTTON1; released yields the same event without the down
// flag.
func TestTranslate_ExtendedButtons(t *testing.T) {
	events := Translate(MouseButton{Button: 3, Pressed: true, X: 5, Y: 6})
	require.Len(t, events, 1)

	ev, ok := events[0].(PointerExEvent)
	require.True(t, ok, "expected PointerExEvent, got %T", events[0])
	assert.Equal(t, uint16(PtrXFlagsDown|PtrXFlagsButton1), ev.Flags)
	assert.Equal(t, uint16(5), ev.X)
	assert.Equal(t, uint16(6), ev.Y)

	events = Translate(MouseButton{Button: 3, Pressed: false, X: 5, Y: 6})
	require.Len(t, events, 1)
	ev, ok = events[0].(PointerExEvent)
	require.True(t, ok)
	assert.Equal(t, uint16(PtrXFlagsButton1), ev.Flags)

	events = Translate(MouseButton{Button: 4, Pressed: true})
	require.Len(t, events, 1)
	ev, ok = events[0].(PointerExEvent)
	require.True(t, ok)
	assert.Equal(t, uint16(PtrXFlagsDown|PtrXFlagsButton2), ev.Flags)
}

func TestTranslate_Wheel(t *testing.T) {
	tests := []struct {
		name  string
		in    Wheel
		flags uint16
	}{
		{"vertical up", Wheel{Delta: 120}, PtrFlagsWheel | 120},
		{"vertical down", Wheel{Delta: -120}, PtrFlagsWheel | PtrFlagsWheelNegative | (uint16(-120+512) & WheelRotationMask)},
		{"horizontal", Wheel{Horizontal: true, Delta: 120}, PtrFlagsHWheel | 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Translate(tt.in)
			require.Len(t, events, 1)

			ev, ok := events[0].(PointerEvent)
			require.True(t, ok)
			assert.Equal(t, tt.flags, ev.Flags)
		})
	}
}

// The rotation field round-trips the signed delta through the 9-bit
// two's-complement encoding.
func TestTranslate_WheelDeltaRoundTrip(t *testing.T) {
	for _, delta := range []int16{1, 120, 255, -1, -120, -256} {
		events := Translate(Wheel{Delta: delta})
		require.Len(t, events, 1)
		ev := events[0].(PointerEvent)

		raw := ev.Flags & WheelRotationMask
		decoded := int16(raw)
		if raw&PtrFlagsWheelNegative != 0 {
			decoded = int16(raw) - 512
		}
		assert.Equal(t, delta, decoded, "delta %d did not round-trip", delta)
	}
}

func TestTranslate_Key(t *testing.T) {
	events := Translate(Key{Code: 0x1E, Pressed: true})
	require.Len(t, events, 1)
	ev, ok := events[0].(ScanCodeEvent)
	require.True(t, ok)
	assert.Equal(t, uint8(0x1E), ev.Code)
	assert.False(t, ev.Release)
	assert.False(t, ev.Extended)

	events = Translate(Key{Code: 0x48, Pressed: false, Extended: true})
	require.Len(t, events, 1)
	ev = events[0].(ScanCodeEvent)
	assert.True(t, ev.Release)
	assert.True(t, ev.Extended)
}

func TestTranslate_Unicode(t *testing.T) {
	events := Translate(UnicodeChar{Code: 0x20AC, Pressed: true})
	require.Len(t, events, 1)
	ev, ok := events[0].(UnicodeEvent)
	require.True(t, ok)
	assert.Equal(t, uint16(0x20AC), ev.Code)
	assert.False(t, ev.Release)
}

// Same action in, same events out.
func TestTranslate_Deterministic(t *testing.T) {
	actions := []Action{
		MouseMove{X: 1, Y: 2},
		MouseButton{Button: 2, Pressed: true, X: 3, Y: 4},
		Wheel{Delta: -120, X: 5, Y: 6},
		Key{Code: 0x1C, Pressed: true},
		UnicodeChar{Code: 'q', Pressed: false},
	}
	for _, a := range actions {
		first := Translate(a)
		second := Translate(a)
		require.NotEmpty(t, first)
		assert.Equal(t, first, second)
	}
}
