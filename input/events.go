// Package input maps UI input actions to wire-ready fast-path input events.
//
// The mapping is total, stateless and side-effect free: every action variant
// yields a non-empty, deterministic event sequence, and the tagged action
// type cannot represent an invalid combination, so there is no error path.
// Event layouts and flag values follow the fast-path input encoding of
// MS-RDPBCGR.
package input

import "encoding/binary"

// Fast-path input event codes (eventHeader bits 5-7).
const (
	eventCodeScanCode = 0
	eventCodeMouse    = 1
	eventCodeMouseEx  = 2
	eventCodeUnicode  = 4
)

// Keyboard event flags (eventHeader bits 0-4).
const (
	// KbdFlagRelease marks a key release; absence means press.
	KbdFlagRelease = 0x01
	// KbdFlagExtended marks an extended key (right ctrl, arrows, ...).
	KbdFlagExtended = 0x02
)

// Pointer flags for the standard mouse event.
const (
	PtrFlagsHWheel        = 0x0400
	PtrFlagsWheel         = 0x0200
	PtrFlagsWheelNegative = 0x0100
	// WheelRotationMask extracts the signed 9-bit rotation delta.
	WheelRotationMask = 0x01FF

	PtrFlagsMove = 0x0800
	PtrFlagsDown = 0x8000

	PtrFlagsButton1 = 0x1000 // left
	PtrFlagsButton2 = 0x2000 // right
	PtrFlagsButton3 = 0x4000 // middle
)

// Pointer flags for the extended mouse event.
const (
	PtrXFlagsDown    = 0x8000
	PtrXFlagsButton1 = 0x0001
	PtrXFlagsButton2 = 0x0002
)

// Event is one wire-ready fast-path input event.
type Event interface {
	// Serialize produces the fast-path encoding: one header byte
	// (eventFlags | eventCode<<5) followed by the little-endian body.
	Serialize() []byte
}

// PointerEvent is a standard mouse event (move, button, wheel).
type PointerEvent struct {
	Flags uint16
	X     uint16
	Y     uint16
}

// Serialize implements Event.
func (e PointerEvent) Serialize() []byte {
	out := make([]byte, 7)
	out[0] = eventCodeMouse << 5
	binary.LittleEndian.PutUint16(out[1:3], e.Flags)
	binary.LittleEndian.PutUint16(out[3:5], e.X)
	binary.LittleEndian.PutUint16(out[5:7], e.Y)
	return out
}

// PointerExEvent is an extended mouse event (buttons 4 and 5).
type PointerExEvent struct {
	Flags uint16
	X     uint16
	Y     uint16
}

// Serialize implements Event.
func (e PointerExEvent) Serialize() []byte {
	out := make([]byte, 7)
	out[0] = eventCodeMouseEx << 5
	binary.LittleEndian.PutUint16(out[1:3], e.Flags)
	binary.LittleEndian.PutUint16(out[3:5], e.X)
	binary.LittleEndian.PutUint16(out[5:7], e.Y)
	return out
}

// ScanCodeEvent is a keyboard scan-code press or release.
type ScanCodeEvent struct {
	Code     uint8
	Release  bool
	Extended bool
}

// Serialize implements Event.
func (e ScanCodeEvent) Serialize() []byte {
	var flags byte
	if e.Release {
		flags |= KbdFlagRelease
	}
	if e.Extended {
		flags |= KbdFlagExtended
	}
	return []byte{eventCodeScanCode<<5 | flags, e.Code}
}

// UnicodeEvent is a Unicode code-point press or release.
type UnicodeEvent struct {
	Code    uint16
	Release bool
}

// Serialize implements Event.
func (e UnicodeEvent) Serialize() []byte {
	var flags byte
	if e.Release {
		flags |= KbdFlagRelease
	}
	out := make([]byte, 3)
	out[0] = eventCodeUnicode<<5 | flags
	binary.LittleEndian.PutUint16(out[1:3], e.Code)
	return out
}
