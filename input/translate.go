package input

// Action is a tagged UI input action. The variant set is closed; see the
// concrete types below.
type Action interface {
	isAction()
}

// MouseMove moves the pointer to (X, Y).
type MouseMove struct {
	X uint16
	Y uint16
}

// MouseButton presses or releases a button at (X, Y). Buttons 0-2 are
// left/middle/right; 3-4 are the extended buttons.
type MouseButton struct {
	Button  uint8
	Pressed bool
	X       uint16
	Y       uint16
}

// Wheel rotates the vertical or horizontal wheel. Delta keeps the UI
// layer's sign convention; it is forwarded unmodified and interpreted by
// the receiving protocol layer.
type Wheel struct {
	Horizontal bool
	Delta      int16
	X          uint16
	Y          uint16
}

// Key presses or releases a keyboard scan code.
type Key struct {
	Code     uint8
	Pressed  bool
	Extended bool
}

// UnicodeChar presses or releases a Unicode code point.
type UnicodeChar struct {
	Code    uint16
	Pressed bool
}

func (MouseMove) isAction()   {}
func (MouseButton) isAction() {}
func (Wheel) isAction()       {}
func (Key) isAction()         {}
func (UnicodeChar) isAction() {}

// Translate maps one action to its wire-ready event sequence.
func Translate(action Action) []Event {
	switch a := action.(type) {
	case MouseMove:
		return []Event{PointerEvent{Flags: PtrFlagsMove, X: a.X, Y: a.Y}}

	case MouseButton:
		return []Event{translateButton(a)}

	case Wheel:
		flags := uint16(PtrFlagsWheel)
		if a.Horizontal {
			flags = PtrFlagsHWheel
		}
		// The signed 9-bit delta lands in the rotation field; bit 0x0100
		// doubles as the wheel-negative flag under two's complement.
		flags |= uint16(a.Delta) & WheelRotationMask
		return []Event{PointerEvent{Flags: flags, X: a.X, Y: a.Y}}

	case Key:
		return []Event{ScanCodeEvent{Code: a.Code, Release: !a.Pressed, Extended: a.Extended}}

	case UnicodeChar:
		return []Event{UnicodeEvent{Code: a.Code, Release: !a.Pressed}}

	default:
		return nil
	}
}

func translateButton(a MouseButton) Event {
	switch a.Button {
	case 0, 1, 2:
		var flags uint16
		switch a.Button {
		case 0:
			flags = PtrFlagsButton1
		case 1:
			flags = PtrFlagsButton3
		case 2:
			flags = PtrFlagsButton2
		}
		if a.Pressed {
			flags |= PtrFlagsDown
		}
		return PointerEvent{Flags: flags, X: a.X, Y: a.Y}

	default:
		flags := uint16(PtrXFlagsButton2)
		if a.Button == 3 {
			flags = PtrXFlagsButton1
		}
		if a.Pressed {
			flags |= PtrXFlagsDown
		}
		return PointerExEvent{Flags: flags, X: a.X, Y: a.Y}
	}
}
