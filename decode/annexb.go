package decode

// NAL unit types referenced by the update path.
const (
	// NALTypeIDR is a fully self-contained picture used to resynchronize
	// after a decode error.
	NALTypeIDR = 5
	// NALTypeSPS carries the sequence parameter set.
	NALTypeSPS = 7
	// NALTypePPS carries the picture parameter set.
	NALTypePPS = 8
)

// SplitNAL splits a start-code-delimited Annex-B byte sequence into its NAL
// units, without the start codes. Both 3-byte (00 00 01) and 4-byte
// (00 00 00 01) start codes are accepted. Bytes before the first start code
// are discarded; input without any start code yields nil.
//
// The returned slices alias the input; callers must not retain them past the
// lifetime of data.
func SplitNAL(data []byte) [][]byte {
	var units [][]byte

	start := -1
	i := 0
	for i+2 < len(data) {
		if data[i] != 0 || data[i+1] != 0 {
			i++
			continue
		}
		codeLen := 0
		if data[i+2] == 1 {
			codeLen = 3
		} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
			codeLen = 4
		}
		if codeLen == 0 {
			i++
			continue
		}

		if start >= 0 && i > start {
			units = append(units, data[start:i])
		}
		i += codeLen
		start = i
	}

	if start >= 0 && start < len(data) {
		units = append(units, data[start:])
	}
	return units
}

// NALType returns the type of a single NAL unit (low 5 bits of the first
// byte), or -1 for an empty unit.
func NALType(unit []byte) int {
	if len(unit) == 0 {
		return -1
	}
	return int(unit[0] & 0x1F)
}

// IsKeyFrame reports whether an Annex-B sequence contains an IDR slice.
func IsKeyFrame(data []byte) bool {
	for _, unit := range SplitNAL(data) {
		if NALType(unit) == NALTypeIDR {
			return true
		}
	}
	return false
}
