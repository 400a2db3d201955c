// Package bitio provides the two bit-level readers the WebP bitstreams
// need: the VP8 boolean (arithmetic) decoder used by lossy frames, and the
// LSB-first bit reader VP8L uses for its prefix codes and transforms.
package bitio

import (
	"encoding/binary"
	"math/bits"
)

// normShift maps a post-split range in [0,127] to the number of bits the
// arithmetic coder's window must shift left to renormalize it back above
// the midpoint. Index i holds 7 - floor(log2(i+1)), so normShift[0] = 7
// and normShift[127] = 0.
var normShift = [128]uint8{
	7, 6, 6, 5, 5, 5, 5, 4, 4, 4, 4, 4, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0,
}

// normRange is the paired table for GetBitAlt's lookup-based renormalize:
// normRange[i] is ((i+1) << normShift[i]) - 1, the renormalized range
// already stored minus one.
var normRange = [128]uint8{
	127, 127, 191, 127, 159, 191, 223, 127, 143, 159, 175, 191, 207, 223, 239,
	127, 135, 143, 151, 159, 167, 175, 183, 191, 199, 207, 215, 223, 231, 239,
	247, 127, 131, 135, 139, 143, 147, 151, 155, 159, 163, 167, 171, 175, 179,
	183, 187, 191, 195, 199, 203, 207, 211, 215, 219, 223, 227, 231, 235, 239,
	243, 247, 251, 127, 129, 131, 133, 135, 137, 139, 141, 143, 145, 147, 149,
	151, 153, 155, 157, 159, 161, 163, 165, 167, 169, 171, 173, 175, 177, 179,
	181, 183, 185, 187, 189, 191, 193, 195, 197, 199, 201, 203, 205, 207, 209,
	211, 213, 215, 217, 219, 221, 223, 225, 227, 229, 231, 233, 235, 237, 239,
	241, 243, 245, 247, 249, 251, 253, 127,
}

// bitWindowSize is how many look-ahead bits BoolReader keeps cached in its
// value register between bulk byte loads (7 bytes' worth, on 64-bit Go).
const bitWindowSize = 56

// BoolReader is VP8's boolean (binary arithmetic) decoder: it narrows a
// [0, rng] probability interval on every call to GetBit, refilling its
// 64-bit lookahead window from the input in 7-byte bursts to keep the
// per-symbol cost small.
type BoolReader struct {
	buf []byte // undecoded input
	pos int    // next unread byte in buf
	eof bool   // true once buf is exhausted and the window is zero-padded

	window  uint64 // lookahead bits, MSB-aligned within the low bitWindowSize+8 bits
	live    int    // number of valid bits left in window before the next refill
	rngLess uint32 // current range, stored as (range - 1), kept in [127, 254]
}

// NewBoolReader wraps data for boolean decoding and primes the lookahead
// window with its first bytes.
func NewBoolReader(data []byte) *BoolReader {
	br := &BoolReader{
		buf:     data,
		rngLess: 255 - 1,
		live:    -8, // forces refill() on the very first bit
	}
	br.refill()
	return br
}

// refill tops up the lookahead window, choosing the bulk 7-byte path when
// enough input remains and falling back to refillTail otherwise.
func (br *BoolReader) refill() {
	if br.pos+8 > len(br.buf) {
		br.refillTail()
		return
	}
	// Load 8 bytes LE, flip to big-endian ordering, then drop the bottom
	// byte so exactly bitWindowSize bits land MSB-first in the window.
	chunk := bits.ReverseBytes64(binary.LittleEndian.Uint64(br.buf[br.pos:]))
	br.window = (br.window << bitWindowSize) | (chunk >> (64 - bitWindowSize))
	br.pos += bitWindowSize / 8
	br.live += bitWindowSize
}

// refillTail handles the end of the stream, one byte (or zero bits) at a time.
func (br *BoolReader) refillTail() {
	switch {
	case br.pos < len(br.buf):
		br.window = (br.window << 8) | uint64(br.buf[br.pos])
		br.pos++
		br.live += 8
	case !br.eof:
		br.window <<= 8
		br.live += 8
		br.eof = true
	default:
		br.live = 0 // further shifts would be undefined otherwise
	}
}

// GetBit decodes one boolean symbol under the given probability (0..255)
// that the bit is 0. This is the hot inner loop of the lossy decoder.
func (br *BoolReader) GetBit(prob uint8) int {
	rng := br.rngLess
	if br.live < 0 {
		br.refill()
	}
	shift := br.live
	split := (rng * uint32(prob)) >> 8
	sample := uint32(br.window >> uint(shift))

	bit := 0
	if sample > split {
		bit = 1
		rng -= split
		br.window -= uint64(split+1) << uint(shift)
	} else {
		rng = split + 1
	}

	renorm := 7 ^ (bits.Len32(rng) - 1) // == normShift-style count via bit length
	br.rngLess = (rng << uint(renorm)) - 1
	br.live -= renorm
	return bit
}

// GetBitAlt is equivalent to GetBit but renormalizes via the normShift/
// normRange lookup tables instead of a bit-length computation; kept since
// some callers measurably prefer the table-driven path.
func (br *BoolReader) GetBitAlt(prob uint8) int {
	rng := br.rngLess
	if br.live < 0 {
		br.refill()
	}
	shift := br.live
	split := (rng * uint32(prob)) >> 8
	sample := uint32(br.window >> uint(shift))

	var bit int
	if sample > split {
		bit = 1
		rng -= split + 1
		br.window -= uint64(split+1) << uint(shift)
	} else {
		rng = split
	}

	if rng <= 0x7e {
		br.live -= int(normShift[rng])
		rng = uint32(normRange[rng])
	}
	br.rngLess = rng
	return bit
}

// GetSigned decodes a single sign bit under the fixed 0x80 probability and
// applies it to v, returning +v or -v.
func (br *BoolReader) GetSigned(v int) int {
	if br.live < 0 {
		br.refill()
	}
	shift := br.live
	split := br.rngLess >> 1
	sample := uint32(br.window >> uint(shift))

	negMask := int32(split-sample) >> 31 // all-ones if sample >= split+1
	br.live--
	br.rngLess += uint32(negMask)
	br.rngLess |= 1
	br.window -= uint64((split+1)&uint32(negMask)) << uint(shift)

	return (v ^ int(negMask)) - int(negMask)
}

// GetValue reads an MSB-first numBits-wide value, each bit decoded at
// uniform (0x80) probability.
func (br *BoolReader) GetValue(numBits int) uint32 {
	var v uint32
	for i := numBits - 1; i >= 0; i-- {
		v |= uint32(br.GetBit(0x80)) << uint(i)
	}
	return v
}

// GetSignedValue reads a numBits magnitude followed by a trailing sign bit.
func (br *BoolReader) GetSignedValue(numBits int) int32 {
	magnitude := int32(br.GetValue(numBits))
	if br.GetBit(0x80) != 0 {
		return -magnitude
	}
	return magnitude
}

// EOF reports whether decoding has run past the end of the input.
func (br *BoolReader) EOF() bool {
	return br.eof
}
