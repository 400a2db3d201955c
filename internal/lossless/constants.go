package lossless

// Constants in this file come from the VP8L bitstream specification
// (libwebp/src/webp/format_constants.h, libwebp/src/dec/vp8l_dec.c): header
// layout, the five-Huffman-code meta-code arrangement, and the distance/
// length prefix coding scheme.

// VP8L frame-header layout.
const (
	VP8LMagicByte     = 0x2f
	VP8LHeaderSize    = 5 // 1 signature byte + 4 packed dimension/alpha/version bits
	VP8LImageSizeBits = 14
	VP8LVersionBits   = 3
	VP8LVersion       = 0
)

// Huffman alphabet sizes for the five per-meta-code trees (green+length,
// red, blue, alpha, distance) and the code-length alphabet used to
// transmit them.
const (
	NumLiteralCodes  = 256
	NumLengthCodes   = 24
	NumDistanceCodes = 40
	CodeLengthCodes  = 19
)

// Huffman code-length and table-size limits.
const (
	MaxAllowedCodeLength = 15
	DefaultCodeLength    = 8 // initial "previous" length fed to ReadHuffmanCodeLengths

	HuffmanTableBits = 8
	HuffmanTableMask = (1 << HuffmanTableBits) - 1

	LengthsTableBits = 7
	LengthsTableMask = (1 << LengthsTableBits) - 1

	HuffmanPackedBits      = 6
	HuffmanPackedTableSize = 1 << HuffmanPackedBits

	HuffmanCodesPerMetaCode = 5
)

// Color cache and palette sizing.
const (
	MinCacheBits   = 0 // 0 means the cache is disabled
	MaxCacheBits   = 11
	MaxPaletteSize = 256
	ARGBBlack      = 0xff000000
)

// Transform stream encoding: how many transforms a bitstream may chain and
// how their bit-precision fields are sized.
const (
	NumTransforms    = 4
	TransformPresent = 1

	MinHuffmanBits = 2
	NumHuffmanBits = 3

	MinTransformBits = 2
	NumTransformBits = 3
)

// CodeToPlaneCodesCount is the size of the short-distance lookup table
// PlaneCodeToDistance consults before falling back to a linear offset.
const CodeToPlaneCodesCount = 120

// HuffIndex enumerates the five Huffman trees attached to one meta-code.
type HuffIndex int

const (
	HuffGreen HuffIndex = iota
	HuffRed
	HuffBlue
	HuffAlpha
	HuffDist
)

// CodeLengthCodeOrder is the transmission order of the 19 code-length
// codes, fixed by the VP8L bitstream format.
var CodeLengthCodeOrder = [CodeLengthCodes]int{
	17, 18, 0, 1, 2, 3, 4, 5, 16, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// huffKindVariable/huffKindFixed classify a HuffIndex's alphabet shape:
// green (literals plus length codes and color-cache entries) and distance
// (40 prefix codes) are not plain byte alphabets; red/blue/alpha are always
// a plain 256-entry byte alphabet.
const (
	huffKindVariable = 0
	huffKindFixed    = 1
)

// kLiteralMap records which shape (huffKindVariable/huffKindFixed) each of
// the five Huffman trees uses.
var kLiteralMap = [HuffmanCodesPerMetaCode]uint8{
	huffKindVariable, huffKindFixed, huffKindFixed, huffKindFixed, huffKindVariable,
}

// kBaseAlphabetSize is each tree's alphabet size before any color-cache
// entries are appended (only HuffGreen ever gets them).
var kBaseAlphabetSize = [HuffmanCodesPerMetaCode]int{
	NumLiteralCodes + NumLengthCodes, // green + length
	NumLiteralCodes,                  // red
	NumLiteralCodes,                  // blue
	NumLiteralCodes,                  // alpha
	NumDistanceCodes,                 // distance
}

// AlphabetSize returns how many symbols huffIndex's tree must be built
// over, given the bitstream's color-cache bit count.
func AlphabetSize(huffIndex HuffIndex, colorCacheBits int) int {
	size := kBaseAlphabetSize[huffIndex]
	if kLiteralMap[huffIndex] == huffKindVariable && huffIndex == HuffGreen && colorCacheBits > 0 {
		size += 1 << colorCacheBits
	}
	return size
}

// CodeToPlane packs 120 short (yoffset, xoffset) distance candidates: high
// nibble is yoffset, low nibble is (8 - xoffset). Indexed by plane code - 1.
var CodeToPlane = [CodeToPlaneCodesCount]uint8{
	0x18, 0x07, 0x17, 0x19, 0x28, 0x06, 0x27, 0x29, 0x16, 0x1a,
	0x26, 0x2a, 0x38, 0x05, 0x37, 0x39, 0x15, 0x1b, 0x36, 0x3a,
	0x25, 0x2b, 0x48, 0x04, 0x47, 0x49, 0x14, 0x1c, 0x35, 0x3b,
	0x46, 0x4a, 0x24, 0x2c, 0x58, 0x45, 0x4b, 0x34, 0x3c, 0x03,
	0x57, 0x59, 0x13, 0x1d, 0x56, 0x5a, 0x23, 0x2d, 0x44, 0x4c,
	0x55, 0x5b, 0x33, 0x3d, 0x68, 0x02, 0x67, 0x69, 0x12, 0x1e,
	0x66, 0x6a, 0x22, 0x2e, 0x54, 0x5c, 0x43, 0x4d, 0x65, 0x6b,
	0x32, 0x3e, 0x78, 0x01, 0x77, 0x79, 0x53, 0x5d, 0x11, 0x1f,
	0x64, 0x6c, 0x42, 0x4e, 0x76, 0x7a, 0x21, 0x2f, 0x75, 0x7b,
	0x31, 0x3f, 0x63, 0x6d, 0x52, 0x5e, 0x00, 0x74, 0x7c, 0x41,
	0x4f, 0x10, 0x20, 0x62, 0x6e, 0x30, 0x73, 0x7d, 0x51, 0x5f,
	0x40, 0x72, 0x7e, 0x61, 0x6f, 0x50, 0x71, 0x7f, 0x60, 0x70,
}

// PlaneCodeToDistance expands a VP8L distance code back into a pixel
// offset: short codes resolve through CodeToPlane (a neighborhood relative
// to xsize), longer ones are a flat offset past the table.
func PlaneCodeToDistance(xsize int, planeCode int) int {
	if planeCode <= 0 {
		return 1
	}
	if planeCode > CodeToPlaneCodesCount {
		return planeCode - CodeToPlaneCodesCount
	}
	packed := CodeToPlane[planeCode-1]
	yoffset := int(packed >> 4)
	xoffset := 8 - int(packed&0xf)
	if dist := yoffset*xsize + xoffset; dist >= 1 {
		return dist
	}
	return 1
}

// prefixEncode is the shared core of PrefixEncodeBitsNoLUT/PrefixEncodeNoLUT:
// split a 0-based distance into a prefix code plus its extra-bits count and
// value, per VP8L's length/distance prefix coding scheme.
func prefixEncode(distance int) (code, extraBits, extraBitsValue int) {
	if distance < 2 {
		return distance, 0, 0
	}
	highBit := bitsLog2Floor(distance)
	nextBit := (distance >> (highBit - 1)) & 1
	extraBits = highBit - 1
	extraBitsValue = distance & ((1 << extraBits) - 1)
	code = 2*highBit + nextBit
	return code, extraBits, extraBitsValue
}

// PrefixEncodeBitsNoLUT computes the prefix code and extra-bit count for a
// 1-based distance value.
func PrefixEncodeBitsNoLUT(distance int) (code int, extraBits int) {
	code, extraBits, _ = prefixEncode(distance - 1)
	return code, extraBits
}

// PrefixEncodeNoLUT computes the prefix code, extra-bit count, and extra
// bits value for a 1-based distance value.
func PrefixEncodeNoLUT(distance int) (code, extraBits, extraBitsValue int) {
	return prefixEncode(distance - 1)
}

// bitsLog2Floor returns floor(log2(n)) for n > 0.
func bitsLog2Floor(n int) int {
	log := 0
	for n > 1 {
		log++
		n >>= 1
	}
	return log
}

// VP8LSubSampleSize returns ceil(size / (1 << samplingBits)), the formula
// VP8L uses to size its subsampled prediction/color-cache planes.
func VP8LSubSampleSize(size, samplingBits int) int {
	return (size + (1 << samplingBits) - 1) >> samplingBits
}

// Code-length alphabet: literal values 0..15 plus three repeat codes.
const (
	CodeLengthLiterals   = 16
	CodeLengthRepeatCode = 16
)

// CodeLengthExtraBits/CodeLengthRepeatOffsets give, for repeat codes 16-18,
// how many extra bits follow and the run-length offset those bits add to.
var CodeLengthExtraBits = [3]uint8{2, 3, 7}
var CodeLengthRepeatOffsets = [3]uint8{3, 3, 11}

// FixedTableSize is the worst-case combined table size for the three
// fixed-256-symbol trees (red, blue, alpha) plus distance.
const FixedTableSize = 630*3 + 410

// KTableSize gives the total Huffman table allocation needed for each
// possible color-cache bit count (0..11): FixedTableSize plus the
// variable-size green+length tree at that cache size.
var KTableSize = [12]int{
	FixedTableSize + 654, FixedTableSize + 656, FixedTableSize + 658,
	FixedTableSize + 662, FixedTableSize + 670, FixedTableSize + 686,
	FixedTableSize + 718, FixedTableSize + 782, FixedTableSize + 912,
	FixedTableSize + 1168, FixedTableSize + 1680, FixedTableSize + 2704,
}
