// Package container implements the RIFF-based WebP container: chunk
// framing, the VP8X/ANIM/ANMF extended layout, and the numeric constants
// shared by the VP8 and VP8L bitstream parsers that live above it.
package container

// fourCC packs four ASCII bytes into the little-endian uint32 RIFF uses for
// chunk tags, so FourCCVP8L etc. compare directly against bytes read off
// the wire.
func fourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// FourCC is exported for callers that build a tag from runtime bytes
// (e.g. validating an unknown chunk) rather than one of the named
// constants below.
func FourCC(a, b, c, d byte) uint32 { return fourCC(a, b, c, d) }

// Chunk tags that appear in a WebP RIFF stream.
var (
	FourCCRIFF = fourCC('R', 'I', 'F', 'F')
	FourCCWEBP = fourCC('W', 'E', 'B', 'P')
	FourCCVP8  = fourCC('V', 'P', '8', ' ')
	FourCCVP8L = fourCC('V', 'P', '8', 'L')
	FourCCVP8X = fourCC('V', 'P', '8', 'X')
	FourCCALPH = fourCC('A', 'L', 'P', 'H')
	FourCCANIM = fourCC('A', 'N', 'I', 'M')
	FourCCANMF = fourCC('A', 'N', 'M', 'F')
	FourCCICCP = fourCC('I', 'C', 'C', 'P')
	FourCCEXIF = fourCC('E', 'X', 'I', 'F')
	FourCCXMP  = fourCC('X', 'M', 'P', ' ')
)

// RIFF/ANMF/VP8X structural sizes, all in bytes.
const (
	TagSize         = 4
	ChunkSizeBytes  = 4
	ChunkHeaderSize = TagSize + ChunkSizeBytes
	RIFFHeaderSize  = ChunkHeaderSize + TagSize // "RIFFnnnnWEBP"
	VP8XChunkSize   = 10
	ANIMChunkSize   = 6
	ANMFChunkSize   = 16
)

// Canvas and duration limits enforced while walking VP8X/ANMF chunks.
const (
	MaxCanvasSize   = 1 << 24 // VP8X width/height are 24-bit fields
	MaxImageArea    = uint64(1) << 32
	MaxLoopCount    = 1 << 16
	MaxDuration     = 1 << 24
	MaxPositionOff  = 1 << 24
	MaxChunkPayload = ^uint32(0) - ChunkHeaderSize - 1
)

// VP8 (lossy) bitstream framing.
const (
	VP8Signature        = 0x9d012a
	VP8FrameHeaderSize  = 10
	VP8MaxPartition0    = 1 << 19
	VP8MaxPartitionSize = 1 << 24
)

// VP8L (lossless) bitstream framing.
const (
	VP8LMagicByte       = 0x2f
	VP8LSignatureSize   = 1
	VP8LFrameHeaderSize = 5
	VP8LImageSizeBits   = 14
	VP8LVersionBits     = 3
	VP8LVersion         = 0
	VP8LMaxNumBitRead   = 24
)

// VP8L transform kinds, in the order they may be chained on top of an image.
const (
	PredictorTransform     = 0
	CrossColorTransform    = 1
	SubtractGreenTransform = 2
	ColorIndexingTransform = 3
	NumTransforms          = 4
)

// Huffman alphabet sizes and code-length limits shared by the VP8L
// Huffman-code reader and the histogram-based encoder cost model.
const (
	NumLiteralCodes      = 256
	NumLengthCodes       = 24
	NumDistanceCodes     = 40
	CodeLengthCodes      = 19
	HuffmanCodesPerMeta  = 5
	MaxPaletteSize       = 256
	MaxCacheBits         = 11
	MaxAllowedCodeLength = 15
	DefaultCodeLength    = 8
	MinHuffmanBits       = 2
	NumHuffmanBits       = 3
	MinTransformBits     = 2
	NumTransformBits     = 3
	TransformPresent     = 1
	ARGBBlack            = 0xff000000
)

// Alpha-plane sub-chunk framing.
const (
	AlphaHeaderLen           = 1
	AlphaNoCompression       = 0
	AlphaLosslessCompression = 1
	AlphaPreprocessedLevels  = 1
)

// BPS is the row stride (in bytes) shared by every fixed-size
// macroblock/subblock buffer in the lossy decode path.
const BPS = 32

// 4x4 and whole-block intra prediction modes.
const (
	BDCPred = iota
	BTMPred
	BVEPred
	BHEPred
	BRDPred
	BVRPred
	BLDPred
	BVLPred
	BHDPred
	BHUPred
	NumBModes
)

const (
	DCPred       = BDCPred
	VPred        = BVEPred
	HPred        = BHEPred
	TMPred       = BTMPred
	BPred        = NumBModes
	NumPredModes = 4
)

const (
	BDCPredNoTop     = 4
	BDCPredNoLeft    = 5
	BDCPredNoTopLeft = 6
	NumBDCModes      = 7
)

// VP8 segmentation, loop-filter delta, and coefficient-tree dimensions.
const (
	MBFeatureTreeProbs = 3
	NumMBSegments      = 4
	NumRefLFDeltas     = 4
	NumModeLFDeltas    = 4
	MaxNumPartitions   = 8
	NumTypes           = 4 // 0: i16-AC, 1: i16-DC, 2: chroma-AC, 3: i4-AC
	NumBands           = 8
	NumCTX             = 3
	NumProbas          = 11
)

// Spatial/alpha-plane filter kinds.
const (
	FilterNone = iota
	FilterHorizontal
	FilterVertical
	FilterGradient
	FilterLast
	FilterBest = FilterLast
	FilterFast = FilterLast + 1
)

// ReadLE16 decodes a little-endian uint16 from the start of data.
func ReadLE16(data []byte) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}

// ReadLE32 decodes a little-endian uint32 from the start of data.
func ReadLE32(data []byte) uint32 {
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
}

// PutLE16 encodes v as little-endian into the start of data.
func PutLE16(data []byte, v uint16) {
	data[0] = byte(v)
	data[1] = byte(v >> 8)
}

// PutLE32 encodes v as little-endian into the start of data.
func PutLE32(data []byte, v uint32) {
	data[0] = byte(v)
	data[1] = byte(v >> 8)
	data[2] = byte(v >> 16)
	data[3] = byte(v >> 24)
}
