package lossy

// QuantMatrix holds one segment's dequantization factors: each entry is a
// [DC, AC] pair of multipliers applied to that transform's coefficients.
type QuantMatrix struct {
	Y1Mat   [2]int // luma
	Y2Mat   [2]int // luma DC (WHT secondary transform)
	UVMat   [2]int // chroma
	UVQuant int    // chroma quantizer index, used to scale dithering strength
	Dither  int    // dithering amplitude, 0 disables it, max 255
}

// clampIndex clamps v into [0, max], matching VP8's table-lookup clamping
// (dequant tables are indexed by a signed quantizer-plus-delta that can
// run off either end).
func clampIndex(v, max int) int {
	switch {
	case v < 0:
		return 0
	case v > max:
		return max
	default:
		return v
	}
}

// readQuantDelta reads one of the header's five optional per-plane
// quantizer deltas: a flag bit, then a numBits-wide signed value if set.
func readQuantDelta(br BoolSource, numBits int) int {
	if br.GetBit(0x80) == 0 {
		return 0
	}
	return int(br.GetSignedValue(numBits))
}

// ParseQuant reads the frame's base quantizer and per-plane deltas, then
// fills dqm with each segment's resolved dequantization matrix.
// Corresponds to VP8ParseQuant (Paragraph 9.6).
func ParseQuant(br BoolSource, segHdr *SegmentHeader, dqm []QuantMatrix) {
	baseQ := int(br.GetValue(7))
	deltaY1DC := readQuantDelta(br, 4)
	deltaY2DC := readQuantDelta(br, 4)
	deltaY2AC := readQuantDelta(br, 4)
	deltaUVDC := readQuantDelta(br, 4)
	deltaUVAC := readQuantDelta(br, 4)

	for i := 0; i < NumMBSegments; i++ {
		q, ok := segmentQuantizer(segHdr, i, baseQ)
		if !ok {
			dqm[i] = dqm[0]
			continue
		}
		fillQuantMatrix(&dqm[i], q, deltaY1DC, deltaY2DC, deltaY2AC, deltaUVDC, deltaUVAC)
	}
}

// segmentQuantizer resolves segment i's effective quantizer value. ok is
// false when segmentation is off and i isn't segment 0, meaning the
// caller should copy segment 0's already-computed matrix instead.
func segmentQuantizer(segHdr *SegmentHeader, i, baseQ int) (q int, ok bool) {
	if !segHdr.UseSegment {
		if i > 0 {
			return 0, false
		}
		return baseQ, true
	}
	q = int(segHdr.Quantizer[i])
	if !segHdr.AbsoluteDelta {
		q += baseQ
	}
	return q, true
}

// fillQuantMatrix resolves one segment's quantizer plus the frame's
// per-plane deltas into concrete DC/AC dequantization multipliers.
func fillQuantMatrix(m *QuantMatrix, q, deltaY1DC, deltaY2DC, deltaY2AC, deltaUVDC, deltaUVAC int) {
	m.Y1Mat[0] = int(KDcTable[clampIndex(q+deltaY1DC, 127)])
	m.Y1Mat[1] = int(KAcTable[clampIndex(q, 127)])

	m.Y2Mat[0] = int(KDcTable[clampIndex(q+deltaY2DC, 127)]) * 2
	// y2 AC wants kAcTable[...] * 155 / 100; (x * 101581) >> 16 approximates
	// that without a division, floor-clamped to a minimum of 8.
	m.Y2Mat[1] = (int(KAcTable[clampIndex(q+deltaY2AC, 127)]) * 101581) >> 16
	if m.Y2Mat[1] < 8 {
		m.Y2Mat[1] = 8
	}

	m.UVMat[0] = int(KDcTable[clampIndex(q+deltaUVDC, 117)])
	m.UVMat[1] = int(KAcTable[clampIndex(q+deltaUVAC, 127)])
	m.UVQuant = q + deltaUVAC
}
