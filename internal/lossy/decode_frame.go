package lossy

import "github.com/wpcore/webpcore/internal/dsp"

// checkMode swaps a 16x16/8x8 DC prediction mode for its edge variant when
// the macroblock is missing a top and/or left neighbor to predict from.
func checkMode(mbX, mbY, mode int) int {
	if mode != BDCPred {
		return mode
	}
	switch {
	case mbX == 0 && mbY == 0:
		return BDCPredNoTopLeft
	case mbX == 0:
		return BDCPredNoLeft
	case mbY == 0:
		return BDCPredNoTop
	default:
		return mode
	}
}

// applyDCOnly4x4 adds a single DC value to every pixel of one 4x4 block,
// the degenerate case of the inverse transform when only the DC
// coefficient survived quantization. Dispatch through dsp.Transform for
// this case would cost a function-variable call for four additions.
func applyDCOnly4x4(dc int16, dst []byte) {
	add := (int(dc) + 4) >> 3
	_ = dst[3+3*BPS] // bounds-check hint
	for j := 0; j < 4; j++ {
		off := j * BPS
		dst[off+0] = dsp.Clip8b(int(dst[off+0]) + add)
		dst[off+1] = dsp.Clip8b(int(dst[off+1]) + add)
		dst[off+2] = dsp.Clip8b(int(dst[off+2]) + add)
		dst[off+3] = dsp.Clip8b(int(dst[off+3]) + add)
	}
}

// applyLumaTransform inverse-transforms one 4x4 luma block according to
// the 2-bit coefficient-population code in the top bits of bits.
func applyLumaTransform(bits uint32, src []int16, dst []byte) {
	switch bits >> 30 {
	case 3:
		dsp.Transform(src, dst, false)
	case 2:
		dsp.TransformAC3(src, dst)
	case 1:
		applyDCOnly4x4(src[0], dst)
	default:
		// No coefficients at all; reconstruction is the prediction as-is.
	}
}

// applyChromaTransform inverse-transforms one chroma plane's four 4x4
// blocks, given the low 8 non-zero-coefficient bits for that plane.
func applyChromaTransform(bits uint32, src []int16, dst []byte) {
	if bits&0xff == 0 {
		return
	}
	if bits&0xaa != 0 {
		dsp.TransformUV(src, dst)
		return
	}
	if src[0] != 0 {
		applyDCOnly4x4(src[0], dst[0:])
	}
	if src[16] != 0 {
		applyDCOnly4x4(src[16], dst[4:])
	}
	if src[32] != 0 {
		applyDCOnly4x4(src[32], dst[4*BPS:])
	}
	if src[48] != 0 {
		applyDCOnly4x4(src[48], dst[4*BPS+4:])
	}
}

// reconstructRow predicts and inverse-transforms every macroblock in the
// current row into dec.yuvB, then copies the finished pixels out to the
// row-cache planes that filtering and final output read from. Offsets
// into yuvB are expressed relative to the fixed YOff/UOff/VOff origins
// (plus borders) rather than via negative indices, which Go slices don't
// support.
func (dec *Decoder) reconstructRow() {
	mbY := dec.mbY
	bps := BPS
	buf := dec.yuvB
	yBase, uBase, vBase := YOff, UOff, VOff

	for j := 0; j < 16; j++ {
		buf[yBase+j*bps-1] = 129
	}
	for j := 0; j < 8; j++ {
		buf[uBase+j*bps-1] = 129
		buf[vBase+j*bps-1] = 129
	}

	if mbY > 0 {
		buf[yBase-1-bps] = 129
		buf[uBase-1-bps] = 129
		buf[vBase-1-bps] = 129
	} else {
		fillBytes(buf[yBase-bps-1:], 127, 16+4+1)
		fillBytes(buf[uBase-bps-1:], 127, 8+1)
		fillBytes(buf[vBase-bps-1:], 127, 8+1)
	}

	for mbX := 0; mbX < dec.mbW; mbX++ {
		block := &dec.mbData[mbX]
		yDst, uDst, vDst := buf[yBase:], buf[uBase:], buf[vBase:]

		if mbX > 0 {
			for j := -1; j < 16; j++ {
				copy(buf[yBase+j*bps-4:yBase+j*bps], buf[yBase+j*bps+12:yBase+j*bps+16])
			}
			for j := -1; j < 8; j++ {
				copy(buf[uBase+j*bps-4:uBase+j*bps], buf[uBase+j*bps+4:uBase+j*bps+8])
				copy(buf[vBase+j*bps-4:vBase+j*bps], buf[vBase+j*bps+4:vBase+j*bps+8])
			}
		}

		topYUV := &dec.yuvT[mbX]
		coeffs := block.Coeffs[:]
		bits := block.NonZeroY

		if mbY > 0 {
			copy(buf[yBase-bps:], topYUV.Y[:])
			copy(buf[uBase-bps:], topYUV.U[:])
			copy(buf[vBase-bps:], topYUV.V[:])
		}

		if block.IsI4x4 {
			dec.reconstructI4x4(mbX, mbY, yBase, bps, buf, topYUV, block, coeffs, bits)
		} else {
			predFunc := checkMode(mbX, mbY, int(block.IModes[0]))
			dsp.PredLuma16[predFunc](buf, yBase)
			if bits != 0 {
				for n := 0; n < 16; n++ {
					applyLumaTransform(bits, coeffs[n*16:], buf[yBase+kScan[n]:])
					bits <<= 2
				}
			}
		}

		bitsUV := block.NonZeroUV
		predFunc := checkMode(mbX, mbY, int(block.UVMode))
		dsp.PredChroma8[predFunc](buf, uBase)
		dsp.PredChroma8[predFunc](buf, vBase)
		applyChromaTransform(bitsUV, coeffs[16*16:], uDst)
		applyChromaTransform(bitsUV>>8, coeffs[20*16:], vDst)

		if mbY < dec.mbH-1 {
			copy(topYUV.Y[:], yDst[15*bps:15*bps+16])
			copy(topYUV.U[:], uDst[7*bps:7*bps+8])
			copy(topYUV.V[:], vDst[7*bps:7*bps+8])
		}

		dec.storeReconstructed(mbX, mbY, bps, yDst, uDst, vDst)
	}
}

// reconstructI4x4 handles the 4x4-intra branch of reconstructRow: each of
// the 16 sub-blocks predicts from its own already-reconstructed
// neighbors, so prediction and transform must interleave sub-block by
// sub-block rather than predicting the whole macroblock up front.
func (dec *Decoder) reconstructI4x4(mbX, mbY, yBase, bps int, buf []byte, topYUV *TopSamples, block *MBData, coeffs []int16, bits uint32) {
	topRight := buf[yBase-bps+16:]
	if mbY > 0 {
		if mbX >= dec.mbW-1 {
			fillBytes(topRight, topYUV.Y[15], 4)
		} else {
			copy(topRight[:4], dec.yuvT[mbX+1].Y[:4])
		}
	}
	// The reference decoder reads top-right samples as uint32 words at
	// stride BPS, so replicating the row below each sub-block row (at
	// offsets 3, 7, 11 from the macroblock top) reaches through memory
	// the same way.
	for r := 1; r <= 3; r++ {
		off := r * 4 * bps
		copy(topRight[off:off+4], topRight[:4])
	}

	for n := 0; n < 16; n++ {
		blockOff := yBase + kScan[n]
		dsp.PredLuma4Direct(int(block.IModes[n]), buf, blockOff)
		applyLumaTransform(bits, coeffs[n*16:], buf[blockOff:])
		bits <<= 2
	}
}

// storeReconstructed copies one macroblock's finished Y/U/V pixels from
// the scratch reconstruction buffer into the persistent row-cache planes.
func (dec *Decoder) storeReconstructed(mbX, mbY, bps int, yDst, uDst, vDst []byte) {
	yOffset := mbY * 16 * dec.cacheYStride
	uvOffset := mbY * 8 * dec.cacheUVStride
	yOut := dec.cacheY[mbX*16+yOffset:]
	uOut := dec.cacheU[mbX*8+uvOffset:]
	vOut := dec.cacheV[mbX*8+uvOffset:]
	for j := 0; j < 16; j++ {
		copy(yOut[j*dec.cacheYStride:j*dec.cacheYStride+16], yDst[j*bps:j*bps+16])
	}
	for j := 0; j < 8; j++ {
		copy(uOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], uDst[j*bps:j*bps+8])
		copy(vOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], vDst[j*bps:j*bps+8])
	}
}

// precomputeFilterStrengths resolves, once per frame, every (segment,
// 4x4-vs-16x16) combination's loop filter edge limit, interior sharpness
// level and high-edge-variance threshold.
func (dec *Decoder) precomputeFilterStrengths() {
	if dec.filterType <= 0 {
		return
	}
	hdr := &dec.filterHdr
	for s := 0; s < NumMBSegments; s++ {
		baseLevel := hdr.Level
		if dec.segHdr.UseSegment {
			baseLevel = int(dec.segHdr.FilterStrength[s])
			if !dec.segHdr.AbsoluteDelta {
				baseLevel += hdr.Level
			}
		}

		for i4x4 := 0; i4x4 <= 1; i4x4++ {
			dec.fstrengths[s][i4x4] = resolveFilterStrength(hdr, baseLevel, i4x4 != 0)
		}
	}
}

// resolveFilterStrength computes one segment/mode combination's FInfo
// from its base filter level, applying the optional per-reference/
// per-mode deltas and sharpness-based interior-limit reduction.
func resolveFilterStrength(hdr *FilterHeader, baseLevel int, isI4x4 bool) FInfo {
	level := baseLevel
	if hdr.UseLFDelta {
		level += hdr.RefLFDelta[0]
		if isI4x4 {
			level += hdr.ModeLFDelta[0]
		}
	}
	level = clampFilterLevel(level)

	info := FInfo{FInner: isI4x4}
	if level == 0 {
		return info
	}

	ilevel := level
	if hdr.Sharpness > 0 {
		if hdr.Sharpness > 4 {
			ilevel >>= 2
		} else {
			ilevel >>= 1
		}
		if ilevel > 9-hdr.Sharpness {
			ilevel = 9 - hdr.Sharpness
		}
	}
	if ilevel < 1 {
		ilevel = 1
	}

	info.FILevel = uint8(ilevel)
	info.FLimit = uint8(2*level + ilevel)
	switch {
	case level >= 40:
		info.HevThresh = 2
	case level >= 15:
		info.HevThresh = 1
	default:
		info.HevThresh = 0
	}
	return info
}

func clampFilterLevel(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 63:
		return 63
	default:
		return level
	}
}

// filterRow applies the loop filter to the row currently being decoded.
func (dec *Decoder) filterRow() {
	dec.filterRowAt(dec.mbY)
}

// filterRowAt filters macroblock row mbY explicitly, independent of
// dec.mbY. The threaded row pipeline needs this: the filter job for row
// mbY may still be running on the worker goroutine after the parser has
// already moved dec.mbY on to the next row.
func (dec *Decoder) filterRowAt(mbY int) {
	for mbX := dec.tlMBX; mbX < dec.brMBX; mbX++ {
		dec.doFilter(mbX, mbY)
	}
}

// doFilter loop-filters one macroblock's edges, or none when its filter
// limit is 0: the shared edges against its left/top neighbor (skipped at
// frame borders) plus, when FInner is set, its internal 4x4 edges.
// Every primitive below takes the full row-cache buffer plus a base
// offset, since Go slices can't express the filters' negative-context
// reads (e.g. p[off-3*bps]) directly.
func (dec *Decoder) doFilter(mbX, mbY int) {
	finfo := &dec.fInfo[mbX]
	limit := int(finfo.FLimit)
	if limit == 0 {
		return
	}
	ilevel := int(finfo.FILevel)
	yBPS := dec.cacheYStride
	yOff := mbY*16*yBPS + mbX*16

	if dec.filterType == 1 {
		dec.filterSimple(mbX, mbY, yOff, yBPS, limit, finfo)
		return
	}
	dec.filterComplex(mbX, mbY, yOff, yBPS, limit, ilevel, finfo)
}

// filterSimple applies the simple (luma-only) filter's shared edges then
// inner edges. A vertical boundary (left neighbor, mbX>0) is walked down
// rows (loopStride=yBPS) reaching horizontally for context (ctxStep=1); a
// horizontal boundary (top neighbor, mbY>0) is walked across columns
// (loopStride=1) reaching vertically (ctxStep=yBPS).
func (dec *Decoder) filterSimple(mbX, mbY, yOff, yBPS, limit int, finfo *FInfo) {
	if mbX > 0 {
		edgeFilterSimple(dec.cacheY, yOff, yBPS, 1, limit+4)
	}
	if finfo.FInner {
		innerFilterSimple(dec.cacheY, yOff, yBPS, 1, limit)
	}
	if mbY > 0 {
		edgeFilterSimple(dec.cacheY, yOff, 1, yBPS, limit+4)
	}
	if finfo.FInner {
		innerFilterSimple(dec.cacheY, yOff, 1, yBPS, limit)
	}
}

// filterComplex applies the complex (luma+chroma) filter the same way
// filterSimple does, plus the two chroma planes alongside luma at each step.
func (dec *Decoder) filterComplex(mbX, mbY, yOff, yBPS, limit, ilevel int, finfo *FInfo) {
	uvBPS := dec.cacheUVStride
	uvOff := mbY*8*uvBPS + mbX*8
	hevT := int(finfo.HevThresh)

	if mbX > 0 {
		edgeFilterComplex(dec.cacheY, yOff, yBPS, 1, 16, limit+4, ilevel, hevT)
		edgeFilterComplex(dec.cacheU, uvOff, uvBPS, 1, 8, limit+4, ilevel, hevT)
		edgeFilterComplex(dec.cacheV, uvOff, uvBPS, 1, 8, limit+4, ilevel, hevT)
	}
	if finfo.FInner {
		innerFilterComplexPlane(dec.cacheY, yOff, yBPS, 1, 16, limit, ilevel, hevT)
		innerFilterComplexPlane(dec.cacheU, uvOff, uvBPS, 1, 8, limit, ilevel, hevT)
		innerFilterComplexPlane(dec.cacheV, uvOff, uvBPS, 1, 8, limit, ilevel, hevT)
	}
	if mbY > 0 {
		edgeFilterComplex(dec.cacheY, yOff, 1, yBPS, 16, limit+4, ilevel, hevT)
		edgeFilterComplex(dec.cacheU, uvOff, 1, uvBPS, 8, limit+4, ilevel, hevT)
		edgeFilterComplex(dec.cacheV, uvOff, 1, uvBPS, 8, limit+4, ilevel, hevT)
	}
	if finfo.FInner {
		innerFilterComplexPlane(dec.cacheY, yOff, 1, yBPS, 16, limit, ilevel, hevT)
		innerFilterComplexPlane(dec.cacheU, uvOff, 1, uvBPS, 8, limit, ilevel, hevT)
		innerFilterComplexPlane(dec.cacheV, uvOff, 1, uvBPS, 8, limit, ilevel, hevT)
	}
}

func fillBytes(dst []byte, v byte, n int) {
	for i := 0; i < n; i++ {
		dst[i] = v
	}
}

// ---------------------------------------------------------------------------
// Loop filter primitives.
//
// Each "loop" function walks one 16 (luma) or 8 (chroma) pixel edge.
// loopStride advances the walk along the edge; ctxStep reaches across it
// to the neighboring pixels a filter reads/writes. A vertical edge (p
// left of q) walks down rows (loopStride = row stride, ctxStep = 1); a
// horizontal edge (p above q) walks across columns (loopStride = 1,
// ctxStep = row stride). This lets one function serve both orientations
// instead of duplicating the loop body per axis.
// ---------------------------------------------------------------------------

// edgeFilterSimple applies the simple 2-tap filter across a macroblock
// boundary (16 positions along the edge).
func edgeFilterSimple(p []byte, base, loopStride, ctxStep, thresh int) {
	thresh2 := 2*thresh + 1
	for i := 0; i < 16; i++ {
		off := base + i*loopStride
		simpleFilter2IfNeeded(p, off, ctxStep, thresh2)
	}
}

// innerFilterSimple applies the simple filter to a macroblock's three
// internal edges, spaced 4 pixels apart in the ctxStep direction (the
// edges themselves still run the full 16-pixel length of the boundary,
// walked via loopStride).
func innerFilterSimple(p []byte, base, loopStride, ctxStep, thresh int) {
	for k := 1; k <= 3; k++ {
		edgeFilterSimple(p, base+k*4*ctxStep, loopStride, ctxStep, thresh)
	}
}

func simpleFilter2IfNeeded(p []byte, off, ctxStep, thresh2 int) {
	p1 := int(p[off-2*ctxStep])
	p0 := int(p[off-ctxStep])
	q0 := int(p[off])
	q1 := int(p[off+ctxStep])
	if 4*abs(p0-q0)+abs(p1-q1) > thresh2 {
		return
	}
	a := 3*(q0-p0) + sclip1(p1-q1)
	a1 := sclip2((a + 4) >> 3)
	a2 := sclip2((a + 3) >> 3)
	p[off-ctxStep] = clamp255(p0 + a2)
	p[off] = clamp255(q0 - a1)
}

// edgeFilterComplex applies the complex filter to a macroblock boundary:
// the high-edge-variance 2-tap filter where variance is high, the softer
// 6-tap filter otherwise.
func edgeFilterComplex(p []byte, base, loopStride, ctxStep, count, thresh, ithresh, hevThresh int) {
	thresh2 := 2*thresh + 1
	for i := 0; i < count; i++ {
		off := base + i*loopStride
		if !needsFilter2At(p, off, ctxStep, thresh2, ithresh) {
			continue
		}
		if isHEV(p[off-2*ctxStep], p[off-ctxStep], p[off], p[off+ctxStep], hevThresh) {
			doSimpleFilter2(p, off, ctxStep)
		} else {
			doSimpleFilter6(p, off, ctxStep)
		}
	}
}

// innerFilterComplex applies the complex filter to one internal 4x4 edge:
// 2-tap under high edge variance, 4-tap otherwise.
func innerFilterComplex(p []byte, base, loopStride, ctxStep, count, thresh, ithresh, hevThresh int) {
	thresh2 := 2*thresh + 1
	for i := 0; i < count; i++ {
		off := base + i*loopStride
		if !needsFilter2At(p, off, ctxStep, thresh2, ithresh) {
			continue
		}
		if isHEV(p[off-2*ctxStep], p[off-ctxStep], p[off], p[off+ctxStep], hevThresh) {
			doSimpleFilter2(p, off, ctxStep)
		} else {
			doSimpleFilter4(p, off, ctxStep)
		}
	}
}

// innerFilterComplexPlane applies innerFilterComplex to a whole plane's
// internal edges, spaced 4 pixels apart in the ctxStep direction. Luma
// macroblocks (size 16) have three such edges; the 8-wide chroma planes
// have only one, since U/V macroblocks are 8x8.
func innerFilterComplexPlane(p []byte, base, loopStride, ctxStep, size, thresh, ithresh, hevThresh int) {
	if size == 16 {
		for k := 1; k <= 3; k++ {
			innerFilterComplex(p, base+k*4*ctxStep, loopStride, ctxStep, size, thresh, ithresh, hevThresh)
		}
		return
	}
	innerFilterComplex(p, base+4*ctxStep, loopStride, ctxStep, size, thresh, ithresh, hevThresh)
}

// needsFilter2At reports whether the 8 pixels spanning an edge (p3..p0,
// q0..q3) are flat enough overall, and close enough to each other within
// each side, to qualify for filtering.
func needsFilter2At(p []byte, off, step, thresh, ithresh int) bool {
	p3 := int(p[off-4*step])
	p2 := int(p[off-3*step])
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	q2 := int(p[off+2*step])
	q3 := int(p[off+3*step])
	if 4*abs(p0-q0)+abs(p1-q1) > thresh {
		return false
	}
	return abs(p3-p2) <= ithresh &&
		abs(p2-p1) <= ithresh &&
		abs(p1-p0) <= ithresh &&
		abs(q3-q2) <= ithresh &&
		abs(q2-q1) <= ithresh &&
		abs(q1-q0) <= ithresh
}

// isHEV reports high edge variance: either side of the edge changing by
// more than thresh disqualifies the softer multi-tap filters.
func isHEV(p1, p0, q0, q1 byte, thresh int) bool {
	return abs(int(p1)-int(p0)) > thresh || abs(int(q0)-int(q1)) > thresh
}

// doSimpleFilter2 updates only p0/q0 across the edge.
func doSimpleFilter2(p []byte, off, step int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	a := 3*(q0-p0) + sclip1(p1-q1)
	a1 := sclip2((a + 4) >> 3)
	a2 := sclip2((a + 3) >> 3)
	p[off-step] = clamp255(p0 + a2)
	p[off] = clamp255(q0 - a1)
}

// doSimpleFilter4 updates p1, p0, q0, q1 (no p1-q1 term in a, unlike
// doSimpleFilter2).
func doSimpleFilter4(p []byte, off, step int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	a := 3 * (q0 - p0)
	a1 := sclip2((a + 4) >> 3)
	a2 := sclip2((a + 3) >> 3)
	a3 := (a1 + 1) >> 1
	p[off-2*step] = clamp255(p1 + a3)
	p[off-step] = clamp255(p0 + a2)
	p[off] = clamp255(q0 - a1)
	p[off+step] = clamp255(q1 - a3)
}

// doSimpleFilter6 updates p2, p1, p0, q0, q1, q2 with decreasing weight
// the farther a sample sits from the edge.
func doSimpleFilter6(p []byte, off, step int) {
	p2 := int(p[off-3*step])
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	q2 := int(p[off+2*step])
	a := sclip1(3*(q0-p0) + sclip1(p1-q1))
	a1 := (27*a + 63) >> 7
	a2 := (18*a + 63) >> 7
	a3 := (9*a + 63) >> 7
	p[off-3*step] = clamp255(p2 + a3)
	p[off-2*step] = clamp255(p1 + a2)
	p[off-step] = clamp255(p0 + a1)
	p[off] = clamp255(q0 - a1)
	p[off+step] = clamp255(q1 - a2)
	p[off+2*step] = clamp255(q2 - a3)
}

// abs/sclip1/sclip2/clamp255 wrap the precomputed clip tables in
// dsp/cliptables.go, trading a branch for a single array access.
func abs(x int) int {
	return int(dsp.Kabs0(x))
}

func sclip1(v int) int {
	return int(dsp.Ksclip1(v))
}

func sclip2(v int) int {
	return int(dsp.Ksclip2(v))
}

func clamp255(v int) byte {
	return dsp.Kclip1(v)
}
