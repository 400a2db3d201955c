package dsp

// IDCT/FDCT transforms for the VP8 lossy codec: the 4x4 inverse/forward DCT
// used for residual blocks, plus the 4x4 Walsh-Hadamard transform used for
// the luma DC band.

const (
	idctC1 = 20091 // (sqrt(2) * cos(pi/8) - 1) * 2^16; idctMul1 adds a back
	idctC2 = 35468 // sqrt(2) * sin(pi/8) * 2^16, fixed-point
)

// b2i returns 1 if cond is true, 0 otherwise.
func b2i(cond bool) int {
	if cond {
		return 1
	}
	return 0
}

func idctMul1(a int) int { return ((a * idctC1) >> 16) + a }
func idctMul2(a int) int { return (a * idctC2) >> 16 }

// addResidual clips dst[off]+(x>>3) to [0,255] and writes it back; x carries
// three extra fractional bits from the IDCT's fixed-point scaling.
func addResidual(dst []byte, off, x int) {
	dst[off] = Clip8b(int(dst[off]) + (x >> 3))
}

// idctColumnPass runs the IDCT's butterfly across each of the 4 columns of a
// 16-coefficient block, producing the 16 intermediate values the row pass
// consumes next. Shared by the decoder's transformOne and the encoder's
// iTransformOne, whose column passes are identical — they differ only in
// how the row pass's output gets written.
func idctColumnPass(in []int16) [16]int {
	var tmp [16]int
	for col := 0; col < 4; col++ {
		a := int(in[col]) + int(in[8+col])
		b := int(in[col]) - int(in[8+col])
		cc := idctMul2(int(in[4+col])) - idctMul1(int(in[12+col]))
		d := idctMul1(int(in[4+col])) + idctMul2(int(in[12+col]))
		tmp[col] = a + d
		tmp[4+col] = b + cc
		tmp[8+col] = b - cc
		tmp[12+col] = a - d
	}
	return tmp
}

// idctRow computes row r's four butterfly outputs (a+d, b+cc, b-cc, a-d)
// from the column pass's intermediate values.
func idctRow(tmp [16]int, r int) (sum, diffCC, sumCC, diff int) {
	dc := tmp[4*r] + 4
	a := dc + tmp[4*r+2]
	b := dc - tmp[4*r+2]
	cc := idctMul2(tmp[4*r+1]) - idctMul1(tmp[4*r+3])
	d := idctMul1(tmp[4*r+1]) + idctMul2(tmp[4*r+3])
	return a + d, b + cc, b - cc, a - d
}

// transformOne performs a single 4x4 inverse DCT (decoder path): in holds 16
// coefficients, dst is the reconstruction buffer (stride BPS) the residual
// is added into in place.
func transformOne(in []int16, dst []byte) {
	_ = in[15]
	_ = dst[3+3*BPS]

	tmp := idctColumnPass(in)
	for r := 0; r < 4; r++ {
		s0, s1, s2, s3 := idctRow(tmp, r)
		off := r * BPS
		addResidual(dst, off+0, s0)
		addResidual(dst, off+1, s1)
		addResidual(dst, off+2, s2)
		addResidual(dst, off+3, s3)
	}
}

// transformTwo applies one or two 4x4 IDCTs side by side.
func transformTwo(in []int16, dst []byte, doTwo bool) {
	transformOne(in, dst)
	if doTwo {
		transformOne(in[16:], dst[4:])
	}
}

// transformDC applies a DC-only inverse transform: every output sample gets
// the same DC value, used when all 15 AC coefficients are zero.
func transformDC(in []int16, dst []byte) {
	dc := int(in[0]) + 4
	for r := 0; r < 4; r++ {
		off := r * BPS
		addResidual(dst, off+0, dc)
		addResidual(dst, off+1, dc)
		addResidual(dst, off+2, dc)
		addResidual(dst, off+3, dc)
	}
}

// transformAC3 applies the inverse transform when only coefficients 0, 1,
// and 4 (scan-order DC plus the first two AC terms) are non-zero.
func transformAC3(in []int16, dst []byte) {
	a := int(in[0]) + 4
	c4 := idctMul2(int(in[4]))
	d4 := idctMul1(int(in[4]))
	c1v := idctMul2(int(in[1]))
	d1v := idctMul1(int(in[1]))

	rowDC := [4]int{a + d4, a + c4, a - c4, a - d4}
	for r, dc := range rowDC {
		off := r * BPS
		addResidual(dst, off+0, dc+d1v)
		addResidual(dst, off+1, dc+c1v)
		addResidual(dst, off+2, dc-c1v)
		addResidual(dst, off+3, dc-d1v)
	}
}

// transformUV applies full IDCTs to the four 4x4 blocks of one 8x8 chroma
// plane: in[0:32] to the top pair at dst offsets 0 and 4, in[32:64] to the
// bottom pair at 4*BPS and 4*BPS+4.
func transformUV(in []int16, dst []byte) {
	transformTwo(in[0:], dst[0:], true)
	transformTwo(in[32:], dst[4*BPS:], true)
}

// transformDCUV applies a DC-only IDCT to whichever of the four 4x4
// sub-blocks of one 8x8 chroma plane (dst offsets 0, 4, 4*BPS, 4*BPS+4)
// carry a non-zero DC coefficient.
func transformDCUV(in []int16, dst []byte) {
	if in[0] != 0 {
		transformDC(in[0:], dst[0:])
	}
	if in[16] != 0 {
		transformDC(in[16:], dst[4:])
	}
	if in[32] != 0 {
		transformDC(in[32:], dst[4*BPS:])
	}
	if in[48] != 0 {
		transformDC(in[48:], dst[4*BPS+4:])
	}
}

// transformWHT performs the inverse Walsh-Hadamard transform on the 16
// luma-DC coefficients, scattering the 16 resulting per-block DC values into
// out at stride 16 (matching the residual buffer's 16-int16-per-block
// layout). out must have at least 256 elements.
func transformWHT(in []int16, out []int16) {
	var tmp [16]int

	for i := 0; i < 4; i++ {
		a0 := int(in[0+i]) + int(in[12+i])
		a1 := int(in[4+i]) + int(in[8+i])
		a2 := int(in[4+i]) - int(in[8+i])
		a3 := int(in[0+i]) - int(in[12+i])
		tmp[0+i] = a0 + a1
		tmp[8+i] = a0 - a1
		tmp[4+i] = a3 + a2
		tmp[12+i] = a3 - a2
	}

	for i := 0; i < 4; i++ {
		dc := tmp[i*4+0] + 3 // rounding
		a0 := dc + tmp[i*4+3]
		a1 := tmp[i*4+1] + tmp[i*4+2]
		a2 := tmp[i*4+1] - tmp[i*4+2]
		a3 := dc - tmp[i*4+3]
		base := i * 4 * 16 // 4 blocks per row, 16 coefficients per block
		out[base+0*16] = int16((a0 + a1) >> 3)
		out[base+1*16] = int16((a3 + a2) >> 3)
		out[base+2*16] = int16((a0 - a1) >> 3)
		out[base+3*16] = int16((a3 - a2) >> 3)
	}
}

// iTransform computes the inverse DCT for the encoder path, where the
// residual is added to an explicit reference block rather than in place.
func iTransform(ref []byte, in []int16, dst []byte, doTwo bool) {
	iTransformOne(ref, in, dst)
	if doTwo {
		iTransformOne(ref[4:], in[16:], dst[4:])
	}
}

// iTransformOne performs a single 4x4 IDCT for the encoder path: dst[i] =
// clip(ref[i] + residual(in)[i]). Shares its column pass with transformOne
// via idctColumnPass; only the row pass's output target differs.
func iTransformOne(ref []byte, in []int16, dst []byte) {
	_ = in[15]
	_ = ref[3+3*BPS]
	_ = dst[3+3*BPS]

	tmp := idctColumnPass(in)
	for r := 0; r < 4; r++ {
		s0, s1, s2, s3 := idctRow(tmp, r)
		off := r * BPS
		dst[off+0] = Clip8b(int(ref[off+0]) + (s0 >> 3))
		dst[off+1] = Clip8b(int(ref[off+1]) + (s1 >> 3))
		dst[off+2] = Clip8b(int(ref[off+2]) + (s2 >> 3))
		dst[off+3] = Clip8b(int(ref[off+3]) + (s3 >> 3))
	}
}

// fdctButterfly computes the forward DCT's shared 1-D butterfly: given four
// differences d0..d3, it returns the transform's four coefficients before
// the pass-specific scaling is applied.
func fdctButterfly(d0, d1, d2, d3 int) (a0sum, rot1, a0diff, rot2 int) {
	a0 := d0 + d3
	a1 := d1 + d2
	a2 := d1 - d2
	a3 := d0 - d3
	return a0 + a1, (a2*2217 + a3*5352 + 1812) >> 9, a0 - a1, (a3*2217 - a2*5352 + 937) >> 9
}

// fTransform computes the forward DCT (encoder path): src and ref are 4x4
// blocks with stride BPS, out receives 16 coefficients in scan order.
func fTransform(src, ref []byte, out []int16) {
	_ = src[3+3*BPS]
	_ = ref[3+3*BPS]
	_ = out[15]

	var tmp [16]int
	for r := 0; r < 4; r++ {
		off := r * BPS
		d0 := int(src[off+0]) - int(ref[off+0])
		d1 := int(src[off+1]) - int(ref[off+1])
		d2 := int(src[off+2]) - int(ref[off+2])
		d3 := int(src[off+3]) - int(ref[off+3])
		sum, rot1, diff, rot2 := fdctButterfly(d0, d1, d2, d3)
		tmp[r*4+0] = sum * 8
		tmp[r*4+1] = rot1
		tmp[r*4+2] = diff * 8
		tmp[r*4+3] = rot2
	}

	for c := 0; c < 4; c++ {
		a0 := tmp[c] + tmp[12+c]
		a1 := tmp[4+c] + tmp[8+c]
		a2 := tmp[4+c] - tmp[8+c]
		a3 := tmp[c] - tmp[12+c]
		out[c] = int16((a0 + a1 + 7) >> 4)
		out[4+c] = int16((a2*2217+a3*5352+12000)>>16 + b2i(a3 != 0))
		out[8+c] = int16((a0 - a1 + 7) >> 4)
		out[12+c] = int16((a3*2217 - a2*5352 + 51000) >> 16)
	}
}

// fTransform2 applies fTransform to two side-by-side 4x4 blocks.
func fTransform2(src, ref []byte, out []int16) {
	fTransform(src, ref, out)
	fTransform(src[4:], ref[4:], out[16:])
}

// fTransformWHT computes the forward Walsh-Hadamard transform on a flat 4x4
// array of DC coefficients (stride 4, one entry per luma sub-block), the
// encoder-side counterpart to transformWHT's inverse.
func fTransformWHT(in []int16, out []int16) {
	var tmp [16]int

	for i := 0; i < 4; i++ {
		a0 := int(in[i*4+0]) + int(in[i*4+2])
		a1 := int(in[i*4+1]) + int(in[i*4+3])
		a2 := int(in[i*4+1]) - int(in[i*4+3])
		a3 := int(in[i*4+0]) - int(in[i*4+2])
		tmp[0+i*4] = a0 + a1
		tmp[1+i*4] = a3 + a2
		tmp[2+i*4] = a3 - a2
		tmp[3+i*4] = a0 - a1
	}

	for i := 0; i < 4; i++ {
		a0 := tmp[0+i] + tmp[8+i]
		a1 := tmp[4+i] + tmp[12+i]
		a2 := tmp[4+i] - tmp[12+i]
		a3 := tmp[0+i] - tmp[8+i]
		b0 := a0 + a1
		b1 := a3 + a2
		b2 := a3 - a2
		b3 := a0 - a1
		out[0+i] = int16(b0 >> 1)
		out[4+i] = int16(b1 >> 1)
		out[8+i] = int16(b2 >> 1)
		out[12+i] = int16(b3 >> 1)
	}
}
