package dsp

import "math"

// SSIM and PSNR metric computation matching libwebp ssim.c.

// kWeightSum is the squared sum of the hat-shaped kernel coefficients
// used in SSIMFromStats: sum({1,2,3,4,3,2,1})^2 = 16^2 = 256.
const kWeightSum = 16 * 16

// DistoStats accumulates statistics for SSIM computation over a block.
type DistoStats struct {
	W             uint32 // number of samples
	Xm, Ym        uint32 // sum of x, sum of y
	Xxm, Xym, Yym uint32 // sum of x*x, x*y, y*y
}

// Accumulate adds a single pixel pair (x, y) to the statistics with weight 1.
func (s *DistoStats) Accumulate(x, y uint8) {
	s.W++
	s.Xm += uint32(x)
	s.Ym += uint32(y)
	s.Xxm += uint32(x) * uint32(x)
	s.Xym += uint32(x) * uint32(y)
	s.Yym += uint32(y) * uint32(y)
}

// AccumulateWeighted adds a single pixel pair (x, y) with a given weight
// to the statistics.
func (s *DistoStats) AccumulateWeighted(x, y uint8, w uint32) {
	s.W += w
	s.Xm += w * uint32(x)
	s.Ym += w * uint32(y)
	s.Xxm += w * uint32(x) * uint32(x)
	s.Xym += w * uint32(x) * uint32(y)
	s.Yym += w * uint32(y) * uint32(y)
}

// ssimKernel is the hat-shaped kernel's radius. Sum of coefficients is 16.
const ssimKernel = 3

var ssimWeight = [2*ssimKernel + 1]uint32{1, 2, 3, 4, 3, 2, 1}

// ssimCalculation computes the SSIM value from accumulated statistics using
// integer arithmetic. N is the number of samples (kWeightSum or stats.W).
func ssimCalculation(s *DistoStats, N uint32) float64 {
	w2 := uint64(N) * uint64(N)
	C1 := 20 * w2
	C2 := 60 * w2
	C3 := 8 * 8 * w2 // 'dark' limit

	xmxm := uint64(s.Xm) * uint64(s.Xm)
	ymym := uint64(s.Ym) * uint64(s.Ym)

	// Dark zone check: if both signals are very dark, return 1.0.
	if xmxm+ymym < C3 {
		return 1.0
	}

	xmym := int64(s.Xm) * int64(s.Ym)
	sxy := int64(s.Xym)*int64(N) - xmym // can be negative
	sxx := uint64(s.Xxm)*uint64(N) - xmxm
	syy := uint64(s.Yym)*uint64(N) - ymym

	// Clamp negative sxy to 0 for the numerator.
	var sxyPos uint64
	if sxy > 0 {
		sxyPos = uint64(sxy)
	}

	// Descale by 8 to prevent overflow during the fnum/fden multiply.
	numS := (2*sxyPos + C2) >> 8
	denS := (sxx + syy + C2) >> 8
	fnum := (2*uint64(xmym) + C1) * numS
	fden := (xmxm + ymym + C1) * denS

	if fden == 0 {
		return 1.0
	}
	return float64(fnum) / float64(fden)
}

// SSIMFromStats computes the SSIM value from accumulated statistics using
// the fixed kWeightSum. Returns 0 when no samples were accumulated.
func SSIMFromStats(s *DistoStats) float64 {
	if s.W == 0 {
		return 0
	}
	return ssimCalculation(s, kWeightSum)
}

// SSIMFromStatsClipped computes the SSIM value using the actual accumulated
// weight, for windows whose total weight may fall short of kWeightSum
// because they were clipped at an image boundary.
func SSIMFromStatsClipped(s *DistoStats) float64 {
	return ssimCalculation(s, s.W)
}

// SSIMFromBlocks computes the SSIM between two blocks of pixels, each with
// the given width, height, and stride.
func SSIMFromBlocks(pix, ref []byte, width, height, pixStride, refStride int) float64 {
	var s DistoStats
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			s.Accumulate(pix[x+y*pixStride], ref[x+y*refStride])
		}
	}
	return SSIMFromStatsClipped(&s)
}

// SSIMGet computes the SSIM at a full (non-clipped) 7x7 window using the
// hat-shaped kernel weights. src1 and src2 must have at least
// (2*ssimKernel+1) accessible rows and columns.
func SSIMGet(src1 []byte, stride1 int, src2 []byte, stride2 int) float64 {
	var s DistoStats
	for y := 0; y <= 2*ssimKernel; y++ {
		for x := 0; x <= 2*ssimKernel; x++ {
			w := ssimWeight[x] * ssimWeight[y]
			s.AccumulateWeighted(src1[x+y*stride1], src2[x+y*stride2], w)
		}
	}
	return SSIMFromStats(&s)
}

// SSIMGetClipped computes the SSIM at a window centered on (xo, yo) that may
// be clipped against the W x H image boundary, using the hat-shaped kernel
// weights.
func SSIMGetClipped(src1 []byte, stride1 int, src2 []byte, stride2 int,
	xo, yo, W, H int) float64 {
	var s DistoStats
	ymin := yo - ssimKernel
	if ymin < 0 {
		ymin = 0
	}
	ymax := yo + ssimKernel
	if ymax > H-1 {
		ymax = H - 1
	}
	xmin := xo - ssimKernel
	if xmin < 0 {
		xmin = 0
	}
	xmax := xo + ssimKernel
	if xmax > W-1 {
		xmax = W - 1
	}
	for y := ymin; y <= ymax; y++ {
		for x := xmin; x <= xmax; x++ {
			w := ssimWeight[ssimKernel+x-xo] * ssimWeight[ssimKernel+y-yo]
			s.AccumulateWeighted(src1[x+y*stride1], src2[x+y*stride2], w)
		}
	}
	return SSIMFromStatsClipped(&s)
}

// PSNRFromSSE computes the PSNR from the sum of squared errors.
func PSNRFromSSE(sse uint64, count int) float64 {
	if sse == 0 || count == 0 {
		return 99.0 // perfect
	}
	mse := float64(sse) / float64(count)
	return 10.0 * math.Log10(255.0*255.0/mse)
}

// SSE computes the sum of squared errors between two pixel blocks.
func SSE(pix, ref []byte, width, height, pixStride, refStride int) uint64 {
	var sse uint64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := int(pix[x+y*pixStride]) - int(ref[x+y*refStride])
			sse += uint64(d * d)
		}
	}
	return sse
}

// MetricFunc is the signature for a per-block SSE/distortion metric, used
// for 4x4 or 16x16 blocks of BPS-strided pixel data.
type MetricFunc func(pix, ref []byte) int

// sseRow sums the squared pixel differences over n consecutive samples of
// pix and ref starting at off. Shared by sse4x4 and sse16x16, whose only
// difference is the row width and row count.
func sseRow(pix, ref []byte, off, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		d := int(pix[off+i]) - int(ref[off+i])
		sum += d * d
	}
	return sum
}

// sse4x4 computes SSE for a 4x4 block with BPS stride.
func sse4x4(pix, ref []byte) int {
	_ = pix[3+3*BPS]
	_ = ref[3+3*BPS]
	sum := 0
	for j := 0; j < 4; j++ {
		sum += sseRow(pix, ref, j*BPS, 4)
	}
	return sum
}

// sse16x16 computes SSE for a 16x16 block with BPS stride.
func sse16x16(pix, ref []byte) int {
	_ = pix[15+15*BPS]
	_ = ref[15+15*BPS]
	sum := 0
	for j := 0; j < 16; j++ {
		sum += sseRow(pix, ref, j*BPS, 16)
	}
	return sum
}

// SSE4x4 is the function variable for 4x4 SSE.
var SSE4x4 MetricFunc

// SSE16x16 is the function variable for 16x16 SSE.
var SSE16x16 MetricFunc

// kWeightY holds the perceptual weights for Hadamard-domain distortion.
var kWeightY = [16]uint16{
	38, 32, 20, 9,
	32, 28, 17, 7,
	20, 17, 10, 4,
	9, 7, 4, 2,
}

// hadamardButterfly computes one 1-D, 4-point Hadamard butterfly. tTransform
// applies this identical butterfly once across each row and once across
// each column of the resulting matrix.
func hadamardButterfly(x0, x1, x2, x3 int) (s0, s1, s2, s3 int) {
	a0 := x0 + x2
	a1 := x1 + x3
	a2 := x1 - x3
	a3 := x0 - x2
	return a0 + a1, a3 + a2, a3 - a2, a0 - a1
}

// tTransform computes the weighted Hadamard transform sum for a 4x4 block:
// a horizontal butterfly pass over in's BPS-strided rows, followed by a
// vertical butterfly pass over the result, weighted by w and summed as
// absolute values.
func tTransform(in []byte, w []uint16) int {
	var tmp [16]int

	for i := 0; i < 4; i++ {
		off := i * BPS
		h0, h1, h2, h3 := hadamardButterfly(int(in[off+0]), int(in[off+1]), int(in[off+2]), int(in[off+3]))
		tmp[0+i*4] = h0
		tmp[1+i*4] = h1
		tmp[2+i*4] = h2
		tmp[3+i*4] = h3
	}

	sum := 0
	for i := 0; i < 4; i++ {
		v0, v1, v2, v3 := hadamardButterfly(tmp[0*4+i], tmp[1*4+i], tmp[2*4+i], tmp[3*4+i])
		sum += int(w[0*4+i]) * abs(v0)
		sum += int(w[1*4+i]) * abs(v1)
		sum += int(w[2*4+i]) * abs(v2)
		sum += int(w[3*4+i]) * abs(v3)
	}
	return sum
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// TDisto4x4 computes the perceptual Hadamard-domain distortion for a 4x4
// block. Both a and b are BPS-strided buffers.
func TDisto4x4(a, b []byte) int {
	sum1 := tTransform(a, kWeightY[:])
	sum2 := tTransform(b, kWeightY[:])
	d := sum2 - sum1
	if d < 0 {
		d = -d
	}
	return d >> 5
}

// TDisto16x16 computes the perceptual Hadamard-domain distortion for a
// 16x16 block by tiling TDisto4x4 over its sixteen 4x4 sub-blocks. Both a
// and b are BPS-strided buffers.
func TDisto16x16(a, b []byte) int {
	d := 0
	for y := 0; y < 16*BPS; y += 4 * BPS {
		for x := 0; x < 16; x += 4 {
			d += TDisto4x4(a[x+y:], b[x+y:])
		}
	}
	return d
}

func initSSIM() {
	SSE4x4 = sse4x4
	SSE16x16 = sse16x16
}
