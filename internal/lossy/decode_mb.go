package lossy

import (
	"errors"

	"github.com/wpcore/webpcore/internal/bitio"
	"github.com/wpcore/webpcore/internal/dsp"
)

var errPrematureEOF = errors.New("vp8: premature end of data")

// catExtraBitTables groups the category extra-bit probability tables used
// for token values 11 and above (categories 0 through 3, i.e. VP8's cat3
// through cat6).
var catExtraBitTables = [4][]uint8{
	KCat3[:], KCat4[:], KCat5[:], KCat6[:],
}

// getCoeffs decodes coefficients n..15 of one 4x4 block from the token
// partition into out, walking VP8's coefficient tree: a zero/more-zeros
// bit, a first-coefficient-is-one bit, then (for larger magnitudes) the
// category sub-tree in getLargeValue. dq0/dq1 scale the DC/AC
// coefficients respectively; ctx selects bands[n]'s entropy context.
// Returns the index past the last coefficient decoded (16 if the block
// ran to the end without an early zero).
func getCoeffs(br *bitio.BoolReader, bands *[17]*BandProbas, ctx int, dq0, dq1 int, n int, out []int16) int {
	p := bands[n].Probas[ctx][:]
	for ; n < 16; n++ {
		if br.GetBit(p[0]) == 0 {
			return n
		}
		for br.GetBit(p[1]) == 0 {
			n++
			p = bands[n].Probas[0][:]
			if n == 16 {
				return 16
			}
		}

		pCtx := &bands[n+1].Probas
		var v int
		if br.GetBit(p[2]) == 0 {
			v = 1
			p = pCtx[1][:]
		} else {
			v = getLargeValue(br, p)
			p = pCtx[2][:]
		}

		dq := dq1
		if n == 0 {
			dq = dq0
		}
		out[KZigzag[n]] = int16(br.GetSigned(v) * dq)
	}
	return 16
}

// getLargeValue decodes a token magnitude of 2 or more: the "large value"
// branch of VP8's coefficient tree, ending in one of six extra-bit
// categories for values 5 and up.
func getLargeValue(br *bitio.BoolReader, p []uint8) int {
	if br.GetBit(p[3]) == 0 {
		if br.GetBit(p[4]) == 0 {
			return 2
		}
		return 3 + br.GetBit(p[5])
	}

	if br.GetBit(p[6]) == 0 {
		if br.GetBit(p[7]) == 0 {
			return 5 + br.GetBit(159)
		}
		v := 7 + 2*br.GetBit(165)
		return v + br.GetBit(145)
	}

	bit1 := br.GetBit(p[8])
	bit0 := br.GetBit(p[9+bit1])
	cat := 2*bit1 + bit0

	v := 0
	for _, tabProb := range catExtraBitTables[cat] {
		v = v + v + br.GetBit(tabProb)
	}
	return v + 3 + (8 << uint(cat))
}

// nzCodeBits packs a 2-bit code describing how many of a 4x4 block's
// coefficients are non-zero, appending it to nzCoeffs.
func nzCodeBits(nzCoeffs uint32, nz int, dcNz int) uint32 {
	nzCoeffs <<= 2
	switch {
	case nz > 3:
		nzCoeffs |= 3
	case nz > 1:
		nzCoeffs |= 2
	default:
		nzCoeffs |= uint32(dcNz)
	}
	return nzCoeffs
}

// decodeMB decodes one macroblock's residual coefficients from the token
// partition, or clears them when the macroblock is marked skipped.
func (dec *Decoder) decodeMB(tokenBR *bitio.BoolReader) error {
	left := &dec.mbInfo[0]
	mb := &dec.mbInfo[dec.mbX+1]
	block := &dec.mbData[dec.mbX]

	skip := dec.useSkipProba && block.Skip
	if skip {
		left.Nz, mb.Nz = 0, 0
		if !block.IsI4x4 {
			left.NzDC, mb.NzDC = 0, 0
		}
		block.NonZeroY = 0
		block.NonZeroUV = 0
		block.Dither = 0
	} else {
		skip = dec.parseResiduals(mb, left, block, tokenBR)
	}

	if dec.filterType > 0 {
		finfo := &dec.fInfo[dec.mbX]
		*finfo = dec.fstrengths[block.Segment][b2i(block.IsI4x4)]
		finfo.FInner = finfo.FInner || !skip
	}

	if tokenBR.EOF() {
		return errPrematureEOF
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseResiduals decodes every residual coefficient block (luma DC/AC and
// both chroma planes) for one macroblock, updating the shared above/left
// non-zero context as it goes. It returns true when the macroblock turned
// out to carry no non-zero coefficients at all, which lets the caller
// treat it as skipped for loop-filter purposes even though the bitstream
// didn't mark it so.
func (dec *Decoder) parseResiduals(mb, leftMB *MB, block *MBData, tokenBR *bitio.BoolReader) bool {
	bands := &dec.proba.BandsPtr
	q := &dec.dqm[block.Segment]
	dst := block.Coeffs[:]
	for i := range block.Coeffs {
		block.Coeffs[i] = 0
	}

	first, acBands := dec.decodeLumaDC(mb, leftMB, block, q, bands, tokenBR, dst)
	nonZeroY, tnz, lnz := decodeLumaAC(tokenBR, acBands, q, first, uint32(mb.Nz), uint32(leftMB.Nz), dst)
	nonZeroUV, tnz, lnz := decodeChroma(tokenBR, bands, q, uint32(mb.Nz), uint32(leftMB.Nz), tnz, lnz, dst)

	mb.Nz = uint8(tnz)
	leftMB.Nz = uint8(lnz)
	block.NonZeroY = nonZeroY
	block.NonZeroUV = nonZeroUV
	block.Dither = 0
	if nonZeroUV&0xaaaa == 0 {
		block.Dither = uint8(q.Dither)
	}
	block.Skip = nonZeroY == 0 && nonZeroUV == 0
	return block.Skip
}

// decodeLumaDC decodes the i16 luma DC block (the WHT-transformed type-1
// band) when the macroblock uses 16x16 prediction, writing its inverse
// WHT (or single-DC shortcut) directly into dst. It returns the
// coefficient start index and probability band the luma AC pass should
// use next: 1 and type-0 after a real DC block, or 0 and type-3 for 4x4
// macroblocks, which carry no separate DC block.
func (dec *Decoder) decodeLumaDC(mb, leftMB *MB, block *MBData, q *QuantMatrix, bands *[4][17]*BandProbas, tokenBR *bitio.BoolReader, dst []int16) (first int, acBands *[17]*BandProbas) {
	if block.IsI4x4 {
		return 0, &bands[3]
	}

	dc := &dec.dcScratch // decoder-level scratch avoids a heap escape through dsp.TransformWHT
	for i := range dc {
		dc[i] = 0
	}
	ctx := int(mb.NzDC) + int(leftMB.NzDC)
	nz := getCoeffs(tokenBR, &bands[1], ctx, q.Y2Mat[0], q.Y2Mat[1], 0, dc[:])

	nzFlag := uint8(0)
	if nz > 0 {
		nzFlag = 1
	}
	mb.NzDC, leftMB.NzDC = nzFlag, nzFlag

	if nz > 1 {
		dsp.TransformWHT(dc[:], dst)
	} else {
		dc0 := int16((int(dc[0]) + 3) >> 3)
		for i := 0; i < 16*16; i += 16 {
			dst[i] = dc0
		}
	}
	return 1, &bands[0]
}

// decodeLumaAC decodes the 16 4x4 luma AC blocks, tracking per-column
// above/left non-zero context across the block's 4x4 grid.
func decodeLumaAC(tokenBR *bitio.BoolReader, acBands *[17]*BandProbas, q *QuantMatrix, first int, mbNz, leftNz uint32, dst []int16) (nonZeroY uint32, outTNz, outLNz uint32) {
	tnz := mbNz & 0x0f
	lnz := leftNz & 0x0f
	for y := 0; y < 4; y++ {
		l := lnz & 1
		var nzCoeffs uint32
		for x := 0; x < 4; x++ {
			ctx := int(l) + int(tnz&1)
			nz := getCoeffs(tokenBR, acBands, ctx, q.Y1Mat[0], q.Y1Mat[1], first, dst)
			if nz > first {
				l = 1
			} else {
				l = 0
			}
			tnz = (tnz >> 1) | (l << 7)
			dcNz := 0
			if dst[0] != 0 {
				dcNz = 1
			}
			nzCoeffs = nzCodeBits(nzCoeffs, nz, dcNz)
			dst = dst[16:]
		}
		tnz >>= 4
		lnz = (lnz >> 1) | (l << 7)
		nonZeroY = (nonZeroY << 8) | nzCoeffs
	}
	return nonZeroY, tnz, lnz >> 4
}

// decodeChroma decodes the U and V planes' 2x2 grids of 4x4 blocks,
// folding their non-zero context into the tnz/lnz the luma pass already
// produced (chroma occupies the high nibble of each).
func decodeChroma(tokenBR *bitio.BoolReader, bands *[4][17]*BandProbas, q *QuantMatrix, mbNz, leftNz uint32, tnz, lnz uint32, dst []int16) (nonZeroUV uint32, newTNz, newLNz uint32) {
	for ch := 0; ch < 4; ch += 2 {
		var nzCoeffs uint32
		t := mbNz >> (4 + uint(ch))
		l := leftNz >> (4 + uint(ch))
		for y := 0; y < 2; y++ {
			lbit := l & 1
			for x := 0; x < 2; x++ {
				ctx := int(lbit) + int(t&1)
				nz := getCoeffs(tokenBR, &bands[2], ctx, q.UVMat[0], q.UVMat[1], 0, dst)
				if nz > 0 {
					lbit = 1
				} else {
					lbit = 0
				}
				t = (t >> 1) | (lbit << 3)
				dcNz := 0
				if dst[0] != 0 {
					dcNz = 1
				}
				nzCoeffs = nzCodeBits(nzCoeffs, nz, dcNz)
				dst = dst[16:]
			}
			t >>= 2
			l = (l >> 1) | (lbit << 5)
		}
		nonZeroUV |= nzCoeffs << uint(4*ch)
		tnz |= (t << 4) << uint(ch)
		lnz |= (l & 0xf0) << uint(ch)
	}
	return nonZeroUV, tnz, lnz
}
