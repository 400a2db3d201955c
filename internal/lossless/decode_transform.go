package lossless

// decode_transform.go reads VP8L transform records from the bitstream and
// runs their inverses over decoded pixel data, last-applied-first.
//
// Reference: libwebp/src/dec/vp8l_dec.c (ReadTransform, ApplyInverseTransforms)
// and libwebp/src/dsp/lossless.c (VP8LInverseTransform).

// readTransform reads one transform record and appends it to dec.transforms.
// It returns the (possibly narrowed, for color-indexing) xsize subsequent
// transforms and the final image should use.
func (dec *Decoder) readTransform(xsize, ysize int) (int, error) {
	kind := TransformType(dec.br.ReadBits(2))

	seenMask := uint32(1) << kind
	if dec.transformsSeen&seenMask != 0 {
		return 0, ErrBitstream // each transform kind may appear at most once
	}
	dec.transformsSeen |= seenMask

	t := &dec.transforms[dec.nextTransform]
	*t = Transform{Type: kind, XSize: xsize, YSize: ysize}
	dec.nextTransform++

	switch kind {
	case PredictorTransform, CrossColorTransform:
		t.Bits = MinTransformBits + int(dec.br.ReadBits(NumTransformBits))
		tileW := VP8LSubSampleSize(t.XSize, t.Bits)
		tileH := VP8LSubSampleSize(t.YSize, t.Bits)
		data, err := dec.decodeSubImage(tileW, tileH)
		if err != nil {
			return 0, err
		}
		t.Data = data

	case ColorIndexingTransform:
		numColors := int(dec.br.ReadBits(8)) + 1
		t.Bits = colorIndexPackingBits(numColors)

		palette, err := dec.decodeSubImage(numColors, 1)
		if err != nil {
			return 0, err
		}
		t.Data = expandColorMap(numColors, t.Bits, palette)
		xsize = VP8LSubSampleSize(t.XSize, t.Bits)

	case SubtractGreenTransform:
		// Carries no side data; Type alone is enough to invert it.
	}

	return xsize, nil
}

// colorIndexPackingBits returns how many pixels with a palette of
// numColors entries get packed per output byte, expressed as the
// log2-subsampling "Bits" field other transforms also use.
func colorIndexPackingBits(numColors int) int {
	switch {
	case numColors > 16:
		return 0
	case numColors > 4:
		return 1
	case numColors > 2:
		return 2
	default:
		return 3
	}
}

// expandColorMap turns the raw decoded palette (delta-coded per byte) into
// a full 2^(8>>bits)-entry color table.
func expandColorMap(numColors, bits int, palette []uint32) []uint32 {
	finalNumColors := 1 << (8 >> bits)
	table := make([]uint32, finalNumColors)
	if len(palette) > 0 {
		table[0] = palette[0]
	}

	src := argbSliceToBytes(palette)
	dst := argbSliceToBytes(table)
	for i := 4; i < 4*numColors; i++ {
		dst[i] = (src[i] + dst[i-4]) & 0xff
	}
	for i := 4 * numColors; i < 4*finalNumColors; i++ {
		dst[i] = 0
	}
	bytesToARGBSlice(dst, table)
	return table
}

func argbSliceToBytes(s []uint32) []uint8 {
	b := make([]uint8, len(s)*4)
	for i, v := range s {
		b[i*4+0] = uint8(v)
		b[i*4+1] = uint8(v >> 8)
		b[i*4+2] = uint8(v >> 16)
		b[i*4+3] = uint8(v >> 24)
	}
	return b
}

func bytesToARGBSlice(b []uint8, s []uint32) {
	for i := range s {
		s[i] = uint32(b[i*4+0]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
}

// applyInverseTransforms runs every recorded transform's inverse over
// pixels, most-recently-applied first, and returns the final buffer.
func (dec *Decoder) applyInverseTransforms(pixels []uint32) []uint32 {
	if dec.nextTransform == 0 {
		return pixels
	}

	n := len(pixels)
	out := dec.transformBuf
	if out == nil || len(out) < n {
		out = make([]uint32, n)
	}

	rows := pixels
	for i := dec.nextTransform - 1; i >= 0; i-- {
		t := &dec.transforms[i]
		inverseTransform(t, 0, t.YSize, rows, out)
		rows = out
	}
	return out[:n]
}

// inverseTransform dispatches a single inverse transform over [rowStart,rowEnd).
func inverseTransform(t *Transform, rowStart, rowEnd int, in, out []uint32) {
	switch t.Type {
	case SubtractGreenTransform:
		undoSubtractGreen(in, (rowEnd-rowStart)*t.XSize, out)
	case PredictorTransform:
		undoPredictor(t, rowStart, rowEnd, in, out)
	case CrossColorTransform:
		undoCrossColor(t, rowStart, rowEnd, in, out)
	case ColorIndexingTransform:
		undoColorIndexing(t, rowStart, rowEnd, in, out)
	}
}

// --- pixel-level ARGB arithmetic shared by the transform inverses ---

// addARGB adds two pixels per 8-bit component, wrapping mod 256.
func addARGB(a, b uint32) uint32 {
	ag := (a & 0xff00ff00) + (b & 0xff00ff00)
	rb := (a & 0x00ff00ff) + (b & 0x00ff00ff)
	return (ag & 0xff00ff00) | (rb & 0x00ff00ff)
}

// avg2 computes the per-component rounded-down average of two pixels.
func avg2(a, b uint32) uint32 {
	return (((a ^ b) & 0xfefefefe) >> 1) + (a & b)
}

// clampComponents clamps each of the four values to [0, 255] and packs
// values[i] into byte i of the result (values[0] lowest).
func clampComponents(values [4]int32) uint32 {
	var out uint32
	for i, v := range values {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out |= uint32(v) << uint(8*i)
	}
	return out
}

func clampedAddSubtractFull(a, b, c uint32) uint32 {
	var v [4]int32
	for i := range v {
		shift := uint(8 * i)
		v[i] = int32((a>>shift)&0xff) + int32((b>>shift)&0xff) - int32((c>>shift)&0xff)
	}
	return clampComponents(v)
}

func clampedAddSubtractHalf(avg, c uint32) uint32 {
	var v [4]int32
	for i := range v {
		shift := uint(8 * i)
		va := int32((avg >> shift) & 0xff)
		vc := int32((c >> shift) & 0xff)
		v[i] = va + (va-vc)/2
	}
	return clampComponents(v)
}

func selectPredictor(left, top, topLeft uint32) uint32 {
	var pa int32
	for shift := uint(0); shift < 32; shift += 8 {
		ac := int32((top>>shift)&0xff) - int32((topLeft>>shift)&0xff)
		bc := int32((left>>shift)&0xff) - int32((topLeft>>shift)&0xff)
		if ac < 0 {
			ac = -ac
		}
		if bc < 0 {
			bc = -bc
		}
		pa += bc - ac
	}
	if pa <= 0 {
		return top
	}
	return left
}

// predictSample returns the predicted pixel for one of VP8L's 14 spatial
// predictor modes, given its four decoded neighbors.
func predictSample(mode int, left, top, topLeft, topRight uint32) uint32 {
	switch mode {
	case 0:
		return 0xff000000
	case 1:
		return left
	case 2:
		return top
	case 3:
		return topRight
	case 4:
		return topLeft
	case 5:
		return avg2(avg2(left, topRight), top)
	case 6:
		return avg2(left, topLeft)
	case 7:
		return avg2(left, top)
	case 8:
		return avg2(topLeft, top)
	case 9:
		return avg2(top, topRight)
	case 10:
		return avg2(avg2(left, topLeft), avg2(top, topRight))
	case 11:
		return selectPredictor(left, top, topLeft)
	case 12:
		return clampedAddSubtractFull(left, top, topLeft)
	case 13:
		return clampedAddSubtractHalf(avg2(left, top), topLeft)
	default:
		return 0xff000000
	}
}

// --- subtract-green ---

func undoSubtractGreen(src []uint32, numPixels int, dst []uint32) {
	for i := 0; i < numPixels; i++ {
		argb := src[i]
		green := (argb >> 8) & 0xff
		rb := (argb & 0x00ff00ff) + ((green << 16) | green)
		dst[i] = (argb & 0xff00ff00) | (rb & 0x00ff00ff)
	}
}

// --- spatial predictor ---

// undoPredictor reconstructs pixels given their residual-coded input,
// tiling the per-tile predictor mode table across rows [yStart,yEnd).
func undoPredictor(t *Transform, yStart, yEnd int, in, out []uint32) {
	width := t.XSize
	inOff, outOff := 0, 0

	if yStart == 0 {
		out[0] = addARGB(in[0], 0xff000000) // first pixel: predictor 0 (black)
		for x := 1; x < width; x++ {
			out[x] = addARGB(in[x], out[x-1]) // rest of row 0: predictor 1 (left)
		}
		inOff, outOff = width, width
		yStart = 1
	}

	tileWidth := 1 << t.Bits
	tileMask := tileWidth - 1
	tilesPerRow := VP8LSubSampleSize(width, t.Bits)

	for y := yStart; y < yEnd; y++ {
		modeRowBase := (y >> t.Bits) * tilesPerRow
		out[outOff] = addARGB(in[inOff], out[outOff-width]) // col 0: predictor 2 (top)

		for x := 1; x < width; {
			mode := int((t.Data[modeRowBase+(x>>t.Bits)] >> 8) & 0xf)
			xEnd := (x &^ tileMask) + tileWidth
			if xEnd > width {
				xEnd = width
			}
			for ; x < xEnd; x++ {
				var topRight uint32
				if x < width-1 {
					topRight = out[outOff+x+1-width]
				} else {
					topRight = out[outOff] // wraps to this row's first pixel
				}
				pred := predictSample(mode, out[outOff+x-1], out[outOff+x-width], out[outOff+x-1-width], topRight)
				out[outOff+x] = addARGB(in[inOff+x], pred)
			}
		}
		inOff += width
		outOff += width
	}
}

// --- cross-color ---

type colorMultipliers struct {
	greenToRed  uint8
	greenToBlue uint8
	redToBlue   uint8
}

func colorCodeToMultipliers(colorCode uint32) colorMultipliers {
	return colorMultipliers{
		greenToRed:  uint8(colorCode),
		greenToBlue: uint8(colorCode >> 8),
		redToBlue:   uint8(colorCode >> 16),
	}
}

func colorTransformDelta(multiplier, color int8) int32 {
	return (int32(multiplier) * int32(color)) >> 5
}

func transformColorInverse(m colorMultipliers, argb uint32) uint32 {
	green := int8(argb >> 8)
	red := int32(argb>>16) & 0xff
	blue := int32(argb) & 0xff

	newRed := (red + colorTransformDelta(int8(m.greenToRed), green)) & 0xff
	newBlue := blue + colorTransformDelta(int8(m.greenToBlue), green)
	newBlue = (newBlue + colorTransformDelta(int8(m.redToBlue), int8(newRed))) & 0xff

	return (argb & 0xff00ff00) | (uint32(newRed) << 16) | uint32(newBlue)
}

// undoCrossColor reverses the cross-color decorrelation transform,
// applying one multiplier triple per tile.
func undoCrossColor(t *Transform, yStart, yEnd int, src, dst []uint32) {
	width := t.XSize
	tileWidth := 1 << t.Bits
	tileMask := tileWidth - 1
	safeWidth := width &^ tileMask
	tailWidth := width - safeWidth
	tilesPerRow := VP8LSubSampleSize(width, t.Bits)

	srcOff, dstOff := 0, 0
	for y := yStart; y < yEnd; y++ {
		tileRowBase := (y >> t.Bits) * tilesPerRow
		tileIdx := 0

		x := 0
		for x < safeWidth {
			m := colorCodeToMultipliers(t.Data[tileRowBase+tileIdx])
			tileIdx++
			for i := 0; i < tileWidth; i++ {
				dst[dstOff+x+i] = transformColorInverse(m, src[srcOff+x+i])
			}
			x += tileWidth
		}
		if x < width {
			m := colorCodeToMultipliers(t.Data[tileRowBase+tileIdx])
			for i := 0; i < tailWidth; i++ {
				dst[dstOff+x+i] = transformColorInverse(m, src[srcOff+x+i])
			}
		}

		srcOff += width
		dstOff += width
	}
}

// --- color indexing (palette) ---

// paletteIndex extracts the green channel byte VP8L stores a palette index in.
func paletteIndex(argb uint32) uint32 {
	return (argb >> 8) & 0xff
}

// undoColorIndexing expands palette indices back to ARGB pixels, unpacking
// sub-byte-packed indices when the palette is small enough to need it.
func undoColorIndexing(t *Transform, yStart, yEnd int, src, dst []uint32) {
	width := t.XSize
	colorMap := t.Data
	bitsPerPixel := 8 >> t.Bits
	pixelsPerByte := 1 << t.Bits
	countMask := pixelsPerByte - 1
	bitMask := uint32((1 << bitsPerPixel) - 1)

	srcOff, dstOff := 0, 0
	for y := yStart; y < yEnd; y++ {
		var packed uint32
		for x := 0; x < width; x++ {
			if x&countMask == 0 {
				packed = paletteIndex(src[srcOff])
				srcOff++
			}
			if idx := packed & bitMask; int(idx) < len(colorMap) {
				dst[dstOff] = colorMap[idx]
			}
			dstOff++
			packed >>= uint(bitsPerPixel)
		}
	}
}
