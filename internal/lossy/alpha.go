package lossy

import (
	"fmt"
	"math"

	"github.com/wpcore/webpcore/internal/lossless"
	"github.com/wpcore/webpcore/internal/pool"
)

// Alpha compression methods.
const (
	AlphaNoCompression       = 0
	AlphaLosslessCompression = 1
)

// Alpha filtering methods.
const (
	AlphaFilterNone       = 0
	AlphaFilterHorizontal = 1
	AlphaFilterVertical   = 2
	AlphaFilterGradient   = 3
	alphaFilterLast       = 4 // sentinel
)

// Alpha filter mode constants for candidateFilters / EncodeAlpha.
const (
	AlphaFilterModeNone = 0 // No filtering.
	AlphaFilterModeFast = 4 // Quick estimate of best filter.
	AlphaFilterModeBest = 5 // Try all filters and pick smallest.
)

// alphaPreprocessedLevels is the header flag for pre-processed (quantized) alpha.
const alphaPreprocessedLevels = 1

// AlphaDecoder decodes the alpha plane from a WebP ALPH chunk.
type AlphaDecoder struct {
	width  int
	height int
}

// DecodeAlpha decodes an alpha plane from the given ALPH chunk data,
// returning it as a width*height byte slice.
func DecodeAlpha(data []byte, width, height int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("alpha: empty data")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("alpha: invalid dimensions %dx%d", width, height)
	}
	area := uint64(width) * uint64(height)
	if area > 1<<30 {
		return nil, fmt.Errorf("alpha: plane too large (%dx%d = %d pixels)", width, height, area)
	}

	header := data[0]
	compression := (header >> 0) & 0x03
	filtering := (header >> 2) & 0x03

	raw, err := decodeAlphaPlane(data[1:], int(area), width, height, compression)
	if err != nil {
		return nil, err
	}

	switch filtering {
	case AlphaFilterNone:
	case AlphaFilterHorizontal:
		unfilterHorizontal(raw, width, height)
	case AlphaFilterVertical:
		unfilterVertical(raw, width, height)
	case AlphaFilterGradient:
		unfilterGradient(raw, width, height)
	default:
		return nil, fmt.Errorf("alpha: unknown filter method %d", filtering)
	}

	return raw, nil
}

// decodeAlphaPlane decodes the ALPH chunk's compressed payload (everything
// after the header byte) into a planeSize-byte raw alpha plane, either a
// direct copy (uncompressed) or via the VP8L lossless decoder whose green
// channel carries the alpha samples.
func decodeAlphaPlane(payload []byte, planeSize, width, height int, compression byte) ([]byte, error) {
	switch compression {
	case AlphaNoCompression:
		if len(payload) < planeSize {
			return nil, fmt.Errorf("alpha: truncated uncompressed data")
		}
		raw := make([]byte, planeSize)
		copy(raw, payload[:planeSize])
		return raw, nil

	case AlphaLosslessCompression:
		alphaImage, err := lossless.DecodeVP8L(payload)
		if err != nil {
			return nil, fmt.Errorf("alpha: VP8L decode failed: %w", err)
		}
		bounds := alphaImage.Bounds()
		if bounds.Dx() < width || bounds.Dy() < height {
			return nil, fmt.Errorf("alpha: decoded image %dx%d smaller than expected %dx%d", bounds.Dx(), bounds.Dy(), width, height)
		}
		raw := make([]byte, planeSize)
		pix := alphaImage.Pix
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				off := alphaImage.PixOffset(x, y)
				// Green channel is at offset 1 in NRGBA (R=0, G=1, B=2, A=3).
				if off < 0 || off+1 >= len(pix) {
					return nil, fmt.Errorf("alpha: pixel offset out of bounds at (%d,%d)", x, y)
				}
				raw[y*width+x] = pix[off+1]
			}
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("alpha: unknown compression method %d", compression)
	}
}

// unfilterFirstRow reverses horizontal prediction on a single row with an
// initial left-prediction of 0; shared by the vertical and gradient
// unfilters, whose first row (no row above) falls back to this.
func unfilterFirstRow(row []byte) {
	for x := 1; x < len(row); x++ {
		row[x] += row[x-1]
	}
}

// unfilterHorizontal applies inverse horizontal prediction. Row 0 starts
// its left-prediction at 0; every later row's first sample instead predicts
// from the sample directly above it.
func unfilterHorizontal(data []byte, width, height int) {
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		if y > 0 {
			row[0] += data[(y-1)*width]
		}
		for x := 1; x < width; x++ {
			row[x] += row[x-1]
		}
	}
}

// unfilterVertical applies inverse vertical prediction: the first row has
// no row above it, so it falls back to horizontal unfiltering; every later
// row adds the row above it sample for sample.
func unfilterVertical(data []byte, width, height int) {
	unfilterFirstRow(data[:width])
	for y := 1; y < height; y++ {
		curr := data[y*width : (y+1)*width]
		prev := data[(y-1)*width : y*width]
		for x := 0; x < width; x++ {
			curr[x] += prev[x]
		}
	}
}

// unfilterGradient applies inverse gradient prediction: the first row falls
// back to horizontal unfiltering, and every later row predicts each sample
// as left+top-topLeft, clamped to a byte.
func unfilterGradient(data []byte, width, height int) {
	unfilterFirstRow(data[:width])
	for y := 1; y < height; y++ {
		curr := data[y*width : (y+1)*width]
		prev := data[(y-1)*width : y*width]
		top := prev[0]
		topLeft := top
		left := top
		for x := 0; x < width; x++ {
			top = prev[x]
			pred := clampToByteRange(int(left) + int(top) - int(topLeft))
			left = curr[x] + byte(pred)
			topLeft = top
			curr[x] = left
		}
	}
}

func clampToByteRange(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return v
	}
}

// ---------------------------------------------------------------------------
// Alpha encoder
// ---------------------------------------------------------------------------

// AlphaEncoderConfig holds parameters for alpha plane encoding.
type AlphaEncoderConfig struct {
	Quality     int // 0-100. quality < 100 enables level quantization.
	Method      int // 0 (no compression) or 1 (lossless compression).
	Filter      int // AlphaFilterMode{None,Fast,Best}; any other value (1..3 too) tries every filter, like Best.
	EffortLevel int // 0-6, maps to VP8L encoding effort.
}

// EncodeAlpha encodes a width*height alpha plane into an ALPH chunk payload
// (a one-byte header followed by the compressed data).
func EncodeAlpha(alpha []byte, width, height int, cfg *AlphaEncoderConfig) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("alpha: invalid dimensions %dx%d", width, height)
	}
	dataSize := width * height
	if len(alpha) < dataSize {
		return nil, fmt.Errorf("alpha: input too short (%d < %d)", len(alpha), dataSize)
	}

	quality := cfg.Quality
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}

	method := cfg.Method
	if method < AlphaNoCompression || method > AlphaLosslessCompression {
		return nil, fmt.Errorf("alpha: invalid method %d", method)
	}

	filter := cfg.Filter
	effortLevel := cfg.EffortLevel
	if effortLevel < 0 {
		effortLevel = 0
	}
	if effortLevel > 6 {
		effortLevel = 6
	}

	if method == AlphaNoCompression {
		// Filtering buys nothing when the plane isn't compressed afterward.
		filter = AlphaFilterModeNone
	}

	// quantAlpha never escapes this call (only copies of derived data do),
	// so it's drawn from the scratch pool rather than a fresh allocation.
	quantAlpha := pool.Get(dataSize)
	defer pool.Put(quantAlpha)
	copy(quantAlpha, alpha[:dataSize])

	reduceLevels := quality < 100
	if reduceLevels {
		quantizeLevels(quantAlpha, width, height, alphaLevelsForQuality(quality))
	}

	return encodeBestFilter(quantAlpha, width, height, method, filter, reduceLevels, effortLevel)
}

// alphaLevelsForQuality maps an encode quality to the number of distinct
// alpha levels the plane should be quantized to before compression:
// quality in [0,70] maps to [2,16] levels, (70,100] maps to (16,256] levels.
func alphaLevelsForQuality(quality int) int {
	if quality <= 70 {
		return 2 + quality/5
	}
	return 16 + (quality-70)*8
}

// candidateFilters returns an OR'd bit-set of filter indices worth trying
// for the given encoder mode.
func candidateFilters(alpha []byte, width, height, filter, effortLevel int) uint32 {
	const (
		filterTryNone = 1 << AlphaFilterNone
		filterTryAll  = (1 << alphaFilterLast) - 1
	)
	switch {
	case filter == AlphaFilterModeFast:
		const minColorsForNone = 16
		const maxColorsForNone = 192
		numColors := countDistinctLevels(alpha, width, height)
		best := AlphaFilterNone
		if numColors > minColorsForNone {
			best = estimateBestFilter(alpha, width, height)
		}
		bitMap := uint32(1 << uint(best))
		if effortLevel > 3 || numColors > maxColorsForNone {
			bitMap |= filterTryNone
		}
		return bitMap
	case filter == AlphaFilterModeNone || filter == AlphaFilterNone:
		return filterTryNone
	default:
		return filterTryAll
	}
}

// countDistinctLevels counts the number of distinct byte values present in
// the alpha plane.
func countDistinctLevels(data []byte, width, height int) int {
	var seen [256]bool
	for j := 0; j < height; j++ {
		for _, v := range data[j*width : j*width+width] {
			seen[v] = true
		}
	}
	n := 0
	for _, present := range seen {
		if present {
			n++
		}
	}
	return n
}

// estimateBestFilter estimates which alpha filter will yield the best
// compression by sampling every other pixel (skipping the border) and
// histogramming each candidate's prediction error.
func estimateBestFilter(data []byte, width, height int) int {
	const histBins = 16
	absDiffBin := func(a, b int) int {
		d := a - b
		if d < 0 {
			d = -d
		}
		return d >> 4
	}
	gradientPredictor := func(a, b, c byte) int {
		return clampToByteRange(int(a) + int(b) - int(c))
	}

	var bins [alphaFilterLast][histBins]int

	for j := 2; j < height-1; j += 2 {
		off := j * width
		mean := int(data[off])
		for i := 2; i < width-1; i += 2 {
			cur := int(data[off+i])
			none := absDiffBin(cur, mean)
			horiz := absDiffBin(cur, int(data[off+i-1]))
			vert := absDiffBin(cur, int(data[off+i-width]))
			gradPred := gradientPredictor(data[off+i-1], data[off+i-width], data[off+i-width-1])
			grad := absDiffBin(cur, gradPred)
			if none < histBins {
				bins[AlphaFilterNone][none] = 1
			}
			if horiz < histBins {
				bins[AlphaFilterHorizontal][horiz] = 1
			}
			if vert < histBins {
				bins[AlphaFilterVertical][vert] = 1
			}
			if grad < histBins {
				bins[AlphaFilterGradient][grad] = 1
			}
			mean = (3*mean + cur + 2) >> 2
		}
	}

	bestFilter := AlphaFilterNone
	bestScore := math.MaxInt32
	for f := AlphaFilterNone; f < alphaFilterLast; f++ {
		score := 0
		for i := 0; i < histBins; i++ {
			if bins[f][i] > 0 {
				score += i
			}
		}
		if score < bestScore {
			bestScore = score
			bestFilter = f
		}
	}
	return bestFilter
}

// filterFirstRow writes out's first row as in's first row, forward-filtered
// by left-prediction with an initial prediction of 0; shared by all three
// forward filters, whose first row is identical regardless of orientation.
func filterFirstRow(in, out []byte, width int) {
	out[0] = in[0]
	for i := 1; i < width; i++ {
		out[i] = in[i] - in[i-1]
	}
}

// filterHorizontal applies the forward horizontal prediction filter: every
// row (including the first) predicts each sample from its left neighbor,
// except each row's own first sample, which predicts from the sample above.
func filterHorizontal(in []byte, width, height int, out []byte) {
	filterFirstRow(in, out, width)
	for y := 1; y < height; y++ {
		src := in[y*width:]
		dst := out[y*width:]
		prev := in[(y-1)*width:]
		dst[0] = src[0] - prev[0]
		for x := 1; x < width; x++ {
			dst[x] = src[x] - src[x-1]
		}
	}
}

// filterVertical applies the forward vertical prediction filter: the first
// row has no row above it so it falls back to left-prediction; every later
// row predicts every sample from the sample above it.
func filterVertical(in []byte, width, height int, out []byte) {
	filterFirstRow(in, out, width)
	for y := 1; y < height; y++ {
		src := in[y*width:]
		dst := out[y*width:]
		prev := in[(y-1)*width:]
		for x := 0; x < width; x++ {
			dst[x] = src[x] - prev[x]
		}
	}
}

// filterGradient applies the forward gradient prediction filter: the first
// row falls back to left-prediction, and every later row's first sample
// predicts from above while the rest predict left+top-topLeft, clamped.
func filterGradient(in []byte, width, height int, out []byte) {
	filterFirstRow(in, out, width)
	for y := 1; y < height; y++ {
		src := in[y*width:]
		dst := out[y*width:]
		prev := in[(y-1)*width:]
		dst[0] = src[0] - prev[0]
		for x := 1; x < width; x++ {
			pred := clampToByteRange(int(src[x-1]) + int(prev[x]) - int(prev[x-1]))
			dst[x] = src[x] - byte(pred)
		}
	}
}

// encodeOneFilter encodes alpha data with a specific filter choice, returning
// the complete ALPH chunk payload (header byte + data) and its length.
func encodeOneFilter(data []byte, width, height, method, filter int, reduceLevels bool, effortLevel int) ([]byte, int, error) {
	dataSize := width * height

	var alphaSrc []byte
	if filter != AlphaFilterNone {
		// filtered is read out into argb/result below and never returned by
		// reference, so it's safe to draw from and return to the pool.
		filtered := pool.Get(dataSize)
		defer pool.Put(filtered)
		switch filter {
		case AlphaFilterHorizontal:
			filterHorizontal(data, width, height, filtered)
		case AlphaFilterVertical:
			filterVertical(data, width, height, filtered)
		case AlphaFilterGradient:
			filterGradient(data, width, height, filtered)
		}
		alphaSrc = filtered
	} else {
		alphaSrc = data
	}

	output := alphaSrc
	if method == AlphaLosslessCompression {
		compressed, err := compressAlphaLossless(alphaSrc, width, height, dataSize, reduceLevels, effortLevel)
		if err != nil {
			return nil, 0, err
		}
		if len(compressed) > dataSize {
			// Compressed is larger than raw, fall back to uncompressed.
			method = AlphaNoCompression
		} else {
			output = compressed
		}
	}

	header := byte(method) | byte(filter<<2)
	if reduceLevels {
		header |= byte(alphaPreprocessedLevels << 4)
	}

	result := make([]byte, 1+len(output))
	result[0] = header
	copy(result[1:], output)

	return result, len(result), nil
}

// compressAlphaLossless encodes alpha values via the VP8L lossless encoder,
// placing each alpha sample in the green channel of a synthetic ARGB image.
func compressAlphaLossless(alphaSrc []byte, width, height, dataSize int, reduceLevels bool, effortLevel int) ([]byte, error) {
	argb := make([]uint32, dataSize)
	for i, a := range alphaSrc {
		argb[i] = 0xff000000 | (uint32(a) << 8)
	}

	q := 8 * effortLevel
	if !reduceLevels && effortLevel == 6 {
		q = 100
	}
	if q > 100 {
		q = 100
	}

	lcfg := &lossless.EncoderConfig{
		Quality:             q,
		Method:              effortLevel,
		NearLosslessQuality: 100,
	}
	compressed, err := lossless.Encode(argb, width, height, lcfg)
	if err != nil {
		return nil, fmt.Errorf("alpha: VP8L encode failed: %w", err)
	}
	return compressed, nil
}

// encodeBestFilter tries every filter candidateFilters selects and returns
// the smallest resulting encoding.
func encodeBestFilter(alpha []byte, width, height, method, filter int, reduceLevels bool, effortLevel int) ([]byte, error) {
	tryMap := candidateFilters(alpha, width, height, filter, effortLevel)

	var best []byte
	bestScore := math.MaxInt32

	for f := AlphaFilterNone; f < alphaFilterLast && tryMap != 0; f++ {
		if tryMap&1 != 0 {
			result, score, err := encodeOneFilter(alpha, width, height, method, f, reduceLevels, effortLevel)
			if err != nil {
				return nil, err
			}
			if score < bestScore {
				best = result
				bestScore = score
			}
		}
		tryMap >>= 1
	}

	if best == nil {
		result, _, err := encodeOneFilter(alpha, width, height, method, AlphaFilterNone, reduceLevels, effortLevel)
		if err != nil {
			return nil, err
		}
		best = result
	}

	return best, nil
}

// quantizeLevels quantizes the alpha plane in place to at most numLevels
// distinct values via Lloyd-Max (K-means) iteration over the value
// histogram, minimizing squared quantization error.
func quantizeLevels(data []byte, width, height, numLevels int) {
	if numLevels < 2 || numLevels > 256 {
		return
	}
	dataSize := width * height
	if dataSize == 0 {
		return
	}

	const numSymbols = 256
	const maxIter = 6
	const errThreshold = 1e-4

	var freq [numSymbols]int
	minS, maxS := 255, 0
	numLevelsIn := 0
	for i := 0; i < dataSize; i++ {
		v := data[i]
		if freq[v] == 0 {
			numLevelsIn++
		}
		if int(v) < minS {
			minS = int(v)
		}
		if int(v) > maxS {
			maxS = int(v)
		}
		freq[v]++
	}

	if numLevelsIn <= numLevels {
		return
	}

	var invQLevel [numSymbols]float64
	var qLevel [numSymbols]int
	for i := 0; i < numLevels; i++ {
		invQLevel[i] = float64(minS) + float64(maxS-minS)*float64(i)/float64(numLevels-1)
	}
	qLevel[minS] = 0
	qLevel[maxS] = numLevels - 1

	errThreshScaled := errThreshold * float64(dataSize)
	lastErr := 1e38
	for iter := 0; iter < maxIter; iter++ {
		var qSum [numSymbols]float64
		var qCount [numSymbols]float64
		slot := 0

		for s := minS; s <= maxS; s++ {
			for slot < numLevels-1 &&
				2*float64(s) > invQLevel[slot]+invQLevel[slot+1] {
				slot++
			}
			if freq[s] > 0 {
				qSum[slot] += float64(s) * float64(freq[s])
				qCount[slot] += float64(freq[s])
			}
			qLevel[s] = slot
		}

		if numLevels > 2 {
			for slot = 1; slot < numLevels-1; slot++ {
				if qCount[slot] > 0 {
					invQLevel[slot] = qSum[slot] / qCount[slot]
				}
			}
		}

		err := 0.0
		for s := minS; s <= maxS; s++ {
			e := float64(s) - invQLevel[qLevel[s]]
			err += float64(freq[s]) * e * e
		}
		if lastErr-err < errThreshScaled {
			break
		}
		lastErr = err
	}

	var remap [numSymbols]byte
	for s := minS; s <= maxS; s++ {
		remap[s] = byte(invQLevel[qLevel[s]] + 0.5)
	}
	for i := 0; i < dataSize; i++ {
		data[i] = remap[data[i]]
	}
}
