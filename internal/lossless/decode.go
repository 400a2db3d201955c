package lossless

import (
	"errors"
	"image"
	"runtime"
	"sync"

	"github.com/wpcore/webpcore/internal/bitio"
)

// VP8L decoder errors.
var (
	ErrBadSignature  = errors.New("lossless: bad VP8L signature")
	ErrBadVersion    = errors.New("lossless: bad VP8L version")
	ErrBitstream     = errors.New("lossless: bitstream error")
	ErrTooManyGroups = errors.New("lossless: too many Huffman groups")
)

// huffSlabSize is the default Huffman-table scratch slab; large enough to
// cover most images without falling back to per-table allocation.
const huffSlabSize = 1 << 16

// numArgbCacheRows is how many extra pixel rows allocateBuffers reserves
// past the image buffer as the argbCache tail (the color cache itself is a
// separate buffer).
const numArgbCacheRows = 16

// Decoder holds the working state of a VP8L lossless decode: the bit
// reader, image dimensions, in-flight transforms, and every scratch
// buffer reused across decodeImageStream/decodeImageData calls.
type Decoder struct {
	br *bitio.LosslessReader

	Width    int
	Height   int
	HasAlpha bool

	// transformWidth is the working width after transforms have been
	// applied (e.g. narrowed by color-indexing pixel packing) — mirrors
	// libwebp's dec->width, set by updateDecoder.
	transformWidth int

	pixels       []uint32 // decoded ARGB pixels, row-major
	argbCache    []uint32 // backward-reference scratch, slice of pixels' tail
	transformBuf []uint32 // applyInverseTransforms output, reused across calls

	hdr metadata // Huffman/color-cache state for the current decode level

	transforms     [NumTransforms]Transform // applied in reverse order by applyInverseTransforms
	nextTransform  int
	transformsSeen uint32

	codeLengthsBuf []int               // reusable scratch for readHuffmanCode
	huffScratch    HuffmanTableScratch // slab allocator for Huffman tables

	colorCacheBuf  []uint32     // reusable color-cache backing array
	htreeGroupsBuf []HTreeGroup // reusable HTreeGroup slice
}

// metadata holds the Huffman/color-cache configuration for one decode
// level (the top-level image, or a transform/meta-Huffman sub-image).
type metadata struct {
	colorCacheSize       int
	colorCache           *ColorCache
	huffmanImage         []uint32
	huffmanSubsampleBits int
	huffmanXSize         int
	huffmanMask          int
	numHTreeGroups       int
	htreeGroups          []HTreeGroup
}

// losslessDecoderPool recycles Decoders between calls so their pixel
// buffer and Huffman scratch survive across images.
var losslessDecoderPool sync.Pool

// acquireDecoder returns a zeroed-state Decoder, reusing its buffers from
// the pool when one is available.
func acquireDecoder() *Decoder {
	v := losslessDecoderPool.Get()
	if v == nil {
		return &Decoder{}
	}
	dec := v.(*Decoder)
	*dec = Decoder{
		pixels:         dec.pixels,
		transformBuf:   dec.transformBuf,
		codeLengthsBuf: dec.codeLengthsBuf,
		huffScratch:    dec.huffScratch,
		colorCacheBuf:  dec.colorCacheBuf,
		htreeGroupsBuf: dec.htreeGroupsBuf,
	}
	return dec
}

// releaseDecoder returns dec to the pool, dropping references to the
// caller's input data while keeping the reusable scratch buffers.
func releaseDecoder(dec *Decoder) {
	if dec == nil {
		return
	}
	dec.br = nil
	dec.argbCache = nil
	dec.hdr.htreeGroups = nil
	dec.hdr.huffmanImage = nil
	dec.hdr.colorCache = nil
	losslessDecoderPool.Put(dec)
}

// DecodeVP8L decodes a VP8L bitstream (the payload after the VP8L fourcc
// and chunk size) into an NRGBA image.
func DecodeVP8L(data []byte) (*image.NRGBA, error) {
	dec := acquireDecoder()
	defer releaseDecoder(dec)

	if err := dec.decodeHeader(data); err != nil {
		return nil, err
	}
	if cap(dec.huffScratch.tableSlab) < huffSlabSize {
		dec.huffScratch.tableSlab = make([]HuffmanCode, huffSlabSize)
	}
	dec.huffScratch.slabOff = 0

	// Reads transforms, color-cache config, and Huffman codes; sets
	// transformWidth to the (possibly pixel-packing-narrowed) working width.
	if err := dec.decodeImageStream(dec.Width, dec.Height, true); err != nil {
		return nil, err
	}

	tw := dec.transformWidth
	if tw == 0 {
		tw = dec.Width
	}
	dec.allocateBuffers(tw)

	if err := dec.decodeImageData(dec.pixels[:tw*dec.Height], tw, dec.Height, dec.Height); err != nil {
		return nil, err
	}

	// Transforms know the original width and expand packed pixels back
	// out to it as they invert.
	out := dec.applyInverseTransforms(dec.pixels[:dec.Width*dec.Height])
	return argbToNRGBA(out, dec.Width, dec.Height), nil
}

// allocateBuffers sizes dec.pixels (plus its argbCache tail) and
// dec.transformBuf for a decode at working width tw, reusing prior
// allocations when their capacity already suffices.
func (dec *Decoder) allocateBuffers(tw int) {
	numPixOrig := dec.Width * dec.Height
	numPixTrans := tw * dec.Height
	numAlloc := numPixOrig
	if numPixTrans > numAlloc {
		numAlloc = numPixTrans
	}

	needed := numAlloc + dec.Width + dec.Width*numArgbCacheRows
	if cap(dec.pixels) >= needed {
		dec.pixels = dec.pixels[:needed]
	} else {
		dec.pixels = make([]uint32, needed)
	}
	dec.argbCache = dec.pixels[numAlloc+dec.Width:]

	if cap(dec.transformBuf) >= numAlloc {
		dec.transformBuf = dec.transformBuf[:numAlloc]
	} else {
		dec.transformBuf = make([]uint32, numAlloc)
	}
}

// decodeHeader reads the VP8L header: signature, width, height, alpha, version.
func (dec *Decoder) decodeHeader(data []byte) error {
	if len(data) < VP8LHeaderSize {
		return ErrBadSignature
	}
	if data[0] != VP8LMagicByte {
		return ErrBadSignature
	}

	dec.br = bitio.NewLosslessReader(data[1:]) // skip signature byte

	dec.Width = int(dec.br.ReadBits(VP8LImageSizeBits)) + 1
	dec.Height = int(dec.br.ReadBits(VP8LImageSizeBits)) + 1
	dec.HasAlpha = dec.br.ReadBits(1) != 0
	if version := dec.br.ReadBits(VP8LVersionBits); version != VP8LVersion {
		return ErrBadVersion
	}
	if dec.br.IsEndOfStream() {
		return ErrBitstream
	}
	return nil
}

// decodeImageStream reads transforms (level-0 only), the color-cache
// config, and the Huffman codes for one decode level. At level 0 this
// leaves the header fully parsed for a subsequent decodeImageData call;
// for a sub-image (transform data or meta-Huffman image) the caller
// decodes the data itself via decodeSubImage.
func (dec *Decoder) decodeImageStream(xsize, ysize int, isLevel0 bool) error {
	workXSize, workYSize := xsize, ysize

	if isLevel0 {
		for dec.br.ReadBits(1) == 1 {
			var err error
			workXSize, err = dec.readTransform(workXSize, workYSize)
			if err != nil {
				return err
			}
		}
	}

	colorCacheBits := 0
	if dec.br.ReadBits(1) == 1 {
		colorCacheBits = int(dec.br.ReadBits(4))
		if colorCacheBits < 1 || colorCacheBits > MaxCacheBits {
			return ErrBitstream
		}
	}

	if err := dec.readHuffmanCodes(workXSize, workYSize, colorCacheBits, isLevel0); err != nil {
		return err
	}
	dec.setupColorCache(colorCacheBits)
	dec.updateDecoder(workXSize, workYSize)
	return nil
}

// setupColorCache installs dec.hdr.colorCache sized to colorCacheBits (or
// clears it when colorCacheBits is 0), reusing the pooled backing array
// when it is already large enough.
func (dec *Decoder) setupColorCache(colorCacheBits int) {
	if colorCacheBits == 0 {
		dec.hdr.colorCacheSize = 0
		dec.hdr.colorCache = nil
		return
	}

	size := 1 << colorCacheBits
	dec.hdr.colorCacheSize = size
	if cap(dec.colorCacheBuf) >= size {
		dec.colorCacheBuf = dec.colorCacheBuf[:size]
		for i := range dec.colorCacheBuf {
			dec.colorCacheBuf[i] = 0
		}
	} else {
		dec.colorCacheBuf = make([]uint32, size)
	}
	dec.hdr.colorCache = &ColorCache{
		Colors:    dec.colorCacheBuf,
		HashBits:  colorCacheBits,
		HashShift: 32 - colorCacheBits,
	}
}

// decodeSubImage decodes a complete nested image (transform data or a
// meta-Huffman image) at the given dimensions, restoring the parent
// level's Huffman/color-cache metadata before returning.
func (dec *Decoder) decodeSubImage(xsize, ysize int) ([]uint32, error) {
	savedHdr := dec.hdr
	dec.hdr = metadata{}

	if err := dec.decodeImageStream(xsize, ysize, false); err != nil {
		dec.hdr = savedHdr
		return nil, err
	}

	data := make([]uint32, xsize*ysize)
	if err := dec.decodeImageData(data, xsize, ysize, ysize); err != nil {
		dec.hdr = savedHdr
		return nil, err
	}

	dec.hdr = savedHdr
	return data, nil
}

// updateDecoder sets the transform-adjusted working width/height and the
// Huffman meta-image tiling parameters derived from it.
func (dec *Decoder) updateDecoder(width, height int) {
	dec.transformWidth = width
	bits := dec.hdr.huffmanSubsampleBits
	dec.hdr.huffmanXSize = VP8LSubSampleSize(width, bits)
	if bits == 0 {
		dec.hdr.huffmanMask = ^0 // every pixel shares the single Huffman group
	} else {
		dec.hdr.huffmanMask = (1 << bits) - 1
	}
}

// minPixelsForParallel is the pixel count below which argbToNRGBA converts
// on the calling goroutine instead of fanning out to workers.
const minPixelsForParallel = 1 << 16

// argbToNRGBA converts an ARGB pixel buffer (alpha in bits 31..24, then
// red, green, blue) into an image.NRGBA, splitting large images across
// GOMAXPROCS workers by row range.
func argbToNRGBA(pixels []uint32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := img.Pix
	stride := img.Stride

	workers := runtime.GOMAXPROCS(0)
	if workers <= 1 || width*height < minPixelsForParallel {
		argbToNRGBARows(pixels, pix, stride, width, 0, height)
		return img
	}

	rowsPerWorker := height / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		yStart := w * rowsPerWorker
		yEnd := yStart + rowsPerWorker
		if w == workers-1 {
			yEnd = height
		}
		go func(yStart, yEnd int) {
			defer wg.Done()
			argbToNRGBARows(pixels, pix, stride, width, yStart, yEnd)
		}(yStart, yEnd)
	}
	wg.Wait()
	return img
}

// argbToNRGBARows converts rows [yStart,yEnd) from ARGB to NRGBA byte layout.
func argbToNRGBARows(pixels []uint32, pix []byte, stride, width, yStart, yEnd int) {
	for y := yStart; y < yEnd; y++ {
		row := pixels[y*width : y*width+width]
		dst := pix[y*stride : y*stride+width*4]
		n := len(row)

		i := 0
		for ; i+3 < n; i += 4 {
			off := i * 4
			_ = dst[off+15] // bounds-check elimination for the 4-pixel block
			a0, a1, a2, a3 := row[i], row[i+1], row[i+2], row[i+3]
			dst[off+0] = uint8(a0 >> 16)
			dst[off+1] = uint8(a0 >> 8)
			dst[off+2] = uint8(a0)
			dst[off+3] = uint8(a0 >> 24)
			dst[off+4] = uint8(a1 >> 16)
			dst[off+5] = uint8(a1 >> 8)
			dst[off+6] = uint8(a1)
			dst[off+7] = uint8(a1 >> 24)
			dst[off+8] = uint8(a2 >> 16)
			dst[off+9] = uint8(a2 >> 8)
			dst[off+10] = uint8(a2)
			dst[off+11] = uint8(a2 >> 24)
			dst[off+12] = uint8(a3 >> 16)
			dst[off+13] = uint8(a3 >> 8)
			dst[off+14] = uint8(a3)
			dst[off+15] = uint8(a3 >> 24)
		}
		for ; i < n; i++ {
			off := i * 4
			argb := row[i]
			_ = dst[off+3]
			dst[off+0] = uint8(argb >> 16)
			dst[off+1] = uint8(argb >> 8)
			dst[off+2] = uint8(argb)
			dst[off+3] = uint8(argb >> 24)
		}
	}
}

// NRGBAToARGB converts an NRGBA image back to a []uint32 ARGB buffer.
func NRGBAToARGB(img *image.NRGBA) []uint32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x+bounds.Min.X, y+bounds.Min.Y)
			pixels[y*w+x] = uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		}
	}
	return pixels
}

// ARGBToNRGBA is an alias for the internal conversion, exported for tests.
func ARGBToNRGBA(pixels []uint32, width, height int) *image.NRGBA {
	return argbToNRGBA(pixels, width, height)
}
