package lossless

// decode_image.go implements VP8L's Huffman code reading and the
// entropy-coded image data decode loop.
//
// Reference: libwebp/src/dec/vp8l_dec.c (ReadHuffmanCode, ReadHuffmanCodes,
// ReadHuffmanCodesHelper, DecodeImageData).

import "github.com/wpcore/webpcore/internal/bitio"

// huffTableScratch returns the decoder's reusable Huffman-table slab
// allocator.
func (dec *Decoder) huffTableScratch() *HuffmanTableScratch {
	return &dec.huffScratch
}

// scratchInts returns a zeroed []int of length n, reusing dec's shared
// code-length scratch buffer when it already has the capacity.
func (dec *Decoder) scratchInts(n int) []int {
	if cap(dec.codeLengthsBuf) >= n {
		buf := dec.codeLengthsBuf[:n]
		for i := range buf {
			buf[i] = 0
		}
		return buf
	}
	buf := make([]int, n)
	dec.codeLengthsBuf = buf
	return buf
}

// readHuffmanCodeLengths decodes a run of Huffman-coded code lengths using
// a previously built code-length Huffman table.
func (dec *Decoder) readHuffmanCodeLengths(clTable []HuffmanCode, numSymbols int) ([]int, error) {
	codeLengths := dec.scratchInts(numSymbols)
	prevCodeLen := DefaultCodeLength

	maxSymbol := numSymbols
	if dec.br.ReadBits(1) == 1 {
		lengthNbits := 2 + 2*int(dec.br.ReadBits(3))
		maxSymbol = 2 + int(dec.br.ReadBits(lengthNbits))
		if maxSymbol > numSymbols {
			return nil, ErrBitstream
		}
	}

	symbol := 0
	remaining := maxSymbol
	for symbol < numSymbols && remaining > 0 {
		remaining--
		dec.br.FillBitWindow()
		entry := clTable[dec.br.PrefetchBits()&LengthsTableMask]
		dec.br.SetBitPos(dec.br.BitPos() + int(entry.Bits))
		codeLen := int(entry.Value)

		if codeLen < CodeLengthLiterals {
			codeLengths[symbol] = codeLen
			symbol++
			if codeLen != 0 {
				prevCodeLen = codeLen
			}
			continue
		}

		slot := codeLen - CodeLengthLiterals
		repeatCount := int(dec.br.ReadBits(int(CodeLengthExtraBits[slot]))) + int(CodeLengthRepeatOffsets[slot])
		if symbol+repeatCount > numSymbols {
			return nil, ErrBitstream
		}
		fillLen := 0
		if codeLen == CodeLengthRepeatCode {
			fillLen = prevCodeLen
		}
		for i := 0; i < repeatCount; i++ {
			codeLengths[symbol] = fillLen
			symbol++
		}
	}

	if dec.br.IsEndOfStream() {
		return nil, ErrBitstream
	}
	return codeLengths, nil
}

// readHuffmanCode reads one Huffman tree from the bitstream and returns its
// lookup table plus the maximum code length seen across its symbols (used
// by the caller to decide packed-table eligibility).
func (dec *Decoder) readHuffmanCode(alphabetSize int) ([]HuffmanCode, int, error) {
	if dec.br.ReadBits(1) == 1 {
		codeLengths, err := dec.readSimpleHuffmanLengths(alphabetSize)
		if err != nil {
			return nil, 0, err
		}
		return dec.finishHuffmanCode(codeLengths)
	}

	clCodeLengths, err := dec.readCodeLengthCodeLengths()
	if err != nil {
		return nil, 0, err
	}
	// The code-length table (LengthsTableBits=7, 128 root entries) is
	// carved from the same slab as the other tables.
	clTable, err := BuildHuffmanTableScratch(LengthsTableBits, clCodeLengths[:], dec.huffTableScratch())
	if err != nil {
		return nil, 0, err
	}
	codeLengths, err := dec.readHuffmanCodeLengths(clTable, alphabetSize)
	if err != nil {
		return nil, 0, err
	}
	return dec.finishHuffmanCode(codeLengths)
}

// readSimpleHuffmanLengths handles the "simple code" case: 1 or 2 symbols
// given directly rather than via a code-length Huffman tree.
func (dec *Decoder) readSimpleHuffmanLengths(alphabetSize int) ([]int, error) {
	codeLengths := dec.scratchInts(alphabetSize)

	numSymbols := int(dec.br.ReadBits(1)) + 1
	symbolBits := 1
	if dec.br.ReadBits(1) != 0 {
		symbolBits = 8
	}
	symbol := int(dec.br.ReadBits(symbolBits))
	if symbol >= alphabetSize {
		return nil, ErrBitstream
	}
	codeLengths[symbol] = 1

	if numSymbols == 2 {
		symbol2 := int(dec.br.ReadBits(8))
		if symbol2 >= alphabetSize {
			return nil, ErrBitstream
		}
		codeLengths[symbol2] = 1
	}
	return codeLengths, nil
}

// readCodeLengthCodeLengths reads the 3-bit lengths of the 19-symbol
// code-length alphabet itself, in CodeLengthCodeOrder's transmission order.
func (dec *Decoder) readCodeLengthCodeLengths() ([CodeLengthCodes]int, error) {
	var lens [CodeLengthCodes]int
	numCodes := int(dec.br.ReadBits(4)) + 4
	if numCodes > CodeLengthCodes {
		numCodes = CodeLengthCodes
	}
	for i := 0; i < numCodes; i++ {
		lens[CodeLengthCodeOrder[i]] = int(dec.br.ReadBits(3))
	}
	return lens, nil
}

// finishHuffmanCode builds the final lookup table from decoded code
// lengths and reports the maximum length seen.
func (dec *Decoder) finishHuffmanCode(codeLengths []int) ([]HuffmanCode, int, error) {
	if dec.br.IsEndOfStream() {
		return nil, 0, ErrBitstream
	}
	maxCodeLen := 0
	for _, cl := range codeLengths {
		if cl > maxCodeLen {
			maxCodeLen = cl
		}
	}
	table, err := BuildHuffmanTableScratch(HuffmanTableBits, codeLengths, dec.huffTableScratch())
	if err != nil {
		return nil, 0, err
	}
	return table, maxCodeLen, nil
}

// readHuffmanCodes reads the optional Huffman meta-image, then every
// Huffman tree group it references.
func (dec *Decoder) readHuffmanCodes(xsize, ysize, colorCacheBits int, allowRecursion bool) error {
	numHTreeGroups := 1
	numHTreeGroupsMax := 1
	var huffmanImage []uint32
	var mapping []int // non-nil while groups are being compacted; mapping[i]==-1 means unused

	if allowRecursion && dec.br.ReadBits(1) == 1 {
		var err error
		huffmanImage, numHTreeGroups, numHTreeGroupsMax, mapping, err = dec.readMetaHuffmanImage(xsize, ysize)
		if err != nil {
			return err
		}
	}
	if dec.br.IsEndOfStream() {
		return ErrBitstream
	}

	htreeGroups := dec.scratchHTreeGroups(numHTreeGroups)

	// The bitstream always carries numHTreeGroupsMax groups; any group the
	// meta-image mapping discarded still has to be read off the wire to
	// keep the bit reader synchronized, even though its result is dropped.
	for i := 0; i < numHTreeGroupsMax; i++ {
		mapped := i
		if mapping != nil {
			mapped = mapping[i]
		}
		if mapped == -1 {
			if err := dec.skipHTreeGroup(colorCacheBits); err != nil {
				return err
			}
			continue
		}
		if err := dec.readHTreeGroup(&htreeGroups[mapped], colorCacheBits); err != nil {
			return err
		}
	}

	dec.hdr.numHTreeGroups = numHTreeGroups
	dec.hdr.htreeGroups = htreeGroups
	dec.hdr.huffmanImage = huffmanImage
	return nil
}

// readMetaHuffmanImage decodes the Huffman meta-image sub-bitstream and
// compacts its group indices, remapping them into [0,numHTreeGroups) when
// the raw index space is too sparse to allocate directly.
func (dec *Decoder) readMetaHuffmanImage(xsize, ysize int) (image []uint32, numGroups, numGroupsMax int, mapping []int, err error) {
	precision := MinHuffmanBits + int(dec.br.ReadBits(NumHuffmanBits))
	hxsize := VP8LSubSampleSize(xsize, precision)
	hysize := VP8LSubSampleSize(ysize, precision)
	pixCount := hxsize * hysize

	sub, err := dec.decodeSubImage(hxsize, hysize)
	if err != nil {
		return nil, 0, 0, nil, err
	}
	dec.hdr.huffmanSubsampleBits = precision

	numGroupsMax = 1
	for i := 0; i < pixCount; i++ {
		group := int((sub[i] >> 8) & 0xffff)
		sub[i] = uint32(group)
		if group+1 > numGroupsMax {
			numGroupsMax = group + 1
		}
	}

	if numGroupsMax > 1000 || numGroupsMax > xsize*ysize {
		mapping = make([]int, numGroupsMax)
		for i := range mapping {
			mapping[i] = -1
		}
		numGroups = 0
		for i := 0; i < pixCount; i++ {
			g := int(sub[i])
			if mapping[g] == -1 {
				mapping[g] = numGroups
				numGroups++
			}
			sub[i] = uint32(mapping[g])
		}
	} else {
		numGroups = numGroupsMax
	}
	return sub, numGroups, numGroupsMax, mapping, nil
}

// scratchHTreeGroups returns a zeroed []HTreeGroup of length n, reusing
// the decoder's pooled buffer when possible.
func (dec *Decoder) scratchHTreeGroups(n int) []HTreeGroup {
	if cap(dec.htreeGroupsBuf) >= n {
		groups := dec.htreeGroupsBuf[:n]
		for i := range groups {
			groups[i] = HTreeGroup{}
		}
		return groups
	}
	groups := make([]HTreeGroup, n)
	dec.htreeGroupsBuf = groups
	return groups
}

// alphabetSizeFor returns the alphabet size readHuffmanCode must build
// tree index treeIdx's table over, given the active color-cache size.
func alphabetSizeFor(treeIdx, colorCacheBits int) int {
	size := kBaseAlphabetSize[treeIdx]
	if treeIdx == int(HuffGreen) && colorCacheBits > 0 {
		size += 1 << colorCacheBits
	}
	return size
}

// skipHTreeGroup reads and discards one meta-code's five Huffman trees,
// needed only to keep the bit reader in sync with an unmapped group.
func (dec *Decoder) skipHTreeGroup(colorCacheBits int) error {
	for j := 0; j < HuffmanCodesPerMetaCode; j++ {
		if _, _, err := dec.readHuffmanCode(alphabetSizeFor(j, colorCacheBits)); err != nil {
			return err
		}
	}
	return nil
}

// readHTreeGroup reads one meta-code's five Huffman trees into group and
// derives its fast-path flags (trivial literal/code, packed-table).
func (dec *Decoder) readHTreeGroup(group *HTreeGroup, colorCacheBits int) error {
	isTrivialLiteral := true
	totalRootBits := 0
	maxLiteralBits := 0

	for j := 0; j < HuffmanCodesPerMetaCode; j++ {
		table, maxCodeLen, err := dec.readHuffmanCode(alphabetSizeFor(j, colorCacheBits))
		if err != nil {
			return err
		}
		group.HTrees[j] = table

		if isTrivialLiteral && kLiteralMap[j] == huffKindFixed {
			isTrivialLiteral = table[0].Bits == 0
		}
		totalRootBits += int(table[0].Bits)
		if j <= int(HuffAlpha) {
			maxLiteralBits += maxCodeLen
		}
	}

	group.IsTrivialLiteral = isTrivialLiteral
	if isTrivialLiteral {
		red := uint32(group.HTrees[HuffRed][0].Value)
		blue := uint32(group.HTrees[HuffBlue][0].Value)
		alpha := uint32(group.HTrees[HuffAlpha][0].Value)
		group.LiteralARB = (alpha << 24) | (red << 16) | blue
		if totalRootBits == 0 && group.HTrees[HuffGreen][0].Value < NumLiteralCodes {
			group.IsTrivialCode = true
			group.LiteralARB |= uint32(group.HTrees[HuffGreen][0].Value) << 8
		}
	}

	group.UsePackedTable = !group.IsTrivialCode && maxLiteralBits < HuffmanPackedBits
	if group.UsePackedTable {
		buildPackedTable(group)
	}
	return nil
}

// packedNonLiteral marks a PackedTable entry's Bits field as carrying a
// non-literal symbol (length/code-cache code) rather than a decoded pixel,
// by offsetting it past any real bit count.
const packedNonLiteral = 0x100

// buildPackedTable precomputes, for every possible 6-bit prefetch window,
// either a fully-decoded literal ARGB pixel or the green-channel symbol
// that needs the slow path — collapsing what would otherwise be four
// Huffman lookups (green/red/blue/alpha) into one table probe.
func buildPackedTable(group *HTreeGroup) {
	for code := uint32(0); code < HuffmanPackedTableSize; code++ {
		bits := code
		huff := &group.PackedTable[code]

		green := group.HTrees[HuffGreen][bits&HuffmanTableMask]
		if int(green.Value) >= NumLiteralCodes {
			huff.Bits = int(green.Bits) + packedNonLiteral
			huff.Value = uint32(green.Value)
			continue
		}

		huff.Bits, huff.Value = 0, 0
		bits >>= accumulateHCode(green, 8, huff)
		bits >>= accumulateHCode(group.HTrees[HuffRed][bits&HuffmanTableMask], 16, huff)
		bits >>= accumulateHCode(group.HTrees[HuffBlue][bits&HuffmanTableMask], 0, huff)
		accumulateHCode(group.HTrees[HuffAlpha][bits&HuffmanTableMask], 24, huff)
	}
}

// accumulateHCode folds one channel's Huffman code into huff at the given
// byte shift and returns how many bits of the prefetch window it consumed.
func accumulateHCode(hcode HuffmanCode, shift int, huff *HuffmanCode32) int {
	huff.Bits += int(hcode.Bits)
	huff.Value |= uint32(hcode.Value) << shift
	return int(hcode.Bits)
}

// getMetaIndex returns which Huffman tree group governs pixel (x, y).
func (dec *Decoder) getMetaIndex(x, y int) int {
	if dec.hdr.huffmanSubsampleBits == 0 {
		return 0
	}
	bits := dec.hdr.huffmanSubsampleBits
	return int(dec.hdr.huffmanImage[dec.hdr.huffmanXSize*(y>>bits)+(x>>bits)])
}

func (dec *Decoder) getHTreeGroup(x, y int) *HTreeGroup {
	return &dec.hdr.htreeGroups[dec.getMetaIndex(x, y)]
}

// getCopyDistance and getCopyLength share VP8L's prefix-code expansion:
// short symbols map directly, longer ones read extra bits off the stream.
func getCopyDistance(symbol int, br interface{ ReadBits(int) uint32 }) int {
	if symbol < 4 {
		return symbol + 1
	}
	extraBits := (symbol - 2) >> 1
	offset := (2 + (symbol & 1)) << extraBits
	return offset + int(br.ReadBits(extraBits)) + 1
}

func getCopyLength(symbol int, br interface{ ReadBits(int) uint32 }) int {
	return getCopyDistance(symbol, br)
}

// flushColorCache inserts every pixel from *lastCached up to (but not
// including) upTo into the color cache, matching libwebp's lazy
// last_cached bookkeeping — pixels are cached in bulk rather than the
// instant they're written, since a backward-reference copy can write many
// pixels that all still need caching together.
func flushColorCache(cache *ColorCache, data []uint32, lastCached *int, upTo int) {
	if cache == nil {
		return
	}
	for *lastCached < upTo {
		cache.Insert(data[*lastCached])
		*lastCached++
	}
}

// decodeImageData is VP8L's entropy-coded pixel decode loop: it decodes
// width*height pixels into data, consulting dec.hdr's Huffman trees and
// color cache.
//
// The hot path manually inlines readSymbolFromTree/getCopyDistance-shaped
// logic (those exceed Go's inliner budget as standalone calls) so that
// FillBitWindow/PrefetchBits/SetBitPos/BitPos each inline individually and
// the decoder's running state stays in registers across a pixel. Batching
// FillBitWindow calls relies on the bit window holding at least 32 fresh
// bits after a fill, since no single Huffman code exceeds 15 bits.
func (dec *Decoder) decodeImageData(data []uint32, width, height, lastRow int) error {
	br := dec.br
	hdr := &dec.hdr

	lenCodeLimit := NumLiteralCodes + NumLengthCodes
	colorCacheLimit := lenCodeLimit + hdr.colorCacheSize
	colorCache := hdr.colorCache
	mask := hdr.huffmanMask

	pos, lastCached := 0, 0
	row, col := 0, 0
	srcEnd := width * height
	srcLast := width * lastRow

	var htreeGroup *HTreeGroup
	if pos < srcLast {
		htreeGroup = dec.getHTreeGroup(col, row)
	}

	advance := func() {
		pos++
		col++
		if col >= width {
			col = 0
			row++
			flushColorCache(colorCache, data, &lastCached, pos)
		}
	}

decodeLoop:
	for pos < srcLast {
		if col&mask == 0 {
			htreeGroup = dec.getHTreeGroup(col, row)
		}

		// Trivial-code groups decode every channel from one fixed literal;
		// these are cached lazily at row-end like everything else, not here.
		if htreeGroup.IsTrivialCode {
			data[pos] = htreeGroup.LiteralARB
			advance()
			continue
		}

		br.FillBitWindow()

		var code int
		if htreeGroup.UsePackedTable {
			argb, greenCode, isLiteral := readPackedSymbols(htreeGroup, br)
			if br.IsEndOfStream() {
				break
			}
			if isLiteral {
				data[pos] = argb
				advance()
				continue
			}
			code = greenCode
		} else {
			prefetch := br.PrefetchBits() // FillBitWindow already ran above
			val, bits := ReadSymbol(htreeGroup.HTrees[HuffGreen], prefetch)
			br.SetBitPos(br.BitPos() + bits)
			code = int(val)
		}
		if br.IsEndOfStream() {
			break
		}

		switch {
		case code < NumLiteralCodes:
			if htreeGroup.IsTrivialLiteral {
				data[pos] = htreeGroup.LiteralARB | (uint32(code) << 8)
			} else {
				prefetch := br.PrefetchBits() // >=17 bits remain after green's <=15
				redVal, redBits := ReadSymbol(htreeGroup.HTrees[HuffRed], prefetch)
				br.SetBitPos(br.BitPos() + redBits)

				br.FillBitWindow() // green+red consumed <=30 bits; refill before blue+alpha

				prefetch = br.PrefetchBits()
				blueVal, blueBits := ReadSymbol(htreeGroup.HTrees[HuffBlue], prefetch)
				br.SetBitPos(br.BitPos() + blueBits)

				prefetch = br.PrefetchBits() // >=17 bits remain after blue's <=15
				alphaVal, alphaBits := ReadSymbol(htreeGroup.HTrees[HuffAlpha], prefetch)
				br.SetBitPos(br.BitPos() + alphaBits)

				if br.IsEndOfStream() {
					break decodeLoop
				}
				data[pos] = (uint32(alphaVal) << 24) | (uint32(redVal) << 16) | (uint32(code) << 8) | uint32(blueVal)
			}
			advance()

		case code < lenCodeLimit:
			lengthSym := code - NumLiteralCodes
			var length int
			if lengthSym < 4 {
				length = lengthSym + 1
			} else {
				extraBits := (lengthSym - 2) >> 1
				offset := (2 + (lengthSym & 1)) << extraBits
				br.FillBitWindow()
				length = offset + int(br.PrefetchBits()&uint32((1<<extraBits)-1)) + 1
				br.SetBitPos(br.BitPos() + extraBits)
			}

			br.FillBitWindow()
			distVal, distBits := ReadSymbol(htreeGroup.HTrees[HuffDist], br.PrefetchBits())
			br.SetBitPos(br.BitPos() + distBits)
			distSymbol := int(distVal)

			var distCode int
			if distSymbol < 4 {
				distCode = distSymbol + 1
			} else {
				dExtraBits := (distSymbol - 2) >> 1
				dOffset := (2 + (distSymbol & 1)) << dExtraBits
				br.FillBitWindow()
				distCode = dOffset + int(br.PrefetchBits()&uint32((1<<dExtraBits)-1)) + 1
				br.SetBitPos(br.BitPos() + dExtraBits)
			}
			dist := PlaneCodeToDistance(width, distCode)

			if br.IsEndOfStream() {
				break decodeLoop
			}
			if pos < dist || srcEnd-pos < length {
				return ErrBitstream
			}

			copyBlock32(data, pos, dist, length)
			pos += length
			col += length
			for col >= width {
				col -= width
				row++
			}
			if col&mask != 0 {
				htreeGroup = dec.getHTreeGroup(col, row)
			}
			// A copy can write many pixels at once; cache everything up
			// to and including them, not just the literals seen so far.
			flushColorCache(colorCache, data, &lastCached, pos)

		case code < colorCacheLimit:
			key := code - lenCodeLimit
			if colorCache != nil {
				flushColorCache(colorCache, data, &lastCached, pos)
				data[pos] = colorCache.Lookup(key)
			}
			advance()

		default:
			return ErrBitstream
		}
	}

	if br.IsEndOfStream() && pos < srcEnd {
		return ErrBitstream
	}
	return nil
}

// readPackedSymbols attempts to decode an entire ARGB pixel in one table
// probe via the group's packed table. isLiteral reports whether argb holds
// a complete decoded pixel; otherwise greenCode is the raw green-channel
// symbol the slow path still needs to finish decoding.
func readPackedSymbols(group *HTreeGroup, br *bitio.LosslessReader) (argb uint32, greenCode int, isLiteral bool) {
	entry := group.PackedTable[br.PrefetchBits()&(HuffmanPackedTableSize-1)]
	if entry.Bits < packedNonLiteral {
		br.SetBitPos(br.BitPos() + entry.Bits)
		return entry.Value, 0, true
	}
	br.SetBitPos(br.BitPos() + entry.Bits - packedNonLiteral)
	return 0, int(entry.Value), false
}

// copyBlock32 copies length uint32 values from data[pos-dist:] to
// data[pos:], the same three cases libwebp's CopyBlock32 distinguishes:
// non-overlapping (memmove), a single repeated value, and an overlapping
// run filled by doubling the already-copied region.
func copyBlock32(data []uint32, pos, dist, length int) {
	src := pos - dist
	switch {
	case dist >= length:
		copy(data[pos:pos+length], data[src:src+length])
	case dist == 1:
		val := data[src]
		for i := range data[pos : pos+length] {
			data[pos+i] = val
		}
	default:
		copy(data[pos:pos+dist], data[src:src+dist])
		copied := dist
		for copied < length {
			n := copied
			if n > length-copied {
				n = length - copied
			}
			copy(data[pos+copied:pos+copied+n], data[pos:pos+n])
			copied += n
		}
	}
}
