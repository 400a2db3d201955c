package lossy

// parseProba reads updated coefficient probabilities and the skip
// probability from partition 0 (Paragraph 13, 9.9).
func parseProba(br BoolSource, dec *Decoder) {
	p := &dec.proba

	for t := 0; t < NumTypes; t++ {
		for b := 0; b < NumBands; b++ {
			for c := 0; c < NumCTX; c++ {
				for pp := 0; pp < NumProbas; pp++ {
					if br.GetBit(CoeffsUpdateProba[t][b][c][pp]) != 0 {
						p.Bands[t][b].Probas[c][pp] = uint8(br.GetValue(8))
					} else {
						p.Bands[t][b].Probas[c][pp] = CoeffsProba0[t][b][c][pp]
					}
				}
			}
		}
		for b := 0; b < 16+1; b++ {
			p.BandsPtr[t][b] = &p.Bands[t][KBands[b]]
		}
	}

	dec.useSkipProba = br.GetBit(0x80) != 0
	if dec.useSkipProba {
		dec.skipP = uint8(br.GetValue(8))
	}
}

// parseIntraModeRow parses every macroblock's intra prediction mode for
// one row from partition 0.
func (dec *Decoder) parseIntraModeRow() error {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		dec.parseIntraMode(mbX)
	}
	if dec.br.EOF() {
		return errPrematureEOF
	}
	return nil
}

// parseIntraMode parses one macroblock's segment, skip flag, luma
// prediction mode(s), and chroma prediction mode.
func (dec *Decoder) parseIntraMode(mbX int) {
	br := dec.br
	top := dec.intraT[4*mbX : 4*mbX+4]
	left := dec.intraL[:]
	block := &dec.mbData[mbX]

	block.Segment = dec.parseMBSegment(br)
	if dec.useSkipProba {
		block.Skip = br.GetBit(dec.skipP) != 0
	}

	block.IsI4x4 = br.GetBit(145) == 0
	if block.IsI4x4 {
		parseIntra4x4Modes(br, top, left, block.IModes[:])
	} else {
		ymode := parse16x16YMode(br)
		block.IModes[0] = ymode
		for i := 0; i < 4; i++ {
			top[i] = ymode
			left[i] = ymode
		}
	}

	block.UVMode = parseUVMode(br)
}

// parseMBSegment reads a macroblock's segment ID when the frame header
// carries an updated segment map, or 0 when segmentation is disabled.
func (dec *Decoder) parseMBSegment(br BoolSource) uint8 {
	if !dec.segHdr.UpdateMap {
		return 0
	}
	if br.GetBit(dec.proba.Segments[0]) == 0 {
		return uint8(br.GetBit(dec.proba.Segments[1]))
	}
	return uint8(br.GetBit(dec.proba.Segments[2])) + 2
}

// parse16x16YMode reads the whole-block luma prediction mode via its
// fixed two-bit decision tree (the 4x4-versus-16x16 bit is read by
// parseIntraMode).
func parse16x16YMode(br BoolSource) uint8 {
	if br.GetBit(156) != 0 {
		if br.GetBit(128) != 0 {
			return TMPred
		}
		return HPred
	}
	if br.GetBit(163) != 0 {
		return VPred
	}
	return DCPred
}

// parseIntra4x4Modes reads the 16 per-subblock luma prediction modes,
// each predicted from its left/top neighbor via the shared B-mode tree,
// updating top/left in place for the next macroblock's prediction.
func parseIntra4x4Modes(br BoolSource, top, left []uint8, modes []uint8) {
	for y := 0; y < 4; y++ {
		ymode := left[y]
		for x := 0; x < 4; x++ {
			ymode = readBModeTree(br, &KBModesProba[top[x]][ymode])
			top[x] = ymode
			modes[y*4+x] = ymode
		}
		left[y] = ymode
	}
}

// readBModeTree walks VP8's 4x4-intra-mode Huffman-style decision tree,
// stepping through KYModesIntra4 until it reaches a leaf (encoded as a
// non-positive index whose negation is the mode).
func readBModeTree(br BoolSource, prob *[9]uint8) uint8 {
	i := int(KYModesIntra4[br.GetBit(prob[0])])
	for i > 0 {
		i = int(KYModesIntra4[2*i+br.GetBit(prob[i])])
	}
	return uint8(-i)
}

// parseUVMode reads the chroma prediction mode via its fixed decision tree
// of up to three bits.
func parseUVMode(br BoolSource) uint8 {
	if br.GetBit(142) == 0 {
		return DCPred
	}
	if br.GetBit(114) == 0 {
		return VPred
	}
	if br.GetBit(183) != 0 {
		return TMPred
	}
	return HPred
}
