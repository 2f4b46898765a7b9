package vcdiff

// Parses one window's framing (Win_Indicator, source segment
// descriptor, delta-encoding lengths, optional checksum) and slices out
// the three logical sections, handing the rest to the instruction
// executor.

// windowLimits bounds what parseWindow will accept for a target window,
// computed by the driver from its configuration and progress so far.
type windowLimits struct {
	maxWindowSize    uint32
	remainingFile    uint32
	plannedRemaining *uint32 // nil if no planned_target_file_size is set
}

// window is the parsed, ready-to-execute form of one VCDIFF window.
type window struct {
	winIndicator byte
	hasSource    bool
	hasTarget    bool
	sourceSize   uint32
	sourcePos    uint32

	targetSize uint32

	hasChecksum bool
	checksum    uint32

	interleaved bool
	dataSection []byte
	instSection []byte
	addrSection []byte
}

// parseWindow attempts to parse one window from the front of buf. It
// returns the parsed window and the number of bytes consumed on
// success; errNeedMoreData if buf does not yet hold a complete window
// (nothing is considered consumed in that case); or a taxonomy error if
// the bytes present are malformed.
//
// version selects whether the VCD_CHECKSUM extension and interleaved
// sections are recognized; both are only valid in the 'S' version.
func parseWindow(buf []byte, version byte, allowVcdTarget bool, limits windowLimits) (*window, int, error) {
	c := newCursor(buf)

	indicator, err := c.consumeByte()
	if err != nil {
		return nil, 0, err
	}

	validBits := byte(VCDSource | VCDTarget | VCDAdler32)
	if indicator & ^validBits != 0 {
		return nil, 0, newErr(KindMalformedHeader, "window indicator 0x%02x sets reserved bits", indicator)
	}
	hasSource := indicator&VCDSource != 0
	hasTarget := indicator&VCDTarget != 0
	if hasSource && hasTarget {
		return nil, 0, newErr(KindMalformedHeader, "window indicator 0x%02x sets both VCD_SOURCE and VCD_TARGET", indicator)
	}
	if hasTarget && !allowVcdTarget {
		return nil, 0, newErr(KindVcdTargetDisallowed, "VCD_TARGET window seen but allow_vcd_target is false")
	}

	w := &window{winIndicator: indicator, hasSource: hasSource, hasTarget: hasTarget}

	if hasSource || hasTarget {
		size, err := c.consumeVarintU31()
		if err != nil {
			return nil, 0, err
		}
		pos, err := c.consumeVarintU31()
		if err != nil {
			return nil, 0, err
		}
		w.sourceSize = size
		w.sourcePos = pos
	}

	deltaLen, err := c.consumeVarintU31()
	if err != nil {
		return nil, 0, err
	}

	body, err := c.consumeFixed(int(deltaLen))
	if err != nil {
		// The window's own length prefix says the body is deltaLen
		// bytes; if we don't have them yet, that's "need more data",
		// not malformed: the caller retries once more input arrives.
		return nil, 0, err
	}

	if err := parseWindowBody(w, body, version); err != nil {
		return nil, 0, err
	}

	if w.targetSize > limits.maxWindowSize {
		return nil, 0, newErr(KindSizeLimitExceeded, "target window size %d exceeds max_target_window_size %d", w.targetSize, limits.maxWindowSize)
	}
	if w.targetSize > limits.remainingFile {
		return nil, 0, newErr(KindSizeLimitExceeded, "target window size %d exceeds remaining file budget %d", w.targetSize, limits.remainingFile)
	}
	if limits.plannedRemaining != nil && w.targetSize > *limits.plannedRemaining {
		return nil, 0, newErr(KindSizeLimitExceeded, "target window size %d exceeds planned remaining size %d", w.targetSize, *limits.plannedRemaining)
	}

	return w, c.offset(), nil
}

// parseWindowBody parses the delta-encoding block already known to be
// exactly len(body) bytes (its own length prefix said so), so any
// shortfall found while consuming it is a framing bug in the lengths
// themselves (SectionLengthMismatch), never "need more data".
func parseWindowBody(w *window, body []byte, version byte) error {
	bc := newCursor(body)

	asSectionMismatch := func(err error) error {
		if err == errNeedMoreData {
			return newErr(KindSectionLengthMismatch, "window body truncated relative to its declared section lengths")
		}
		return err
	}

	targetSize, err := bc.consumeVarintU31()
	if err != nil {
		return asSectionMismatch(err)
	}
	w.targetSize = targetSize

	deltaIndicator, err := bc.consumeByte()
	if err != nil {
		return asSectionMismatch(err)
	}
	if deltaIndicator != 0 {
		return newErr(KindUnsupportedFeature, "delta indicator 0x%02x declares a secondary compressor, which is not supported", deltaIndicator)
	}

	dataLen, err := bc.consumeVarintU31()
	if err != nil {
		return asSectionMismatch(err)
	}
	instLen, err := bc.consumeVarintU31()
	if err != nil {
		return asSectionMismatch(err)
	}
	addrLen, err := bc.consumeVarintU31()
	if err != nil {
		return asSectionMismatch(err)
	}

	if version == VCDIFFVersionInterleaved && w.winIndicator&VCDAdler32 != 0 {
		sum, err := bc.consumeVarint64(63)
		if err != nil {
			return asSectionMismatch(err)
		}
		if sum > 0xffffffff {
			return newErr(KindMalformedVarint, "adler32 checksum varint %d does not fit in 32 bits", sum)
		}
		w.hasChecksum = true
		w.checksum = uint32(sum)
	} else if w.winIndicator&VCDAdler32 != 0 {
		return newErr(KindUnsupportedFeature, "VCD_CHECKSUM set in a non-'S' version delta")
	}

	dataSection, err := bc.consumeFixed(int(dataLen))
	if err != nil {
		return asSectionMismatch(err)
	}
	instSection, err := bc.consumeFixed(int(instLen))
	if err != nil {
		return asSectionMismatch(err)
	}
	addrSection, err := bc.consumeFixed(int(addrLen))
	if err != nil {
		return asSectionMismatch(err)
	}

	if bc.remaining() != 0 {
		return newErr(KindSectionLengthMismatch, "window body has %d trailing bytes beyond its declared sections", bc.remaining())
	}

	w.dataSection = dataSection
	w.instSection = instSection
	w.addrSection = addrSection
	w.interleaved = version == VCDIFFVersionInterleaved && dataLen == 0 && addrLen == 0

	return nil
}
