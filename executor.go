package vcdiff

// Decodes the body of one window: the instructions stream, paired with
// the data and address streams (which alias the instructions stream in
// interleaved format), against the source segment and the address
// cache, producing that window's target bytes.
//
// By the time executeWindow runs, the window parser has already
// verified the entire window body is buffered (its own length prefix
// guarantees that), so none of the three streams can legitimately run
// out mid-instruction: any shortfall here is a declared-length bug in
// the window's own framing, reported as SectionLengthMismatch rather
// than threaded back out as "need more data".

func asSectionMismatch(err error) error {
	if err == errNeedMoreData {
		return newErr(KindSectionLengthMismatch, "window body exhausted before its instruction stream finished")
	}
	return err
}

// executeWindow runs w's instructions against sourceSegment (the view
// into the dictionary or prior target selected by the caller) and the
// shared address cache/code table, returning this window's decoded
// target bytes.
func executeWindow(w *window, sourceSegment []byte, cache *AddressCache, table *CodeTable) ([]byte, error) {
	instCur := newCursor(w.instSection)
	var dataCur, addrCur *cursor
	if w.interleaved {
		dataCur = instCur
		addrCur = instCur
	} else {
		dataCur = newCursor(w.dataSection)
		addrCur = newCursor(w.addrSection)
	}

	sourceLen := uint32(len(sourceSegment))
	out := make([]byte, 0, w.targetSize)

	for {
		opcode, err := instCur.consumeByte()
		if err == errNeedMoreData {
			break
		}
		if err != nil {
			return nil, err
		}

		inst1, inst2 := table.Lookup(opcode)
		for _, inst := range [2]Instruction{inst1, inst2} {
			if inst.Type == NoOp {
				continue
			}

			size := uint32(inst.Size)
			if size == 0 {
				size, err = instCur.consumeVarintU31()
				if err != nil {
					return nil, asSectionMismatch(err)
				}
			}

			switch inst.Type {
			case Add:
				data, err := dataCur.consumeFixed(int(size))
				if err != nil {
					return nil, asSectionMismatch(err)
				}
				out = append(out, data...)

			case Run:
				b, err := dataCur.consumeByte()
				if err != nil {
					return nil, asSectionMismatch(err)
				}
				for i := uint32(0); i < size; i++ {
					out = append(out, b)
				}

			case Copy:
				here := sourceLen + uint32(len(out))
				addr, err := cache.DecodeAddress(here, inst.Mode, addrCur)
				if err != nil {
					return nil, asSectionMismatch(err)
				}
				// Byte-by-byte, not a block copy: a self-referential
				// COPY may read an index this same loop wrote a moment
				// ago, and a COPY may straddle the source/target
				// boundary.
				for i := uint32(0); i < size; i++ {
					idx := addr + i
					var b byte
					if idx < sourceLen {
						b = sourceSegment[idx]
					} else {
						tIdx := idx - sourceLen
						if tIdx >= uint32(len(out)) {
							return nil, newErr(KindBadAddress, "COPY reads target offset %d but only %d bytes decoded so far", tIdx, len(out))
						}
						b = out[tIdx]
					}
					out = append(out, b)
				}

			default:
				return nil, newErr(KindBadOpcode, "code table entry has invalid instruction type %d", inst.Type)
			}

			if uint32(len(out)) > w.targetSize {
				return nil, newErr(KindSizeLimitExceeded, "window wrote %d bytes, exceeding declared target_window_size %d", len(out), w.targetSize)
			}
		}
	}

	if !w.interleaved {
		if dataCur.remaining() != 0 {
			return nil, newErr(KindSectionLengthMismatch, "%d unconsumed bytes remain in data section", dataCur.remaining())
		}
		if addrCur.remaining() != 0 {
			return nil, newErr(KindSectionLengthMismatch, "%d unconsumed bytes remain in address section", addrCur.remaining())
		}
	}

	if uint32(len(out)) != w.targetSize {
		return nil, newErr(KindSectionLengthMismatch, "window decoded %d bytes, declared target_window_size was %d", len(out), w.targetSize)
	}

	if w.hasChecksum {
		computed := adler32Checksum(1, out)
		if computed != w.checksum {
			return nil, newErr(KindChecksumMismatch, "window checksum mismatch: expected 0x%08x, computed 0x%08x", w.checksum, computed)
		}
	}

	return out, nil
}
