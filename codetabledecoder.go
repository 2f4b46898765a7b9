package vcdiff

// When a delta's header sets VCD_CODETABLE, the custom code table
// itself arrives encoded as a nested VCDIFF delta: no magic, version,
// or indicator bytes of its own, just window data, whose dictionary is
// the default table's 1536-byte image and whose target is the
// replacement table. This file wires a second StreamingDecoder
// instance up to decode that nested stream.

// codeTableSink accumulates the nested decoder's output so the outer
// driver can tell the moment all 1536 bytes have arrived.
type codeTableSink struct {
	buf []byte
}

func (s *codeTableSink) Write(p []byte) error {
	s.buf = append(s.buf, p...)
	return nil
}

// newNestedDecoder builds a StreamingDecoder already past the header
// state, ready to decode window data directly: the embedded code-table
// delta never carries its own magic/version/indicator triple.
func newNestedDecoder(version byte) *StreamingDecoder {
	d := &StreamingDecoder{opts: defaultOptions()}
	planned := uint32(codeTableImageSize)
	d.opts.plannedTargetFileSize = &planned
	d.opts.allowVcdTarget = true

	d.dictionary = defaultCodeTableImage()
	d.started = true
	d.headerFound = true
	d.version = version
	d.table = DefaultCodeTable
	d.cache = NewAddressCache(codeTableDefaultNearSize, codeTableDefaultSameSize)
	d.state = stateWindows
	return d
}

// feedCodeTableBody forwards bytes to the nested decoder, and once it
// has produced the full 1536-byte table image, installs the resulting
// custom code table and address cache, then resumes the outer driver's
// window loop with whatever bytes the nested decoder did not consume.
func (d *StreamingDecoder) feedCodeTableBody(chunk []byte, sink Sink) error {
	if err := d.ctbNested.DecodeChunk(chunk, d.ctbSink); err != nil {
		return d.poison(err)
	}

	if len(d.ctbSink.buf) < codeTableImageSize {
		return nil
	}

	if err := d.ctbNested.Finish(); err != nil {
		return d.poison(err)
	}

	custom, err := LoadCustomCodeTable(d.ctbSink.buf)
	if err != nil {
		return d.poison(err)
	}

	newCache := NewAddressCache(d.ctbSNear, d.ctbSSame)
	newCache.SetLastMode(d.ctbNested.cache.LastMode())

	d.table = custom
	d.cache = newCache
	d.tail = d.ctbNested.takeUnconsumedTail()
	d.ctbNested = nil
	d.ctbSink = nil
	d.state = stateWindows

	return d.pump(sink)
}

// takeUnconsumedTail drains and returns the decoder's unparsed tail.
// Used solely by the outer driver to hand a finished nested decoder's
// leftover bytes back to itself, resuming at the byte offset the inner
// driver did not consume.
func (d *StreamingDecoder) takeUnconsumedTail() []byte {
	t := d.tail
	d.tail = nil
	return t
}
