package vcdiff

// A non-destructive cursor over a byte slice. The window parser and the
// custom code table's cache-size prefix are written as a
// sequence of cursor operations; if any operation hits the end of the
// buffered input it reports errNeedMoreData and the cursor's position is
// left exactly where it was before that operation, so the caller can
// throw the whole attempt away and retry later against a longer buffer
// without having consumed anything.
//
// This is deliberately not an io.Reader: a reader's Read can return a
// short read and still have advanced, which is the wrong shape for
// "rewind on incomplete structure". A plain slice-with-position, never
// mutated on failure, is the simpler fit.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// offset returns how many bytes this cursor has successfully consumed.
func (c *cursor) offset() int {
	return c.pos
}

// remaining is the number of unconsumed bytes buffered.
func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// peekByte returns the next byte without consuming it; ok is false if
// the buffer is exhausted.
func (c *cursor) peekByte() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

// consumeByte reads and advances past a single byte.
func (c *cursor) consumeByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, errNeedMoreData
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// consumeFixed reads and advances past exactly n bytes, returning a
// slice that aliases the cursor's backing array. Callers that need to
// retain it past the current decode_chunk call must copy it.
func (c *cursor) consumeFixed(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, errNeedMoreData
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// consumeVarintU31 reads a varint bounded to 31 bits, the size used for
// every length/offset/address field in the format.
func (c *cursor) consumeVarintU31() (uint32, error) {
	return c.consumeVarint(31)
}

// consumeVarint reads a varint bounded to maxBits and returns it as a
// uint32; the 63-bit checksum field goes through consumeVarint64 instead.
func (c *cursor) consumeVarint(maxBits uint) (uint32, error) {
	val, n, err := decodeVarint(c.buf[c.pos:], maxBits)
	if err != nil {
		return 0, err
	}
	c.pos += n
	return uint32(val), nil
}

// consumeVarint64 is consumeVarint's wide form, for the checksum field.
func (c *cursor) consumeVarint64(maxBits uint) (uint64, error) {
	val, n, err := decodeVarint(c.buf[c.pos:], maxBits)
	if err != nil {
		return 0, err
	}
	c.pos += n
	return val, nil
}
