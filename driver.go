package vcdiff

// The top-level streaming state machine. It owns the target buffer,
// the unparsed-tail buffer, the active code table and address cache,
// and drives parsing through header, an optional custom code table,
// then windows, as bytes arrive in arbitrarily small chunks.

type driverState byte

const (
	stateHeader driverState = iota
	stateCodeTableSizes
	stateCodeTableBody
	stateWindows
)

const (
	defaultMaxTargetFileSize   = 64 << 20 // 64 MiB
	defaultMaxTargetWindowSize = 64 << 20 // 64 MiB
	hardMaxTargetWindowSize    = 1<<31 - 1
)

type options struct {
	maxTargetFileSize     uint32
	maxTargetWindowSize   uint32
	plannedTargetFileSize *uint32
	allowVcdTarget        bool
}

func defaultOptions() options {
	return options{
		maxTargetFileSize:   defaultMaxTargetFileSize,
		maxTargetWindowSize: defaultMaxTargetWindowSize,
		allowVcdTarget:      true,
	}
}

// Option configures a StreamingDecoder before Start is called.
type Option func(*options)

// WithMaxTargetFileSize caps total target bytes produced by one decode.
func WithMaxTargetFileSize(n uint32) Option {
	return func(o *options) { o.maxTargetFileSize = n }
}

// WithMaxTargetWindowSize caps a single window's target size. Values
// above the hard RFC 3284 ceiling (2^31-1) are clamped down to it.
func WithMaxTargetWindowSize(n uint32) Option {
	return func(o *options) {
		if n > hardMaxTargetWindowSize {
			n = hardMaxTargetWindowSize
		}
		o.maxTargetWindowSize = n
	}
}

// WithPlannedTargetFileSize tells the driver to stop exactly once n
// target bytes have been produced, preserving any remaining input for
// an enclosing caller.
func WithPlannedTargetFileSize(n uint32) Option {
	return func(o *options) { o.plannedTargetFileSize = &n }
}

// WithAllowVcdTarget controls whether VCD_TARGET windows (sourcing from
// already-decoded target data) are permitted.
func WithAllowVcdTarget(allow bool) Option {
	return func(o *options) { o.allowVcdTarget = allow }
}

// StreamingDecoder is the public streaming decoder.
type StreamingDecoder struct {
	opts options

	started   bool
	poisoned  bool
	finished  bool
	headerFound bool
	plannedSizeMet bool

	dictionary []byte
	version    byte

	table *CodeTable
	cache *AddressCache

	state driverState
	tail  []byte

	target        []byte
	totalProduced uint32

	// Custom code table bookkeeping, populated only while state ==
	// stateCodeTableSizes / stateCodeTableBody.
	ctbSNear int
	ctbSSame int
	ctbSink  *codeTableSink
	ctbNested *StreamingDecoder
}

// NewStreamingDecoder constructs a decoder with the given options
// applied over the package defaults.
func NewStreamingDecoder(opts ...Option) *StreamingDecoder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &StreamingDecoder{opts: o}
}

// Start arms the decoder against dictionary, which is borrowed for the
// lifetime of the decode; the caller must not mutate it until Finish.
func (d *StreamingDecoder) Start(dictionary []byte) error {
	if d.started {
		return newErr(KindLifecycleViolation, "Start called twice")
	}
	d.dictionary = dictionary
	d.started = true
	d.state = stateHeader
	return nil
}

// DecodeChunk feeds the next slice of delta bytes through the state
// machine, writing any newly-determined target bytes to sink. A nil
// error means the chunk was accepted, whether or not it produced
// output; an incomplete structure is never surfaced to the caller as
// an error, only a fatal one is.
func (d *StreamingDecoder) DecodeChunk(chunk []byte, sink Sink) error {
	if d.poisoned {
		return newErr(KindLifecycleViolation, "DecodeChunk called on a poisoned decoder")
	}
	if !d.started {
		return newErr(KindLifecycleViolation, "DecodeChunk called before Start")
	}
	if d.finished {
		return newErr(KindLifecycleViolation, "DecodeChunk called after Finish")
	}

	if d.state == stateCodeTableBody {
		return d.feedCodeTableBody(chunk, sink)
	}

	d.tail = append(d.tail, chunk...)
	return d.pump(sink)
}

// pump runs the state machine as far as the buffered tail allows,
// stopping cleanly (returning nil) the moment a structure is
// incomplete.
func (d *StreamingDecoder) pump(sink Sink) error {
	for {
		switch d.state {
		case stateHeader:
			consumed, version, indicator, err := tryParseHeader(d.tail)
			if err == errNeedMoreData {
				return nil
			}
			if err != nil {
				return d.poison(err)
			}
			d.tail = d.tail[consumed:]
			d.version = version
			d.headerFound = true

			if indicator&VCDDecompress != 0 {
				return d.poison(newErr(KindUnsupportedFeature, "VCD_DECOMPRESS is set; secondary compression is not supported"))
			}
			if indicator&VCDCodetable != 0 {
				d.state = stateCodeTableSizes
			} else {
				d.table = DefaultCodeTable
				d.cache = NewAddressCache(codeTableDefaultNearSize, codeTableDefaultSameSize)
				d.state = stateWindows
			}

		case stateCodeTableSizes:
			c := newCursor(d.tail)
			sNear, err := c.consumeVarintU31()
			if err == errNeedMoreData {
				return nil
			}
			if err != nil {
				return d.poison(err)
			}
			sSame, err := c.consumeVarintU31()
			if err == errNeedMoreData {
				return nil
			}
			if err != nil {
				return d.poison(err)
			}
			if sNear > 255 || sSame > 255 || sNear+sSame > 256 {
				return d.poison(newErr(KindMalformedHeader, "custom cache sizes s_near=%d s_same=%d are out of range", sNear, sSame))
			}

			remainder := d.tail[c.offset():]
			d.tail = nil
			d.ctbSNear, d.ctbSSame = int(sNear), int(sSame)
			d.ctbSink = &codeTableSink{}
			d.ctbNested = newNestedDecoder(d.version)
			d.state = stateCodeTableBody
			return d.feedCodeTableBody(remainder, sink)

		case stateWindows:
			if d.plannedSizeMet || len(d.tail) == 0 {
				return nil
			}

			win, n, err := parseWindow(d.tail, d.version, d.opts.allowVcdTarget, d.currentLimits())
			if err == errNeedMoreData {
				return nil
			}
			if err != nil {
				return d.poison(err)
			}
			d.tail = d.tail[n:]

			if err := d.applyWindow(win, sink); err != nil {
				return d.poison(err)
			}

		default:
			return nil
		}
	}
}

// currentLimits computes the window-size ceilings parseWindow enforces,
// derived from configuration and progress so far. Subtraction is always
// against a total already known not to exceed the limit, so no overflow
// guard beyond the zero clamp is needed.
func (d *StreamingDecoder) currentLimits() windowLimits {
	remaining := d.opts.maxTargetFileSize - d.totalProduced
	l := windowLimits{
		maxWindowSize: d.opts.maxTargetWindowSize,
		remainingFile: remaining,
	}
	if d.opts.plannedTargetFileSize != nil {
		planned := *d.opts.plannedTargetFileSize
		var rem uint32
		if planned > d.totalProduced {
			rem = planned - d.totalProduced
		}
		l.plannedRemaining = &rem
	}
	return l
}

// applyWindow resolves the window's source segment, executes it, and
// flushes the resulting bytes to sink.
func (d *StreamingDecoder) applyWindow(w *window, sink Sink) error {
	var sourceSegment []byte
	switch {
	case w.hasSource:
		end := uint64(w.sourcePos) + uint64(w.sourceSize)
		if end > uint64(len(d.dictionary)) {
			return newErr(KindMalformedHeader, "source segment [%d:%d) exceeds dictionary of length %d", w.sourcePos, end, len(d.dictionary))
		}
		sourceSegment = d.dictionary[w.sourcePos:end]
	case w.hasTarget:
		end := uint64(w.sourcePos) + uint64(w.sourceSize)
		if end > uint64(len(d.target)) {
			return newErr(KindMalformedHeader, "VCD_TARGET segment [%d:%d) exceeds decoded target of length %d", w.sourcePos, end, len(d.target))
		}
		sourceSegment = d.target[w.sourcePos:end]
	}

	out, err := executeWindow(w, sourceSegment, d.cache, d.table)
	if err != nil {
		return err
	}

	d.totalProduced += uint32(len(out))
	d.target = append(d.target, out...)

	if len(out) > 0 {
		if err := sink.Write(out); err != nil {
			return err
		}
	}

	if !d.opts.allowVcdTarget {
		d.target = d.target[:0]
	}

	if d.opts.plannedTargetFileSize != nil && d.totalProduced >= *d.opts.plannedTargetFileSize {
		d.plannedSizeMet = true
	}

	return nil
}

// Finish validates that the decode reached a legal stopping point: the
// header was seen, no custom-code-table or window parse is mid-flight,
// and either all input was consumed or the planned target size was
// reached exactly.
func (d *StreamingDecoder) Finish() error {
	if d.poisoned {
		return newErr(KindLifecycleViolation, "Finish called on a poisoned decoder")
	}
	if !d.started || !d.headerFound {
		return newErr(KindLifecycleViolation, "Finish called before a header was parsed")
	}
	if d.state == stateCodeTableSizes || d.state == stateCodeTableBody {
		return newErr(KindLifecycleViolation, "Finish called while a custom code table is mid-parse")
	}
	if len(d.tail) != 0 && !d.plannedSizeMet {
		return newErr(KindLifecycleViolation, "Finish called with %d unparsed bytes remaining", len(d.tail))
	}
	d.finished = true
	return nil
}

// UnconsumedInputSize returns how many bytes of input have been
// buffered but not yet folded into the target, used by an enclosing
// decode to resume past what this decoder needed.
func (d *StreamingDecoder) UnconsumedInputSize() int {
	if d.state == stateCodeTableBody {
		return d.ctbNested.UnconsumedInputSize()
	}
	return len(d.tail)
}

// poison transitions the decoder into its terminal failed state: every
// error is fatal, and only constructing a new decoder recovers from it.
func (d *StreamingDecoder) poison(err error) error {
	d.poisoned = true
	return err
}
