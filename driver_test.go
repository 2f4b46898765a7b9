package vcdiff

import (
	"testing"

	"github.com/pkg/errors"
)

// TestDecodeMinimalAdd covers a delta with no source reference: a
// single ADD instruction, nothing resembling a COPY anywhere.
func TestDecodeMinimalAdd(t *testing.T) {
	win := encodeWindow(false, 0, 0, 4, false, 0, []byte("abcd"), []byte{5}, nil)
	delta := buildDelta(VCDIFFVersionRFC, 0, win)

	got, err := Decode(nil, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "abcd" {
		t.Errorf("Decode = %q, want %q", got, "abcd")
	}
}

// TestDecodeCopyFromSource covers a COPY referencing a source
// dictionary that was never part of the delta bytes.
func TestDecodeCopyFromSource(t *testing.T) {
	win := encodeWindow(true, 8, 0, 4, false, 0, nil, []byte{20}, encodeVarint(nil, 0))
	delta := buildDelta(VCDIFFVersionRFC, 0, win)

	got, err := Decode([]byte("abcdefgh"), delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "abcd" {
		t.Errorf("Decode = %q, want %q", got, "abcd")
	}
}

// TestDecodeSelfReferentialRun covers a single-byte dictionary expanded
// by a COPY whose address straddles into bytes it itself wrote moments
// earlier.
func TestDecodeSelfReferentialRun(t *testing.T) {
	win := encodeWindow(true, 1, 0, 5, false, 0, nil, []byte{21}, encodeVarint(nil, 0))
	delta := buildDelta(VCDIFFVersionRFC, 0, win)

	got, err := Decode([]byte("A"), delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "AAAAA" {
		t.Errorf("Decode = %q, want %q", got, "AAAAA")
	}
}

// interleavedHelloInstructions builds an instruction stream combining a
// COPY of the dictionary's one byte ("H") with an inline ADD of "ello",
// sharing one stream (version 'S', zero-length data/address sections).
func interleavedHelloInstructions() []byte {
	inst := []byte{19}                    // COPY mode 0, size from stream
	inst = encodeVarint(inst, 1)          // size = 1
	inst = encodeVarint(inst, 0)          // address = 0 (SELF)
	inst = append(inst, 5)                // ADD size 4 (fixed)
	inst = append(inst, 'e', 'l', 'l', 'o') // inline literal data
	return inst
}

// TestDecodeInterleaved covers an 'S'-version delta with interleaved
// data/instructions/addresses in a single stream.
func TestDecodeInterleaved(t *testing.T) {
	win := encodeWindow(true, 1, 0, 5, false, 0, nil, interleavedHelloInstructions(), nil)
	delta := buildDelta(VCDIFFVersionInterleaved, 0, win)

	got, err := Decode([]byte("H"), delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "Hello" {
		t.Errorf("Decode = %q, want %q", got, "Hello")
	}
}

// TestDecodeInterleavedByteAtATime feeds the same interleaved delta one
// byte at a time through DecodeChunk and requires the accumulated
// output to match the one-shot result exactly, regardless of chunk
// size.
func TestDecodeInterleavedByteAtATime(t *testing.T) {
	win := encodeWindow(true, 1, 0, 5, false, 0, nil, interleavedHelloInstructions(), nil)
	delta := buildDelta(VCDIFFVersionInterleaved, 0, win)

	sd := NewStreamingDecoder()
	if err := sd.Start([]byte("H")); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sink := &BufferSink{}
	for i := range delta {
		if err := sd.DecodeChunk(delta[i:i+1], sink); err != nil {
			t.Fatalf("DecodeChunk at byte %d: %v", i, err)
		}
	}
	if err := sd.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(sink.Bytes()) != "Hello" {
		t.Errorf("chunked result = %q, want %q", sink.Bytes(), "Hello")
	}
}

// TestDecodeChecksumMismatch covers an 'S'-version window whose
// VCD_ADLER32 field does not match the decoded bytes.
func TestDecodeChecksumMismatch(t *testing.T) {
	win := encodeWindow(true, 1, 0, 5, true, 0xBADBAD, nil, interleavedHelloInstructions(), nil)
	delta := buildDelta(VCDIFFVersionInterleaved, 0, win)

	_, err := Decode([]byte("H"), delta)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Decode error = %v, want checksum mismatch", err)
	}
}

// TestDecodeChecksumMatches confirms the positive case: a correctly
// computed checksum is accepted.
func TestDecodeChecksumMatches(t *testing.T) {
	sum := adler32Checksum(1, []byte("Hello"))
	win := encodeWindow(true, 1, 0, 5, true, sum, nil, interleavedHelloInstructions(), nil)
	delta := buildDelta(VCDIFFVersionInterleaved, 0, win)

	got, err := Decode([]byte("H"), delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "Hello" {
		t.Errorf("Decode = %q, want %q", got, "Hello")
	}
}

// TestDecodeBadMagicFailsImmediately checks that even a single wrong
// leading byte fails without waiting for more input.
func TestDecodeBadMagicFailsImmediately(t *testing.T) {
	sd := NewStreamingDecoder()
	if err := sd.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}

	err := sd.DecodeChunk([]byte{0xff}, &BufferSink{})
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("DecodeChunk error = %v, want bad magic", err)
	}
}

func TestDecodeUnsupportedVersionRejected(t *testing.T) {
	delta := []byte{VCDIFFMagic[0], VCDIFFMagic[1], VCDIFFMagic[2], 0x07, 0x00}
	_, err := Decode(nil, delta)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Decode error = %v, want unsupported version", err)
	}
}

func TestDecodeTruncatedDeltaNeverFinishes(t *testing.T) {
	sd := NewStreamingDecoder()
	if err := sd.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sd.DecodeChunk([]byte{VCDIFFMagic[0], VCDIFFMagic[1], VCDIFFMagic[2]}, &BufferSink{}); err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if err := sd.Finish(); !errors.Is(err, ErrLifecycleViolation) {
		t.Errorf("Finish on a truncated delta = %v, want lifecycle violation", err)
	}
}

// TestDecodeMaxTargetFileSizeEnforced checks the bounded-memory
// property: a window declaring a target larger than the configured
// ceiling is rejected before it is executed.
func TestDecodeMaxTargetFileSizeEnforced(t *testing.T) {
	inst := append([]byte{0}, encodeVarint(nil, 64)...) // RUN size-from-stream, size=64
	win := encodeWindow(false, 0, 0, 64, false, 0, []byte{'x'}, inst, nil)
	delta := buildDelta(VCDIFFVersionRFC, 0, win)

	_, err := Decode(nil, delta, WithMaxTargetFileSize(10))
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Errorf("Decode error = %v, want size limit exceeded", err)
	}
}

// TestCustomCodeTableRoundTrip covers a delta whose header sets
// VCD_CODETABLE, carrying a trivial custom table (identical to the
// default one, reached via one big COPY from the default table's own
// image) before its first ordinary window.
func TestCustomCodeTableRoundTrip(t *testing.T) {
	// COPY mode 0, size read from stream, covering the whole 1536-byte
	// default image in one instruction.
	ctInst := []byte{19}
	ctInst = encodeVarint(ctInst, codeTableImageSize)
	ctWin := encodeWindow(true, codeTableImageSize, 0, codeTableImageSize, false, 0, nil, ctInst, encodeVarint(nil, 0))

	sizesPrefix := encodeVarint(nil, DefaultNearCacheSize)
	sizesPrefix = encodeVarint(sizesPrefix, DefaultSameCacheSize)

	ordinaryWin := encodeWindow(false, 0, 0, 4, false, 0, []byte("abcd"), []byte{5}, nil)

	delta := []byte{VCDIFFMagic[0], VCDIFFMagic[1], VCDIFFMagic[2], VCDIFFVersionRFC, VCDCodetable}
	delta = append(delta, sizesPrefix...)
	delta = append(delta, ctWin...)
	delta = append(delta, ordinaryWin...)

	got, err := Decode(nil, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "abcd" {
		t.Errorf("Decode = %q, want %q", got, "abcd")
	}
}

func TestStreamingDecoderLifecycleViolations(t *testing.T) {
	sd := NewStreamingDecoder()
	if err := sd.DecodeChunk(nil, &BufferSink{}); !errors.Is(err, ErrLifecycleViolation) {
		t.Errorf("DecodeChunk before Start = %v, want lifecycle violation", err)
	}

	if err := sd.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sd.Start(nil); !errors.Is(err, ErrLifecycleViolation) {
		t.Errorf("second Start = %v, want lifecycle violation", err)
	}
}

func TestPlannedTargetFileSizeStopsEarlyAndPreservesTail(t *testing.T) {
	win1 := encodeWindow(false, 0, 0, 4, false, 0, []byte("abcd"), []byte{5}, nil)
	win2 := encodeWindow(false, 0, 0, 4, false, 0, []byte("wxyz"), []byte{5}, nil)
	delta := buildDelta(VCDIFFVersionRFC, 0, win1, win2)

	sd := NewStreamingDecoder(WithPlannedTargetFileSize(4))
	if err := sd.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sink := &BufferSink{}
	if err := sd.DecodeChunk(delta, sink); err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if err := sd.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(sink.Bytes()) != "abcd" {
		t.Errorf("sink = %q, want %q", sink.Bytes(), "abcd")
	}
	if sd.UnconsumedInputSize() != len(win2) {
		t.Errorf("UnconsumedInputSize = %d, want %d (the second window, untouched)", sd.UnconsumedInputSize(), len(win2))
	}
}
