package vcdiff

// Wire-format constants shared by the header parser, window parser and
// streaming driver.

// VCDIFFVersionRFC and VCDIFFVersionInterleaved are the only two
// supported version bytes; any other value is rejected as an
// unsupported version.
const (
	VCDIFFVersionRFC         = 0x00 // plain RFC 3284
	VCDIFFVersionInterleaved = 'S'  // SDCH interleaved/checksum extension
)

// VCDIFFMagic is the three-byte magic sequence required at the start of
// every delta (RFC 3284 §4.1).
var VCDIFFMagic = [3]byte{0xd6, 0xc3, 0xc4}

// Header indicator flags (RFC 3284 §4.1).
const (
	VCDDecompress = 0x01 // VCD_DECOMPRESS: secondary compression used (not supported, rejected)
	VCDCodetable  = 0x02 // VCD_CODETABLE: custom instruction table follows
)

// Window indicator flags (RFC 3284 §4.2).
const (
	VCDSource  = 0x01 // VCD_SOURCE: window has a source segment in the dictionary
	VCDTarget  = 0x02 // VCD_TARGET: window has a source segment in the decoded target
	VCDAdler32 = 0x04 // VCD_ADLER32 / VCD_CHECKSUM: window carries an Adler-32 checksum
)

// minimumHeaderSize is the fixed portion of the file header: magic (3) +
// version (1) + indicator (1).
const minimumHeaderSize = 5

// codeTableDefaultNearSize and codeTableDefaultSameSize are what
// DefaultCodeTable implies for address-cache geometry absent a custom
// table.
const (
	codeTableDefaultNearSize = DefaultNearCacheSize
	codeTableDefaultSameSize = DefaultSameCacheSize
)
