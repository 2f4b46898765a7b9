package vcdiff

// Header parsing does not use the cursor: the file header is magic
// (3) + version (1) + indicator (1), with no varints, so it gets its
// own small non-destructive parser over the raw buffer rather than
// sharing code with the window parser's varint-heavy body.

// matchMagicPrefix compares buf against VCDIFFMagic byte-by-byte as
// bytes arrive, rather than waiting for all three to be buffered. This
// is what lets a decode fail immediately on the first mismatching byte
// even when delivered one byte at a time.
func matchMagicPrefix(buf []byte) error {
	for i := 0; i < len(VCDIFFMagic) && i < len(buf); i++ {
		if buf[i] != VCDIFFMagic[i] {
			return newErr(KindBadMagic, "magic byte %d is 0x%02x, want 0x%02x", i, buf[i], VCDIFFMagic[i])
		}
	}
	return nil
}

// tryParseHeader parses the fixed 5-byte file header. It returns
// errNeedMoreData if fewer than 5 bytes are buffered and the bytes
// present don't already mismatch the magic.
func tryParseHeader(buf []byte) (consumed int, version byte, indicator byte, err error) {
	if err := matchMagicPrefix(buf); err != nil {
		return 0, 0, 0, err
	}
	if len(buf) < minimumHeaderSize {
		return 0, 0, 0, errNeedMoreData
	}

	version = buf[3]
	if version != VCDIFFVersionRFC && version != VCDIFFVersionInterleaved {
		return 0, 0, 0, newErr(KindUnsupportedVersion, "version byte 0x%02x is not supported", version)
	}

	indicator = buf[4]
	validBits := byte(VCDDecompress | VCDCodetable)
	if indicator & ^validBits != 0 {
		return 0, 0, 0, newErr(KindMalformedHeader, "header indicator 0x%02x sets reserved bits", indicator)
	}

	return minimumHeaderSize, version, indicator, nil
}
