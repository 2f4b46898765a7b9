package vcdiff

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which error category a failure belongs to. Callers
// that want to branch on error category should use errors.Is against
// the sentinel Err* values below rather than type switches.
type Kind byte

const (
	KindBadMagic Kind = iota
	KindUnsupportedVersion
	KindUnsupportedFeature
	KindMalformedVarint
	KindMalformedHeader
	KindSizeLimitExceeded
	KindBadAddress
	KindBadOpcode
	KindSectionLengthMismatch
	KindChecksumMismatch
	KindLifecycleViolation
	KindVcdTargetDisallowed
)

func (k Kind) String() string {
	switch k {
	case KindBadMagic:
		return "bad magic"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindUnsupportedFeature:
		return "unsupported feature"
	case KindMalformedVarint:
		return "malformed varint"
	case KindMalformedHeader:
		return "malformed header"
	case KindSizeLimitExceeded:
		return "size limit exceeded"
	case KindBadAddress:
		return "bad address"
	case KindBadOpcode:
		return "bad opcode"
	case KindSectionLengthMismatch:
		return "section length mismatch"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindLifecycleViolation:
		return "lifecycle violation"
	case KindVcdTargetDisallowed:
		return "VCD_TARGET disallowed"
	default:
		return "unknown"
	}
}

// sentinels, one per Kind, so callers can do errors.Is(err, vcdiff.ErrBadAddress).
var (
	ErrBadMagic              = errors.New(KindBadMagic.String())
	ErrUnsupportedVersion    = errors.New(KindUnsupportedVersion.String())
	ErrUnsupportedFeature    = errors.New(KindUnsupportedFeature.String())
	ErrMalformedVarint       = errors.New(KindMalformedVarint.String())
	ErrMalformedHeader       = errors.New(KindMalformedHeader.String())
	ErrSizeLimitExceeded     = errors.New(KindSizeLimitExceeded.String())
	ErrBadAddress            = errors.New(KindBadAddress.String())
	ErrBadOpcode             = errors.New(KindBadOpcode.String())
	ErrSectionLengthMismatch = errors.New(KindSectionLengthMismatch.String())
	ErrChecksumMismatch      = errors.New(KindChecksumMismatch.String())
	ErrLifecycleViolation    = errors.New(KindLifecycleViolation.String())
	ErrVcdTargetDisallowed   = errors.New(KindVcdTargetDisallowed.String())
)

func sentinelFor(k Kind) error {
	switch k {
	case KindBadMagic:
		return ErrBadMagic
	case KindUnsupportedVersion:
		return ErrUnsupportedVersion
	case KindUnsupportedFeature:
		return ErrUnsupportedFeature
	case KindMalformedVarint:
		return ErrMalformedVarint
	case KindMalformedHeader:
		return ErrMalformedHeader
	case KindSizeLimitExceeded:
		return ErrSizeLimitExceeded
	case KindBadAddress:
		return ErrBadAddress
	case KindBadOpcode:
		return ErrBadOpcode
	case KindSectionLengthMismatch:
		return ErrSectionLengthMismatch
	case KindChecksumMismatch:
		return ErrChecksumMismatch
	case KindLifecycleViolation:
		return ErrLifecycleViolation
	case KindVcdTargetDisallowed:
		return ErrVcdTargetDisallowed
	default:
		return errors.New("unknown vcdiff error")
	}
}

// newErr builds a diagnostic error for kind k, wrapping the taxonomy
// sentinel so errors.Is still matches it after formatting.
func newErr(k Kind, format string, args ...interface{}) error {
	return errors.Wrap(sentinelFor(k), fmt.Sprintf(format, args...))
}

// Needing more data is never an error in the public sense: it is an
// internal signal that a structure is incomplete and more bytes are
// needed. It is modeled as a distinct sentinel so it never satisfies
// errors.Is against any of the Err* kinds above.
var errNeedMoreData = errors.New("vcdiff: need more data")

// IsNeedMoreData reports whether err is the internal "incomplete
// structure, deliver more bytes" signal. Exposed for tests; ordinary
// callers of DecodeChunk never see it returned, since the driver
// translates it into a plain nil error (chunk accepted).
func IsNeedMoreData(err error) bool {
	return errors.Is(err, errNeedMoreData)
}
