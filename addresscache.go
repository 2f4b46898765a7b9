package vcdiff

// The NEAR/SAME address cache used to decode COPY addresses. Unlike a
// per-window scratch structure, the cache is shared across every window
// of a delta: it is created once when the driver starts and lives for
// the lifetime of the decode, so later windows' COPY instructions can
// reference addresses cached from earlier windows.
const (
	modeSelf = 0
	modeHere = 1
)

// AddressCache holds the NEAR and SAME tables plus the round-robin
// cursor into NEAR. sNear and sSame are configurable, defaulting to 4
// and 3 per RFC 3284 but replaceable by a custom code table's
// cache-size descriptor.
type AddressCache struct {
	sNear    int
	sSame    int
	near     []uint32
	nextNear int
	same     []uint32
	lastMode byte
}

// DefaultNearCacheSize and DefaultSameCacheSize are RFC 3284's §5.3
// defaults, used whenever a delta does not carry a custom code table.
const (
	DefaultNearCacheSize = 4
	DefaultSameCacheSize = 3
)

// NewAddressCache allocates a cache with the given NEAR/SAME sizes. Both
// sNear and sSame must fit in a byte; the caller (driver or header
// parser) is responsible for validating that before construction.
func NewAddressCache(sNear, sSame int) *AddressCache {
	return &AddressCache{
		sNear: sNear,
		sSame: sSame,
		near:  make([]uint32, sNear),
		same:  make([]uint32, sSame*256),
	}
}

// LastMode returns the mode byte used by the most recently decoded
// address, consulted when installing a custom code table mid-delta.
func (ac *AddressCache) LastMode() byte { return ac.lastMode }

// SetLastMode seeds lastMode, used to carry state across the boundary
// when a custom code table replaces the cache that backs it.
func (ac *AddressCache) SetLastMode(mode byte) { ac.lastMode = mode }

// addressSource is whatever the COPY instruction's address bytes come
// from: the dedicated address section, or, in interleaved format, the
// shared instruction stream.
type addressSource interface {
	consumeVarintU31() (uint32, error)
	consumeByte() (byte, error)
}

// DecodeAddress resolves a COPY address given the mode byte from the
// code table and the logical position here (the source segment size
// plus bytes decoded so far in the current target window). The
// returned address is validated against 0 <= addr < here, and the
// cache is updated before returning.
func (ac *AddressCache) DecodeAddress(here uint32, mode byte, src addressSource) (uint32, error) {
	var addr uint32

	switch {
	case mode == modeSelf:
		a, err := src.consumeVarintU31()
		if err != nil {
			return 0, err
		}
		addr = a

	case mode == modeHere:
		d, err := src.consumeVarintU31()
		if err != nil {
			return 0, err
		}
		if d > here {
			return 0, newErr(KindBadAddress, "HERE offset %d exceeds here=%d", d, here)
		}
		addr = here - d

	case int(mode)-2 < ac.sNear:
		i := int(mode) - 2
		d, err := src.consumeVarintU31()
		if err != nil {
			return 0, err
		}
		addr = ac.near[i] + d

	case int(mode)-2-ac.sNear < ac.sSame:
		i := int(mode) - 2 - ac.sNear
		b, err := src.consumeByte()
		if err != nil {
			return 0, err
		}
		addr = ac.same[i*256+int(b)]

	default:
		return 0, newErr(KindBadOpcode, "address mode %d out of range for sNear=%d sSame=%d", mode, ac.sNear, ac.sSame)
	}

	if addr >= here {
		return 0, newErr(KindBadAddress, "decoded address %d not less than here=%d", addr, here)
	}

	ac.update(addr)
	ac.lastMode = mode
	return addr, nil
}

// update records addr into both caches. Updates are skipped for
// whichever cache has size zero.
func (ac *AddressCache) update(addr uint32) {
	if ac.sNear > 0 {
		ac.near[ac.nextNear] = addr
		ac.nextNear = (ac.nextNear + 1) % ac.sNear
	}
	if ac.sSame > 0 {
		ac.same[addr%(uint32(ac.sSame)*256)] = addr
	}
}
