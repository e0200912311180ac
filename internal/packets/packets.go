// Package packets encodes and decodes the fixed-layout GRIP telemetry
// packets written to the ground monitor's packet caches.
package packets

import (
	"errors"
	"fmt"
	"path/filepath"
)

/*
GRIP Telemetry Packet Layout

Every packet cached by the ground monitor client is a complete EPM LAN
telemetry packet. All multi-byte fields are big-endian (network order).

RECORD (802 bytes realtime science, 158 bytes housekeeping):
├── Transfer frame header (12 bytes) at offset 0
├── Telemetry header (30 bytes) at offset 12
├── GRIP payload at offset 42 (758 bytes realtime, 114 bytes housekeeping)
└── Checksum trailer (2 bytes) at the end of the record

The cache file for each packet kind is a plain concatenation of records.
A trailing record that is shorter than the fixed record size is still being
written by the producer and is read on a later pass.
*/

const (
	BUFFER_LENGTH                   = 1412 // EPM packets never exceed this many octets
	TRANSFER_FRAME_HEADER_LENGTH    = 12
	TELEMETRY_HEADER_LENGTH         = 30
	TELEMETRY_HEADER_OFFSET         = TRANSFER_FRAME_HEADER_LENGTH
	PAYLOAD_OFFSET                  = TRANSFER_FRAME_HEADER_LENGTH + TELEMETRY_HEADER_LENGTH // 42
	CHECKSUM_TRAILER_LENGTH         = 2
	REALTIME_PAYLOAD_LENGTH         = 758
	HOUSEKEEPING_PAYLOAD_LENGTH     = 114
	REALTIME_RECORD_LENGTH          = PAYLOAD_OFFSET + REALTIME_PAYLOAD_LENGTH + CHECKSUM_TRAILER_LENGTH     // 802
	HOUSEKEEPING_RECORD_LENGTH      = PAYLOAD_OFFSET + HOUSEKEEPING_PAYLOAD_LENGTH + CHECKSUM_TRAILER_LENGTH // 158
	TRANSFER_FRAME_SYNC_VALUE       = 0xAA49DBFF
	TELEMETRY_SYNC_VALUE            = 0xFFDB544D
	TRANSFER_FRAME_CONNECT          = 0x0001
	TRANSFER_FRAME_ALIVE            = 0x0002
	TRANSFER_FRAME_TELECOMMAND      = 0x1154
	TRANSFER_FRAME_TELEMETRY        = 0x1153
	HOUSEKEEPING_ID                 = 0x0301
	REALTIME_SCIENCE_ID             = 0x1001
	MMI_SOFTWARE_UNIT_ID            = 43
	MMI_SOFTWARE_ALT_UNIT_ID        = 42
	GRIP_SUBSYSTEM_ID               = 0x21
	FINE_TIME_UNITS_PER_SECOND      = 65536
	CACHE_FILENAME_PREFIX           = "GripPacketCache"
	REALTIME_CACHE_FILENAME_EXT     = ".rt.gpk"
	HOUSEKEEPING_CACHE_FILENAME_EXT = ".hk.gpk"
)

var (
	// ErrShortBuffer is returned when a buffer is too small for the section
	// being extracted or inserted.
	ErrShortBuffer = errors.New("packets: buffer too short")

	// ErrCorruptPacket is the class of every header mismatch on a
	// structurally complete record. It cannot be recovered from by skipping
	// bytes, so callers treat it as fatal.
	ErrCorruptPacket = errors.New("packets: corrupt packet")

	ErrBadSyncMarker     = fmt.Errorf("%w: bad telemetry sync marker", ErrCorruptPacket)
	ErrUnknownIdentifier = fmt.Errorf("%w: unrecognized telemetry identifier", ErrCorruptPacket)
)

// Kind distinguishes the two GRIP telemetry packet kinds.
type Kind int

const (
	RealtimeScience Kind = iota
	Housekeeping
)

func (k Kind) String() string {
	switch k {
	case RealtimeScience:
		return "realtime science"
	case Housekeeping:
		return "housekeeping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Identifier returns the telemetry header TM identifier of the kind.
func (k Kind) Identifier() uint16 {
	if k == Housekeeping {
		return HOUSEKEEPING_ID
	}
	return REALTIME_SCIENCE_ID
}

// RecordLength returns the fixed size in bytes of one cached record.
func (k Kind) RecordLength() int {
	if k == Housekeeping {
		return HOUSEKEEPING_RECORD_LENGTH
	}
	return REALTIME_RECORD_LENGTH
}

// KindOf maps a TM identifier to its packet kind.
func KindOf(identifier uint16) (Kind, bool) {
	switch identifier {
	case REALTIME_SCIENCE_ID:
		return RealtimeScience, true
	case HOUSEKEEPING_ID:
		return Housekeeping, true
	default:
		return 0, false
	}
}

// CacheFilename returns the path of the cache file holding packets of the
// given kind under root.
func CacheFilename(root string, kind Kind) string {
	ext := REALTIME_CACHE_FILENAME_EXT
	if kind == Housekeeping {
		ext = HOUSEKEEPING_CACHE_FILENAME_EXT
	}
	return filepath.Join(root, CACHE_FILENAME_PREFIX+ext)
}

func checkLength(buf []byte, need int, section string) error {
	if len(buf) < need {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortBuffer, section, need, len(buf))
	}
	return nil
}
