package packets

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TransferFrameHeader is the outer EPM LAN envelope of every packet.
type TransferFrameHeader struct {
	SyncMarker     uint32 // TRANSFER_FRAME_SYNC_VALUE
	Spare1         uint8
	SoftwareUnitID uint8  // Sender unit
	PacketType     uint16 // TRANSFER_FRAME_CONNECT, _ALIVE, _TELECOMMAND or _TELEMETRY
	Spare2         uint16
	NumberOfWords  uint16 // Packet length in 16-bit words
}

// TelemetryHeader is the EPM telemetry envelope nested inside a transfer
// frame. TMIdentifier selects the packet kind and TMCounter advances with
// every packet the subsystem emits.
type TelemetryHeader struct {
	TransferFrame TransferFrameHeader

	SyncMarker              uint32 // TELEMETRY_SYNC_VALUE
	SubsystemMode           uint8
	SubsystemID             uint8
	Destination             uint8
	SubsystemUnitID         uint8
	TMIdentifier            uint16
	TMCounter               uint16
	Model                   uint8
	TaskID                  uint8
	SubsystemUnitVersion    uint16
	CoarseTime              uint32 // Seconds
	FineTime                uint16 // 1/65536 s
	TimerStatus             uint8
	ExperimentMode          uint8
	ChecksumIndicator       uint16
	ReceiverSubsystemID     uint8
	ReceiverSubsystemUnitID uint8
	NumberOfWords           uint16
}

// ExtractTransferFrameHeader decodes the transfer frame header at the start
// of buf.
func ExtractTransferFrameHeader(buf []byte) (TransferFrameHeader, error) {
	if err := checkLength(buf, TRANSFER_FRAME_HEADER_LENGTH, "transfer frame header"); err != nil {
		return TransferFrameHeader{}, err
	}
	return TransferFrameHeader{
		SyncMarker:     binary.BigEndian.Uint32(buf[0:4]),
		Spare1:         buf[4],
		SoftwareUnitID: buf[5],
		PacketType:     binary.BigEndian.Uint16(buf[6:8]),
		Spare2:         binary.BigEndian.Uint16(buf[8:10]),
		NumberOfWords:  binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

// Insert encodes h at the start of buf.
func (h TransferFrameHeader) Insert(buf []byte) error {
	if err := checkLength(buf, TRANSFER_FRAME_HEADER_LENGTH, "transfer frame header"); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[0:4], h.SyncMarker)
	buf[4] = h.Spare1
	buf[5] = h.SoftwareUnitID
	binary.BigEndian.PutUint16(buf[6:8], h.PacketType)
	binary.BigEndian.PutUint16(buf[8:10], h.Spare2)
	binary.BigEndian.PutUint16(buf[10:12], h.NumberOfWords)
	return nil
}

// ExtractTelemetryHeader decodes both envelopes of a telemetry packet. It
// does not validate them; see Validate.
func ExtractTelemetryHeader(buf []byte) (TelemetryHeader, error) {
	if err := checkLength(buf, PAYLOAD_OFFSET, "telemetry header"); err != nil {
		return TelemetryHeader{}, err
	}
	frame, err := ExtractTransferFrameHeader(buf)
	if err != nil {
		return TelemetryHeader{}, err
	}

	b := buf[TELEMETRY_HEADER_OFFSET:PAYLOAD_OFFSET]
	return TelemetryHeader{
		TransferFrame:           frame,
		SyncMarker:              binary.BigEndian.Uint32(b[0:4]),
		SubsystemMode:           b[4],
		SubsystemID:             b[5],
		Destination:             b[6],
		SubsystemUnitID:         b[7],
		TMIdentifier:            binary.BigEndian.Uint16(b[8:10]),
		TMCounter:               binary.BigEndian.Uint16(b[10:12]),
		Model:                   b[12],
		TaskID:                  b[13],
		SubsystemUnitVersion:    binary.BigEndian.Uint16(b[14:16]),
		CoarseTime:              binary.BigEndian.Uint32(b[16:20]),
		FineTime:                binary.BigEndian.Uint16(b[20:22]),
		TimerStatus:             b[22],
		ExperimentMode:          b[23],
		ChecksumIndicator:       binary.BigEndian.Uint16(b[24:26]),
		ReceiverSubsystemID:     b[26],
		ReceiverSubsystemUnitID: b[27],
		NumberOfWords:           binary.BigEndian.Uint16(b[28:30]),
	}, nil
}

// Insert encodes both envelopes of h at the start of buf.
func (h TelemetryHeader) Insert(buf []byte) error {
	if err := checkLength(buf, PAYLOAD_OFFSET, "telemetry header"); err != nil {
		return err
	}
	if err := h.TransferFrame.Insert(buf); err != nil {
		return err
	}

	b := buf[TELEMETRY_HEADER_OFFSET:PAYLOAD_OFFSET]
	binary.BigEndian.PutUint32(b[0:4], h.SyncMarker)
	b[4] = h.SubsystemMode
	b[5] = h.SubsystemID
	b[6] = h.Destination
	b[7] = h.SubsystemUnitID
	binary.BigEndian.PutUint16(b[8:10], h.TMIdentifier)
	binary.BigEndian.PutUint16(b[10:12], h.TMCounter)
	b[12] = h.Model
	b[13] = h.TaskID
	binary.BigEndian.PutUint16(b[14:16], h.SubsystemUnitVersion)
	binary.BigEndian.PutUint32(b[16:20], h.CoarseTime)
	binary.BigEndian.PutUint16(b[20:22], h.FineTime)
	b[22] = h.TimerStatus
	b[23] = h.ExperimentMode
	binary.BigEndian.PutUint16(b[24:26], h.ChecksumIndicator)
	b[26] = h.ReceiverSubsystemID
	b[27] = h.ReceiverSubsystemUnitID
	binary.BigEndian.PutUint16(b[28:30], h.NumberOfWords)
	return nil
}

// Validate checks the telemetry sync marker and identifier and returns the
// packet kind. Both failures wrap ErrCorruptPacket.
func (h TelemetryHeader) Validate() (Kind, error) {
	if h.SyncMarker != TELEMETRY_SYNC_VALUE {
		return 0, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrBadSyncMarker, h.SyncMarker, uint32(TELEMETRY_SYNC_VALUE))
	}
	kind, ok := KindOf(h.TMIdentifier)
	if !ok {
		return 0, fmt.Errorf("%w: 0x%04X", ErrUnknownIdentifier, h.TMIdentifier)
	}
	return kind, nil
}

// ValidateAs is Validate for a record that must be of the given kind.
func (h TelemetryHeader) ValidateAs(want Kind) error {
	kind, err := h.Validate()
	if err != nil {
		return err
	}
	if kind != want {
		return fmt.Errorf("%w: 0x%04X is %s, want %s", ErrUnknownIdentifier, h.TMIdentifier, kind, want)
	}
	return nil
}

// Seconds converts the EPM coarse and fine time fields to seconds.
func (h TelemetryHeader) Seconds() float64 {
	return float64(h.CoarseTime) + float64(h.FineTime)/FINE_TIME_UNITS_PER_SECOND
}

// SetSeconds stores t in the coarse and fine time fields, rounding the
// fraction to the nearest fine time unit.
func (h *TelemetryHeader) SetSeconds(t float64) {
	coarse := math.Floor(t)
	fine := math.Round((t - coarse) * FINE_TIME_UNITS_PER_SECOND)
	if fine >= FINE_TIME_UNITS_PER_SECOND {
		coarse++
		fine = 0
	}
	h.CoarseTime = uint32(coarse)
	h.FineTime = uint16(fine)
}

// ConnectFrame is the transfer frame the monitor sends to open an EPM
// session.
func ConnectFrame() TransferFrameHeader {
	return TransferFrameHeader{
		SyncMarker:     TRANSFER_FRAME_SYNC_VALUE,
		SoftwareUnitID: MMI_SOFTWARE_UNIT_ID,
		PacketType:     TRANSFER_FRAME_CONNECT,
		NumberOfWords:  TRANSFER_FRAME_HEADER_LENGTH / 2,
	}
}

// AliveFrame is the keep-alive transfer frame.
func AliveFrame() TransferFrameHeader {
	f := ConnectFrame()
	f.PacketType = TRANSFER_FRAME_ALIVE
	return f
}

// NewTelemetryHeader returns a representative header for a packet of the
// given kind. Fields the monitor does not use are left zero.
func NewTelemetryHeader(kind Kind) TelemetryHeader {
	words := uint16(kind.RecordLength() / 2)
	return TelemetryHeader{
		TransferFrame: TransferFrameHeader{
			SyncMarker:     TRANSFER_FRAME_SYNC_VALUE,
			SoftwareUnitID: MMI_SOFTWARE_UNIT_ID,
			PacketType:     TRANSFER_FRAME_TELEMETRY,
			NumberOfWords:  words,
		},
		SyncMarker:    TELEMETRY_SYNC_VALUE,
		SubsystemID:   GRIP_SUBSYSTEM_ID,
		TMIdentifier:  kind.Identifier(),
		NumberOfWords: words,
	}
}
