package packets

import (
	"encoding/binary"
)

/*
HOUSEKEEPING PAYLOAD (114 bytes at PAYLOAD_OFFSET):
├── EPM system housekeeping (70 bytes) at 0 - carried opaquely
└── GRIP health and status (44 bytes) at 70
    ├── Horizontal, vertical target feedback (uint16 × 2)
    ├── Tone feedback, cradle detectors (uint8 × 2)
    ├── User, protocol, task, step (uint16 × 4)
    ├── Script engine, io channel, motion tracker, crew camera status (uint16 × 4)
    ├── Crew camera rate, running bits, cpu %, memory % (uint16 × 4)
    ├── Free disk space C, D, E (uint32 × 3)
    └── Checksum (uint16)
*/

const (
	EPM_HOUSEKEEPING_LENGTH = 70
	healthStatusOffset      = EPM_HOUSEKEEPING_LENGTH
)

// HealthStatus is one housekeeping snapshot of the GRIP subsystem.
type HealthStatus struct {
	EPMHousekeeping [EPM_HOUSEKEEPING_LENGTH]byte

	HorizontalTargetFeedback uint16 // Bit per target LED
	VerticalTargetFeedback   uint16
	ToneFeedback             uint8
	CradleDetectors          uint8 // Three 2-bit mass cradle codes

	User     uint16
	Protocol uint16
	Task     uint16
	Step     uint16

	ScriptEngineStatus  uint16
	IOChannelStatus     uint16
	MotionTrackerStatus uint16
	CrewCameraStatus    uint16

	CrewCameraRate uint16 // Frames per second
	RunningBits    uint16 // Bit 0 shell command, bit 1 system acquiring
	CPUUsage       uint16 // Percent
	MemoryUsage    uint16 // Percent

	FreeDiskSpaceC uint32
	FreeDiskSpaceD uint32
	FreeDiskSpaceE uint32

	CRC uint16
}

// ExtractHealthStatus decodes the housekeeping payload of a complete record.
func ExtractHealthStatus(buf []byte) (HealthStatus, error) {
	if err := checkLength(buf, PAYLOAD_OFFSET+HOUSEKEEPING_PAYLOAD_LENGTH, "housekeeping payload"); err != nil {
		return HealthStatus{}, err
	}
	p := buf[PAYLOAD_OFFSET : PAYLOAD_OFFSET+HOUSEKEEPING_PAYLOAD_LENGTH]

	var hk HealthStatus
	copy(hk.EPMHousekeeping[:], p[:EPM_HOUSEKEEPING_LENGTH])

	b := p[healthStatusOffset:]
	hk.HorizontalTargetFeedback = binary.BigEndian.Uint16(b[0:2])
	hk.VerticalTargetFeedback = binary.BigEndian.Uint16(b[2:4])
	hk.ToneFeedback = b[4]
	hk.CradleDetectors = b[5]
	hk.User = binary.BigEndian.Uint16(b[6:8])
	hk.Protocol = binary.BigEndian.Uint16(b[8:10])
	hk.Task = binary.BigEndian.Uint16(b[10:12])
	hk.Step = binary.BigEndian.Uint16(b[12:14])
	hk.ScriptEngineStatus = binary.BigEndian.Uint16(b[14:16])
	hk.IOChannelStatus = binary.BigEndian.Uint16(b[16:18])
	hk.MotionTrackerStatus = binary.BigEndian.Uint16(b[18:20])
	hk.CrewCameraStatus = binary.BigEndian.Uint16(b[20:22])
	hk.CrewCameraRate = binary.BigEndian.Uint16(b[22:24])
	hk.RunningBits = binary.BigEndian.Uint16(b[24:26])
	hk.CPUUsage = binary.BigEndian.Uint16(b[26:28])
	hk.MemoryUsage = binary.BigEndian.Uint16(b[28:30])
	hk.FreeDiskSpaceC = binary.BigEndian.Uint32(b[30:34])
	hk.FreeDiskSpaceD = binary.BigEndian.Uint32(b[34:38])
	hk.FreeDiskSpaceE = binary.BigEndian.Uint32(b[38:42])
	hk.CRC = binary.BigEndian.Uint16(b[42:44])
	return hk, nil
}

// Insert encodes hk after the headers in buf.
func (hk HealthStatus) Insert(buf []byte) error {
	if err := checkLength(buf, PAYLOAD_OFFSET+HOUSEKEEPING_PAYLOAD_LENGTH, "housekeeping payload"); err != nil {
		return err
	}
	p := buf[PAYLOAD_OFFSET : PAYLOAD_OFFSET+HOUSEKEEPING_PAYLOAD_LENGTH]
	copy(p[:EPM_HOUSEKEEPING_LENGTH], hk.EPMHousekeeping[:])

	b := p[healthStatusOffset:]
	binary.BigEndian.PutUint16(b[0:2], hk.HorizontalTargetFeedback)
	binary.BigEndian.PutUint16(b[2:4], hk.VerticalTargetFeedback)
	b[4] = hk.ToneFeedback
	b[5] = hk.CradleDetectors
	binary.BigEndian.PutUint16(b[6:8], hk.User)
	binary.BigEndian.PutUint16(b[8:10], hk.Protocol)
	binary.BigEndian.PutUint16(b[10:12], hk.Task)
	binary.BigEndian.PutUint16(b[12:14], hk.Step)
	binary.BigEndian.PutUint16(b[14:16], hk.ScriptEngineStatus)
	binary.BigEndian.PutUint16(b[16:18], hk.IOChannelStatus)
	binary.BigEndian.PutUint16(b[18:20], hk.MotionTrackerStatus)
	binary.BigEndian.PutUint16(b[20:22], hk.CrewCameraStatus)
	binary.BigEndian.PutUint16(b[22:24], hk.CrewCameraRate)
	binary.BigEndian.PutUint16(b[24:26], hk.RunningBits)
	binary.BigEndian.PutUint16(b[26:28], hk.CPUUsage)
	binary.BigEndian.PutUint16(b[28:30], hk.MemoryUsage)
	binary.BigEndian.PutUint32(b[30:34], hk.FreeDiskSpaceC)
	binary.BigEndian.PutUint32(b[34:38], hk.FreeDiskSpaceD)
	binary.BigEndian.PutUint32(b[38:42], hk.FreeDiskSpaceE)
	binary.BigEndian.PutUint16(b[42:44], hk.CRC)
	return nil
}
