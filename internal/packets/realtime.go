package packets

import (
	"encoding/binary"
	"math"

	"github.com/banshee-data/grip.monitor/internal/vectors"
)

/*
REALTIME SCIENCE PAYLOAD (758 bytes at PAYLOAD_OFFSET):
├── Acquisition ID (uint32) at 0
├── Packet count (uint32) at 4
└── 10 slices × 75 bytes from offset 8
    ├── Pose tick (uint32) at 0
    ├── Position 3 × float32, tenths of mm, at 4
    ├── Orientation quaternion 4 × float32 (x, y, z, scalar) at 16
    ├── Marker visibility per coda 2 × uint32 at 32
    ├── Manipulandum visibility (uint8) at 40
    ├── Analog tick (uint32) at 41
    ├── Per sensor: force 3 × int16 then torque 3 × int16, at 45 and 57
    └── Acceleration 3 × int16 at 69

The packet timestamp is the EPM time of the telemetry header. Slices carry
tick counters but no time of their own, so a timestamp is reconstructed for
each one on extraction.
*/

const (
	SLICES_PER_PACKET          = 10
	SLICE_LENGTH               = 75
	SLICES_OFFSET              = 8
	CODA_UNITS                 = 2
	FORCE_SENSORS              = 2
	SECONDS_PER_TICK           = 0.001
	DEFAULT_SECONDS_PER_SLICE  = 0.050
	POSITION_UNITS_PER_MM      = 10    // Position is transmitted in tenths of a millimeter
	FORCE_COUNTS_PER_NEWTON    = 100   // 0.01 N per count
	TORQUE_COUNTS_PER_NM       = 10000 // 0.0001 N·m per count
	ACCELERATION_COUNTS_PER_G  = 1000  // 0.001 g per count
	sliceOffsetPoseTick        = 0
	sliceOffsetPosition        = 4
	sliceOffsetQuaternion      = 16
	sliceOffsetVisibility      = 32
	sliceOffsetManipVisibility = 40
	sliceOffsetAnalogTick      = 41
	sliceOffsetForceTorque     = 45
	sliceOffsetAcceleration    = 69
	forceTorqueLength          = 12
)

// ForceTorque is one sensor's reading in newtons and newton-meters.
type ForceTorque struct {
	Force  vectors.Vector3
	Torque vectors.Vector3
}

// RealtimeSlice is one sampling instant of a realtime science packet.
type RealtimeSlice struct {
	PoseTick               uint32
	Position               vectors.Vector3 // Tenths of mm, as transmitted
	Orientation            vectors.Quaternion
	MarkerVisibility       [CODA_UNITS]uint32 // Bit n set when marker n is seen by the coda
	ManipulandumVisibility uint8
	AnalogTick             uint32
	FT                     [FORCE_SENSORS]ForceTorque
	Acceleration           vectors.Vector3 // g

	// Reconstructed on extraction, not transmitted.
	PoseTimestamp   float64
	AnalogTimestamp float64
}

// RealtimePacket is the decoded payload of a realtime science packet.
type RealtimePacket struct {
	Timestamp     float64 // EPM time of the telemetry header, seconds
	AcquisitionID uint32
	PacketCount   uint32
	Slices        [SLICES_PER_PACKET]RealtimeSlice
}

// ExtractRealtimePacket decodes the realtime science payload of a complete
// record. The header is not validated here.
func ExtractRealtimePacket(buf []byte) (RealtimePacket, error) {
	if err := checkLength(buf, PAYLOAD_OFFSET+REALTIME_PAYLOAD_LENGTH, "realtime payload"); err != nil {
		return RealtimePacket{}, err
	}
	header, err := ExtractTelemetryHeader(buf)
	if err != nil {
		return RealtimePacket{}, err
	}

	p := buf[PAYLOAD_OFFSET : PAYLOAD_OFFSET+REALTIME_PAYLOAD_LENGTH]
	rt := RealtimePacket{
		Timestamp:     header.Seconds(),
		AcquisitionID: binary.BigEndian.Uint32(p[0:4]),
		PacketCount:   binary.BigEndian.Uint32(p[4:8]),
	}
	for i := range rt.Slices {
		start := SLICES_OFFSET + i*SLICE_LENGTH
		rt.Slices[i] = extractSlice(p[start : start+SLICE_LENGTH])
	}
	rt.assignTimestamps()
	return rt, nil
}

// Insert encodes the payload of rt after the headers in buf. The packet
// timestamp lives in the telemetry header and the per-slice timestamps are
// not transmitted, so none of them are written.
func (rt RealtimePacket) Insert(buf []byte) error {
	if err := checkLength(buf, PAYLOAD_OFFSET+REALTIME_PAYLOAD_LENGTH, "realtime payload"); err != nil {
		return err
	}
	p := buf[PAYLOAD_OFFSET : PAYLOAD_OFFSET+REALTIME_PAYLOAD_LENGTH]
	binary.BigEndian.PutUint32(p[0:4], rt.AcquisitionID)
	binary.BigEndian.PutUint32(p[4:8], rt.PacketCount)
	for i, s := range rt.Slices {
		start := SLICES_OFFSET + i*SLICE_LENGTH
		insertSlice(p[start:start+SLICE_LENGTH], s)
	}
	return nil
}

func extractSlice(b []byte) RealtimeSlice {
	s := RealtimeSlice{
		PoseTick:               binary.BigEndian.Uint32(b[sliceOffsetPoseTick:]),
		Position:               readFloat32Vector(b[sliceOffsetPosition:]),
		ManipulandumVisibility: b[sliceOffsetManipVisibility],
		AnalogTick:             binary.BigEndian.Uint32(b[sliceOffsetAnalogTick:]),
		Acceleration:           readScaledVector(b[sliceOffsetAcceleration:], ACCELERATION_COUNTS_PER_G),
	}
	for i := range s.Orientation {
		s.Orientation[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(b[sliceOffsetQuaternion+4*i:])))
	}
	for c := range s.MarkerVisibility {
		s.MarkerVisibility[c] = binary.BigEndian.Uint32(b[sliceOffsetVisibility+4*c:])
	}
	for sensor := range s.FT {
		off := sliceOffsetForceTorque + sensor*forceTorqueLength
		s.FT[sensor].Force = readScaledVector(b[off:], FORCE_COUNTS_PER_NEWTON)
		s.FT[sensor].Torque = readScaledVector(b[off+6:], TORQUE_COUNTS_PER_NM)
	}
	return s
}

func insertSlice(b []byte, s RealtimeSlice) {
	binary.BigEndian.PutUint32(b[sliceOffsetPoseTick:], s.PoseTick)
	writeFloat32Vector(b[sliceOffsetPosition:], s.Position)
	for i, q := range s.Orientation {
		binary.BigEndian.PutUint32(b[sliceOffsetQuaternion+4*i:], math.Float32bits(float32(q)))
	}
	for c, v := range s.MarkerVisibility {
		binary.BigEndian.PutUint32(b[sliceOffsetVisibility+4*c:], v)
	}
	b[sliceOffsetManipVisibility] = s.ManipulandumVisibility
	binary.BigEndian.PutUint32(b[sliceOffsetAnalogTick:], s.AnalogTick)
	for sensor, ft := range s.FT {
		off := sliceOffsetForceTorque + sensor*forceTorqueLength
		writeScaledVector(b[off:], ft.Force, FORCE_COUNTS_PER_NEWTON)
		writeScaledVector(b[off+6:], ft.Torque, TORQUE_COUNTS_PER_NM)
	}
	writeScaledVector(b[sliceOffsetAcceleration:], s.Acceleration, ACCELERATION_COUNTS_PER_G)
}

// assignTimestamps reconstructs a time for each slice. When the tick
// counters advance through the packet they are used relative to the first
// slice; otherwise slices are assumed to be evenly spaced at the nominal
// rate.
func (rt *RealtimePacket) assignTimestamps() {
	poseTicks := ticksAdvance(rt, func(s RealtimeSlice) uint32 { return s.PoseTick })
	analogTicks := ticksAdvance(rt, func(s RealtimeSlice) uint32 { return s.AnalogTick })

	first := rt.Slices[0]
	for i := range rt.Slices {
		s := &rt.Slices[i]
		nominal := rt.Timestamp + float64(i)*DEFAULT_SECONDS_PER_SLICE

		s.PoseTimestamp = nominal
		if poseTicks {
			s.PoseTimestamp = rt.Timestamp + float64(s.PoseTick-first.PoseTick)*SECONDS_PER_TICK
		}
		s.AnalogTimestamp = nominal
		if analogTicks {
			s.AnalogTimestamp = rt.Timestamp + float64(s.AnalogTick-first.AnalogTick)*SECONDS_PER_TICK
		}
	}
}

func ticksAdvance(rt *RealtimePacket, tick func(RealtimeSlice) uint32) bool {
	for i := 1; i < len(rt.Slices); i++ {
		if tick(rt.Slices[i]) <= tick(rt.Slices[i-1]) {
			return false
		}
	}
	return true
}

func readFloat32Vector(b []byte) vectors.Vector3 {
	var v vectors.Vector3
	for i := range v {
		v[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(b[4*i:])))
	}
	return v
}

func writeFloat32Vector(b []byte, v vectors.Vector3) {
	for i := range v {
		binary.BigEndian.PutUint32(b[4*i:], math.Float32bits(float32(v[i])))
	}
}

func readScaledVector(b []byte, countsPerUnit float64) vectors.Vector3 {
	var v vectors.Vector3
	for i := range v {
		v[i] = float64(int16(binary.BigEndian.Uint16(b[2*i:]))) / countsPerUnit
	}
	return v
}

// writeScaledVector saturates at the int16 range.
func writeScaledVector(b []byte, v vectors.Vector3, countsPerUnit float64) {
	for i := range v {
		counts := math.Round(v[i] * countsPerUnit)
		counts = math.Max(math.MinInt16, math.Min(math.MaxInt16, counts))
		binary.BigEndian.PutUint16(b[2*i:], uint16(int16(counts)))
	}
}
