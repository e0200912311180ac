// Package simulate generates plausible GRIP telemetry for exercising the
// monitor without the flight hardware: a manipulandum swaying on slow
// sinusoids, a pinch grip that comes and goes, and markers that drop in and
// out of view.
package simulate

import (
	"fmt"
	"io"
	"math"
	"math/bits"
	"math/rand"

	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/rigidbody"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

const (
	markers             = 20
	manipulandumMarkers = 8
	manipulandumMask    = 1<<manipulandumMarkers - 1
	// Chance per slice, in thousandths, that a marker changes visibility.
	toggleRate = 1
	// Ticks are milliseconds; slices are 20 Hz.
	ticksPerSlice = 50
)

// manipulandumModel places the manipulandum markers, in mm, relative to the
// body origin in the null orientation.
var manipulandumModel = [manipulandumMarkers]vectors.Vector3{
	{-30, 25, 10},
	{-30, -25, 10},
	{30, 25, 10},
	{30, -25, 10},
	{-20, 0, 45},
	{20, 0, 45},
	{0, 30, -15},
	{0, -30, -15},
}

// Generator produces a continuous stream of realtime and housekeeping
// packets. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand

	start   float64
	slice   uint32 // slices emitted so far
	packet  uint32
	counter uint16
	visible uint32 // current marker visibility bits

	// Last pose reported by the tracker, held while too few markers are seen.
	position    vectors.Vector3
	orientation vectors.Quaternion

	Acquisition uint32
	// DropoutRate is the chance per slice, in thousandths, that a marker
	// changes visibility.
	DropoutRate int
}

// NewGenerator starts a stream at EPM time start. The same seed reproduces
// the same marker dropouts.
func NewGenerator(start float64, seed int64) *Generator {
	return &Generator{
		rng:         rand.New(rand.NewSource(seed)),
		start:       start,
		visible:     1<<markers - 1,
		orientation: vectors.NullQuaternion,
		Acquisition: 1,
		DropoutRate: toggleRate,
	}
}

// Skip advances the stream clock by seconds without emitting anything, as
// if the link had dropped.
func (g *Generator) Skip(seconds float64) {
	g.slice += uint32(math.Round(seconds / packets.DEFAULT_SECONDS_PER_SLICE))
}

// NextRealtime returns the header and payload of the next realtime packet.
func (g *Generator) NextRealtime() (packets.TelemetryHeader, packets.RealtimePacket) {
	header := packets.NewTelemetryHeader(packets.RealtimeScience)
	g.counter++
	header.TMCounter = g.counter

	rt := packets.RealtimePacket{
		Timestamp:     g.start + float64(g.slice)*packets.DEFAULT_SECONDS_PER_SLICE,
		AcquisitionID: g.Acquisition,
		PacketCount:   g.packet,
	}
	g.packet++
	for i := range rt.Slices {
		rt.Slices[i] = g.nextSlice()
	}
	header.SetSeconds(rt.Timestamp)
	return header, rt
}

func (g *Generator) nextSlice() packets.RealtimeSlice {
	t := float64(g.slice) * packets.DEFAULT_SECONDS_PER_SLICE
	tick := g.slice * ticksPerSlice
	g.slice++

	for mrk := 0; mrk < markers; mrk++ {
		if g.rng.Intn(1000) < g.DropoutRate {
			g.visible ^= 1 << uint(mrk)
		}
	}

	position, orientation := bodyPose(t)
	grip := math.Abs(5.0 * math.Sin(t*2*math.Pi/155.0))
	load := vectors.Vector3{0, position[vectors.Z] / 200.0, position[vectors.X] / 200.0}

	g.track(position, orientation)
	s := packets.RealtimeSlice{
		PoseTick:         tick,
		AnalogTick:       tick,
		Position:         g.position.Scale(packets.POSITION_UNITS_PER_MM),
		Orientation:      g.orientation,
		MarkerVisibility: [packets.CODA_UNITS]uint32{g.visible, g.visible},
		Acceleration:     vectors.Vector3{0, 0, 0.01 * math.Sin(t)},
	}
	if bits.OnesCount32(g.visible&manipulandumMask) >= 3 {
		s.ManipulandumVisibility = 1
	}

	// The sensors face each other along X. The right sensor is mounted
	// flipped about X, so its Y and Z readings are reversed.
	s.FT[0].Force = vectors.Vector3{-grip, load[vectors.Y] / 2, load[vectors.Z] / 2}
	s.FT[1].Force = vectors.Vector3{grip, -load[vectors.Y] / 2, -load[vectors.Z] / 2}
	for sensor := range s.FT {
		f := s.FT[sensor].Force
		// Contact point 5 mm off center along Y.
		s.FT[sensor].Torque = vectors.Vector3{0, 0, -0.005 * f[vectors.X]}
	}
	return s
}

// bodyPose is the true manipulandum pose t seconds into the stream: a slow
// sway in position, in mm, and a yaw about Z.
func bodyPose(t float64) (vectors.Vector3, vectors.Quaternion) {
	position := vectors.Vector3{
		30.0 * math.Sin(t*2*math.Pi/30.0),
		300.0*math.Cos(t*2*math.Pi/30.0) + 200.0,
		-75.0*math.Sin(t*2*math.Pi/155.0) - 300.0,
	}
	yaw := vectors.ToRadians(20.0 * math.Sin(t*2*math.Pi/60.0))
	return position, vectors.QuaternionFromAxisAngle(yaw, vectors.KVector)
}

// track plays the part of the onboard tracker: it places the visible
// manipulandum markers at the true pose and fits a pose to them, keeping
// the previous orientation when fewer than three are seen.
func (g *Generator) track(position vectors.Vector3, orientation vectors.Quaternion) {
	var model, actual []vectors.Vector3
	for mrk, m := range manipulandumModel {
		if g.visible&(1<<uint(mrk)) == 0 {
			continue
		}
		model = append(model, m)
		actual = append(actual, orientation.RotateVector(m).Add(position))
	}

	fallback := g.orientation
	pose, ok := rigidbody.ComputePose(model, actual, &fallback)
	if !ok {
		return
	}
	g.position = pose.Position
	g.orientation = pose.Orientation
}

// NextHousekeeping returns the next housekeeping packet. The protocol step
// advances once per call.
func (g *Generator) NextHousekeeping() (packets.TelemetryHeader, packets.HealthStatus) {
	header := packets.NewTelemetryHeader(packets.Housekeeping)
	g.counter++
	header.TMCounter = g.counter
	header.SetSeconds(g.start + float64(g.slice)*packets.DEFAULT_SECONDS_PER_SLICE)

	hk := packets.HealthStatus{
		User:                     1,
		Protocol:                 100,
		Task:                     110,
		Step:                     uint16(g.packet % 50),
		HorizontalTargetFeedback: 1 << (g.packet % 10),
		ToneFeedback:             uint8(g.packet % 16),
		CradleDetectors:          0x15,
		MotionTrackerStatus:      2,
		CrewCameraStatus:         2,
		CrewCameraRate:           25,
		RunningBits:              2,
		CPUUsage:                 uint16(20 + g.rng.Intn(10)),
		MemoryUsage:              40,
	}
	return header, hk
}

// WriteRealtime appends n realtime records to w.
func (g *Generator) WriteRealtime(w io.Writer, n int) error {
	for i := 0; i < n; i++ {
		header, rt := g.NextRealtime()
		record, err := packets.EncodeRealtimeRecord(header, rt)
		if err != nil {
			return err
		}
		if _, err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write realtime record: %w", err)
		}
	}
	return nil
}

// WriteHousekeeping appends n housekeeping records to w.
func (g *Generator) WriteHousekeeping(w io.Writer, n int) error {
	for i := 0; i < n; i++ {
		header, hk := g.NextHousekeeping()
		record, err := packets.EncodeHousekeepingRecord(header, hk)
		if err != nil {
			return err
		}
		if _, err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write housekeeping record: %w", err)
		}
	}
	return nil
}
