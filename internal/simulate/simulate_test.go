package simulate

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

func rotationError(want, got vectors.Quaternion) float64 {
	angle := math.Mod(want.AngleBetween(got), 2*math.Pi)
	return math.Min(angle, 2*math.Pi-angle)
}

func TestRealtimeStreamDecodes(t *testing.T) {
	t.Parallel()

	g := NewGenerator(1000, 1)
	var buf bytes.Buffer
	require.NoError(t, g.WriteRealtime(&buf, 3))
	require.Equal(t, 3*packets.REALTIME_RECORD_LENGTH, buf.Len())

	record := buf.Bytes()[2*packets.REALTIME_RECORD_LENGTH:]
	header, err := packets.ExtractTelemetryHeader(record)
	require.NoError(t, err)
	require.NoError(t, header.ValidateAs(packets.RealtimeScience))
	assert.Equal(t, uint16(3), header.TMCounter)

	rt, err := packets.ExtractRealtimePacket(record)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rt.PacketCount)
	assert.InDelta(t, 1001.0, rt.Timestamp, 1e-4)
	for i, s := range rt.Slices {
		assert.InDelta(t, rt.Timestamp+float64(i)*packets.DEFAULT_SECONDS_PER_SLICE, s.PoseTimestamp, 1e-9)
	}
}

func TestSkipLeavesGap(t *testing.T) {
	t.Parallel()

	g := NewGenerator(0, 1)
	_, first := g.NextRealtime()
	g.Skip(5)
	_, second := g.NextRealtime()
	assert.InDelta(t, 5.5, second.Timestamp-first.Timestamp, 1e-9)
}

func TestGripIsOpposedAcrossSensors(t *testing.T) {
	t.Parallel()

	g := NewGenerator(0, 1)
	g.Skip(40)
	_, rt := g.NextRealtime()
	s := rt.Slices[0]
	assert.Greater(t, s.FT[1].Force[0], 0.0)
	assert.InDelta(t, -s.FT[0].Force[0], s.FT[1].Force[0], 1e-12)
}

func TestHousekeepingStream(t *testing.T) {
	t.Parallel()

	g := NewGenerator(0, 1)
	var buf bytes.Buffer
	require.NoError(t, g.WriteHousekeeping(&buf, 2))
	require.Equal(t, 2*packets.HOUSEKEEPING_RECORD_LENGTH, buf.Len())

	header, err := packets.ExtractTelemetryHeader(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, header.ValidateAs(packets.Housekeeping))

	hk, err := packets.ExtractHealthStatus(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(110), hk.Task)
	assert.Equal(t, uint16(2), hk.MotionTrackerStatus)
}

func TestTrackedPoseFollowsBody(t *testing.T) {
	t.Parallel()

	g := NewGenerator(0, 1)
	g.DropoutRate = 0
	g.Skip(7)
	_, rt := g.NextRealtime()

	for i, s := range rt.Slices {
		position, orientation := bodyPose(float64(140+i) * packets.DEFAULT_SECONDS_PER_SLICE)
		got := s.Position.Scale(1.0 / packets.POSITION_UNITS_PER_MM)
		for axis := range position {
			assert.InDelta(t, position[axis], got[axis], 1e-6, "slice %d axis %d", i, axis)
		}
		assert.InDelta(t, 0.0, rotationError(orientation, s.Orientation), 1e-6, "slice %d", i)
		assert.Equal(t, uint8(1), s.ManipulandumVisibility)
	}
}

func TestTrackerHoldsOrientationWhenMarkersHidden(t *testing.T) {
	t.Parallel()

	g := NewGenerator(0, 1)
	g.DropoutRate = 0
	g.Skip(3)
	_, before := g.NextRealtime()
	held := before.Slices[9].Orientation

	// Only two manipulandum markers left in view.
	g.visible &^= manipulandumMask
	g.visible |= 0x03
	_, after := g.NextRealtime()

	for i, s := range after.Slices {
		assert.Equal(t, held, s.Orientation, "slice %d", i)
		assert.Zero(t, s.ManipulandumVisibility, "slice %d", i)
	}
	_, orientation := bodyPose(float64(70) * packets.DEFAULT_SECONDS_PER_SLICE)
	assert.Greater(t, rotationError(orientation, after.Slices[0].Orientation), 1e-6)

	// No markers at all: the last position is held too.
	g.visible &^= manipulandumMask
	_, hidden := g.NextRealtime()
	assert.Equal(t, after.Slices[9].Position, hidden.Slices[0].Position)
	assert.Equal(t, held, hidden.Slices[9].Orientation)
}
