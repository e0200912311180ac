package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/grip.monitor/internal/packets"
)

func TestTargetRow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ummmmmmmmu", TargetRow(0x0201, horizontalTargets))
	assert.Equal(t, "ummmmmmmmmmmu", TargetRow(0x1001, verticalTargets))
	assert.Equal(t, "uuuuuuuuuu", TargetRow(0xFFFF, horizontalTargets))
	assert.Empty(t, TargetRow(0xFFFF, 0))
}

func TestToneLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "...............", ToneLabel(0))
	assert.Equal(t, "|||............", ToneLabel(3))
	assert.Equal(t, "|||||||||||||||", ToneLabel(15))
	assert.Equal(t, ToneLabel(1), ToneLabel(17))
}

func TestCradleCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [3]string{"-", "o", "x"}, CradleCodes(0x24))
	assert.Equal(t, [3]string{"o", "o", "o"}, CradleCodes(0x15))
	assert.Equal(t, [3]string{"?", "-", "-"}, CradleCodes(0xC3))
}

func TestDecodeStatus(t *testing.T) {
	t.Parallel()

	hk := packets.HealthStatus{
		User:                1,
		Protocol:            100,
		Task:                110,
		Step:                7,
		MotionTrackerStatus: 2,
		CrewCameraStatus:    1,
		ScriptEngineStatus:  0x1000,
		CPUUsage:            33,

		HorizontalTargetFeedback: 0x0003,
		VerticalTargetFeedback:   0x1000,
	}
	st := DecodeStatus(hk)
	assert.Equal(t, "uummmmmmmm", st.TargetsHorizontal)
	assert.Equal(t, "mmmmmmmmmmmmu", st.TargetsVertical)
	assert.Equal(t, uint16(110), st.Task)
	assert.Equal(t, uint16(7), st.Step)
	assert.True(t, st.MotionTrackerAcquiring)
	assert.False(t, st.CrewCameraAcquiring)
	assert.True(t, st.ScriptError)
	assert.Equal(t, uint16(33), st.CPUUsage)

	// No task running, so the engine status is not an error.
	hk.Task = 0
	assert.False(t, DecodeStatus(hk).ScriptError)
}
