package telemetry

import (
	"strings"

	"github.com/banshee-data/grip.monitor/internal/packets"
)

const (
	horizontalTargets = 10
	verticalTargets   = 13
	toneLevels        = 16
	massCradles       = 3

	acquiringStatus         = 2
	scriptEngineErrorStatus = 0x1000
)

var massCodes = [4]string{"-", "o", "x", "?"}

// Status is the operator-facing reading of one housekeeping record.
type Status struct {
	User     uint16 `json:"user"`
	Protocol uint16 `json:"protocol"`
	Task     uint16 `json:"task"`
	Step     uint16 `json:"step"`

	// "u" lit, "m" dark
	TargetsHorizontal string    `json:"targets_horizontal"`
	TargetsVertical   string    `json:"targets_vertical"`
	Tone              string    `json:"tone"`
	Cradles           [3]string `json:"cradles"` // mass present in each cradle

	MotionTrackerAcquiring bool `json:"motion_tracker_acquiring"`
	CrewCameraAcquiring    bool `json:"crew_camera_acquiring"`
	ScriptError            bool `json:"script_error"`

	CPUUsage    uint16 `json:"cpu_usage"`
	MemoryUsage uint16 `json:"memory_usage"`
}

// DecodeStatus interprets the feedback and status fields of hk.
func DecodeStatus(hk packets.HealthStatus) Status {
	st := Status{
		User:                   hk.User,
		Protocol:               hk.Protocol,
		Task:                   hk.Task,
		Step:                   hk.Step,
		TargetsHorizontal:      TargetRow(hk.HorizontalTargetFeedback, horizontalTargets),
		TargetsVertical:        TargetRow(hk.VerticalTargetFeedback, verticalTargets),
		Tone:                   ToneLabel(hk.ToneFeedback),
		Cradles:                CradleCodes(hk.CradleDetectors),
		MotionTrackerAcquiring: hk.MotionTrackerStatus == acquiringStatus,
		CrewCameraAcquiring:    hk.CrewCameraStatus == acquiringStatus,
		CPUUsage:               hk.CPUUsage,
		MemoryUsage:            hk.MemoryUsage,
	}
	// The script engine reports an error only while a task is running.
	st.ScriptError = hk.Task != 0 && hk.ScriptEngineStatus == scriptEngineErrorStatus
	return st
}

// TargetRow renders the first n target LEDs of one row, lowest bit first.
func TargetRow(bits uint16, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if bits&(1<<uint(i)) != 0 {
			b.WriteByte('u')
		} else {
			b.WriteByte('m')
		}
	}
	return b.String()
}

// ToneLabel draws the tone feedback level as a bar. Only the low four bits
// are meaningful.
func ToneLabel(tone uint8) string {
	level := int(tone) % toneLevels
	return strings.Repeat("|", level) + strings.Repeat(".", toneLevels-1-level)
}

// CradleCodes decodes the three 2-bit mass cradle detectors.
func CradleCodes(detectors uint8) [3]string {
	var out [3]string
	for i := 0; i < massCradles; i++ {
		out[i] = massCodes[(detectors>>(2*uint(i)))&3]
	}
	return out
}
