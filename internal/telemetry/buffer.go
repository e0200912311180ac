package telemetry

import (
	"sync"

	"github.com/banshee-data/grip.monitor/internal/filter"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

// Frame is one decoded instant. Unavailable values hold vectors.Missing so
// that plots show a gap.
type Frame struct {
	PoseTime   float64 `json:"pose_time"`
	AnalogTime float64 `json:"analog_time"`

	Position  vectors.Vector3 `json:"position"`  // mm, filtered
	Rotations vectors.Vector3 `json:"rotations"` // canonical rotations, radians, filtered

	GripForce          float64                          `json:"grip_force"`
	NormalForce        [filter.Sensors]float64          `json:"normal_force"`
	LoadForce          vectors.Vector3                  `json:"load_force"`
	LoadForceMagnitude float64                          `json:"load_force_magnitude"`
	CenterOfPressure   [filter.Sensors]vectors.Vector3 `json:"center_of_pressure"`
	Acceleration       vectors.Vector3                  `json:"acceleration"`

	// Plot codes: a marker's code when visible, Missing when hidden.
	MarkerVisibility       [CodaMarkers]float64 `json:"marker_visibility"`
	ManipulandumVisibility float64              `json:"manipulandum_visibility"`
	FrameVisibility        float64              `json:"frame_visibility"`
	WristVisibility        float64              `json:"wrist_visibility"`
	PacketReceived         float64              `json:"packet_received"`
}

// PlaceholderFrame returns a frame with every value missing. A run of them
// marks a break in the packet stream.
func PlaceholderFrame() Frame {
	f := Frame{
		PoseTime:               vectors.Missing,
		AnalogTime:             vectors.Missing,
		Position:               vectors.MissingVector,
		Rotations:              vectors.MissingVector,
		GripForce:              vectors.Missing,
		LoadForce:              vectors.MissingVector,
		LoadForceMagnitude:     vectors.Missing,
		Acceleration:           vectors.MissingVector,
		ManipulandumVisibility: vectors.Missing,
		FrameVisibility:        vectors.Missing,
		WristVisibility:        vectors.Missing,
		PacketReceived:         vectors.Missing,
	}
	for i := range f.NormalForce {
		f.NormalForce[i] = vectors.Missing
		f.CenterOfPressure[i] = vectors.MissingVector
	}
	for i := range f.MarkerVisibility {
		f.MarkerVisibility[i] = vectors.Missing
	}
	return f
}

// IsPlaceholder reports whether f was inserted for a stream break.
func (f Frame) IsPlaceholder() bool {
	return f.PacketReceived == vectors.Missing
}

// SampleBuffer is the bounded, append-only sequence of decoded frames. Only
// the owning Decoder appends; any number of readers may inspect it
// concurrently.
type SampleBuffer struct {
	mu       sync.RWMutex
	frames   []Frame
	capacity int
}

// NewSampleBuffer returns an empty buffer that holds at most capacity frames.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleBuffer{capacity: capacity}
}

// Len returns the number of frames held.
func (b *SampleBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.frames)
}

// Cap returns the maximum number of frames.
func (b *SampleBuffer) Cap() int { return b.capacity }

// Full reports whether no more frames can be appended.
func (b *SampleBuffer) Full() bool {
	return b.Len() >= b.capacity
}

// Frame returns the frame at index i.
func (b *SampleBuffer) Frame(i int) (Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.frames) {
		return Frame{}, false
	}
	return b.frames[i], true
}

// Last returns the most recent frame.
func (b *SampleBuffer) Last() (Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.frames) == 0 {
		return Frame{}, false
	}
	return b.frames[len(b.frames)-1], true
}

// Frames copies up to limit frames starting at from. A non-positive limit
// copies through the end.
func (b *SampleBuffer) Frames(from, limit int) []Frame {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if from < 0 {
		from = 0
	}
	if from >= len(b.frames) {
		return nil
	}
	end := len(b.frames)
	if limit > 0 && from+limit < end {
		end = from + limit
	}
	out := make([]Frame, end-from)
	copy(out, b.frames[from:end])
	return out
}

func (b *SampleBuffer) append(f Frame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) >= b.capacity {
		return false
	}
	b.frames = append(b.frames, f)
	return true
}

func (b *SampleBuffer) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = nil
}
