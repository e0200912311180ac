// Package telemetry turns decoded realtime science packets into a bounded
// series of filtered, display-ready frames.
package telemetry

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/grip.monitor/internal/analog"
	"github.com/banshee-data/grip.monitor/internal/filter"
	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

// CodaMarkers is the number of markers tracked by each coda unit.
const CodaMarkers = 20

// Marker groups on the manipulandum, the reference frame and the wrist.
const (
	firstFrameMarker = 8
	firstWristMarker = 12
	frameMarkers     = 4
	minWristMarkers  = 3
)

// Visibility plot codes. Each trace sits at its own height on a shared axis.
const (
	ManipulandumVisibleCode = 10.0
	FrameVisibleCode        = 30.0
	WristVisibleCode        = 50.0
	PacketReceivedCode      = -10.0
)

// MarkerCode is the plot height of an individual visible marker. Group
// boundaries are spaced apart so the groups read as separate bands.
func MarkerCode(marker int) float64 {
	switch {
	case marker < firstFrameMarker:
		return float64(marker + 1)
	case marker < firstWristMarker:
		return float64(marker + 3)
	default:
		return float64(marker + 5)
	}
}

// State is the phase of a decoding session.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateStreamBreakInserted
	StateBufferFull
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateStreamBreakInserted:
		return "stream-break"
	case StateBufferFull:
		return "buffer-full"
	default:
		return "unknown"
	}
}

// Options configures a Decoder.
type Options struct {
	MaxFrames            int
	FilterConstant       float64
	StreamBreakThreshold float64 // seconds between packets
	StreamBreakSamples   int     // placeholder frames inserted per break
	CoPMinGrip           float64 // newtons
	LeftSensorDegrees    float64
	RightSensorDegrees   float64
}

// DefaultOptions returns twelve hours of 20 Hz frames with the standard
// filter and break settings.
func DefaultOptions() Options {
	return Options{
		MaxFrames:            12 * 60 * 60 * 20,
		FilterConstant:       filter.DefaultConstant,
		StreamBreakThreshold: 1.0,
		StreamBreakSamples:   10,
		CoPMinGrip:           analog.DefaultCoPMinGrip,
	}
}

// Decoder owns the filter state and sample buffer of one session. Decode is
// meant to be called from a single goroutine; the accessors may be called
// from any goroutine.
type Decoder struct {
	opts      Options
	bank      *filter.Bank
	alignment analog.Alignment
	buffer    *SampleBuffer

	mu                sync.RWMutex
	sessionID         string
	state             State
	previousTimestamp float64
	lastSlice         packets.RealtimeSlice
	haveSlice         bool
}

// NewDecoder starts a session.
func NewDecoder(opts Options) *Decoder {
	d := &Decoder{
		opts:      opts,
		bank:      filter.NewBank(),
		alignment: analog.NewAlignment(opts.LeftSensorDegrees, opts.RightSensorDegrees),
		buffer:    NewSampleBuffer(opts.MaxFrames),
		sessionID: uuid.New().String(),
	}
	d.bank.SetConstant(opts.FilterConstant)
	return d
}

// Reset discards everything decoded so far and starts a new session with
// fresh filters.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bank = filter.NewBank()
	d.bank.SetConstant(d.opts.FilterConstant)
	d.buffer.reset()
	d.sessionID = uuid.New().String()
	d.state = StateIdle
	d.previousTimestamp = 0
	d.haveSlice = false
}

// Buffer returns the frames decoded in this session.
func (d *Decoder) Buffer() *SampleBuffer { return d.buffer }

// SessionID identifies the current session.
func (d *Decoder) SessionID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sessionID
}

// State returns the phase reached by the most recent Decode.
func (d *Decoder) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Decode appends the frames of rt to the buffer and returns how many were
// appended, placeholders included. Once the buffer is full it returns zero
// without decoding anything.
func (d *Decoder) Decode(rt packets.RealtimePacket) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateBufferFull || d.buffer.Full() {
		d.state = StateBufferFull
		return 0
	}

	appended := 0
	state := StateStreaming
	if rt.Timestamp-d.previousTimestamp > d.opts.StreamBreakThreshold {
		n := d.insertBreak()
		appended += n
		state = StateStreamBreakInserted
		monitoring.Inc(monitoring.MetricStreamBreaks, 1)
		monitoring.Inc(monitoring.MetricPlaceholdersInserted, int64(n))
	}
	d.previousTimestamp = rt.Timestamp

	for _, s := range rt.Slices {
		if !d.buffer.append(d.decodeSlice(s)) {
			state = StateBufferFull
			break
		}
		appended++
		d.lastSlice = s
		d.haveSlice = true
	}
	if d.buffer.Full() {
		state = StateBufferFull
	}
	d.state = state
	monitoring.Inc(monitoring.MetricFramesAppended, int64(appended))
	return appended
}

// insertBreak appends placeholders, always leaving room for one real frame.
func (d *Decoder) insertBreak() int {
	n := 0
	for n < d.opts.StreamBreakSamples && d.buffer.Len() < d.buffer.Cap()-1 {
		d.buffer.append(PlaceholderFrame())
		n++
	}
	return n
}

func (d *Decoder) decodeSlice(s packets.RealtimeSlice) Frame {
	f := Frame{
		PoseTime:       s.PoseTimestamp,
		AnalogTime:     s.AnalogTimestamp,
		Position:       vectors.MissingVector,
		Rotations:      vectors.MissingVector,
		PacketReceived: PacketReceivedCode,
	}

	// Non-finite input would poison the persistent filters for the rest of
	// the session, so it is reported as Missing instead.
	if s.ManipulandumVisibility != 0 {
		if pos := s.Position.Scale(1.0 / packets.POSITION_UNITS_PER_MM); pos.IsFinite() {
			f.Position = d.bank.Position(pos)
		}
		if rot := s.Orientation.CanonicalRotations(); rot.IsFinite() {
			f.Rotations = d.bank.Rotations(rot)
		}
	}

	var aligned [filter.Sensors]vectors.Vector3
	for sensor := range aligned {
		aligned[sensor] = d.alignment.Align(sensor, s.FT[sensor].Force)
	}
	f.GripForce = d.bank.GripForce(analog.GripForce(aligned[analog.LeftSensor], aligned[analog.RightSensor]))
	load, _ := analog.LoadForce(aligned[analog.LeftSensor], aligned[analog.RightSensor])
	f.LoadForce, f.LoadForceMagnitude = d.bank.LoadForce(load)

	for sensor := range aligned {
		f.NormalForce[sensor] = d.bank.NormalForce(sensor, analog.NormalForce(sensor, aligned[sensor]))
		cop, distance := analog.CenterOfPressure(s.FT[sensor].Force, s.FT[sensor].Torque, d.opts.CoPMinGrip)
		if distance < 0 {
			f.CenterOfPressure[sensor] = vectors.MissingVector
		} else {
			f.CenterOfPressure[sensor] = d.bank.CoP(sensor, cop)
		}
	}
	f.Acceleration = d.bank.Acceleration(s.Acceleration)

	d.unpackVisibility(&f, s)
	return f
}

// unpackVisibility fills the plot codes of f. A marker counts as visible if
// either coda unit sees it.
func (d *Decoder) unpackVisibility(f *Frame, s packets.RealtimeSlice) {
	frameSeen, wristSeen := 0, 0
	for mrk := 0; mrk < CodaMarkers; mrk++ {
		if !markerSeen(s, mrk) {
			f.MarkerVisibility[mrk] = vectors.Missing
			continue
		}
		f.MarkerVisibility[mrk] = MarkerCode(mrk)
		switch {
		case mrk >= firstWristMarker:
			wristSeen++
		case mrk >= firstFrameMarker:
			frameSeen++
		}
	}

	f.ManipulandumVisibility = vectors.Missing
	if s.ManipulandumVisibility&1 != 0 {
		f.ManipulandumVisibility = ManipulandumVisibleCode
	}
	f.FrameVisibility = vectors.Missing
	if frameSeen == frameMarkers {
		f.FrameVisibility = FrameVisibleCode
	}
	f.WristVisibility = vectors.Missing
	if wristSeen >= minWristMarkers {
		f.WristVisibility = WristVisibleCode
	}
}

func markerSeen(s packets.RealtimeSlice, mrk int) bool {
	for _, mask := range s.MarkerVisibility {
		if mask&(1<<uint(mrk)) != 0 {
			return true
		}
	}
	return false
}

// MarkerVisibilityStrings renders the markers seen by each coda unit in the
// most recent slice, "u" for visible and "m" for missing, with the
// manipulandum, frame and wrist groups separated by two spaces. Before any
// slice has been decoded every marker reads as missing.
func (d *Decoder) MarkerVisibilityStrings() [packets.CODA_UNITS]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out [packets.CODA_UNITS]string
	for unit := range out {
		var mask uint32
		if d.haveSlice {
			mask = d.lastSlice.MarkerVisibility[unit]
		}
		out[unit] = visibilityString(mask)
	}
	return out
}

func visibilityString(mask uint32) string {
	var b strings.Builder
	for mrk := 0; mrk < CodaMarkers; mrk++ {
		if mrk == firstFrameMarker || mrk == firstWristMarker {
			b.WriteString("  ")
		}
		if mask&(1<<uint(mrk)) != 0 {
			b.WriteByte('u')
		} else {
			b.WriteByte('m')
		}
	}
	return b.String()
}
