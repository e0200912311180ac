// Package testutil provides shared test utilities and fixtures.
//
// Packet fixtures are built with the codec's own Insert operations, so a
// test reads back exactly the bytes a producer would have written.
package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ServeRequest runs one request with no body through h.
func ServeRequest(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// SteadyPacket returns a realtime packet at timestamp whose ten slices all
// see the manipulandum at position (in mm) with every marker visible and a
// steady grip of grip newtons.
func SteadyPacket(timestamp float64, position vectors.Vector3, grip float64) packets.RealtimePacket {
	rt := packets.RealtimePacket{Timestamp: timestamp, AcquisitionID: 1}
	for i := range rt.Slices {
		s := &rt.Slices[i]
		s.PoseTick = uint32(i * 50)
		s.AnalogTick = uint32(i * 50)
		s.Position = position.Scale(packets.POSITION_UNITS_PER_MM)
		s.Orientation = vectors.NullQuaternion
		s.MarkerVisibility = [packets.CODA_UNITS]uint32{0xFFFFF, 0xFFFFF}
		s.ManipulandumVisibility = 1
		s.FT[0].Force = vectors.Vector3{-grip, 0, 0}
		s.FT[1].Force = vectors.Vector3{grip, 0, 0}
		s.PoseTimestamp = timestamp + float64(i)*packets.DEFAULT_SECONDS_PER_SLICE
		s.AnalogTimestamp = s.PoseTimestamp
	}
	return rt
}

// RealtimeRecord encodes rt as a complete cache record with the given
// telemetry counter.
func RealtimeRecord(t testing.TB, counter uint16, rt packets.RealtimePacket) []byte {
	t.Helper()
	header := packets.NewTelemetryHeader(packets.RealtimeScience)
	header.TMCounter = counter
	record, err := packets.EncodeRealtimeRecord(header, rt)
	if err != nil {
		t.Fatalf("encode realtime record: %v", err)
	}
	return record
}

// HousekeepingRecord encodes hk as a complete cache record with the given
// telemetry counter.
func HousekeepingRecord(t testing.TB, counter uint16, hk packets.HealthStatus) []byte {
	t.Helper()
	header := packets.NewTelemetryHeader(packets.Housekeeping)
	header.TMCounter = counter
	record, err := packets.EncodeHousekeepingRecord(header, hk)
	if err != nil {
		t.Fatalf("encode housekeeping record: %v", err)
	}
	return record
}

// Concat joins records into the contents of a cache file.
func Concat(records ...[]byte) []byte {
	return bytes.Join(records, nil)
}
