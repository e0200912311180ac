package packets

// EncodeRealtimeRecord assembles a complete realtime science record. The
// header time is set from rt.Timestamp and the checksum trailer is left zero.
func EncodeRealtimeRecord(header TelemetryHeader, rt RealtimePacket) ([]byte, error) {
	buf := make([]byte, REALTIME_RECORD_LENGTH)
	header.SetSeconds(rt.Timestamp)
	if err := header.Insert(buf); err != nil {
		return nil, err
	}
	if err := rt.Insert(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeHousekeepingRecord assembles a complete housekeeping record.
func EncodeHousekeepingRecord(header TelemetryHeader, hk HealthStatus) ([]byte, error) {
	buf := make([]byte, HOUSEKEEPING_RECORD_LENGTH)
	if err := header.Insert(buf); err != nil {
		return nil, err
	}
	if err := hk.Insert(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
