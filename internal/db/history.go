package db

import (
	"fmt"
	"time"

	"github.com/banshee-data/grip.monitor/internal/packets"
)

// HousekeepingRow is one stored housekeeping snapshot.
type HousekeepingRow struct {
	ID                  int64   `json:"id"`
	SessionID           string  `json:"session_id"`
	TMCounter           uint16  `json:"tm_counter"`
	EPMTime             float64 `json:"epm_time"`
	User                uint16  `json:"user"`
	Protocol            uint16  `json:"protocol"`
	Task                uint16  `json:"task"`
	Step                uint16  `json:"step"`
	ScriptEngineStatus  uint16  `json:"script_engine_status"`
	MotionTrackerStatus uint16  `json:"motion_tracker_status"`
	CrewCameraStatus    uint16  `json:"crew_camera_status"`
	CPUUsage            uint16  `json:"cpu_usage"`
	MemoryUsage         uint16  `json:"memory_usage"`
	FreeDiskC           uint32  `json:"free_disk_c"`
	FreeDiskD           uint32  `json:"free_disk_d"`
	FreeDiskE           uint32  `json:"free_disk_e"`
}

// RecordHousekeeping stores a housekeeping snapshot under sessionID.
func (db *DB) RecordHousekeeping(sessionID string, header packets.TelemetryHeader, hk packets.HealthStatus) error {
	_, err := db.Exec(`
		INSERT INTO housekeeping (
			session_id, tm_counter, epm_time, user_id, protocol_id, task_id, step_id,
			script_engine_status, motion_tracker_status, crew_camera_status,
			cpu_usage, memory_usage, free_disk_c, free_disk_d, free_disk_e
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, header.TMCounter, header.Seconds(), hk.User, hk.Protocol, hk.Task, hk.Step,
		hk.ScriptEngineStatus, hk.MotionTrackerStatus, hk.CrewCameraStatus,
		hk.CPUUsage, hk.MemoryUsage, hk.FreeDiskSpaceC, hk.FreeDiskSpaceD, hk.FreeDiskSpaceE,
	)
	if err != nil {
		return fmt.Errorf("failed to record housekeeping: %w", err)
	}
	return nil
}

// RecentHousekeeping returns up to limit snapshots, newest first.
func (db *DB) RecentHousekeeping(limit int) ([]HousekeepingRow, error) {
	rows, err := db.Query(`
		SELECT housekeeping_id, session_id, tm_counter, epm_time, user_id, protocol_id, task_id, step_id,
			script_engine_status, motion_tracker_status, crew_camera_status,
			cpu_usage, memory_usage, free_disk_c, free_disk_d, free_disk_e
		FROM housekeeping ORDER BY housekeeping_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HousekeepingRow
	for rows.Next() {
		var r HousekeepingRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.TMCounter, &r.EPMTime, &r.User, &r.Protocol, &r.Task, &r.Step,
			&r.ScriptEngineStatus, &r.MotionTrackerStatus, &r.CrewCameraStatus,
			&r.CPUUsage, &r.MemoryUsage, &r.FreeDiskC, &r.FreeDiskD, &r.FreeDiskE); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IngestPass records the outcome of one pass over a cache file.
type IngestPass struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Kind           string    `json:"kind"`
	StartedAt      time.Time `json:"started_at"`
	DurationMS     float64   `json:"duration_ms"`
	RecordsRead    int       `json:"records_read"`
	FramesAppended int       `json:"frames_appended"`
	NewData        bool      `json:"new_data"`
	BufferFull     bool      `json:"buffer_full"`
	Error          string    `json:"error,omitempty"`
}

// RecordIngestPass stores p. Its ID is ignored.
func (db *DB) RecordIngestPass(p IngestPass) error {
	_, err := db.Exec(`
		INSERT INTO ingest_passes (
			session_id, kind, started_at, duration_ms, records_read, frames_appended,
			new_data, buffer_full, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SessionID, p.Kind, p.StartedAt.UTC().Format(time.RFC3339Nano), p.DurationMS,
		p.RecordsRead, p.FramesAppended, p.NewData, p.BufferFull, p.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest pass: %w", err)
	}
	return nil
}

// RecentIngestPasses returns up to limit passes, newest first.
func (db *DB) RecentIngestPasses(limit int) ([]IngestPass, error) {
	rows, err := db.Query(`
		SELECT pass_id, session_id, kind, started_at, duration_ms, records_read, frames_appended,
			new_data, buffer_full, error
		FROM ingest_passes ORDER BY pass_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IngestPass
	for rows.Next() {
		var p IngestPass
		var started string
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Kind, &started, &p.DurationMS,
			&p.RecordsRead, &p.FramesAppended, &p.NewData, &p.BufferFull, &p.Error); err != nil {
			return nil, err
		}
		p.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("pass %d: bad started_at %q: %w", p.ID, started, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
