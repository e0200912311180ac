package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/db"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/timeutil"
)

// poller runs ingestion passes over both caches and records them in the
// history database, if there is one.
type poller struct {
	rt    *cache.RealtimeIngester
	hk    *cache.HousekeepingIngester
	db    *db.DB
	clock timeutil.Clock

	wasFull bool
}

// run makes a pass immediately and then once per interval until ctx is
// done. Any error from a pass is fatal and ends the loop.
func (p *poller) run(ctx context.Context, interval time.Duration) error {
	if err := p.pass(); err != nil {
		return err
	}
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := p.pass(); err != nil {
				return err
			}
		}
	}
}

func (p *poller) pass() error {
	session := p.rt.Decoder().SessionID()

	start := p.clock.Now()
	res, err := p.rt.Ingest()
	p.recordPass(db.IngestPass{
		SessionID:      session,
		Kind:           packets.RealtimeScience.String(),
		StartedAt:      start,
		DurationMS:     float64(p.clock.Now().Sub(start).Microseconds()) / 1000,
		RecordsRead:    res.RecordsRead,
		FramesAppended: res.FramesAppended,
		NewData:        res.NewData,
		BufferFull:     res.BufferFull,
	}, err)
	if err != nil {
		return fmt.Errorf("realtime cache: %w", err)
	}
	if res.BufferFull && !p.wasFull {
		log.Printf("session %s stopped decoding with a full buffer", session)
	}
	p.wasFull = res.BufferFull

	start = p.clock.Now()
	hres, err := p.hk.Ingest()
	p.recordPass(db.IngestPass{
		SessionID:   session,
		Kind:        packets.Housekeeping.String(),
		StartedAt:   start,
		DurationMS:  float64(p.clock.Now().Sub(start).Microseconds()) / 1000,
		RecordsRead: hres.RecordsRead,
		NewData:     hres.NewData,
	}, err)
	if err != nil {
		return fmt.Errorf("housekeeping cache: %w", err)
	}
	if hres.NewData && p.db != nil {
		if err := p.db.RecordHousekeeping(session, hres.Latest.Header, hres.Latest.Status); err != nil {
			log.Printf("failed to record housekeeping: %v", err)
		}
	}
	return nil
}

// recordPass stores passes that read something or failed.
func (p *poller) recordPass(pass db.IngestPass, err error) {
	if p.db == nil || (pass.RecordsRead == 0 && err == nil) {
		return
	}
	if err != nil {
		pass.Error = err.Error()
	}
	if dbErr := p.db.RecordIngestPass(pass); dbErr != nil {
		log.Printf("failed to record ingest pass: %v", dbErr)
	}
}
