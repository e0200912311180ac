// Command gripplot writes PNG strip charts of a GRIP session, either by
// decoding a realtime cache directly or by fetching the frames from a running
// gripmon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/banshee-data/grip.monitor/internal/api"
	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/config"
	"github.com/banshee-data/grip.monitor/internal/security"
	"github.com/banshee-data/grip.monitor/internal/stripchart"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
)

var (
	configPath = flag.String("config", "", "Path to a monitor config JSON file (defaults apply when empty)")
	cacheRoot  = flag.String("cache-root", "", "Directory holding the packet caches (overrides config)")
	monitorURL = flag.String("url", "", "Fetch frames from a running gripmon at this URL instead of reading the cache")
	outDir     = flag.String("out", "plots", "Directory for the timestamped plot directory")
	timeout    = flag.Duration("timeout", time.Minute, "Timeout when fetching from -url")
)

func main() {
	flag.Parse()

	if err := security.ValidateExportPath(*outDir); err != nil {
		log.Fatalf("invalid -out: %v", err)
	}

	var (
		frames  []telemetry.Frame
		session string
		err     error
	)
	if *monitorURL != "" {
		frames, session, err = fetchFrames()
	} else {
		frames, session, err = decodeCache()
	}
	if err != nil {
		log.Fatalf("failed to load frames: %v", err)
	}
	if len(frames) == 0 {
		log.Fatal("no frames to plot")
	}

	dir := filepath.Join(*outDir, time.Now().Format("20060102_150405")+"_"+security.SanitizeFilename(session))
	files, err := stripchart.NewExporter(dir).Export(frames, stripchart.DefaultCharts())
	if err != nil {
		log.Fatalf("failed to export plots: %v", err)
	}
	for _, f := range files {
		fmt.Println(f)
	}
}

// fetchFrames reads every frame of the current session from a running
// gripmon.
func fetchFrames() ([]telemetry.Frame, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := api.NewClient(*monitorURL, nil)
	st, err := c.Status(ctx)
	if err != nil {
		return nil, "", err
	}
	frames, err := c.AllFrames(ctx)
	return frames, st.SessionID, err
}

// decodeCache reads the whole realtime cache in one pass.
func decodeCache() ([]telemetry.Frame, string, error) {
	cfg := config.EmptyMonitorConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadMonitorConfig(*configPath)
		if err != nil {
			return nil, "", err
		}
	}
	if *cacheRoot != "" {
		root := *cacheRoot
		cfg.CacheRoot = &root
	}

	d := telemetry.NewDecoder(cfg.DecoderOptions())
	res, err := cache.NewRealtimeIngester(cfg.CacheOptions(), d).Ingest()
	if err != nil {
		return nil, "", err
	}
	log.Printf("decoded %d records into %d frames", res.RecordsRead, d.Buffer().Len())
	if res.BufferFull {
		log.Printf("buffer filled at %d frames; later records were not plotted", d.Buffer().Cap())
	}
	return d.Buffer().Frames(0, 0), d.SessionID(), nil
}
