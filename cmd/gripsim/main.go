// Command gripsim writes simulated GRIP packet caches, either as a fixed
// batch or continuously at the live packet rate, for running gripmon without
// the flight hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/grip.monitor/internal/fsutil"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/simulate"
)

var (
	outDir       = flag.String("out", ".", "Directory to write the packet caches into")
	rtPackets    = flag.Int("rt", 120, "Realtime packets to write in batch mode")
	hkPackets    = flag.Int("hk", 30, "Housekeeping packets to write in batch mode")
	gap          = flag.Float64("gap", 0, "Seconds of missing stream inserted halfway through the realtime batch")
	start        = flag.Float64("start", 1000, "EPM time of the first packet, in seconds")
	seed         = flag.Int64("seed", 1, "Random seed for marker dropouts")
	follow       = flag.Bool("follow", false, "Keep appending packets in real time until interrupted")
	packetPeriod = flag.Duration("period", 500*time.Millisecond, "Time between realtime packets with -follow")
)

// appendWriter appends each write to a file, matching how the ground
// client grows its caches.
type appendWriter struct {
	fs   fsutil.FileSystem
	name string
}

func (w appendWriter) Write(p []byte) (int, error) {
	if err := w.fs.Append(w.name, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// writeBatch writes n realtime and m housekeeping packets, skipping gap
// seconds of stream halfway through the realtime packets.
func writeBatch(g *simulate.Generator, rt, hk appendWriter, n, m int, gap float64) error {
	first := n / 2
	if gap <= 0 {
		first = n
	}
	if err := g.WriteRealtime(rt, first); err != nil {
		return err
	}
	if gap > 0 {
		g.Skip(gap)
		if err := g.WriteRealtime(rt, n-first); err != nil {
			return err
		}
	}
	return g.WriteHousekeeping(hk, m)
}

func main() {
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	fs := fsutil.OSFileSystem{}
	rt := appendWriter{fs: fs, name: packets.CacheFilename(*outDir, packets.RealtimeScience)}
	hk := appendWriter{fs: fs, name: packets.CacheFilename(*outDir, packets.Housekeeping)}
	g := simulate.NewGenerator(*start, *seed)

	if !*follow {
		if err := writeBatch(g, rt, hk, *rtPackets, *hkPackets, *gap); err != nil {
			log.Fatalf("failed to write caches: %v", err)
		}
		fmt.Println(rt.name)
		fmt.Println(hk.name)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("appending to %s and %s every %v", rt.name, hk.name, *packetPeriod)
	ticker := time.NewTicker(*packetPeriod)
	defer ticker.Stop()
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			log.Printf("wrote %d realtime packets", n)
			return
		case <-ticker.C:
			if err := g.WriteRealtime(rt, 1); err != nil {
				log.Fatalf("failed to write realtime packet: %v", err)
			}
			// Housekeeping arrives at a quarter of the realtime rate.
			if n%4 == 0 {
				if err := g.WriteHousekeeping(hk, 1); err != nil {
					log.Fatalf("failed to write housekeeping packet: %v", err)
				}
			}
		}
	}
}
