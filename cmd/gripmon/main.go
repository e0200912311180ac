// Command gripmon follows the GRIP packet caches written by the ground
// monitor client, decodes the telemetry and serves it to the display.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/grip.monitor/internal/api"
	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/config"
	"github.com/banshee-data/grip.monitor/internal/db"
	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
	"github.com/banshee-data/grip.monitor/internal/timeutil"
	"github.com/banshee-data/grip.monitor/internal/version"
)

var (
	configPath    = flag.String("config", "", "Path to a monitor config JSON file (defaults apply when empty)")
	cacheRoot     = flag.String("cache-root", "", "Directory holding the packet caches (overrides config)")
	dbPath        = flag.String("db", "gripmon.db", "History database path; empty disables history")
	listen        = flag.String("listen", ":8080", "Listen address")
	logFile       = flag.String("log-file", "", "Write logs to this file instead of stderr")
	logMaxSizeMB  = flag.Int("log-max-size-mb", 50, "Rotate the log file after this many megabytes")
	logMaxBackups = flag.Int("log-max-backups", 5, "Rotated log files to keep")
	showVersion   = flag.Bool("version", false, "Print the version and exit")
)

// loadConfig applies command line overrides to the config file.
func loadConfig() (*config.MonitorConfig, error) {
	cfg := config.EmptyMonitorConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadMonitorConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}
	if *cacheRoot != "" {
		root := *cacheRoot
		cfg.CacheRoot = &root
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(os.Stdout, flag.Args()[1:], *dbPath); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	os.Exit(run())
}

// run returns the process exit code once every routine has stopped.
func run() int {
	if *logFile != "" {
		w := monitoring.OpenLogFile(monitoring.LogFileConfig{
			Filename:   *logFile,
			MaxSizeMB:  *logMaxSizeMB,
			MaxBackups: *logMaxBackups,
			Compress:   true,
		})
		defer w.Close()
		log.SetOutput(w)
	}

	log.Printf("gripmon %s", version.String())

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	var database *db.DB
	if *dbPath != "" {
		database, err = db.NewDB(*dbPath)
		if err != nil {
			log.Printf("Failed to open history database: %v", err)
			return 1
		}
		defer database.Close()
	}

	decoder := telemetry.NewDecoder(cfg.DecoderOptions())
	cacheOpts := cfg.CacheOptions()
	rt := cache.NewRealtimeIngester(cacheOpts, decoder)
	hk := cache.NewHousekeepingIngester(cacheOpts)
	log.Printf("following %s and %s (session %s, %d frame buffer)",
		rt.Filename(), hk.Filename(), decoder.SessionID(), decoder.Buffer().Cap())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0

	// ingestion routine; a failed pass stops the whole process
	wg.Add(1)
	go func() {
		defer wg.Done()
		p := &poller{rt: rt, hk: hk, db: database, clock: timeutil.RealClock{}}
		if err := p.run(ctx, cfg.GetPollInterval()); err != nil {
			log.Printf("ingestion stopped: %v. %s", err, cache.RestartHint)
			exitCode = 1
			stop()
		}
		log.Print("ingestion routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		if database != nil {
			if err := database.AttachAdminRoutes(mux); err != nil {
				log.Printf("admin routes unavailable: %v", err)
			}
		}

		apiMux := api.NewServer(rt, hk, database).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/charts/", apiMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
	return exitCode
}
