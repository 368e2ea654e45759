package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/laneguard/internal/api"
	"github.com/banshee-data/laneguard/internal/config"
	"github.com/banshee-data/laneguard/internal/evidence"
	"github.com/banshee-data/laneguard/internal/geom"
	"github.com/banshee-data/laneguard/internal/ledger"
	"github.com/banshee-data/laneguard/internal/monitoring"
	"github.com/banshee-data/laneguard/internal/pipeline"
	"github.com/banshee-data/laneguard/internal/replay"
	"github.com/banshee-data/laneguard/internal/timeutil"
	"github.com/banshee-data/laneguard/internal/version"
	"github.com/banshee-data/laneguard/internal/violation"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to JSON config file")
	replayPath  = flag.String("replay", "", "Path to a JSONL frame log to process")
	listen      = flag.String("listen", ":8080", "Listen address for the HTTP API")
	noStore     = flag.Bool("no-store", false, "Disable the durable violations database")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.Printf("laneguard %s", version.String())
		return
	}

	monitoring.SetDebug(*debug)
	log.Printf("laneguard %s starting", version.String())

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	monitor := violation.NewMonitor(violation.MonitorConfig{
		ConfirmThreshold:    cfg.GetViolationThreshold(),
		EvictionGraceFrames: cfg.GetEvictionGraceFrames(),
	})
	classifier := geom.NewClassifier(cfg.GetLaneTolerancePx())

	recorder, err := evidence.NewRecorder(cfg.GetEvidenceDir(), cfg.GetJPEGQuality(), timeutil.RealClock{})
	if err != nil {
		log.Fatalf("failed to create evidence recorder: %v", err)
	}

	led := ledger.NewLedger()

	var store *ledger.Store
	if !*noStore {
		store, err = ledger.OpenStore(cfg.GetDatabasePath())
		if err != nil {
			log.Fatalf("failed to open violations database: %v", err)
		}
		defer store.Close()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Replay processing goroutine. The pipeline is single-threaded by design;
	// the HTTP server reads through mutex-guarded snapshots.
	if *replayPath != "" {
		src, err := replay.Open(*replayPath)
		if err != nil {
			log.Fatalf("failed to open replay log: %v", err)
		}

		p := pipeline.New(monitor, classifier, recorder, led, store, pipeline.Config{
			MinBoxHeightPx: cfg.GetMinBoxHeightPx(),
			EvictEvery:     int64(cfg.GetEvictionGraceFrames()),
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer src.Close()
			if err := p.Run(ctx, src); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				log.Printf("replay run failed: %v", err)
			}
			log.Printf("replay complete: %d violations recorded", led.Len())
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.NewServer(monitor, led).Handler(),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
}
