package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/random-media/backend/internal/active"
	"github.com/random-media/backend/internal/config"
	"github.com/random-media/backend/internal/inventory"
	"github.com/random-media/backend/internal/metrics"
	"github.com/random-media/backend/internal/scene"
	"github.com/random-media/backend/internal/spawn"
	"github.com/random-media/backend/internal/stats"
	"github.com/random-media/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	folder := flag.String("folder", "", "Override media folder")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *folder != "" {
		cfg.Media.Folder = *folder
	}

	inv := inventory.NewProvider(cfg.Media.Folder)
	fileCount := inv.Reload()

	tracker := active.NewTracker(cfg.Spawn.MaxActive)
	surface := scene.NewSim(cfg.Canvas.Width, cfg.Canvas.Height,
		cfg.Playback.MinDuration, cfg.Playback.MaxDuration)

	events := make(chan active.Event, 256)
	monitor := spawn.NewMonitor(surface, tracker, events)
	orch := spawn.New(inv, tracker, surface, monitor,
		spawn.SettingsFromConfig(cfg.Spawn), events)

	statsTracker, statsCh, err := stats.NewTracker(stats.NewStore(cfg.Stats.Dir))
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}

	m := metrics.New()
	m.SetInventorySize(fileCount)

	broadcaster := ws.NewBroadcaster()
	server := ws.NewServer(broadcaster, m, statsTracker)
	server.RegisterOrchestrator(orch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statsDone := make(chan struct{})
	go func() {
		statsTracker.Run(ctx)
		close(statsDone)
	}()

	// Fan lifecycle events out to metrics, the ws feed and the stats
	// tracker. The stats channel send is non-blocking so a stalled
	// tracker can never stall a spawn.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				m.Observe(ev)
				broadcaster.BroadcastEvent(ev)
				select {
				case statsCh <- ev:
				default:
				}
			}
		}
	}()

	go orch.AutoTrigger(ctx, cfg.Trigger.AutoInterval)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.UnregisterOrchestrator()
		cancel()
		<-statsDone // final stats save
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		// Remote control is optional: without the listener the spawner
		// still serves local triggers.
		log.Printf("Remote control unavailable (%v); continuing with local triggers only", err)
		<-ctx.Done()
	}
}
