package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"mouldtrack-backend/config"
	"mouldtrack-backend/internal/api"
	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/db"
	"mouldtrack-backend/internal/machine"
	"mouldtrack-backend/internal/model"
	"mouldtrack-backend/internal/monitor"
	"mouldtrack-backend/internal/notification"
	"mouldtrack-backend/internal/pm"
	"mouldtrack-backend/internal/recommend"
	"mouldtrack-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "mouldtrack ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	// Push notifications are optional; without VAPID keys the registry simply
	// runs silent.
	var webpushOptions *webpush.Options
	var registry *machine.Registry
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		workerPool.Start(ctx)
		registry = machine.NewRegistry(machine.WithNotifier(workerPool))
		logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)
	} else {
		registry = machine.NewRegistry()
		logger.Println("VAPID keys are not configured, push notifications disabled")
	}

	if err := seedRegistry(ctx, cfg, appStore, registry); err != nil {
		logger.Fatalf("failed to seed machine registry: %v", err)
	}
	logger.Printf("machine registry loaded with %d machines", registry.Stats().Total)

	archiver := store.NewAsyncArchiver(appStore, 64)
	archiver.Start(ctx)

	ledger := breakdown.NewLedger(registry, breakdown.WithArchiver(archiver))
	scheduler := pm.NewScheduler(registry, pm.WithArchiver(archiver))

	// Live monitor simulation loop.
	monitorSvc := monitor.NewService(cfg, registry)
	go monitorSvc.Run(ctx)

	recommendClient := recommend.NewClient(&cfg.Recommend)

	router := api.NewRouter(cfg, registry, ledger, scheduler, appStore, recommendClient, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	// Flush live machine state so the next start resumes where this one left.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	for _, m := range registry.List() {
		if err := appStore.SaveMachineState(flushCtx, m); err != nil {
			logger.Printf("failed to persist machine %s on shutdown: %v", m.ID, err)
		}
	}

	logger.Println("Server gracefully stopped")
}

// seedRegistry loads machines from the master table, falling back to the
// configured seed list when the table is empty.
func seedRegistry(ctx context.Context, cfg *config.Config, s store.Store, registry *machine.Registry) error {
	recs, err := s.ListMachineRecords(ctx)
	if err != nil {
		return err
	}

	if len(recs) == 0 && len(cfg.SeedMachines) > 0 {
		log.Printf("machine master is empty, seeding %d machines from configuration", len(cfg.SeedMachines))
		for _, seed := range cfg.SeedMachines {
			rec := model.MachineRecord{
				ID:               seed.ID,
				Name:             seed.Name,
				Model:            seed.Model,
				Status:           seed.Status,
				StrokeCount:      seed.StrokeCount,
				UtilizationLimit: seed.UtilizationLimit,
				HealthScore:      seed.HealthScore,
				OilLevel:         seed.OilLevel,
			}
			if seed.LastServiced != "" {
				ts, err := time.Parse("2006-01-02", seed.LastServiced)
				if err != nil {
					return fmt.Errorf("seed machine %s: invalid last_serviced %q", seed.ID, seed.LastServiced)
				}
				rec.LastServiced = ts
			}
			if err := s.UpsertMachine(ctx, rec); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
	}

	for _, rec := range recs {
		if err := registry.Register(store.MachineFromRecord(rec)); err != nil {
			return fmt.Errorf("register machine %s: %w", rec.ID, err)
		}
	}
	return nil
}
