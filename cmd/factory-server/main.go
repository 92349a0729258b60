// Package main is the entry point for the retro computer factory server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trg-labs/retro-factory/server/internal/catalog"
	"github.com/trg-labs/retro-factory/server/internal/engine"
	"github.com/trg-labs/retro-factory/server/internal/events"
	"github.com/trg-labs/retro-factory/server/internal/infra/cache"
	"github.com/trg-labs/retro-factory/server/internal/infra/storage"
	"github.com/trg-labs/retro-factory/server/internal/network"
	"github.com/trg-labs/retro-factory/server/internal/platform/config"
	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
	"github.com/trg-labs/retro-factory/server/internal/platform/metrics"
)

// eventPersisterAdapter translates domain events to storage events.
type eventPersisterAdapter struct {
	repo storage.EventRepository
}

func (a *eventPersisterAdapter) Append(event events.GameEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		payload = []byte("{}")
	}

	start := time.Now()
	err = a.repo.Append(context.Background(), storage.SimEvent{
		ID:        event.ID,
		SessionID: event.SessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Year:      event.Year,
		Month:     event.Month,
		Payload:   payload,
	})
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

func openStorage(cfg *config.Config) (*sql.DB, storage.SaveRepository, storage.EventRepository, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := storage.InitSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, storage.NewSQLiteSaveRepository(db), storage.NewSQLiteEventRepository(db), nil
	case "postgres":
		if cfg.Storage.PostgresURL == "" {
			return nil, nil, nil, errors.New("POSTGRES_URL is required when STORAGE_DRIVER=postgres")
		}
		db, err := storage.OpenPostgres(cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, storage.NewPostgresSaveRepository(db), storage.NewPostgresEventRepository(db), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("initializing storage", "driver", cfg.Storage.Driver)
	db, saveRepo, eventRepo, err := openStorage(cfg)
	if err != nil {
		appLogger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eventLog := events.NewEventLog(&eventPersisterAdapter{repo: eventRepo})

	appLogger.Info("loading brand catalog", "dir", cfg.Data.BrandsDir)
	store, err := catalog.NewLoader(cfg.Data.BrandsDir, appLogger).Load()
	if err != nil {
		appLogger.Error("failed to load brand catalog", "error", err)
		os.Exit(1)
	}

	tuning := engine.DefaultTuning()
	if cfg.Data.TuningPath != "" {
		tuning, err = engine.LoadTuning(cfg.Data.TuningPath)
		if err != nil {
			appLogger.Error("failed to load tuning", "error", err, "path", cfg.Data.TuningPath)
			os.Exit(1)
		}
	}

	sim := engine.NewSimulation(store, tuning, engine.NewRand(cfg.Sim.Seed), appLogger, eventLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sim.StartAccrual(ctx, cfg.Sim.AccrualInterval)

	saves := storage.NewSaveStore(saveRepo, cache.NewSnapshotCache(cache.NewMemory()))

	hub := network.NewHub(sim, saves, appLogger, cfg.Network.BroadcastBuffer, cfg.Network.MaxClients)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger, cfg.Network.ClientSendBuffer)
	})
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}

	go func() {
		appLogger.Info("server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown failed", "error", err)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Clients connect from the browser dev server.
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger, sendBuffer int) {
	if hub.AtCapacity() {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade websocket connection", "error", err)
		return
	}

	client := network.NewClient(hub, conn, sendBuffer)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
