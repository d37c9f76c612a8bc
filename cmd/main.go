package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rollcall/backend/internal/api/handler"
	"rollcall/backend/internal/config"
	"rollcall/backend/internal/eventbus"
	"rollcall/backend/internal/localization"
	"rollcall/backend/internal/storage"
	"rollcall/backend/internal/telegram"
	"rollcall/backend/internal/tracker"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	if !cfg.RelayEnabled() {
		log.Println("WARN: REDIS_ADDR is empty, running as a single instance.")
		return db, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Database and Redis connections established.")
	return db, rdb
}

func main() {
	log.Println("Starting Rollcall Backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	l, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	registry := tracker.NewRegistry(nil)
	sweeper := tracker.NewSweeper(registry, cfg.SweepInterval)

	// With Redis, every replica publishes events and only the lease holder
	// applies them. Without it this process is the only tracker.
	var (
		relay    *eventbus.Relay
		ingestor tracker.Ingestor = registry
	)
	if rdb != nil {
		relay = eventbus.NewRelay(rdb)
		ingestor = relay
	}

	dispatcher := telegram.NewCommandDispatcher(registry, s, l, cfg.DefaultLanguage)
	botService, err := telegram.NewBotService(cfg.TelegramToken, dispatcher, ingestor)
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var owner atomic.Bool
	var lostOwnership atomic.Bool
	runOwned := func(ownedCtx context.Context) {
		owner.Store(true)
		defer owner.Store(false)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			botService.Run(ownedCtx)
		}()
		go func() {
			defer wg.Done()
			sweeper.Run(ownedCtx)
		}()
		if relay != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := relay.Consume(ownedCtx, registry); err != nil {
					log.Printf("ERROR: %v", err)
				}
			}()
		}
		wg.Wait()

		// Tracker state and the update poller cannot be handed back, so a
		// replica that lost the lease exits and starts over.
		if ctx.Err() == nil {
			lostOwnership.Store(true)
			cancel()
		}
	}

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		if rdb == nil {
			runOwned(ctx)
			return
		}
		eventbus.NewLease(rdb, cfg.InstanceID, cfg.LeaseTTL).Hold(ctx, runOwned)
	}()

	r := gin.Default()
	h := handler.NewHandler(registry, ingestor, cfg.JWTSecret)
	h.Owner = owner.Load
	h.Routes(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()
	log.Printf("Instance %s listening on %s", cfg.InstanceID, cfg.HTTPAddr)

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: HTTP shutdown: %v", err)
	}
	workers.Wait()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("WARN: Failed to close Redis: %v", err)
		}
	}
	if lostOwnership.Load() {
		log.Println("ERROR: tracker ownership lost, exiting for restart.")
		os.Exit(1)
	}
}
