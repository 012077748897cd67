package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playpool/minipool/internal/api"
	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/database"
	"github.com/playpool/minipool/internal/game"
	"github.com/playpool/minipool/internal/middleware"
	"github.com/playpool/minipool/internal/migrations"
	"github.com/playpool/minipool/internal/redis"
	"github.com/playpool/minipool/internal/store"
	"github.com/playpool/minipool/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(func(r *http.Request) bool {
		return middleware.OriginAllowed(cfg, r.Header.Get("Origin"))
	})
	go hub.Run(ctx)
	sinks := game.Sinks{hub}

	// Journal (optional)
	var events *store.EventStore
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.Run(cfg.DatabaseURL, "migrations"); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		events = store.NewEventStore(db, 0)
		go events.Start(ctx)
		sinks = append(sinks, events)
	} else {
		log.Println("[DB] DATABASE_URL not set; event journal disabled")
	}

	var manager *game.Manager

	// Redis fan-out and remote commands (optional)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		publisher := ws.NewRedisPublisher(rdb, 0)
		go publisher.Start(ctx)
		sinks = append(sinks, publisher)

		manager = game.NewManager(cfg, sinks)
		go ws.StartCommandSubscriber(ctx, rdb, manager)
	} else {
		log.Println("[REDIS] REDIS_URL not set; update fan-out disabled")
		manager = game.NewManager(cfg, sinks)
	}
	go manager.StartExpiryChecker(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	deps := api.Deps{Config: cfg, Manager: manager, Hub: hub}
	if events != nil {
		deps.Events = events
	}
	api.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting minipool server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	manager.Shutdown()
}
