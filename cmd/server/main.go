package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/selah-app/selah-server/internal/api"
	"github.com/selah-app/selah-server/internal/auth"
	"github.com/selah-app/selah-server/internal/config"
	"github.com/selah-app/selah-server/internal/ratelimit"
	"github.com/selah-app/selah-server/internal/repository/postgres"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RedisURL != "" {
		limiter, err = ratelimit.NewFromURL(cfg.RateLimit.RedisURL, cfg.RateLimit.RequestsPerMinute)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer limiter.Close()
		log.Printf("Rate limiting enabled: %d requests/minute per IP", cfg.RateLimit.RequestsPerMinute)
	} else {
		log.Println("REDIS_URL not set, rate limiting disabled")
	}

	guard := auth.NewGuard(cfg.Admin.Password, cfg.Admin.SessionTTL(), postgres.NewSessionRepo(db))
	handlers := api.NewHandlers(db, guard, limiter)
	server := api.NewServer(*cfg, handlers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go guard.SweepExpired(ctx, time.Hour)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
