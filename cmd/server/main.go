package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/adsmeta"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/api"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/channel"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/config"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/engine"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/shops"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/storage"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("Venon Attribution Server starting...")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.Host
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())

	// Snowflake warehouse connection
	wh, err := warehouse.NewClient(warehouse.Config{
		Account:   cfg.Warehouse.Account,
		User:      cfg.Warehouse.User,
		Password:  cfg.Warehouse.Password,
		Database:  cfg.Warehouse.Database,
		Schema:    cfg.Warehouse.Schema,
		Warehouse: cfg.Warehouse.Warehouse,
	})
	if err != nil {
		log.Fatalf("Failed to open warehouse connection: %v", err)
	}
	defer wh.Close()
	log.Printf("Warehouse connected (database: %s.%s)", cfg.Warehouse.Database, cfg.Warehouse.Schema)

	// Postgres holds account/shop metadata and the ad hierarchy
	shopsDB, err := sql.Open("postgres", cfg.Shops.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open shops database: %v", err)
	}
	shopsDB.SetMaxOpenConns(10)
	shopsDB.SetMaxIdleConns(3)
	shopsDB.SetConnMaxLifetime(5 * time.Minute)
	defer shopsDB.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := shopsDB.PingContext(pingCtx); err != nil {
		log.Printf("Warning: shops database ping failed: %v", err)
	} else {
		log.Println("Shops database connected")
	}
	pingCancel()

	resolver := shops.NewPostgresResolver(shopsDB)

	// Ad metadata lookup, optionally fronted by Redis
	var ads adsmeta.Lookup = adsmeta.NewStore(shopsDB)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — ad metadata cache disabled", cfg.Redis.Addr, err)
			rdb.Close()
		} else {
			ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
			ads = adsmeta.NewCachedLookup(ads, rdb, ttl)
			defer rdb.Close()
			log.Printf("Redis connected: %s (ad metadata cache enabled, ttl=%s)", cfg.Redis.Addr, ttl)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured — ad metadata served straight from Postgres")
	}

	// Channel classification from config
	classifier := channel.NewClassifier(cfg.Channels.AdSpend, cfg.Channels.Managed)
	log.Printf("Channel classifier loaded (%d ad-spend, %d managed)",
		len(cfg.Channels.AdSpend), len(cfg.Channels.Managed))

	eng := engine.New(classifier, resolver, wh, ads, cfg.Cohorts.MaxPeriods)

	// Report snapshot cache, optionally archived to S3
	snapshots := storage.New(time.Duration(cfg.Snapshots.CacheTTLSeconds) * time.Second)
	if cfg.Snapshots.S3Enabled && cfg.Snapshots.S3Bucket != "" {
		archive, err := storage.NewS3Archive(ctx, cfg.Snapshots.S3Bucket, cfg.Snapshots.S3Region, cfg.Snapshots.AWSProfile)
		if err != nil {
			log.Printf("Warning: S3 archive init failed (snapshots won't be archived): %v", err)
		} else {
			snapshots.SetArchive(archive)
			log.Printf("S3 snapshot archive configured (bucket: %s)", cfg.Snapshots.S3Bucket)
		}
	}

	// Sweep expired snapshots in the background
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := snapshots.Sweep(); removed > 0 {
					log.Printf("[storage.Storage] swept %d expired snapshots", removed)
				}
			}
		}
	}()

	handlers := api.NewHandlers(eng, snapshots)
	router := api.SetupRoutes(handlers, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	// Cancel background tasks
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
