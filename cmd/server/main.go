/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment, flag overrides)
  2. Open the local sqlite snapshot cache
  3. Connect the remote store client when STORE_URL is set
  4. Create the ledger and load state (remote > cache > defaults)
  5. Configure HTTP router and start with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      Local cache path (overrides CACHE_DB_PATH)
           Use ":memory:" for an in-memory cache

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the cache database
  4. Exit

EXAMPLES:
  # Offline, local cache only
  ./server -db="./data/leave.db"

  # With a remote store and webhook
  STORE_URL=https://x.example.co STORE_API_KEY=... WEBHOOK_URL=... ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - ledger/ledger.go: State ownership and persistence policy
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zenhr/leave-engine/api"
	"github.com/zenhr/leave-engine/config"
	"github.com/zenhr/leave-engine/ledger"
	"github.com/zenhr/leave-engine/notify"
	"github.com/zenhr/leave-engine/store"
	"github.com/zenhr/leave-engine/store/rest"
	"github.com/zenhr/leave-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment for quick local runs.
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.CacheDBPath, "Local cache database path")
	flag.Parse()

	// Local snapshot cache
	cache, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open cache database: %v", err)
	}
	defer cache.Close()

	// Remote store (optional)
	var remote store.RemoteStore
	if cfg.StoreURL != "" {
		remote = rest.New(cfg.StoreURL, cfg.StoreAPIKey)
		log.Printf("Remote store: %s", cfg.StoreURL)
	}

	// Webhook sink (disabled when no URL is configured)
	webhook := notify.New(cfg.WebhookURL)
	if webhook.Enabled() {
		log.Printf("Webhook notifications enabled")
	}

	// Ledger
	l := ledger.New(ledger.Options{
		Remote:       remote,
		Cache:        cache,
		Notifier:     webhook,
		StoreTimeout: cfg.StoreTimeout,
	})
	l.Load(context.Background())

	// Router
	handler := api.NewHandler(l, webhook)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", *port)
		log.Printf("API available at http://localhost:%s/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
