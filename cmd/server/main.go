/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the company registry server. Handles
  configuration, backend selection, dependency injection, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load config (defaults < yaml file < env < flags)
  3. Build the selected storage backend
  4. Wire RowStore + Exporter into the API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config   Optional YAML config path
  -port     HTTP server port (overrides config)
  -backend  memory | sqlite | csv | gsheets (overrides config)
  -db       SQLite database path (":memory:" works)
  -dir      CSV shard directory

BACKENDS:
  memory    volatile, for dev and tests
  sqlite    embedded SQL warehouse
  csv       one CSV file per shard in -dir
  gsheets   Google Sheets; needs spreadsheet_id and credentials_file
            in config (or COMPANY_REGISTRY_SPREADSHEET_ID /
            COMPANY_REGISTRY_CREDENTIALS)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  in-flight requests, close the backend, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration shape
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datacheck/company-registry/api"
	"github.com/datacheck/company-registry/backend/csvfile"
	"github.com/datacheck/company-registry/backend/gsheets"
	"github.com/datacheck/company-registry/backend/memory"
	"github.com/datacheck/company-registry/backend/sqlite"
	"github.com/datacheck/company-registry/config"
	"github.com/datacheck/company-registry/registry"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	backendName := flag.String("backend", "", "storage backend: memory|sqlite|csv|gsheets")
	dbPath := flag.String("db", "", "SQLite database path")
	csvDir := flag.String("dir", "", "CSV shard directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *backendName != "" {
		cfg.Storage.Backend = *backendName
	}
	if *dbPath != "" {
		cfg.Storage.SQLite.Path = *dbPath
	}
	if *csvDir != "" {
		cfg.Storage.CSV.Dir = *csvDir
	}

	// Build the storage backend
	backend, closer, err := buildBackend(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %q backend: %v", cfg.Storage.Backend, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	// Wire the core
	store := registry.NewRowStore(backend, cfg.Storage.MaxRowsPerShard)
	exporter := registry.NewExporter(cfg.Export.MaxRowsPerSheet, cfg.Location())
	handler := api.NewHandler(store, exporter, cfg.Location())
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d (backend: %s)", cfg.Server.Port, cfg.Storage.Backend)
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

// buildBackend constructs the configured storage backend. The second
// return value is non-nil when the backend holds a closable resource.
func buildBackend(ctx context.Context, cfg config.Config) (registry.Backend, io.Closer, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.New(), nil, nil
	case "sqlite":
		b, err := sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	case "csv":
		b, err := csvfile.New(cfg.Storage.CSV.Dir)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	case "gsheets":
		if cfg.Storage.Sheets.SpreadsheetID == "" {
			return nil, nil, fmt.Errorf("gsheets backend requires a spreadsheet id")
		}
		b, err := gsheets.New(ctx, cfg.Storage.Sheets.SpreadsheetID, cfg.Storage.Sheets.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Storage.Backend)
}
