package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jask/bookshelf/internal/config"
	"github.com/jask/bookshelf/internal/database"
	"github.com/jask/bookshelf/internal/server"
	"github.com/jask/bookshelf/internal/service"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var (
		addrFlag  = flag.String("addr", "", "listen address (overrides server.addr)")
		dbFlag    = flag.String("db", "", "sqlite path (overrides server.database_path)")
		resetFlag = flag.Bool("reset", false, "wipe all authors and books before serving")
		grace     = flag.Duration("grace", 5*time.Second, "shutdown grace period")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}
	dbPath := cfg.Server.DatabasePath
	if *dbFlag != "" {
		dbPath = *dbFlag
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	db, err := database.OpenAndMigrate(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if *resetFlag {
		maintenance := &service.MaintenanceService{DB: db}
		stats, err := maintenance.Reset(ctx)
		if err != nil {
			log.Fatalf("reset: %v", err)
		}
		log.Printf("library reset: removed %s", stats)
	}
	if cfg.Server.Seed {
		if err := database.SeedDefaults(ctx, db); err != nil {
			log.Fatalf("seed defaults: %v", err)
		}
	}

	router, err := server.NewRouter(&service.LibraryService{DB: db})
	if err != nil {
		log.Fatalf("router: %v", err)
	}
	httpServer := server.NewHTTPServer(addr, router)
	log.Printf("gateway listening on %s (db %s)", addr, dbPath)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		log.Fatalf("listen: %v", err)
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), *grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
