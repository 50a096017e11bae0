package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jask/bookshelf/internal/config"
	"github.com/jask/bookshelf/internal/database"
	"github.com/jask/bookshelf/internal/gateway"
	"github.com/jask/bookshelf/internal/server"
	"github.com/jask/bookshelf/internal/service"
	"github.com/jask/bookshelf/internal/tui"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var (
		endpointFlag = flag.String("endpoint", "", "GraphQL endpoint (overrides gateway.endpoint)")
		demoFlag     = flag.Bool("demo", false, "run against an in-process gateway on a temporary database")
		writeConfig  = flag.Bool("write-config", false, "write the effective config to "+config.Path()+" and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *writeConfig {
		if err := config.Save(cfg); err != nil {
			log.Fatalf("save config: %v", err)
		}
		fmt.Println(config.Path())
		return
	}

	if cfg.UI.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.UI.LogFile), 0o755); err != nil {
			log.Fatalf("mkdir log dir: %v", err)
		}
		f, err := tea.LogToFile(cfg.UI.LogFile, "bookshelf")
		if err != nil {
			log.Fatalf("log file: %v", err)
		}
		defer f.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpoint := cfg.Gateway.Endpoint
	if *endpointFlag != "" {
		endpoint = *endpointFlag
	}
	if *demoFlag {
		demoEndpoint, stop, err := startDemoGateway(ctx)
		if err != nil {
			log.Fatalf("demo gateway: %v", err)
		}
		defer stop()
		endpoint = demoEndpoint
	}

	client := gateway.NewClient(gateway.Config{
		Endpoint:          endpoint,
		Timeout:           cfg.Gateway.Timeout,
		RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
		CacheTTL:          cfg.Gateway.CacheTTL,
	})
	app := tui.New(ctx, client, tui.Options{
		SequenceRefetch:    cfg.Behavior.SequenceRefetch,
		ClearGenreAfterAdd: cfg.Behavior.ClearGenreAfterAdd,
		Endpoint:           client.Endpoint(),
		KeyOverrides:       cfg.UI.Keys,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	log.Printf("session done: %d gateway requests", client.Sent())
}

// startDemoGateway serves a seeded library from a throwaway sqlite file on a
// loopback port and returns its GraphQL endpoint.
func startDemoGateway(ctx context.Context) (string, func(), error) {
	dir, err := os.MkdirTemp("", "bookshelf-demo-")
	if err != nil {
		return "", nil, err
	}
	db, err := database.OpenAndMigrate(filepath.Join(dir, "gateway.db"))
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	cleanup := func() {
		_ = db.Close()
		_ = os.RemoveAll(dir)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("seed: %w", err)
	}

	router, err := server.NewRouter(&service.LibraryService{DB: db})
	if err != nil {
		cleanup()
		return "", nil, err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	srv := server.NewHTTPServer(ln.Addr().String(), router)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("demo gateway: %v", err)
		}
	}()
	log.Printf("demo gateway on %s (db %s)", ln.Addr(), dir)

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		cleanup()
	}
	return "http://" + ln.Addr().String() + "/graphql", stop, nil
}
