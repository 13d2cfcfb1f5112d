// docrag-server answers questions about uploaded documents over HTTP.
// Each client is identified by the X-Session-ID header and has at most one
// active document.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docrag/internal/api"
	"docrag/internal/app"
	"docrag/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/docrag/config.yaml if not provided)")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if envAddr := os.Getenv("DOCRAG_ADDR"); envAddr != "" {
		cfg.Server.Addr = envAddr
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to build assistant: %v", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(api.NewHandler(a.Assistant)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("docrag server starting on %s", cfg.Server.Addr)
	log.Printf("embedder=%s generator=%s history=%s", cfg.Embedder.Type, cfg.Generator.Type, cfg.History.Type)
	log.Printf("documents expire after %v idle, at most %d resident", cfg.Retrieval.SessionTTL(), cfg.Retrieval.MaxSessions)
	log.Printf("Endpoints:")
	log.Printf("   POST /api/upload    - Activate a document")
	log.Printf("   POST /api/ask       - Ask a question")
	log.Printf("   POST /api/reset-pdf - Clear the active document")
	log.Printf("   GET  /api/history   - Recent exchanges")
	log.Printf("   GET  /health        - Health check")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go a.Store.Run(ctx, cfg.Retrieval.SweepInterval())
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
