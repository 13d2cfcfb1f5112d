package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/tui"
)

const localTenant = "local"

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docrag/config.yaml if not provided)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Println("Usage: docrag [--config=config.yaml] document.txt")
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// the one local document stays loaded for the whole run
	cfg.Retrieval.SessionTTLSecs = 0

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to build assistant: %v", err)
	}
	defer a.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", path, err)
	}
	res, err := a.Assistant.Upload(context.Background(), localTenant, filepath.Base(path), string(data))
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	m := tui.New(a.Assistant, localTenant, res.Document, res.Summary, cfg.Retrieval.QueryTimeout())
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}
