package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"doc_chat/internal/app"
	"doc_chat/internal/cli"
	"doc_chat/internal/config"
	"doc_chat/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	docsDir := flag.String("docs", "", "Documents directory")
	chunksDir := flag.String("chunks", "", "Chunk cache directory")
	indexDir := flag.String("index", "", "Vector store directory")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// flags win over the environment
	setEnv("DOCUMENTS_DIR", *docsDir)
	setEnv("CHUNKS_DIR", *chunksDir)
	setEnv("INDEX_DIR", *indexDir)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.DocumentsDir, cfg.ChunksDir, cfg.IndexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	os.Exit(run(cfg, lg))
}

// run owns every resource that needs closing, so deferred cleanup happens
// before main exits with the returned code.
func run(cfg *config.Config, lg *zap.Logger) int {
	defer func() { _ = lg.Sync() }()

	lg.Info("configuration loaded",
		zap.String("documents_dir", cfg.DocumentsDir),
		zap.String("chunks_dir", cfg.ChunksDir),
		zap.String("index_dir", cfg.IndexDir),
		zap.Int("chunk_size", cfg.ChunkSize),
	)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Error("failed to create app", zap.Error(err))
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("failed to close vector store", zap.Error(err))
		}
	}()

	if err := a.Init(ctx); err != nil {
		lg.Error("failed to initialize app", zap.Error(err))
		return 1
	}

	session := cli.New(os.Stdin, os.Stdout, a, a.Pipeline(), a.DefaultTopK(), lg.Named("cli"))
	if err := session.Run(ctx); err != nil {
		lg.Error("app stopped with error", zap.Error(err))
		return 1
	}
	return 0
}

func setEnv(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}
