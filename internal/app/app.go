package app

import (
	"context"
	"fmt"
	"path/filepath"

	"doc_chat/internal/chunker"
	"doc_chat/internal/chunkstore"
	"doc_chat/internal/config"
	"doc_chat/internal/embed"
	"doc_chat/internal/errs"
	"doc_chat/internal/extract"
	"doc_chat/internal/index"
	"doc_chat/internal/store"

	"go.uber.org/zap"
)

// App owns the components built from a Config.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	embedder  embed.Embedder
	store     store.Store
	processor *Processor
	pipeline  *Pipeline
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := extract.SetLicenseKey(cfg.UnidocLicenseKey); err != nil {
		return nil, errs.E(errs.KindConfiguration, "app.new", err)
	}

	embedder, err := embed.New(embed.Options{
		Provider:      cfg.EmbedProvider,
		Model:         cfg.EmbedModel,
		OllamaURL:     cfg.OllamaURL,
		OpenAIKey:     cfg.OpenAIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		HashDimension: cfg.HashDimension,
	})
	if err != nil {
		return nil, errs.E(errs.KindConfiguration, "app.new", err)
	}

	vs, err := store.Open(store.Options{
		Backend:    cfg.StoreBackend,
		Dir:        cfg.IndexDir,
		Collection: cfg.Collection,
		Compress:   cfg.StoreCompress,
	})
	if err != nil {
		return nil, errs.E(errs.KindIndex, "app.new", fmt.Errorf("open %s store: %w", cfg.StoreBackend, err))
	}

	processor := NewProcessor(
		extract.DefaultRegistry(),
		chunker.NewTextChunker(chunker.Config{MaxTokens: cfg.ChunkSize}, logger.Named("chunker")),
		chunkstore.NewOS(cfg.ChunksDir),
		logger.Named("processor"),
	)
	idx := index.New(vs, embedder, logger.Named("index"))

	logger.Info("components ready",
		zap.String("store", cfg.StoreBackend),
		zap.String("index_dir", cfg.IndexDir),
		zap.String("collection", cfg.Collection),
		zap.String("embedder", embedder.Model()),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		embedder:  embedder,
		store:     vs,
		processor: processor,
		pipeline:  NewPipeline(processor, idx, logger.Named("pipeline")),
	}, nil
}

// Init checks that the embedding model is reachable. For Ollama a missing
// model is pulled.
func (a *App) Init(ctx context.Context) error {
	if o, ok := a.embedder.(*embed.OllamaEmbedder); ok {
		if err := o.EnsureModel(ctx, a.logger); err != nil {
			return errs.E(errs.KindConfiguration, "app.init", fmt.Errorf("ollama model check failed: %w", err))
		}
	}
	return nil
}

// Documents lists the supported files in the documents directory.
func (a *App) Documents() ([]string, error) {
	return a.processor.ListDocuments(a.cfg.DocumentsDir)
}

// Document describes the file name in the documents directory.
func (a *App) Document(name string) Document {
	return NewDocument(filepath.Join(a.cfg.DocumentsDir, name))
}

func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

func (a *App) DefaultTopK() int {
	return a.cfg.DefaultTopK
}

func (a *App) Close() error {
	return a.store.Close()
}
