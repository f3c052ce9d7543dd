package app

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"doc_chat/internal/chunker"
	"doc_chat/internal/errs"
	"doc_chat/internal/extract"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Document is a file selected for chunking and indexing.
type Document struct {
	Path     string
	Name     string // file name with extension
	BaseName string // file name without its last extension
}

// NewDocument describes the file at path.
func NewDocument(path string) Document {
	name := filepath.Base(path)
	return Document{
		Path:     path,
		Name:     name,
		BaseName: strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

// ChunkCache stores the chunk list of each document by base name.
type ChunkCache interface {
	Load(baseName string) ([]string, bool, error)
	Save(baseName string, chunks []string) error
}

// Processor turns a document into its chunk list, reusing cached chunks when
// present.
type Processor struct {
	extractors *extract.Registry
	chunker    chunker.Chunker
	cache      ChunkCache
	fs         afero.Fs
	logger     *zap.Logger
}

func NewProcessor(extractors *extract.Registry, c chunker.Chunker, cache ChunkCache, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		extractors: extractors,
		chunker:    c,
		cache:      cache,
		fs:         afero.NewOsFs(),
		logger:     logger,
	}
}

// Process returns the chunks of doc. A non-empty cached list is returned as
// is; otherwise the file is extracted, chunked and the result cached.
func (p *Processor) Process(doc Document) ([]string, error) {
	cached, ok, err := p.cache.Load(doc.BaseName)
	if err != nil {
		return nil, err
	}
	if ok && len(cached) > 0 {
		p.logger.Info("using cached chunks",
			zap.String("document", doc.Name),
			zap.Int("chunks", len(cached)),
		)
		return cached, nil
	}

	ex, err := p.extractors.ForFile(doc.Name)
	if err != nil {
		return nil, err
	}
	text, err := ex.Extract(doc.Path)
	if err != nil {
		if errs.KindOf(err) == errs.KindOther {
			err = errs.E(errs.KindExtraction, "process", err)
		}
		return nil, err
	}
	p.logger.Debug("document extracted",
		zap.String("document", doc.Name),
		zap.String("extractor", ex.Name()),
		zap.Int("bytes", len(text)),
	)

	chunks, err := p.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Save(doc.BaseName, chunks); err != nil {
		return nil, err
	}
	p.logger.Info("document chunked",
		zap.String("document", doc.Name),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// ListDocuments returns the sorted names of supported files in dir. A
// missing directory yields an empty list.
func (p *Processor) ListDocuments(dir string) ([]string, error) {
	infos, err := afero.ReadDir(p.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errs.E(errs.KindStorage, "list documents", err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !p.extractors.Supports(info.Name()) {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}
