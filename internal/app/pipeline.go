package app

import (
	"context"

	"doc_chat/internal/errs"
	"doc_chat/internal/index"

	"go.uber.org/zap"
)

// State is the pipeline phase.
type State int

const (
	SelectingDocument State = iota
	Ready
	Querying
)

func (s State) String() string {
	switch s {
	case SelectingDocument:
		return "selecting document"
	case Ready:
		return "ready"
	case Querying:
		return "querying"
	default:
		return "unknown"
	}
}

// Indexer is the part of the vector index the pipeline drives.
type Indexer interface {
	ContainsDocument(ctx context.Context, baseName string) (bool, error)
	Add(ctx context.Context, baseName string, chunks []string) error
	Query(ctx context.Context, text string, topK int) ([]index.Result, error)
}

// Selection reports the outcome of selecting a document.
type Selection struct {
	Document       Document
	Chunks         []string
	AlreadyIndexed bool
}

// Pipeline runs one session: select a document, make sure it is chunked and
// indexed, then answer queries. It does no terminal IO.
type Pipeline struct {
	processor *Processor
	index     Indexer
	logger    *zap.Logger

	state State
	doc   Document
}

func NewPipeline(processor *Processor, idx Indexer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{processor: processor, index: idx, logger: logger}
}

func (p *Pipeline) State() State {
	return p.state
}

// Document returns the selected document. The boolean is false before a
// successful Select.
func (p *Pipeline) Document() (Document, bool) {
	return p.doc, p.state != SelectingDocument
}

// Select chunks doc and indexes it unless its chunks are already stored. On
// failure the pipeline stays in SelectingDocument and another document can
// be selected.
func (p *Pipeline) Select(ctx context.Context, doc Document) (Selection, error) {
	if p.state != SelectingDocument {
		return Selection{}, errs.Errorf(errs.KindState, "select",
			"document %s already selected (state %s)", p.doc.Name, p.state)
	}

	chunks, err := p.processor.Process(doc)
	if err != nil {
		return Selection{}, err
	}

	indexed, err := p.index.ContainsDocument(ctx, doc.BaseName)
	if err != nil {
		return Selection{}, err
	}
	if indexed {
		p.logger.Info("document already indexed", zap.String("document", doc.BaseName))
	} else {
		if err := p.index.Add(ctx, doc.BaseName, chunks); err != nil {
			return Selection{}, err
		}
		p.logger.Info("document indexed",
			zap.String("document", doc.BaseName),
			zap.Int("chunks", len(chunks)),
		)
	}

	p.doc = doc
	p.state = Ready
	return Selection{Document: doc, Chunks: chunks, AlreadyIndexed: indexed}, nil
}

// Query searches the index. Each call is independent of earlier ones.
func (p *Pipeline) Query(ctx context.Context, text string, topK int) ([]index.Result, error) {
	if p.state == SelectingDocument {
		return nil, errs.Errorf(errs.KindState, "query", "no document selected")
	}
	p.state = Querying
	return p.index.Query(ctx, text, topK)
}
