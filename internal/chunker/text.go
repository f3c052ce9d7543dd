package chunker

import (
	"strings"

	"doc_chat/internal/errs"

	"go.uber.org/zap"
)

// TextChunker splits text into paragraph-bounded windows of tokens.
type TextChunker struct {
	config Config
	logger *zap.Logger
}

// NewTextChunker creates a paragraph-aware token window chunker.
func NewTextChunker(config Config, logger *zap.Logger) *TextChunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextChunker{config: config, logger: logger}
}

func (s *TextChunker) Name() string {
	return "paragraph-window"
}

func (s *TextChunker) Chunk(text string) ([]string, error) {
	chunks, err := Split(text, s.config.MaxTokens)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("text split into chunks",
		zap.String("chunker", s.Name()),
		zap.Int("max_tokens", s.config.MaxTokens),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// Split breaks text into paragraphs on blank lines, then cuts every
// paragraph into consecutive windows of at most maxTokens tokens joined by
// single spaces. A chunk never spans two paragraphs and the last window of
// a paragraph may be shorter.
func Split(text string, maxTokens int) ([]string, error) {
	if maxTokens <= 0 {
		return nil, errs.Errorf(errs.KindConfiguration, "chunker.split",
			"max tokens must be positive, got %d", maxTokens)
	}

	var chunks []string
	for _, para := range SplitByParagraphs(text) {
		words := strings.Fields(para)
		for i := 0; i < len(words); i += maxTokens {
			end := i + maxTokens
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, strings.Join(words[i:end], " "))
		}
	}
	return chunks, nil
}
