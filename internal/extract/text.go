package extract

import (
	"errors"
	"os"
	"unicode/utf8"

	"doc_chat/internal/chunker"
	"doc_chat/internal/errs"
)

// TextExtractor reads UTF-8 plain text files.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Name() string { return "text" }

func (e *TextExtractor) Supports(name string) bool {
	return hasExt(name, ".txt")
}

func (e *TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.E(errs.KindExtraction, "extract.text", err)
	}
	if !utf8.Valid(data) {
		return "", errs.E(errs.KindExtraction, "extract.text", errors.New("file is not valid UTF-8"))
	}
	return chunker.JoinParagraphs(chunker.SplitByParagraphs(string(data))), nil
}
