// Package extract turns document files into plain text whose paragraphs are
// separated by blank lines.
package extract

import (
	"path/filepath"
	"strings"

	"doc_chat/internal/errs"
)

// Extractor reads the text of one document format.
type Extractor interface {
	// Supports reports whether the extractor handles the file name.
	Supports(name string) bool

	// Extract returns the document text with paragraphs separated by blank
	// lines and line endings normalized to LF.
	Extract(path string) (string, error)

	// Name returns the extractor name for logging.
	Name() string
}

// Registry selects an extractor by file extension.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a registry over the given extractors, tried in order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry returns the PDF, DOCX, plain text and markdown extractors.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPDFExtractor(),
		NewDocxExtractor(),
		NewTextExtractor(),
		NewMarkdownExtractor(),
	)
}

// ForFile returns the extractor for name or an unsupported format error.
func (r *Registry) ForFile(name string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.Supports(name) {
			return e, nil
		}
	}
	return nil, errs.Errorf(errs.KindUnsupportedFormat, "extract",
		"unsupported file type: %s", filepath.Base(name))
}

// Supports reports whether any extractor handles name.
func (r *Registry) Supports(name string) bool {
	_, err := r.ForFile(name)
	return err == nil
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
