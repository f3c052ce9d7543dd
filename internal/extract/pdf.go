package extract

import (
	"fmt"

	"doc_chat/internal/chunker"
	"doc_chat/internal/errs"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the plain text layer of PDF files page by page.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (p *PDFExtractor) Name() string { return "pdf" }

func (p *PDFExtractor) Supports(name string) bool {
	return hasExt(name, ".pdf")
}

func (p *PDFExtractor) Extract(path string) (out string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = errs.E(errs.KindExtraction, "extract.pdf", fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", errs.E(errs.KindExtraction, "extract.pdf", err)
	}
	defer f.Close()

	var paragraphs []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", errs.E(errs.KindExtraction, "extract.pdf", fmt.Errorf("page %d: %w", i, err))
		}
		paragraphs = append(paragraphs, chunker.SplitByParagraphs(text)...)
	}

	return chunker.JoinParagraphs(paragraphs), nil
}
