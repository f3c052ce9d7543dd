package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"doc_chat/internal/chunker"
	"doc_chat/internal/errs"

	"github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// licensed is set once a unidoc key has been registered.
var licensed atomic.Bool

// DocxExtractor reads paragraph text from Word .docx files. Legacy .doc is
// not supported.
//
// unioffice refuses to open documents without a metered license key, so
// without one the extractor reads word/document.xml from the package
// directly.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// SetLicenseKey registers a unidoc metered license key. An empty key keeps
// the built-in reader.
func SetLicenseKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("set unidoc license: %w", err)
	}
	licensed.Store(true)
	return nil
}

func (d *DocxExtractor) Name() string { return "docx" }

func (d *DocxExtractor) Supports(name string) bool {
	return hasExt(name, ".docx")
}

func (d *DocxExtractor) Extract(path string) (string, error) {
	var (
		paragraphs []string
		err        error
	)
	if licensed.Load() {
		paragraphs, err = unidocParagraphs(path)
	} else {
		paragraphs, err = xmlParagraphs(path)
	}
	if err != nil {
		return "", errs.E(errs.KindExtraction, "extract.docx", err)
	}
	return chunker.JoinParagraphs(paragraphs), nil
}

func unidocParagraphs(path string) ([]string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	var paragraphs []string
	for _, para := range doc.Paragraphs() {
		var buf strings.Builder
		for _, run := range para.Runs() {
			buf.WriteString(run.Text())
		}
		paragraphs = append(paragraphs, buf.String())
	}
	return paragraphs, nil
}

// xmlParagraphs streams the main document part and collects the text runs
// of every w:p element.
func xmlParagraphs(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return nil, errors.New("word/document.xml not found")
	}
	rc, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		paragraphs []string
		buf        strings.Builder
		inText     bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				buf.Reset()
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			case "br", "cr":
				buf.WriteByte(' ')
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return paragraphs, nil
}
