package extract

import (
	"os"
	"strings"

	"doc_chat/internal/chunker"
	"doc_chat/internal/errs"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor turns markdown into plain paragraphs. Headings, paragraphs,
// list items and code blocks each become one paragraph; markup is dropped.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

func (m *MarkdownExtractor) Name() string { return "markdown" }

func (m *MarkdownExtractor) Supports(name string) bool {
	return hasExt(name, ".md", ".markdown")
}

func (m *MarkdownExtractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errs.E(errs.KindExtraction, "extract.markdown", err)
	}
	return m.extractBytes(content), nil
}

func (m *MarkdownExtractor) extractBytes(content []byte) string {
	content = []byte(chunker.NormalizeNewlines(string(content)))
	doc := m.md.Parser().Parse(text.NewReader(content))

	var paragraphs []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			paragraphs = append(paragraphs, inlineText(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			paragraphs = append(paragraphs, blockLines(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return chunker.JoinParagraphs(paragraphs)
}

// inlineText concatenates the text leaves under node; line breaks inside a
// paragraph become spaces.
func inlineText(node ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.CodeSpan:
			for c := t.FirstChild(); c != nil; c = c.NextSibling() {
				if seg, ok := c.(*ast.Text); ok {
					buf.Write(seg.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// blockLines returns the raw lines of a code block joined by single line
// breaks, so the block stays one paragraph.
func blockLines(node ast.Node, source []byte) string {
	var lines []string
	segs := node.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
