package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"doc_chat/internal/app"
	"doc_chat/internal/errs"
	"doc_chat/internal/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCatalog struct {
	docs []string
	err  error
}

func (f fakeCatalog) Documents() ([]string, error) { return f.docs, f.err }

func (f fakeCatalog) Document(name string) app.Document {
	return app.NewDocument(filepath.Join("documents", name))
}

type query struct {
	text string
	topK int
}

type fakePipeline struct {
	selected  []app.Document
	selectErr error
	indexed   bool
	queries   []query
	results   []index.Result
}

func (f *fakePipeline) Select(_ context.Context, doc app.Document) (app.Selection, error) {
	f.selected = append(f.selected, doc)
	if f.selectErr != nil {
		err := f.selectErr
		f.selectErr = nil
		return app.Selection{}, err
	}
	return app.Selection{Document: doc, Chunks: []string{"a", "b"}, AlreadyIndexed: f.indexed}, nil
}

func (f *fakePipeline) Query(_ context.Context, text string, topK int) ([]index.Result, error) {
	f.queries = append(f.queries, query{text, topK})
	if topK <= 0 {
		return nil, errs.Errorf(errs.KindConfiguration, "index.query", "top-k must be positive, got %d", topK)
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func run(t *testing.T, input string, catalog Catalog, p Pipeline) string {
	t.Helper()
	var out strings.Builder
	c := New(strings.NewReader(input), &out, catalog, p, 3, zaptest.NewLogger(t))
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestRunFullSession(t *testing.T) {
	p := &fakePipeline{results: []index.Result{
		{ID: "Report_0", Text: "Alpha beta gamma.", Score: 0.87},
		{ID: "Report_1", Text: "Delta epsilon.", Score: 0.12},
	}}
	catalog := fakeCatalog{docs: []string{"Report.txt", "guide.md"}}

	out := run(t, "1\nwhat is alpha?\n1\nexit\n", catalog, p)

	assert.Contains(t, out, "VECTOR DOC CHAT - Unified CLI")
	assert.Contains(t, out, "0. Exit\n1. Report.txt\n2. guide.md\n")
	assert.Contains(t, out, "You selected: Report.txt")
	assert.Contains(t, out, "2 chunks ready.")
	assert.Contains(t, out, "Stored 2 embeddings.")
	assert.Contains(t, out, "Top 1 Results:")
	assert.Contains(t, out, "1. [Score: 0.87]\nAlpha beta gamma.")
	assert.NotContains(t, out, "Delta epsilon.")
	assert.True(t, strings.HasSuffix(out, "Exiting. Bye!\n"))

	require.Len(t, p.selected, 1)
	assert.Equal(t, "Report", p.selected[0].BaseName)
	assert.Equal(t, []query{{"what is alpha?", 1}}, p.queries)
}

func TestRunHeadingUsesRequestedTopK(t *testing.T) {
	p := &fakePipeline{results: []index.Result{{ID: "a_0", Text: "only match", Score: 0.5}}}
	out := run(t, "1\nquestion\n5\nexit\n", fakeCatalog{docs: []string{"a.txt"}}, p)

	assert.Contains(t, out, "Top 5 Results:")
	assert.Equal(t, 1, strings.Count(out, "[Score: "))
}

func TestRunDefaultTopK(t *testing.T) {
	p := &fakePipeline{indexed: true}
	out := run(t, "1\nfirst\n\nsecond\nmany\nQUIT\n", fakeCatalog{docs: []string{"a.txt"}}, p)

	assert.Contains(t, out, "This document is already indexed.")
	assert.Contains(t, out, "How many top results? [default=3]")
	assert.Contains(t, out, "No relevant results found.")
	assert.Equal(t, []query{{"first", 3}, {"second", 3}}, p.queries)
}

func TestRunNonPositiveTopKReportsError(t *testing.T) {
	p := &fakePipeline{}
	out := run(t, "1\nquestion\n0\nq\n", fakeCatalog{docs: []string{"a.txt"}}, p)

	assert.Contains(t, out, "top-k must be positive, got 0")
	assert.Equal(t, []query{{"question", 0}}, p.queries)
	assert.True(t, strings.HasSuffix(out, "Exiting. Bye!\n"))
}

func TestRunBlankQuestionReprompts(t *testing.T) {
	p := &fakePipeline{}
	out := run(t, "1\n   \n\nexit\n", fakeCatalog{docs: []string{"a.txt"}}, p)

	assert.Empty(t, p.queries)
	assert.Equal(t, 3, strings.Count(out, "Ask your question"))
}

func TestRunInvalidChoiceReprompts(t *testing.T) {
	p := &fakePipeline{}
	out := run(t, "7\nabc\n-1\n2\nexit\n", fakeCatalog{docs: []string{"a.txt", "b.txt"}}, p)

	assert.Equal(t, 3, strings.Count(out, "Please enter a number between 0 and 2."))
	require.Len(t, p.selected, 1)
	assert.Equal(t, "b.txt", p.selected[0].Name)
}

func TestRunExitAtSelection(t *testing.T) {
	p := &fakePipeline{}
	out := run(t, "0\n", fakeCatalog{docs: []string{"a.txt"}}, p)

	assert.Contains(t, out, "Exiting. Bye!")
	assert.Empty(t, p.selected)
}

func TestRunNoDocuments(t *testing.T) {
	p := &fakePipeline{}
	out := run(t, "", fakeCatalog{}, p)

	assert.Contains(t, out, "No documents found.")
	assert.NotContains(t, out, "Which document number")
}

func TestRunSelectFailureReturnsToSelection(t *testing.T) {
	p := &fakePipeline{selectErr: errs.Errorf(errs.KindUnsupportedFormat, "extract", "unsupported file type: a.pptx")}
	out := run(t, "1\n2\nexit\n", fakeCatalog{docs: []string{"a.pptx", "b.txt"}}, p)

	assert.Contains(t, out, "unsupported file type: a.pptx")
	assert.Equal(t, 2, strings.Count(out, "Available documents:"))
	require.Len(t, p.selected, 2)
	assert.Equal(t, "b.txt", p.selected[1].Name)
}

func TestRunEOFEndsSession(t *testing.T) {
	p := &fakePipeline{}
	out := run(t, "1\nlast question", fakeCatalog{docs: []string{"a.txt"}}, p)

	// EOF at the top-k prompt still runs the query with the default
	assert.Equal(t, []query{{"last question", 3}}, p.queries)
	assert.True(t, strings.HasSuffix(out, "Exiting. Bye!\n"))
}

func TestRunCatalogError(t *testing.T) {
	var out strings.Builder
	c := New(strings.NewReader(""), &out, fakeCatalog{err: errors.New("disk gone")}, &fakePipeline{}, 3, zaptest.NewLogger(t))
	assert.EqualError(t, c.Run(context.Background()), "disk gone")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	p := &fakePipeline{}
	c := New(strings.NewReader("1\nexit\n"), &out, fakeCatalog{docs: []string{"a.txt"}}, p, 3, zaptest.NewLogger(t))
	require.NoError(t, c.Run(ctx))
	assert.Empty(t, p.selected)
}
