// Package cli is the interactive terminal front end: pick a document, let the
// pipeline chunk and index it, then answer questions until the user quits.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"doc_chat/internal/app"
	"doc_chat/internal/index"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Catalog lists the documents available for selection.
type Catalog interface {
	Documents() ([]string, error)
	Document(name string) app.Document
}

// Pipeline is the retrieval session driven by the prompt loop.
type Pipeline interface {
	Select(ctx context.Context, doc app.Document) (app.Selection, error)
	Query(ctx context.Context, text string, topK int) ([]index.Result, error)
}

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	phase   lipgloss.Style
	ok      lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		heading: r.NewStyle().Bold(true),
		phase:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		info:    r.NewStyle().Foreground(lipgloss.Color("14")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// CLI reads answers line by line from in and writes prompts and results to
// out.
type CLI struct {
	scanner     *bufio.Scanner
	out         io.Writer
	catalog     Catalog
	pipeline    Pipeline
	defaultTopK int
	style       styles
	logger      *zap.Logger
}

func New(in io.Reader, out io.Writer, catalog Catalog, pipeline Pipeline, defaultTopK int, logger *zap.Logger) *CLI {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTopK <= 0 {
		defaultTopK = 3
	}

	scanner := bufio.NewScanner(in)
	// long questions or pasted paragraphs
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &CLI{
		scanner:     scanner,
		out:         out,
		catalog:     catalog,
		pipeline:    pipeline,
		defaultTopK: defaultTopK,
		style:       newStyles(out),
		logger:      logger,
	}
}

var errInputClosed = errors.New("input closed")

// Run drives one session. It returns nil when the user exits, input ends or
// ctx is cancelled.
func (c *CLI) Run(ctx context.Context) error {
	c.println(c.style.title.Render("VECTOR DOC CHAT - Unified CLI"))
	c.println("")

	docs, err := c.catalog.Documents()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		c.println(c.style.fail.Render("No documents found."))
		return nil
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		name, err := c.chooseDocument(docs)
		if errors.Is(err, errInputClosed) {
			return c.bye()
		}
		if err != nil {
			return err
		}
		if name == "" {
			return c.bye()
		}

		if err := c.selectDocument(ctx, name); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.println(c.style.fail.Render(err.Error()))
			continue
		}
		break
	}

	return c.searchLoop(ctx)
}

// chooseDocument lists docs and asks for an ordinal until one is valid. It
// returns "" when the user picks 0.
func (c *CLI) chooseDocument(docs []string) (string, error) {
	c.println(c.style.heading.Render("Available documents:"))
	c.println("0. Exit")
	for i, d := range docs {
		c.printf("%d. %s\n", i+1, d)
	}

	for {
		line, err := c.ask("\nWhich document number do you want to use? ")
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 0 || n > len(docs) {
			c.println(c.style.fail.Render(fmt.Sprintf("Please enter a number between 0 and %d.", len(docs))))
			continue
		}
		if n == 0 {
			return "", nil
		}
		return docs[n-1], nil
	}
}

func (c *CLI) selectDocument(ctx context.Context, name string) error {
	c.println(c.style.ok.Render("You selected: " + name))

	c.println("\n" + c.style.phase.Render("Chunking phase"))
	sel, err := c.pipeline.Select(ctx, c.catalog.Document(name))
	if err != nil {
		return err
	}
	c.println(c.style.ok.Render(fmt.Sprintf("%d chunks ready.", len(sel.Chunks))))

	c.println("\n" + c.style.phase.Render("Indexing phase"))
	if sel.AlreadyIndexed {
		c.println(c.style.info.Render("This document is already indexed."))
	} else {
		c.println(c.style.ok.Render(fmt.Sprintf("Stored %d embeddings.", len(sel.Chunks))))
	}
	return nil
}

func (c *CLI) searchLoop(ctx context.Context) error {
	c.println("\n" + c.style.phase.Render("Search phase"))

	for {
		if ctx.Err() != nil {
			return nil
		}

		question, err := c.ask("\nAsk your question (or type 'exit' to quit): ")
		if errors.Is(err, errInputClosed) {
			return c.bye()
		}
		if err != nil {
			return err
		}
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			return c.bye()
		}

		topK := c.defaultTopK
		answer, err := c.ask(fmt.Sprintf("How many top results? [default=%d]: ", c.defaultTopK))
		if err != nil && !errors.Is(err, errInputClosed) {
			return err
		}
		if n, convErr := strconv.Atoi(strings.TrimSpace(answer)); convErr == nil {
			topK = n
		}

		c.println(c.style.warn.Render(fmt.Sprintf("Embedding and searching top %d results...", topK)))
		results, qerr := c.pipeline.Query(ctx, question, topK)
		if qerr != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Debug("query failed", zap.Error(qerr))
			c.println(c.style.fail.Render(qerr.Error()))
		} else {
			c.printResults(results, topK)
		}

		if errors.Is(err, errInputClosed) {
			return c.bye()
		}
	}
}

func (c *CLI) printResults(results []index.Result, topK int) {
	if len(results) == 0 {
		c.println(c.style.fail.Render("No relevant results found."))
		return
	}
	c.println("\n" + c.style.ok.Bold(true).Render(fmt.Sprintf("Top %d Results:", topK)) + "\n")
	for i, r := range results {
		c.println(c.style.info.Render(fmt.Sprintf("%d. [Score: %.2f]", i+1, r.Score)))
		c.println(r.Text + "\n")
	}
}

// ask writes prompt and reads one line. It returns errInputClosed at EOF.
func (c *CLI) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", fmt.Errorf("stdin error: %w", err)
		}
		return "", errInputClosed
	}
	return c.scanner.Text(), nil
}

func (c *CLI) bye() error {
	c.println(c.style.fail.Render("Exiting. Bye!"))
	return nil
}

func (c *CLI) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
