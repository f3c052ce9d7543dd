package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "nomic-embed-text"

// OllamaEmbedder calls a local Ollama server. Single texts go through
// chromem's embedding function; EmbedBatch sends all texts to /api/embed in
// one request.
type OllamaEmbedder struct {
	model   string
	baseURL string
	fn      chromem.EmbeddingFunc
	client  *http.Client
}

func NewOllamaEmbedder(model, baseURL string) *OllamaEmbedder {
	if model == "" {
		model = DefaultOllamaModel
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &OllamaEmbedder{
		model:   model,
		baseURL: baseURL,
		fn:      chromem.NewEmbeddingFuncOllama(model, baseURL+"/api"),
		client:  &http.Client{},
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.fn(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return vec, nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{"model": e.model, "input": texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embed: status %d: %s", resp.StatusCode, string(msg))
	}

	var out struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama embed: failed to decode response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}
	for _, v := range out.Embeddings {
		l2normalize(v)
	}
	return out.Embeddings, nil
}

func (e *OllamaEmbedder) Model() string {
	return e.model
}

// EnsureModel checks that the Ollama server is reachable and pulls the
// embedding model when it is not installed yet.
func (e *OllamaEmbedder) EnsureModel(ctx context.Context, logger *zap.Logger) error {
	installed, err := e.hasModel(ctx)
	if err != nil {
		return fmt.Errorf("ollama is not running or not reachable at %s: %w", e.baseURL, err)
	}
	if installed {
		logger.Info("embedding model is available", zap.String("model", e.model))
		return nil
	}

	logger.Info("embedding model not found, pulling", zap.String("model", e.model))
	body, err := json.Marshal(map[string]any{"name": e.model, "stream": false})
	if err != nil {
		return fmt.Errorf("failed to marshal pull request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", e.model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to pull model %s: status %d: %s", e.model, resp.StatusCode, string(msg))
	}

	logger.Info("embedding model pulled", zap.String("model", e.model))
	return nil
}

func (e *OllamaEmbedder) hasModel(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("failed to decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, e.model) || sameModel(m.Model, e.model) {
			return true, nil
		}
	}
	return false, nil
}

// sameModel compares model names, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if !strings.Contains(a, ":") {
		a += ":latest"
	}
	if !strings.Contains(b, ":") {
		b += ":latest"
	}
	return a == b
}
