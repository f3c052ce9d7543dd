// Package embed provides the embedding capability: text in, fixed-dimension
// float vectors out.
package embed

import (
	"context"
	"fmt"
	"math"
)

// Embedder converts text into vectors. All vectors from one Embedder share
// the same dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one call and returns vectors in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model.
	Model() string
}

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Options configures New.
type Options struct {
	Provider      string
	Model         string
	OllamaURL     string
	OpenAIKey     string
	OpenAIBaseURL string
	HashDimension int
}

// New builds the embedder selected by opts.Provider.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case ProviderOllama, "":
		return NewOllamaEmbedder(opts.Model, opts.OllamaURL), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(opts.OpenAIKey, opts.Model, opts.OpenAIBaseURL)
	case ProviderHash:
		return NewHashEmbedder(opts.HashDimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}

// l2normalize scales v to unit length in place.
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
