package chunker

// DefaultMaxTokens is the window size used when none is configured.
const DefaultMaxTokens = 100

// Chunker turns extracted document text into an ordered list of chunks.
type Chunker interface {
	// Chunk splits text into chunks. The result is deterministic for a given
	// input and configuration.
	Chunk(text string) ([]string, error)

	// Name returns the chunker name for logging.
	Name() string
}

// Config holds chunker parameters.
type Config struct {
	MaxTokens int // maximum whitespace-delimited tokens per chunk
}
