package domain

import "context"

// Chunk is a contiguous slice of a document's words, the unit of retrieval.
// ID is the ordinal position of the chunk and doubles as its row in the index.
type Chunk struct {
	ID        int
	Text      string
	WordCount int
}

// Hit is one nearest-neighbor match. Lower distance means more similar.
type Hit struct {
	ChunkID  int
	Distance float64
}

// Chunker splits raw document text into ordered chunks.
type Chunker interface {
	Chunk(text string) ([]Chunk, error)
}

// Embedder converts free text into a fixed-dimension vector.
type Embedder interface {
	Name() string
	// Dimension may be 0 until the first vector has been produced.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that can embed several texts per call.
// Output i must correspond to input i.
type BatchEmbedder interface {
	Embedder
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// CorpusFitter is implemented by embedders whose vector space depends on the
// document itself (e.g. a TF-IDF vocabulary). Fit returns a new embedder bound
// to the corpus and leaves the receiver untouched.
type CorpusFitter interface {
	Fit(corpus []string) (Embedder, error)
}

// Prompt is what the request layer hands to an answer generator.
type Prompt struct {
	System  string
	User    string
	Context string
}

// AnswerGenerator turns a prompt into a natural-language answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
