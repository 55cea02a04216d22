// Package service ties the retrieval core together: it indexes documents
// into the vector store, resolves questions to the most relevant chunks of
// one document, rebuilds the whole index, and records answered questions.
package service

import (
	"fmt"
	"log/slog"
	"sync"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

const (
	// DefaultTopK is the number of chunks Resolve returns when the caller
	// does not ask for a specific amount.
	DefaultTopK = 3
	// DefaultOverfetchFactor multiplies topK for the global search before
	// results are filtered down to one document.
	DefaultOverfetchFactor = 5
	// previewChars is the length of the text preview returned by Ingest.
	previewChars = 500
)

// Service is the retrieval service. It is safe for concurrent use.
type Service struct {
	// indexMu serializes incremental indexing with RebuildAll.
	indexMu sync.Mutex

	chunker   domain.Chunker
	embedder  domain.Embedder
	store     *vectorstore.Store
	documents domain.DocumentStore
	answerer  domain.Answerer
	summary   domain.Summarizer
	logger    *slog.Logger

	summarySentences int

	topK      int
	overfetch int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultTopK overrides DefaultTopK. Non-positive values are ignored.
func WithDefaultTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithOverfetchFactor overrides DefaultOverfetchFactor. Values below 1 are
// ignored.
func WithOverfetchFactor(f int) Option {
	return func(s *Service) {
		if f >= 1 {
			s.overfetch = f
		}
	}
}

// WithDocuments attaches the document store used by Ingest, RebuildAll,
// IndexStoredDocument and the question history.
func WithDocuments(d domain.DocumentStore) Option {
	return func(s *Service) { s.documents = d }
}

// WithAnswerer attaches the answerer used by Ask.
func WithAnswerer(a domain.Answerer) Option {
	return func(s *Service) { s.answerer = a }
}

// WithSummarizer makes Ingest return a summary of up to maxSentences
// sentences of every uploaded document.
func WithSummarizer(sum domain.Summarizer, maxSentences int) Option {
	return func(s *Service) {
		s.summary = sum
		s.summarySentences = maxSentences
	}
}

// New creates a Service. The embedder must produce vectors of the store's
// dimension.
func New(chunker domain.Chunker, embedder domain.Embedder, store *vectorstore.Store, opts ...Option) (*Service, error) {
	if embedder.Dimension() != store.Dim() {
		return nil, fmt.Errorf("service: embedder %s has dimension %d but index expects %d: %w",
			embedder.Name(), embedder.Dimension(), store.Dim(), domain.ErrDimensionMismatch)
	}
	s := &Service{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		logger:    slog.Default(),
		topK:      DefaultTopK,
		overfetch: DefaultOverfetchFactor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Stats describes the current index.
type Stats struct {
	Chunks     int    `json:"chunks"`
	Dimension  int    `json:"dimension"`
	Generation uint64 `json:"generation"`
	Embedder   string `json:"embedder"`
	Answerer   string `json:"answerer,omitempty"`
}

// Stats reports index size and the configured providers.
func (s *Service) Stats() Stats {
	st := Stats{
		Chunks:     s.store.Len(),
		Dimension:  s.store.Dim(),
		Generation: s.store.Generation(),
		Embedder:   s.embedder.Name(),
	}
	if s.answerer != nil {
		st.Answerer = s.answerer.Name()
	}
	return st
}

func (s *Service) requireDocuments() error {
	if s.documents == nil {
		return fmt.Errorf("service: no document store configured")
	}
	return nil
}
