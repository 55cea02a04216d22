package domain

import (
	"context"
	"errors"
	"time"
)

// Document is an uploaded file together with its extracted text.
// Documents are owned by the DocumentStore; the retrieval core only
// consumes ID and Text.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Chunk is a bounded slice of a document's text, the unit of embedding
// and retrieval. Index is the chunk's position within its document.
type Chunk struct {
	DocumentID int64
	Index      int
	Text       string
}

// Question is one answered question kept in the history.
type Question struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Context    []string  `json:"context"`
	Model      string    `json:"model"`
	AskedAt    time.Time `json:"asked_at"`
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) []Chunk
}

// Embedder converts free text into fixed-dimension dense vectors.
// Implementations must be deterministic for a fixed model and must
// return exactly one vector per input, in input order.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Answerer generates an answer to a question from retrieved context.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, question string, context []string) (string, error)
}

// DocumentStore persists documents and the question history.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc Document) (Document, error)
	GetDocument(ctx context.Context, id int64) (Document, error)
	DocumentText(ctx context.Context, id int64) (string, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	SaveQuestion(ctx context.Context, q Question) (Question, error)
	ListQuestions(ctx context.Context, documentID int64) ([]Question, error)
}

// Sentinel errors shared across packages.
var (
	// ErrNotFound is returned when a document, question or registry entry
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmbedding is returned when the embedding provider could not
	// vectorize its input. Nothing is indexed when it occurs.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexUnavailable is returned when the persisted index is missing,
	// unreadable or inconsistent.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrStorageIO is returned when persisting or loading index files fails.
	ErrStorageIO = errors.New("storage i/o failed")

	// ErrDimensionMismatch is returned when a vector does not have the
	// index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
