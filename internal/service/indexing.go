package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/vectorstore"
)

// IndexDocument chunks text, embeds the chunks and appends them to the
// index under documentID. It returns the number of chunks added; a text
// without chunks adds nothing and returns 0. On failure the index is
// unchanged.
func (s *Service) IndexDocument(ctx context.Context, documentID int64, text string) (int, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.indexDocument(ctx, documentID, text)
}

func (s *Service) indexDocument(ctx context.Context, documentID int64, text string) (int, error) {
	entries, vectors, err := s.embedDocument(ctx, documentID, text)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	first, err := s.store.Append(entries, vectors)
	if err != nil {
		return 0, fmt.Errorf("service: index document %d: %w", documentID, err)
	}
	s.logger.Info("document indexed", "document_id", documentID, "chunks", len(entries), "first_id", first)
	return len(entries), nil
}

// IndexStoredDocument indexes a document already held by the document store.
func (s *Service) IndexStoredDocument(ctx context.Context, documentID int64) (int, error) {
	if err := s.requireDocuments(); err != nil {
		return 0, err
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	text, err := s.documents.DocumentText(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return s.indexDocument(ctx, documentID, text)
}

func (s *Service) embedDocument(ctx context.Context, documentID int64, text string) ([]vectorstore.Entry, [][]float32, error) {
	chunks := s.chunker.Chunk(domain.Document{ID: documentID, Text: text})
	if len(chunks) == 0 {
		return nil, nil, nil
	}
	texts := make([]string, len(chunks))
	entries := make([]vectorstore.Entry, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		entries[i] = vectorstore.Entry{DocumentID: documentID, Text: c.Text}
	}
	vectors, err := embedding.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("service: document %d: %w", documentID, err)
	}
	return entries, vectors, nil
}

// Upload is a received file whose text has already been extracted.
type Upload struct {
	Filename string
	Path     string
	Text     string
}

// IngestResult reports a completed upload.
type IngestResult struct {
	Document domain.Document `json:"document"`
	Chunks   int             `json:"chunks"`
	Preview  string          `json:"preview"`
	Summary  string          `json:"summary,omitempty"`
}

// Ingest stores the upload as a new document and indexes it. If indexing
// fails the document is deleted again so the two never disagree.
func (s *Service) Ingest(ctx context.Context, up Upload) (IngestResult, error) {
	if err := s.requireDocuments(); err != nil {
		return IngestResult{}, err
	}
	doc, n, err := s.storeAndIndex(ctx, up)
	if err != nil {
		return IngestResult{}, err
	}
	res := IngestResult{Document: doc, Chunks: n, Preview: preview(doc.Text, previewChars)}
	if s.summary != nil {
		// The document is already indexed; a summary is a convenience.
		if res.Summary, err = s.summary.Summarize(doc.Text, s.summarySentences); err != nil {
			s.logger.Warn("summarize document", "document_id", doc.ID, "error", err)
		}
	}
	return res, nil
}

// storeAndIndex creates the document row and indexes it under indexMu, so
// RebuildAll sees either both or neither.
func (s *Service) storeAndIndex(ctx context.Context, up Upload) (domain.Document, int, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	doc, err := s.documents.CreateDocument(ctx, domain.Document{
		Filename:   up.Filename,
		Path:       up.Path,
		Text:       up.Text,
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Document{}, 0, fmt.Errorf("service: store document: %w", err)
	}

	n, err := s.indexDocument(ctx, doc.ID, doc.Text)
	if err != nil {
		// Use a fresh context: ctx may be the reason indexing failed.
		if derr := s.documents.DeleteDocument(context.WithoutCancel(ctx), doc.ID); derr != nil {
			err = errors.Join(err, fmt.Errorf("service: roll back document %d: %w", doc.ID, derr))
		}
		return domain.Document{}, 0, err
	}
	return doc, n, nil
}

// RebuildAll discards the index and re-indexes every stored document in id
// order. If any document fails the previous index stays live. It returns
// the total number of chunks indexed.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	if err := s.requireDocuments(); err != nil {
		return 0, err
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	started := time.Now()
	docs, err := s.documents.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: list documents: %w", err)
	}

	n, err := s.store.Rebuild(ctx, func(b *vectorstore.Builder) error {
		for _, d := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, vectors, err := s.embedDocument(ctx, d.ID, d.Text)
			if err != nil {
				return err
			}
			if err := b.Add(entries, vectors); err != nil {
				return fmt.Errorf("service: document %d: %w", d.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("service: rebuild: %w", err)
	}
	s.logger.Info("index rebuilt", "documents", len(docs), "chunks", n, "took", time.Since(started))
	return n, nil
}

func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
