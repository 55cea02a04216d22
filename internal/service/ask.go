package service

import (
	"context"
	"fmt"
	"time"

	"docrag/internal/domain"
)

// Ask resolves question against the document, asks the answerer when
// relevant chunks were found, and stores the exchange in the history. When
// nothing was found the placeholder message is the answer and the answerer
// is not called.
func (s *Service) Ask(ctx context.Context, documentID int64, question string, topK int) (domain.Question, error) {
	if err := s.requireDocuments(); err != nil {
		return domain.Question{}, err
	}
	if s.answerer == nil {
		return domain.Question{}, fmt.Errorf("service: no answerer configured")
	}
	if _, err := s.documents.GetDocument(ctx, documentID); err != nil {
		return domain.Question{}, err
	}

	res, err := s.Resolve(ctx, question, documentID, topK)
	if err != nil {
		return domain.Question{}, err
	}

	contextTexts := res.Context()
	q := domain.Question{
		DocumentID: documentID,
		Question:   question,
		Context:    contextTexts,
		AskedAt:    time.Now().UTC(),
	}
	if res.Status == StatusFound {
		answer, err := s.answerer.Answer(ctx, question, contextTexts)
		if err != nil {
			return domain.Question{}, fmt.Errorf("service: answer with %s: %w", s.answerer.Name(), err)
		}
		q.Answer = answer
		q.Model = s.answerer.Name()
	} else {
		q.Answer = contextTexts[0]
	}

	saved, err := s.documents.SaveQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, fmt.Errorf("service: save question: %w", err)
	}
	return saved, nil
}

// Questions lists the question history, optionally restricted to one
// document. A documentID of 0 lists every question.
func (s *Service) Questions(ctx context.Context, documentID int64) ([]domain.Question, error) {
	if err := s.requireDocuments(); err != nil {
		return nil, err
	}
	return s.documents.ListQuestions(ctx, documentID)
}

// Documents lists stored documents in id order.
func (s *Service) Documents(ctx context.Context) ([]domain.Document, error) {
	if err := s.requireDocuments(); err != nil {
		return nil, err
	}
	return s.documents.ListDocuments(ctx)
}

// Document returns one stored document.
func (s *Service) Document(ctx context.Context, id int64) (domain.Document, error) {
	if err := s.requireDocuments(); err != nil {
		return domain.Document{}, err
	}
	return s.documents.GetDocument(ctx, id)
}
