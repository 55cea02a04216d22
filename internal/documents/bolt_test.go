package documents

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docrag/internal/domain"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "docrag.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocumentsCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.CreateDocument(ctx, domain.Document{Filename: "a.txt", Text: "alpha", UploadedAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.CreateDocument(ctx, domain.Document{Filename: "b.pdf", Text: "beta"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}

	got, err := s.GetDocument(ctx, 2)
	if err != nil || got.Filename != "b.pdf" {
		t.Fatalf("GetDocument(2) = %+v, %v", got, err)
	}
	text, err := s.DocumentText(ctx, 1)
	if err != nil || text != "alpha" {
		t.Fatalf("DocumentText(1) = %q, %v", text, err)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil || len(docs) != 2 || docs[0].ID != 1 || docs[1].ID != 2 {
		t.Fatalf("ListDocuments = %+v, %v", docs, err)
	}

	if err := s.DeleteDocument(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDocument(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted document err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDocument(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	// Ids are not reused after a delete.
	c, _ := s.CreateDocument(ctx, domain.Document{Filename: "c.txt"})
	if c.ID != 3 {
		t.Fatalf("id after delete = %d, want 3", c.ID)
	}
}

func TestQuestionsHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, q := range []domain.Question{
		{DocumentID: 1, Question: "q1", Answer: "a1", Context: []string{"c"}},
		{DocumentID: 2, Question: "q2"},
		{DocumentID: 1, Question: "q3"},
	} {
		if _, err := s.SaveQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListQuestions(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListQuestions(0) = %d, %v", len(all), err)
	}
	doc1, _ := s.ListQuestions(ctx, 1)
	if len(doc1) != 2 || doc1[0].Question != "q1" || doc1[1].Question != "q3" {
		t.Fatalf("ListQuestions(1) = %+v", doc1)
	}
	if doc1[0].ID != 1 || len(doc1[0].Context) != 1 {
		t.Errorf("first question = %+v", doc1[0])
	}
	none, _ := s.ListQuestions(ctx, 9)
	if len(none) != 0 {
		t.Errorf("ListQuestions(9) = %+v", none)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docrag.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.CreateDocument(ctx, domain.Document{Filename: "a.txt", Text: "alpha"})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	docs, _ := s.ListDocuments(ctx)
	if len(docs) != 1 || docs[0].Text != "alpha" {
		t.Fatalf("docs after reopen = %+v", docs)
	}
}

func TestCanceledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.CreateDocument(ctx, domain.Document{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
