// Package documents persists uploaded documents and the question history
// in a bbolt database.
package documents

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

var (
	bucketDocuments = []byte("documents")
	bucketQuestions = []byte("questions")
)

// BoltStore implements domain.DocumentStore on top of bbolt. Keys are the
// record ids as 8-byte big-endian integers so cursors walk in id order.
type BoltStore struct {
	db *bbolt.DB
}

var _ domain.DocumentStore = (*BoltStore)(nil)

// Open opens or creates the database at path.
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("documents: create dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("documents: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDocuments, bucketQuestions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("documents: init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// CreateDocument assigns the next id to doc and stores it.
func (s *BoltStore) CreateDocument(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		doc.ID = int64(seq)
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return b.Put(itob(doc.ID), data)
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("documents: create: %w", err)
	}
	return doc, nil
}

// GetDocument returns the document with id or domain.ErrNotFound.
func (s *BoltStore) GetDocument(ctx context.Context, id int64) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get(itob(id))
		if data == nil {
			return fmt.Errorf("documents: document %d: %w", id, domain.ErrNotFound)
		}
		return json.Unmarshal(data, &doc)
	})
	if err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// DocumentText returns the extracted text of a document.
func (s *BoltStore) DocumentText(ctx context.Context, id int64) (string, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// ListDocuments returns every document in id order.
func (s *BoltStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(_, v []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("documents: list: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document. Its questions are kept.
func (s *BoltStore) DeleteDocument(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b.Get(itob(id)) == nil {
			return fmt.Errorf("documents: document %d: %w", id, domain.ErrNotFound)
		}
		return b.Delete(itob(id))
	})
}

// SaveQuestion assigns the next id to q and appends it to the history.
func (s *BoltStore) SaveQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return domain.Question{}, err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketQuestions)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		q.ID = int64(seq)
		data, err := json.Marshal(q)
		if err != nil {
			return err
		}
		return b.Put(itob(q.ID), data)
	})
	if err != nil {
		return domain.Question{}, fmt.Errorf("documents: save question: %w", err)
	}
	return q, nil
}

// ListQuestions returns the history in id order. A documentID of 0
// returns questions for every document.
func (s *BoltStore) ListQuestions(ctx context.Context, documentID int64) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Question
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQuestions).ForEach(func(_, v []byte) error {
			var q domain.Question
			if err := json.Unmarshal(v, &q); err != nil {
				return err
			}
			if documentID == 0 || q.DocumentID == documentID {
				out = append(out, q)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("documents: list questions: %w", err)
	}
	return out, nil
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
