package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"docrag/internal/domain"
)

type stubEmbedder struct {
	dim  int
	vecs [][]float32
	err  error
}

func (s stubEmbedder) Name() string   { return "stub" }
func (s stubEmbedder) Dimension() int { return s.dim }
func (s stubEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return s.vecs, s.err
}

func TestEmbedAll(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name    string
		e       stubEmbedder
		texts   []string
		wantErr bool
	}{
		{"ok", stubEmbedder{dim: 2, vecs: [][]float32{{1, 2}, {3, 4}}}, []string{"a", "b"}, false},
		{"provider error", stubEmbedder{dim: 2, err: errors.New("boom")}, []string{"a"}, true},
		{"short batch", stubEmbedder{dim: 2, vecs: [][]float32{{1, 2}}}, []string{"a", "b"}, true},
		{"wrong dimension", stubEmbedder{dim: 3, vecs: [][]float32{{1, 2}}}, []string{"a"}, true},
		{"not finite", stubEmbedder{dim: 2, vecs: [][]float32{{nan, 0}}}, []string{"a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vecs, err := EmbedAll(context.Background(), tt.e, tt.texts)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrEmbedding) {
					t.Fatalf("err = %v, want ErrEmbedding", err)
				}
				if vecs != nil {
					t.Fatalf("expected no vectors on failure, got %v", vecs)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(vecs) != len(tt.texts) {
				t.Fatalf("got %d vectors", len(vecs))
			}
		})
	}
}

func TestEmbedAllEmpty(t *testing.T) {
	vecs, err := EmbedAll(context.Background(), stubEmbedder{err: errors.New("not called")}, nil)
	if err != nil || vecs != nil {
		t.Fatalf("got %v, %v", vecs, err)
	}
}

func TestEmbedOne(t *testing.T) {
	v, err := EmbedOne(context.Background(), stubEmbedder{dim: 1, vecs: [][]float32{{0.5}}}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 1 || v[0] != 0.5 {
		t.Fatalf("got %v", v)
	}
}
