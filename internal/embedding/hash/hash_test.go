package hash

import (
	"context"
	"math"
	"testing"
)

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder(64)
	a := e.Embed("The contract ends in December")
	b := NewEmbedder(64).Embed("The contract ends in December")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedNormalized(t *testing.T) {
	v := NewEmbedder(0).Embed("payment terms and invoice schedule")
	if len(v) != DefaultDimension {
		t.Fatalf("len = %d, want %d", len(v), DefaultDimension)
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("norm^2 = %v, want 1", sum)
	}
}

func TestEmbedEmptyIsZero(t *testing.T) {
	for _, text := range []string{"", "   ", "the and of", "!!!"} {
		v := NewEmbedder(16).Embed(text)
		for i, x := range v {
			if x != 0 {
				t.Fatalf("Embed(%q)[%d] = %v, want zero vector", text, i, x)
			}
		}
	}
}

func TestEmbedSimilarity(t *testing.T) {
	e := NewEmbedder(256)
	q := e.Embed("termination notice period")
	near := e.Embed("the termination notice period is thirty days")
	far := e.Embed("chocolate cake recipe with fresh strawberries")
	if dist(q, near) >= dist(q, far) {
		t.Errorf("expected related text to be closer: near=%v far=%v", dist(q, near), dist(q, far))
	}
}

func TestEmbedBatch(t *testing.T) {
	e := NewEmbedder(32)
	vecs, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 32 {
			t.Errorf("vector %d has len %d", i, len(v))
		}
	}
}

func TestEmbedBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEmbedder(8).EmbedBatch(ctx, []string{"x"}); err == nil {
		t.Fatal("expected context error")
	}
}

func dist(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}
