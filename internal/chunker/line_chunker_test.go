package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"docrag/internal/domain"
)

func TestSplitJoinsShortLines(t *testing.T) {
	got := Split("Hello world\nSecond line", 500)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(got), got)
	}
	if got[0] != "Hello world Second line" {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplitEmpty(t *testing.T) {
	for _, in := range []string{"", "\n\n", "   \n\t\n"} {
		if got := Split(in, 500); len(got) != 0 {
			t.Errorf("Split(%q) = %q, want empty", in, got)
		}
	}
}

func TestSplitBoundary(t *testing.T) {
	// "aaaa " is 5 chars; adding "bbbb" makes 9, which reaches the limit.
	got := Split("aaaa\nbbbb", 9)
	want := []string{"aaaa", "bbbb"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}

	// One below the limit keeps both lines together.
	got = Split("aaaa\nbbbb", 10)
	if len(got) != 1 || got[0] != "aaaa bbbb" {
		t.Fatalf("got %q, want one joined chunk", got)
	}
}

func TestSplitOversizedLine(t *testing.T) {
	long := strings.Repeat("x", 40)
	got := Split("short\n"+long+"\ntail", 10)
	want := []string{"short", long, "tail"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplitOversizedFirstLine(t *testing.T) {
	long := strings.Repeat("y", 30)
	got := Split(long, 10)
	if len(got) != 1 || got[0] != long {
		t.Fatalf("got %q, want single oversized chunk", got)
	}
}

func TestSplitTrimsRight(t *testing.T) {
	got := Split("  indented  \r\nnext\t", 500)
	if len(got) != 1 || got[0] != "  indented next" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitCountsRunes(t *testing.T) {
	// Each line is 4 runes but 8 bytes.
	got := Split("ação\nñañá", 10)
	if len(got) != 1 {
		t.Fatalf("expected runes to be counted, got %q", got)
	}
}

func TestSplitDefaultLimit(t *testing.T) {
	line := strings.Repeat("z", 99)
	text := strings.Repeat(line+"\n", 12)
	a := Split(text, 0)
	b := Split(text, DefaultMaxChars)
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Fatal("non-positive limit should use the default")
	}
}

func TestSplitProperties(t *testing.T) {
	inputs := []string{
		"one\ntwo\nthree\nfour\nfive",
		strings.Repeat("the quick brown fox jumps\n", 60),
		"a\n\n\nb\n" + strings.Repeat("w", 700) + "\nc\nd",
		"lorem ipsum dolor sit amet\nconsectetur adipiscing elit\nsed do eiusmod tempor",
	}
	for _, limit := range []int{5, 20, 64, 500} {
		for _, in := range inputs {
			chunks := Split(in, limit)

			var lines []string
			for _, l := range strings.Split(in, "\n") {
				l = strings.TrimRight(l, " \t\r")
				if l != "" {
					lines = append(lines, l)
				}
			}
			if got, want := strings.Join(chunks, " "), strings.Join(lines, " "); got != want {
				t.Fatalf("limit %d: lines lost or duplicated\n got %q\nwant %q", limit, got, want)
			}

			for i, c := range chunks {
				if c == "" {
					t.Fatalf("limit %d: empty chunk at %d", limit, i)
				}
				// Multi-line chunks stay under the limit; only a single
				// oversized line may exceed it.
				if utf8.RuneCountInString(c) >= limit && !isSingleLine(c, lines) {
					t.Fatalf("limit %d: chunk %d exceeds bound: %q", limit, i, c)
				}
			}
		}
	}
}

func isSingleLine(chunk string, lines []string) bool {
	for _, l := range lines {
		if l == chunk {
			return true
		}
	}
	return false
}

func TestLineChunkerChunk(t *testing.T) {
	c := NewLineChunker(12)
	chunks := c.Chunk(domain.Document{ID: 7, Text: "alpha beta\ngamma delta\nepsilon"})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != 7 {
			t.Errorf("chunk %d document id = %d", i, ch.DocumentID)
		}
		if ch.Index != i {
			t.Errorf("chunk %d index = %d", i, ch.Index)
		}
	}
	if chunks[0].Text != "alpha beta" {
		t.Errorf("first chunk = %q", chunks[0].Text)
	}
}

func TestLineChunkerEmptyDocument(t *testing.T) {
	if got := NewLineChunker(0).Chunk(domain.Document{ID: 1}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
