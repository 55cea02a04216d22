package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"docrag/internal/domain"
)

// DefaultMaxChars is the soft chunk size limit used when none is given.
const DefaultMaxChars = 500

// LineChunker splits text into chunks of whole lines, keeping each chunk
// under MaxChars code points where possible.
type LineChunker struct {
	MaxChars int
}

// NewLineChunker returns a LineChunker. A non-positive maxChars selects
// DefaultMaxChars.
func NewLineChunker(maxChars int) *LineChunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &LineChunker{MaxChars: maxChars}
}

// Chunk splits the document text and tags every piece with the document id
// and its position.
func (c *LineChunker) Chunk(document domain.Document) []domain.Chunk {
	texts := Split(document.Text, c.MaxChars)
	if len(texts) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{DocumentID: document.ID, Index: i, Text: text}
	}
	return chunks
}

// Split accumulates right-trimmed lines, each followed by one space, into a
// buffer. A line that would bring the buffer to maxChars or beyond closes the
// current chunk and starts the next one. The limit is soft: a single line
// longer than maxChars becomes its own chunk. Blank lines are skipped.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	flush := func() {
		if bufLen == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSuffix(buf.String(), " "))
		buf.Reset()
		bufLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		n := utf8.RuneCountInString(line)
		if bufLen > 0 && bufLen+n >= maxChars {
			flush()
		}
		buf.WriteString(line)
		buf.WriteByte(' ')
		bufLen += n + 1
	}
	flush()
	return chunks
}
