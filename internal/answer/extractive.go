package answer

import (
	"context"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/summarizer"
)

// Extractive answers offline by quoting the excerpt sentences that best
// match the question.
type Extractive struct {
	summarizer   *summarizer.FrequencySummarizer
	maxSentences int
}

var _ domain.Answerer = (*Extractive)(nil)

// NewExtractive returns an extractive answerer quoting at most
// maxSentences sentences.
func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = summarizer.DefaultMaxSentences
	}
	return &Extractive{summarizer: summarizer.NewFrequencySummarizer(), maxSentences: maxSentences}
}

func (a *Extractive) Name() string { return "extractive" }

func (a *Extractive) Answer(ctx context.Context, question string, excerpts []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.summarizer.SummarizeFor(strings.Join(excerpts, "\n"), question, a.maxSentences)
}
