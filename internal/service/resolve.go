package service

import (
	"context"
	"fmt"

	"docrag/internal/embedding"
	"docrag/internal/vectorstore"
)

// Status tells how a resolution ended.
type Status int

const (
	// StatusFound means at least one chunk of the document matched.
	StatusFound Status = iota
	// StatusNotBuilt means the index holds no chunks at all.
	StatusNotBuilt
	// StatusNoMatch means none of the candidates belonged to the document.
	StatusNoMatch
)

func (st Status) String() string {
	switch st {
	case StatusFound:
		return "found"
	case StatusNotBuilt:
		return "not_built"
	case StatusNoMatch:
		return "no_match"
	default:
		return fmt.Sprintf("status(%d)", int(st))
	}
}

// MarshalText renders the status name in JSON responses.
func (st Status) MarshalText() ([]byte, error) { return []byte(st.String()), nil }

// Placeholder texts that stand in for context when nothing was found.
const (
	NotBuiltMessage = "The index has not been built yet. Upload at least one document first."
	NoMatchMessage  = "No matching excerpt was found in this document."
)

// Match is one retrieved chunk.
type Match struct {
	ChunkID  int     `json:"chunk_id"`
	Distance float64 `json:"distance"`
	Text     string  `json:"text"`
}

// Resolution is the outcome of Resolve. Matches are ordered by ascending
// distance to the query and are only set when Status is StatusFound.
type Resolution struct {
	Status  Status  `json:"status"`
	Matches []Match `json:"matches,omitempty"`
}

// Context returns the texts handed to an answerer: the matched chunk
// texts, or a single placeholder message when nothing was found.
func (r Resolution) Context() []string {
	switch r.Status {
	case StatusNotBuilt:
		return []string{NotBuiltMessage}
	case StatusNoMatch:
		return []string{NoMatchMessage}
	}
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Text
	}
	return out
}

// Resolve returns up to topK chunks of documentID closest to query. A
// non-positive topK selects the configured default. An empty index and a
// document without matching candidates are reported through Status, not
// as errors; the embedder is not called when the index is empty.
func (s *Service) Resolve(ctx context.Context, query string, documentID int64, topK int) (Resolution, error) {
	if topK <= 0 {
		topK = s.topK
	}
	if s.store.Len() == 0 {
		return Resolution{Status: StatusNotBuilt}, nil
	}

	vec, err := embedding.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Status: StatusNoMatch}
	err = s.store.View(func(snap vectorstore.Snapshot) error {
		if snap.Index.Len() == 0 {
			res.Status = StatusNotBuilt
			return nil
		}
		hits, err := snap.Index.Search(vec, candidates(topK, s.overfetch, snap.Index.Len()))
		if err != nil {
			return err
		}
		for _, h := range hits {
			e, err := snap.Registry.Get(h.ID)
			if err != nil {
				return err
			}
			if e.DocumentID != documentID {
				continue
			}
			res.Matches = append(res.Matches, Match{ChunkID: h.ID, Distance: h.Distance, Text: e.Text})
			if len(res.Matches) == topK {
				break
			}
		}
		return nil
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("service: resolve: %w", err)
	}
	if len(res.Matches) > 0 {
		res.Status = StatusFound
	}

	s.logger.Debug("resolved", "document_id", documentID, "top_k", topK,
		"status", res.Status.String(), "matches", len(res.Matches))
	return res, nil
}

// candidates returns topK*overfetch capped at n without overflowing.
func candidates(topK, overfetch, n int) int {
	if topK > n/overfetch {
		return n
	}
	return min(topK*overfetch, n)
}
