package commands

import (
	"errors"
	"fmt"

	"docrag/internal/answer"
	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/documents"
	"docrag/internal/domain"
	"docrag/internal/embedding/hash"
	"docrag/internal/embedding/openai"
	"docrag/internal/service"
	"docrag/internal/summarizer"
	"docrag/internal/vectorstore"
)

// app holds the components shared by every command.
type app struct {
	cfg   *config.AppConfig
	docs  *documents.BoltStore
	store *vectorstore.Store
	svc   *service.Service
}

// openApp assembles the service from globalConfig. A persisted index that
// cannot be loaded is reported and replaced by an empty one, so documents
// stay reachable and `docrag reindex` can recover.
func openApp() (*app, error) {
	cfg := globalConfig

	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	ans, err := newAnswerer(cfg.Answerer)
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.Open(cfg.Index.Dir, emb.Dimension(), vectorstore.WithLogger(logger))
	if errors.Is(err, domain.ErrIndexUnavailable) {
		logger.Warn("index unavailable, starting empty; run `docrag reindex` to rebuild", "dir", cfg.Index.Dir, "error", err)
		store, err = vectorstore.New(cfg.Index.Dir, emb.Dimension(), vectorstore.WithLogger(logger))
	}
	if err != nil {
		return nil, err
	}

	docs, err := documents.Open(cfg.Documents.DBPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc, err := service.New(chunker.NewLineChunker(cfg.Chunker.MaxChars), emb, store,
		service.WithLogger(logger),
		service.WithDefaultTopK(cfg.Index.DefaultTopK),
		service.WithOverfetchFactor(cfg.Index.OverfetchFactor),
		service.WithDocuments(docs),
		service.WithAnswerer(ans),
		service.WithSummarizer(summarizer.NewFrequencySummarizer(), cfg.Answerer.MaxSentences),
	)
	if err != nil {
		docs.Close()
		store.Close()
		return nil, err
	}
	return &app{cfg: cfg, docs: docs, store: store, svc: svc}, nil
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.docs.Close())
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hash":
		return hash.NewEmbedder(cfg.Dimension), nil
	case "openai":
		o := cfg.OpenAI
		e, err := openai.NewEmbedder(openai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Dimension: cfg.Dimension,
			Timeout:   o.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newAnswerer(cfg config.AnswererConfig) (domain.Answerer, error) {
	switch cfg.Type {
	case "extractive":
		return answer.NewExtractive(cfg.MaxSentences), nil
	case "openai":
		o := cfg.OpenAI
		a, err := answer.NewOpenAI(answer.OpenAIConfig{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   o.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown answerer: %s", cfg.Type)
	}
}
