// Package answer produces answers to questions from retrieved document
// excerpts.
package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docrag/internal/domain"
)

// DefaultChatModel is used when OpenAIConfig.Model is empty.
const DefaultChatModel = "gpt-4o-mini"

const systemPrompt = "You answer questions about a single document. " +
	"Use only the numbered excerpts provided. " +
	"If they do not contain the answer, say that the document does not say."

// ErrEmptyAnswer is returned when the model replies without content.
var ErrEmptyAnswer = errors.New("answer: empty completion")

// OpenAIConfig configures the chat completion answerer.
type OpenAIConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration

	HTTPClient *http.Client
}

// OpenAI answers through an OpenAI-compatible chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ domain.Answerer = (*OpenAI)(nil)

// NewOpenAI creates a chat completion answerer.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("answer: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, model: cfg.Model}, nil
}

// Name returns "openai/<model>".
func (a *OpenAI) Name() string { return "openai/" + a.model }

// Answer asks the model to answer question from the given excerpts.
func (a *OpenAI) Answer(ctx context.Context, question string, excerpts []string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(question, excerpts)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("answer: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyAnswer
	}
	return content, nil
}

func userPrompt(question string, excerpts []string) string {
	var b strings.Builder
	b.WriteString("Excerpts:\n")
	for i, e := range excerpts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, e)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
