package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newChatServer(t *testing.T, reply string, got *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, m := range req.Messages {
			*got = append(*got, m.Role+": "+m.Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func TestOpenAIAnswer(t *testing.T) {
	var messages []string
	srv := newChatServer(t, "  Twelve months.  ", &messages)
	defer srv.Close()

	t.Setenv("DOCRAG_TEST_KEY", "sk-test")
	a, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKeyEnv: "DOCRAG_TEST_KEY"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "openai/"+DefaultChatModel {
		t.Errorf("Name() = %q", a.Name())
	}

	got, err := a.Answer(context.Background(), "How long is the warranty?", []string{"Warranty: 12 months.", "Returns: 14 days."})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Twelve months." {
		t.Fatalf("answer = %q", got)
	}
	if len(messages) != 2 || !strings.HasPrefix(messages[0], "system: ") {
		t.Fatalf("messages = %q", messages)
	}
	user := messages[1]
	for _, want := range []string{"[1] Warranty: 12 months.", "[2] Returns: 14 days.", "Question: How long is the warranty?"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestOpenAIEmptyReply(t *testing.T) {
	var messages []string
	srv := newChatServer(t, "   ", &messages)
	defer srv.Close()

	t.Setenv("DOCRAG_TEST_KEY", "sk-test")
	a, _ := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKeyEnv: "DOCRAG_TEST_KEY"})
	if _, err := a.Answer(context.Background(), "q", []string{"x"}); err != ErrEmptyAnswer {
		t.Fatalf("err = %v, want ErrEmptyAnswer", err)
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	t.Setenv("DOCRAG_TEST_KEY", "")
	if _, err := NewOpenAI(OpenAIConfig{APIKeyEnv: "DOCRAG_TEST_KEY"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestExtractiveAnswer(t *testing.T) {
	a := NewExtractive(1)
	got, err := a.Answer(context.Background(), "When is the invoice due?", []string{
		"Shipping takes five days. Packages are tracked.",
		"The invoice is due at the end of March.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "The invoice is due at the end of March." {
		t.Fatalf("answer = %q", got)
	}
	if a.Name() != "extractive" {
		t.Errorf("Name() = %q", a.Name())
	}
}
