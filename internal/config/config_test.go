package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docrag.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedder.Type != "hash" || cfg.Chunker.MaxChars != 500 || cfg.Index.DefaultTopK != 3 || cfg.Index.OverfetchFactor != 5 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFillsZeroValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, "index:\n  dir: /var/lib/docrag\nchunker:\n  max_chars: 200\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.Dir != "/var/lib/docrag" || cfg.Chunker.MaxChars != 200 {
		t.Errorf("explicit values lost: %+v", cfg)
	}
	if cfg.Index.DefaultTopK != 3 || cfg.Embedder.Dimension != 384 || cfg.Server.Addr != ":8080" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadOpenAIDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "embedder:\n  type: openai\nanswerer:\n  type: openai\n  openai:\n    model: my-model\n"))
	if err != nil {
		t.Fatal(err)
	}
	e := cfg.Embedder.OpenAI
	if e == nil || e.APIKeyEnv != "OPENAI_API_KEY" || e.Model != "text-embedding-3-small" || cfg.Embedder.Dimension != 1536 {
		t.Fatalf("embedder = %+v %+v", cfg.Embedder, e)
	}
	a := cfg.Answerer.OpenAI
	if a.Model != "my-model" || a.TimeoutSecs != 60 || a.Timeout().Seconds() != 60 {
		t.Fatalf("answerer openai = %+v", a)
	}
}

func TestLoadRejectsUnknownTypes(t *testing.T) {
	for _, body := range []string{
		"embedder:\n  type: word2vec\n",
		"answerer:\n  type: oracle\n",
		"chunker:\n  type: sentence\n",
		"embedder: [",
	} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("Load(%q) succeeded", body)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Addr = "127.0.0.1:9000"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "overfetch_factor: 5") {
		t.Errorf("saved yaml missing keys:\n%s", data)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", got.Server.Addr)
	}
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(home, ".config", "docrag", "config.yaml") {
		t.Fatalf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
	if cfg.Answerer.Type != "extractive" {
		t.Errorf("answerer = %q", cfg.Answerer.Type)
	}

	if err := os.WriteFile("docrag.yaml", []byte("server:\n  addr: :7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err = LoadDefault()
	if err != nil || path != "docrag.yaml" || cfg.Server.Addr != ":7000" {
		t.Fatalf("cwd config: %v %q %+v", err, path, cfg.Server)
	}
}
