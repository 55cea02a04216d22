package vectorstore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"docrag/internal/domain"
)

func TestRegistryAppendGet(t *testing.T) {
	r := NewRegistry()
	if first := r.Append([]Entry{{DocumentID: 1, Text: "a"}, {DocumentID: 1, Text: "b"}}); first != 0 {
		t.Fatalf("first = %d, want 0", first)
	}
	if first := r.Append([]Entry{{DocumentID: 2, Text: "c"}}); first != 2 {
		t.Fatalf("first = %d, want 2", first)
	}
	e, err := r.Get(2)
	if err != nil || e.DocumentID != 2 || e.Text != "c" {
		t.Fatalf("Get(2) = %+v, %v", e, err)
	}
	if _, err := r.Get(3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(3) err = %v, want ErrNotFound", err)
	}
	if _, err := r.Get(-1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(-1) err = %v, want ErrNotFound", err)
	}

	entries := r.Entries()
	entries[0].Text = "mutated"
	if e, _ := r.Get(0); e.Text != "a" {
		t.Error("Entries returned registry storage")
	}
}

func TestRegistrySaveLoad(t *testing.T) {
	r := NewRegistry()
	r.Append([]Entry{{DocumentID: 7, Text: "Olá, mundo"}, {DocumentID: 9, Text: ""}})

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := LoadRegistry(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Fatalf("len = %d", got.Len())
	}
	if e, _ := got.Get(0); e != (Entry{DocumentID: 7, Text: "Olá, mundo"}) {
		t.Errorf("entry 0 = %+v", e)
	}
}

func TestLoadRegistryValidates(t *testing.T) {
	tests := []struct {
		name string
		file registryFile
	}{
		{"format", registryFile{Format: "other", Version: registryVersion}},
		{"version", registryFile{Format: registryFormat, Version: 2}},
		{"count", registryFile{Format: registryFormat, Version: registryVersion, Count: 2, Entries: []Entry{{DocumentID: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := msgpack.Marshal(&tt.file)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRegistry(bytes.NewReader(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := LoadRegistry(bytes.NewReader([]byte{0xc1})); err == nil {
		t.Error("garbage accepted")
	}
}
