package vectorstore

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"docrag/internal/domain"
)

// Entry records which document a vector id came from and the chunk text
// that produced it. An entry's position in the Registry equals the id of
// its vector in the FlatIndex.
type Entry struct {
	DocumentID int64  `msgpack:"document_id"`
	Text       string `msgpack:"text"`
}

// Registry is the ordered list of chunk entries aligned with a FlatIndex.
type Registry struct {
	entries []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Append adds entries at the end and returns the id of the first one.
func (r *Registry) Append(entries []Entry) int {
	first := len(r.entries)
	r.entries = append(r.entries, entries...)
	return first
}

// Get returns the entry stored under id.
func (r *Registry) Get(id int) (Entry, error) {
	if id < 0 || id >= len(r.entries) {
		return Entry{}, fmt.Errorf("vectorstore: registry entry %d: %w", id, domain.ErrNotFound)
	}
	return r.entries[id], nil
}

// Entries returns a copy of all entries in id order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// extended returns a new registry with entries appended, leaving r as is.
func (r *Registry) extended(entries []Entry) *Registry {
	out := make([]Entry, len(r.entries), len(r.entries)+len(entries))
	copy(out, r.entries)
	return &Registry{entries: append(out, entries...)}
}

const (
	registryFormat  = "docrag.registry"
	registryVersion = 1
)

type registryFile struct {
	Format  string  `msgpack:"format"`
	Version int     `msgpack:"version"`
	Count   int     `msgpack:"count"`
	Entries []Entry `msgpack:"entries"`
}

// Save writes the registry to w as a msgpack document.
func (r *Registry) Save(w io.Writer) error {
	f := registryFile{
		Format:  registryFormat,
		Version: registryVersion,
		Count:   len(r.entries),
		Entries: r.entries,
	}
	if err := msgpack.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("vectorstore: save registry: %w", err)
	}
	return nil
}

// LoadRegistry reads a registry written by Save.
func LoadRegistry(rd io.Reader) (*Registry, error) {
	var f registryFile
	if err := msgpack.NewDecoder(rd).Decode(&f); err != nil {
		return nil, fmt.Errorf("vectorstore: load registry: %w", err)
	}
	if f.Format != registryFormat {
		return nil, fmt.Errorf("vectorstore: unexpected registry format %q", f.Format)
	}
	if f.Version != registryVersion {
		return nil, fmt.Errorf("vectorstore: unsupported registry version %d (want %d)", f.Version, registryVersion)
	}
	if f.Count != len(f.Entries) {
		return nil, fmt.Errorf("vectorstore: registry declares %d entries, holds %d", f.Count, len(f.Entries))
	}
	return &Registry{entries: f.Entries}, nil
}
