// Package vectorstore holds the embedded chunks of every indexed document:
// an exact vector index, the registry mapping each vector back to its
// document and text, and the Store that keeps the two aligned in memory
// and on disk.
package vectorstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"docrag/internal/domain"
)

const (
	currentFile      = "CURRENT"
	indexFileName    = "index.bin"
	registryFileName = "registry.msgpack"
	genPrefix        = "gen-"
	tmpSuffix        = ".tmp"
)

// ErrClosed is returned by writes on a closed Store.
var ErrClosed = errors.New("vectorstore: store closed")

// Snapshot is a consistent read-only view of the index and registry.
// Index.Len() and Registry.Len() are always equal.
type Snapshot struct {
	Index    *FlatIndex
	Registry *Registry
}

// Store owns the vector index and chunk registry as a single resource.
// Writers are serialised and replace the pair atomically, in memory and on
// disk; readers see either the old or the new pair, never a mix.
type Store struct {
	dir    string
	dim    int
	logger *slog.Logger

	writeMu sync.Mutex // held for a whole Append or Rebuild

	mu       sync.RWMutex
	index    *FlatIndex
	registry *Registry
	gen      uint64 // highest generation seen in dir
	live     uint64 // generation CURRENT points at, 0 when nothing was loaded
	closed   bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an empty store persisting into dir. Existing data in dir is
// not loaded, but new generations are numbered after it so the files are
// never overwritten in place.
func New(dir string, dim int, opts ...Option) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vectorstore: invalid dimension %d", dim)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrStorageIO, dir, err)
	}
	s := &Store{
		dir:      dir,
		dim:      dim,
		logger:   slog.Default(),
		index:    NewFlatIndex(dim),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	gen, err := highestGeneration(dir)
	if err != nil {
		return nil, err
	}
	s.gen = gen
	return s, nil
}

// Open loads the generation named by dir/CURRENT. A directory without
// CURRENT yields an empty store. Unreadable, torn or wrong-dimension data
// is reported as domain.ErrIndexUnavailable.
func Open(dir string, dim int, opts ...Option) (*Store, error) {
	s, err := New(dir, dim, opts...)
	if err != nil {
		return nil, err
	}

	name, err := readCurrent(dir)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no persisted index", "dir", dir)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	gen, ok := parseGeneration(name)
	if !ok {
		return nil, fmt.Errorf("%w: CURRENT names %q", domain.ErrIndexUnavailable, name)
	}

	idx, reg, err := loadGeneration(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	if idx.Dim() != dim {
		return nil, fmt.Errorf("%w: %s: %w: stored %d, configured %d",
			domain.ErrIndexUnavailable, name, domain.ErrDimensionMismatch, idx.Dim(), dim)
	}
	if idx.Len() != reg.Len() {
		return nil, fmt.Errorf("%w: %s: index holds %d vectors, registry %d entries",
			domain.ErrIndexUnavailable, name, idx.Len(), reg.Len())
	}

	s.index, s.registry, s.live = idx, reg, gen
	s.logger.Info("index loaded", "dir", dir, "generation", gen, "vectors", idx.Len())
	return s, nil
}

func loadGeneration(dir string) (*FlatIndex, *Registry, error) {
	f, err := os.Open(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, nil, err
	}
	idx, err := LoadFlatIndex(f)
	f.Close()
	if err != nil {
		return nil, nil, err
	}

	f, err = os.Open(filepath.Join(dir, registryFileName))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	reg, err := LoadRegistry(bufio.NewReader(f))
	if err != nil {
		return nil, nil, err
	}
	return idx, reg, nil
}

// Dir returns the directory the store persists into.
func (s *Store) Dir() string { return s.dir }

// Dim returns the vector dimension.
func (s *Store) Dim() int { return s.dim }

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

// Generation returns the live on-disk generation, or 0 if nothing has been
// persisted or loaded yet.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// View calls fn with a consistent snapshot while holding the read lock.
// fn must not retain the snapshot or call back into the Store's writers.
func (s *Store) View(fn func(Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(Snapshot{Index: s.index, Registry: s.registry})
}

// Append adds entries with their vectors and returns the id assigned to
// the first one. On failure neither the live pair nor the files change.
func (s *Store) Append(entries []Entry, vectors [][]float32) (int, error) {
	if len(entries) != len(vectors) {
		return 0, fmt.Errorf("vectorstore: %d entries but %d vectors", len(entries), len(vectors))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Writers hold writeMu, so the live pair cannot change under us.
	s.mu.RLock()
	idx, reg, closed := s.index, s.registry, s.closed
	s.mu.RUnlock()
	if closed {
		return 0, ErrClosed
	}
	first := idx.Len()
	if len(entries) == 0 {
		return first, nil
	}

	nextIdx, err := idx.extended(vectors)
	if err != nil {
		return 0, err
	}
	nextReg := reg.extended(entries)

	if err := s.commit(nextIdx, nextReg); err != nil {
		return 0, err
	}
	return first, nil
}

// Builder accumulates a fresh index and registry during Rebuild.
type Builder struct {
	index    *FlatIndex
	registry *Registry
}

// Add appends entries with their vectors to the pair under construction.
func (b *Builder) Add(entries []Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("vectorstore: %d entries but %d vectors", len(entries), len(vectors))
	}
	if _, err := b.index.Add(vectors); err != nil {
		return err
	}
	b.registry.Append(entries)
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return b.registry.Len() }

// Rebuild replaces the whole store with the pair produced by fn. If fn or
// persisting fails, the previous pair stays live. Rebuild returns the
// number of entries in the new pair.
func (s *Store) Rebuild(ctx context.Context, fn func(*Builder) error) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return 0, ErrClosed
	}

	b := &Builder{index: NewFlatIndex(s.dim), registry: NewRegistry()}
	if err := fn(b); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.commit(b.index, b.registry); err != nil {
		return 0, err
	}
	return b.Len(), nil
}

// Close rejects further writes. Readers keep working on the last pair.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// commit persists the pair as a new generation and swaps it in. Callers
// hold writeMu.
func (s *Store) commit(idx *FlatIndex, reg *Registry) error {
	gen := s.gen + 1
	if err := s.persist(gen, idx, reg); err != nil {
		return err
	}

	s.mu.Lock()
	s.index, s.registry, s.gen, s.live = idx, reg, gen, gen
	s.mu.Unlock()

	s.logger.Debug("index persisted", "generation", gen, "vectors", idx.Len())
	s.removeStale(generationName(gen))
	return nil
}

func (s *Store) persist(gen uint64, idx *FlatIndex, reg *Registry) (err error) {
	name := generationName(gen)
	final := filepath.Join(s.dir, name)
	tmp := final + tmpSuffix

	published := false
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
			if published {
				os.RemoveAll(final)
			}
			err = fmt.Errorf("%w: generation %d: %w", domain.ErrStorageIO, gen, err)
		}
	}()

	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	if err := os.Mkdir(tmp, 0o755); err != nil {
		return err
	}
	if err := writeFileSync(filepath.Join(tmp, indexFileName), idx.Save); err != nil {
		return err
	}
	if err := writeFileSync(filepath.Join(tmp, registryFileName), reg.Save); err != nil {
		return err
	}
	if err := syncDir(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		return err
	}
	published = true

	current := filepath.Join(s.dir, currentFile)
	err = writeFileSync(current+tmpSuffix, func(w io.Writer) error {
		_, err := io.WriteString(w, name+"\n")
		return err
	})
	if err != nil {
		return err
	}
	if err := os.Rename(current+tmpSuffix, current); err != nil {
		return err
	}
	// CURRENT already names the new generation; only crash durability of
	// the rename is in doubt from here on.
	if err := syncDir(s.dir); err != nil {
		s.logger.Warn("sync index dir", "dir", s.dir, "error", err)
	}
	return nil
}

// removeStale deletes every generation except keep and any leftover
// temporaries. Failures only leave garbage behind, so they are logged.
func (s *Store) removeStale(keep string) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("list index dir", "dir", s.dir, "error", err)
		return
	}
	for _, e := range entries {
		n := e.Name()
		if n == keep || !(strings.HasPrefix(n, genPrefix) || strings.HasSuffix(n, tmpSuffix)) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, n)); err != nil {
			s.logger.Warn("remove stale index generation", "path", n, "error", err)
		}
	}
}

func writeFileSync(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func readCurrent(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, currentFile))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func generationName(gen uint64) string {
	return fmt.Sprintf("%s%08d", genPrefix, gen)
}

func parseGeneration(name string) (uint64, bool) {
	if !strings.HasPrefix(name, genPrefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(name, genPrefix), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func highestGeneration(dir string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: list %s: %w", domain.ErrStorageIO, dir, err)
	}
	var high uint64
	for _, e := range entries {
		if gen, ok := parseGeneration(strings.TrimSuffix(e.Name(), tmpSuffix)); ok && gen > high {
			high = gen
		}
	}
	return high, nil
}
