// Package storage persists oracle answers on disk.
//
// The layout is <root>/<category>/<concept>, one file per answer holding the
// raw reply text. An entry is written at most once and is never overwritten,
// so a populated directory makes later crawls free of oracle calls.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// tempPrefix marks in-flight writes. Escaped segments never start with '.',
// so these never collide with an answer.
const tempPrefix = ".ontocrawl-"

// DefaultMemoryEntries is the default size of the in-memory read cache.
const DefaultMemoryEntries = 1024

// Entry describes a cached answer without its content.
type Entry struct {
	Key     Key
	Path    string
	Size    int64
	ModTime time.Time
}

// AnswerStore is a write-once, file-per-answer cache. It is safe for
// sequential use by one process; concurrent writers to the same root are
// not supported.
type AnswerStore struct {
	root   string
	memory *lru.Cache[Key, []byte]
	logger *slog.Logger
}

// StoreOption configures an AnswerStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	memoryEntries int
	logger        *slog.Logger
}

// WithMemoryEntries sets the in-memory read cache size. 0 disables it.
func WithMemoryEntries(n int) StoreOption {
	return func(o *storeOptions) {
		o.memoryEntries = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// NewAnswerStore opens (creating if needed) the cache rooted at root.
func NewAnswerStore(root string, opts ...StoreOption) (*AnswerStore, error) {
	o := storeOptions{memoryEntries: DefaultMemoryEntries, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if root == "" {
		return nil, fmt.Errorf("cache root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}

	s := &AnswerStore{root: root, logger: o.logger}
	if o.memoryEntries > 0 {
		memory, err := lru.New[Key, []byte](o.memoryEntries)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		s.memory = memory
	}
	return s, nil
}

// Root returns the cache directory.
func (s *AnswerStore) Root() string { return s.root }

// Path returns the file that holds the answer for key.
func (s *AnswerStore) Path(k Key) (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(s.root, EscapeSegment(k.Category), EscapeSegment(k.Concept)), nil
}

// Get returns the cached answer, or ErrNotFound.
func (s *AnswerStore) Get(k Key) ([]byte, error) {
	path, err := s.Path(k)
	if err != nil {
		return nil, err
	}
	if s.memory != nil {
		if data, ok := s.memory.Get(k); ok {
			return append([]byte(nil), data...), nil
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k, err)
	}

	if s.memory != nil {
		s.memory.Add(k, append([]byte(nil), data...))
	}
	return data, nil
}

// Exists reports whether an answer is cached for key.
func (s *AnswerStore) Exists(k Key) (bool, error) {
	path, err := s.Path(k)
	if err != nil {
		return false, err
	}
	if s.memory != nil && s.memory.Contains(k) {
		return true, nil
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", k, err)
	}
}

// Put stores data for key. The category directory is created if absent.
// The content is fully written to a temporary file and then hard-linked into
// place, so readers never observe a partial answer and an existing answer
// is never replaced (ErrExists).
func (s *AnswerStore) Put(k Key, data []byte) error {
	path, err := s.Path(k)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create category dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", k, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", k, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", k, err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", k, ErrExists)
		}
		return fmt.Errorf("commit %s: %w", k, err)
	}

	if s.memory != nil {
		s.memory.Add(k, append([]byte(nil), data...))
	}
	s.logger.Debug("Cached answer", "key", k.String(), "bytes", len(data))
	return nil
}

// Remove deletes the cached answer for key so the next crawl asks the
// oracle again. It returns ErrNotFound if nothing is cached.
func (s *AnswerStore) Remove(k Key) error {
	path, err := s.Path(k)
	if err != nil {
		return err
	}
	s.Forget(k)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", k, ErrNotFound)
		}
		return fmt.Errorf("remove %s: %w", k, err)
	}
	s.logger.Debug("Removed cached answer", "key", k.String())
	return nil
}

// Forget drops key from the in-memory cache so the next Get re-reads disk.
func (s *AnswerStore) Forget(k Key) {
	if s.memory != nil {
		s.memory.Remove(k)
	}
}

// KeyForPath maps a file under the root back to its key.
func (s *AnswerStore) KeyForPath(path string) (Key, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(filepath.Base(rel), tempPrefix) {
		return Key{}, fmt.Errorf("%w: temporary file %q", ErrInvalidKey, rel)
	}
	return ParseKey(rel)
}

// List returns the entries whose escaped "category/concept" path matches
// the doublestar pattern, sorted by path. An empty pattern matches all.
func (s *AnswerStore) List(pattern string) ([]Entry, error) {
	if pattern == "" {
		pattern = "*/*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(s.root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		k, err := ParseKey(m)
		if err != nil {
			continue
		}
		if strings.HasPrefix(path.Base(m), tempPrefix) {
			continue
		}
		full := filepath.Join(s.root, filepath.FromSlash(m))
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Key: k, Path: full, Size: info.Size(), ModTime: info.ModTime()})
	}
	return entries, nil
}
