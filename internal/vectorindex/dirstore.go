package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"gopherai-rag/internal/ragerr"
)

const (
	manifestFile   = "manifest.json"
	entriesFile    = "entries.json"
	lockRetryDelay = 10 * time.Millisecond
)

// DirStore keeps an index as manifest.json and entries.json inside a directory.
// Save writes a sibling staging directory and swaps it in under an exclusive
// file lock; Load holds a shared lock so it never observes a half-swapped index.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: filepath.Clean(dir)}
}

func (s *DirStore) Describe() string {
	return "dir:" + s.dir
}

func (s *DirStore) lock() *flock.Flock {
	return flock.New(s.dir + ".lock")
}

func (s *DirStore) Save(ctx context.Context, idx *Index) error {
	if idx == nil {
		return fmt.Errorf("%w: nil index", ragerr.ErrInvalidInput)
	}
	parent := filepath.Dir(s.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create index parent directory failed: %w", err)
	}

	lk := s.lock()
	if err := lk.Lock(); err != nil {
		return fmt.Errorf("lock index failed: %w", err)
	}
	defer lk.Unlock()

	staging, err := os.MkdirTemp(parent, filepath.Base(s.dir)+".staging-*")
	if err != nil {
		return fmt.Errorf("create staging directory failed: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeJSON(filepath.Join(staging, entriesFile), idx.entries); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(staging, manifestFile), idx.manifest); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove previous index failed: %w", err)
	}
	if err := os.Rename(staging, s.dir); err != nil {
		return fmt.Errorf("swap index directory failed: %w", err)
	}
	return nil
}

func (s *DirStore) Load(ctx context.Context) (*Index, error) {
	lk := s.lock()
	if _, err := lk.TryRLockContext(ctx, lockRetryDelay); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no index at %s", ragerr.ErrIndexNotFound, s.dir)
		}
		return nil, fmt.Errorf("lock index failed: %w", err)
	}
	defer lk.Unlock()

	if _, err := os.Stat(filepath.Join(s.dir, manifestFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no index at %s", ragerr.ErrIndexNotFound, s.dir)
		}
		return nil, fmt.Errorf("%w: %v", ragerr.ErrIndexNotFound, err)
	}

	var manifest Manifest
	if err := readJSON(filepath.Join(s.dir, manifestFile), &manifest); err != nil {
		return nil, err
	}
	var entries []Entry
	if err := readJSON(filepath.Join(s.dir, entriesFile), &entries); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Restore(manifest, entries)
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s failed: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ragerr.ErrIndexNotFound, filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: corrupt %s: %v", ragerr.ErrIndexNotFound, filepath.Base(path), err)
	}
	return nil
}
