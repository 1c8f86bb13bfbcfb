package lockfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pinlock-dev/pinlock/internal/application/ports"
	"github.com/pinlock-dev/pinlock/internal/domain/entities"
)

// FileStore persists lockfiles on the local filesystem. Saves are atomic:
// the document is written to a temp file in the target directory and
// renamed into place, so a failed run can never leave behind a truncated
// or half-updated lockfile.
type FileStore struct {
	codec *Codec
}

var _ ports.LockfileStore = (*FileStore)(nil)

// NewFileStore creates a new file-backed lockfile store.
func NewFileStore() *FileStore {
	return &FileStore{codec: NewCodec()}
}

// Load reads a lockfile. A missing file is not an error; it means a first
// run and returns nil, nil.
func (s *FileStore) Load(_ context.Context, path string) (*entities.Lockfile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening lockfile: %w", err)
	}
	defer func() {
		_ = f.Close() // Best-effort cleanup
	}()

	lf, err := s.codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lf, nil
}

// Save writes the lockfile atomically.
func (s *FileStore) Save(_ context.Context, lf *entities.Lockfile, path string) error {
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, lf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pinlock-*")
	if err != nil {
		return fmt.Errorf("creating temp lockfile: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // No-op once the rename succeeded
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp lockfile: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting lockfile permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp lockfile: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing lockfile: %w", err)
	}
	return nil
}

// Exists checks if a lockfile exists at the given path.
func (s *FileStore) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
