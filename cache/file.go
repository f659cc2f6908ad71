package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DirName is the directory created under the user cache directory.
const DirName = "zimbra-autodiscover"

// FileBackend stores each domain as <dir>/<domain>.json.
// Writes go to a temporary file that is renamed into place, so readers
// never see a half-written entry.
type FileBackend struct {
	dir string
}

// NewFileBackend stores entries in dir, or in the per-user cache directory
// when dir is empty.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache: locate user cache dir: %w", err)
		}
		dir = filepath.Join(base, DirName)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory entries are stored in.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(domain string) string {
	return filepath.Join(b.dir, domain+".json")
}

func (b *FileBackend) Get(_ context.Context, domain string) ([]byte, error) {
	data, err := os.ReadFile(b.path(domain))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	return data, err
}

// Put ignores ttl; freshness is decided from the stored timestamp.
func (b *FileBackend) Put(_ context.Context, domain string, data []byte, _ time.Duration) error {
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, domain+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(domain))
}

func (b *FileBackend) Delete(_ context.Context, domain string) error {
	err := os.Remove(b.path(domain))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
