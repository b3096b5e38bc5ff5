// Package blobstore keeps note bodies on the local file system, addressed by
// their content pointer. The note store only ever holds the pointer.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/checksum"
)

// FS stores blobs as root/<first two hex chars>/<digest>.
type FS struct {
	root string // absolute path to blob directory
}

// NewFS creates a blob store rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("blobstore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("blobstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blobstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// path maps a pointer to its file. Only well-formed pointers resolve, so the
// result cannot leave root.
func (f *FS) path(pointer string) (string, error) {
	digest, err := checksum.ParsePointer(pointer)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.root, digest[:2], digest), nil
}

// Put copies r into the store and returns its pointer and size. Storing the
// same content twice yields the same pointer.
func (f *FS) Put(r io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(f.root, ".inscribe-tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("blobstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := checksum.NewHash()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		return "", 0, fmt.Errorf("blobstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", 0, fmt.Errorf("blobstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("blobstore: close temp: %w", err)
	}

	pointer := checksum.FromHash(h)
	abs, _ := f.path(pointer)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", 0, fmt.Errorf("blobstore: mkdir: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", 0, fmt.Errorf("blobstore: rename: %w", err)
	}
	success = true
	return pointer, n, nil
}

// Open returns the blob for pointer. Missing blobs wrap apperr.ErrNotFound.
func (f *FS) Open(pointer string) (*os.File, error) {
	abs, err := f.path(pointer)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blobstore: %s: %w", pointer, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", pointer, err)
	}
	return file, nil
}

// Read returns the whole blob for pointer.
func (f *FS) Read(pointer string) ([]byte, error) {
	file, err := f.Open(pointer)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", pointer, err)
	}
	return data, nil
}

// Has reports whether pointer is stored.
func (f *FS) Has(pointer string) (bool, error) {
	abs, err := f.path(pointer)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blobstore: stat %s: %w", pointer, err)
	}
	return true, nil
}
