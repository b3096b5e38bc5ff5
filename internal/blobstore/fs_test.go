package blobstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/checksum"
)

func tempStore(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, fs
}

func TestPutAndRead(t *testing.T) {
	_, s := tempStore(t)
	content := []byte("# Hello\nWorld\n")
	ptr, n, err := s.Put(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ptr != checksum.Pointer(content) {
		t.Errorf("pointer = %q, want %q", ptr, checksum.Pointer(content))
	}
	if n != int64(len(content)) {
		t.Errorf("size = %d", n)
	}
	got, err := s.Read(ptr)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestPutIsIdempotent(t *testing.T) {
	dir, s := tempStore(t)
	p1, _, _ := s.Put(strings.NewReader("same"))
	p2, _, err := s.Put(strings.NewReader("same"))
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Errorf("pointers differ: %s vs %s", p1, p2)
	}
	digest, _ := checksum.ParsePointer(p1)
	if _, err := os.Stat(filepath.Join(dir, digest[:2], digest)); err != nil {
		t.Errorf("blob not at sharded path: %v", err)
	}
}

func TestNoTempFilesLeft(t *testing.T) {
	dir, s := tempStore(t)
	if _, _, err := s.Put(strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".inscribe-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("temp files left: %v", matches)
	}
}

func TestMissingBlob(t *testing.T) {
	_, s := tempStore(t)
	ptr := checksum.Pointer([]byte("never stored"))
	if _, err := s.Read(ptr); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read = %v, want ErrNotFound", err)
	}
	ok, err := s.Has(ptr)
	if err != nil || ok {
		t.Errorf("Has = %v, %v", ok, err)
	}
}

func TestMalformedPointer(t *testing.T) {
	_, s := tempStore(t)
	for _, p := range []string{"", "../../etc/passwd", "sha256:zz"} {
		if _, err := s.Open(p); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Open(%q) = %v, want ErrInvalidInput", p, err)
		}
	}
}
