// Package testutil provides shared test helpers for setting up stores and principals.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/inscribe/internal/blobstore"
	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/models"
)

// TestStore opens a kv store of the given driver in a temp directory that is
// automatically cleaned up.
func TestStore(t *testing.T, driver string) kv.Store {
	t.Helper()
	path := ""
	switch driver {
	case kv.DriverSQLite:
		path = filepath.Join(t.TempDir(), "inscribe-test.db")
	case kv.DriverLevelDB:
		path = filepath.Join(t.TempDir(), "inscribe-test.ldb")
	}
	store, err := kv.Open(driver, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestBlobs creates a temporary blob directory.
func TestBlobs(t *testing.T) (string, *blobstore.FS) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blobstore.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, blobs
}

// As returns a background context acting as id.
func As(id models.Identity) context.Context {
	return identity.WithPrincipal(context.Background(), id)
}
