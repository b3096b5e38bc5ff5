package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/checksum"
	"github.com/starford/inscribe/internal/fee"
	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/noteservice"
	"github.com/starford/inscribe/internal/testutil"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestImport(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "b.md", "# Second\nbody")
	writeFile(t, src, "a.md", "---\ntitle: First\n---\ntext")
	writeFile(t, src, "sub/c.md", "no heading")
	writeFile(t, src, "skip.txt", "not markdown")

	_, blobs := testutil.TestBlobs(t)
	svc := noteservice.NewService(kv.NewMemory(), identity.ContextVerifier{}, fee.NewPolicy(nil))
	ctx := testutil.As("alice")

	res, err := Import(ctx, svc, blobs, src, "alice", discard())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := []Imported{
		{Path: "a.md", ID: 1, Title: "First"},
		{Path: "b.md", ID: 2, Title: "Second"},
		{Path: filepath.Join("sub", "c.md"), ID: 3, Title: "c"},
	}
	if len(res.Notes) != len(want) {
		t.Fatalf("notes = %+v", res.Notes)
	}
	for i, w := range want {
		got := res.Notes[i]
		if got.Path != w.Path || got.ID != w.ID || got.Title != w.Title {
			t.Errorf("note %d = %+v, want %+v", i, got, w)
		}
	}

	n, _ := svc.Get(ctx, 2, "alice")
	if n == nil || n.ContentPointer != checksum.Pointer([]byte("# Second\nbody")) {
		t.Errorf("note 2 = %+v", n)
	}
	body, err := blobs.Read(n.ContentPointer)
	if err != nil || string(body) != "# Second\nbody" {
		t.Errorf("blob = %q, %v", body, err)
	}
}

func TestImportStopsOnCreateFailure(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.md", "# A")
	writeFile(t, src, "b.md", "# B")

	_, blobs := testutil.TestBlobs(t)
	svc := noteservice.NewService(kv.NewMemory(), identity.ContextVerifier{}, fee.NewPolicy(nil))

	// Acting as bob while importing for alice.
	res, err := Import(testutil.As("bob"), svc, blobs, src, models.Identity("alice"), discard())
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if len(res.Notes) != 0 {
		t.Errorf("notes = %+v", res.Notes)
	}
	if n, _ := svc.TotalCount(context.Background()); n != 0 {
		t.Errorf("TotalCount = %d", n)
	}
}
