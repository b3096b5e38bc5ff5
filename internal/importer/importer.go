// Package importer loads a directory of Markdown files as notes for one owner.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/parser"
)

// Creator is the note operation the importer drives.
type Creator interface {
	Create(ctx context.Context, owner models.Identity, title, pointer string) (uint64, error)
}

// Blobs stores note bodies.
type Blobs interface {
	Put(r io.Reader) (string, int64, error)
}

// Imported records one created note.
type Imported struct {
	Path    string `json:"path"`
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Pointer string `json:"content_pointer"`
}

// Result summarizes an import run.
type Result struct {
	Notes   []Imported `json:"notes"`
	Skipped []string   `json:"skipped,omitempty"`
}

// Import walks dir in lexical order and creates one note per .md file.
// Unreadable files are skipped. The first failed Create stops the run, since
// it means the owner cannot pay or is not authorized; notes created before it
// remain.
func Import(ctx context.Context, notes Creator, blobs Blobs, dir string, owner models.Identity, logger *slog.Logger) (Result, error) {
	var res Result
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, _ := filepath.Rel(dir, p)

		data, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("import: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			res.Skipped = append(res.Skipped, rel)
			return nil
		}
		doc := parser.Parse(data, strings.TrimSuffix(d.Name(), ".md"))

		ptr, _, err := blobs.Put(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("import: store %s: %w", rel, err)
		}
		id, err := notes.Create(ctx, owner, doc.Title, ptr)
		if err != nil {
			return fmt.Errorf("import: create %s: %w", rel, err)
		}
		logger.Debug("import: created", slog.String("path", rel), slog.Uint64("id", id))
		res.Notes = append(res.Notes, Imported{Path: rel, ID: id, Title: doc.Title, Pointer: ptr})
		return nil
	})
	return res, err
}
