package identity

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/starford/inscribe/internal/models"
)

// Tokens maps bearer tokens to identities. The file format is a YAML mapping
// of token to identity:
//
//	s3cr3t-alice: GALICE...
//	s3cr3t-bob: GBOB...
type Tokens struct {
	path string

	mu     sync.RWMutex
	tokens map[string]models.Identity
}

// LoadTokens reads the token file at path.
func LoadTokens(path string) (*Tokens, error) {
	t := &Tokens{path: path}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTokens returns a registry over a fixed map, with no backing file.
func NewTokens(m map[string]models.Identity) *Tokens {
	cp := make(map[string]models.Identity, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return &Tokens{tokens: cp}
}

// Lookup returns the identity bound to token.
func (t *Tokens) Lookup(token string) (models.Identity, bool) {
	if token == "" {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.tokens[token]
	return id, ok
}

// Len returns the number of registered tokens.
func (t *Tokens) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tokens)
}

// Reload re-reads the token file. On error the previous tokens stay in effect.
func (t *Tokens) Reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("identity: read tokens %s: %w", t.path, err)
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("identity: parse tokens %s: %w", t.path, err)
	}
	next := make(map[string]models.Identity, len(raw))
	for tok, id := range raw {
		if tok == "" || id == "" {
			return fmt.Errorf("identity: empty token or identity in %s", t.path)
		}
		next[tok] = models.Identity(id)
	}

	t.mu.Lock()
	t.tokens = next
	t.mu.Unlock()
	return nil
}

// Watch reloads the token file whenever it changes until ctx is cancelled.
// The parent directory is watched so editors that replace the file by rename
// are picked up. Bursts of events are collapsed into one reload.
func (t *Tokens) Watch(ctx context.Context, logger *slog.Logger) error {
	if t.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(t.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("identity: watch %s: %w", dir, err)
	}
	logger.Info("tokens: watching", slog.String("path", t.path))

	target := filepath.Clean(t.path)

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("tokens: watcher stopped")
			return nil

		case <-debounceCh:
			if err := t.Reload(); err != nil {
				logger.Warn("tokens: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("tokens: reloaded", slog.Int("count", t.Len()))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(100 * time.Millisecond)
				debounceCh = debounce.C
			} else {
				debounce.Reset(100 * time.Millisecond)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("tokens: watcher error", slog.String("error", werr.Error()))
		}
	}
}
