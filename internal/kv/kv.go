// Package kv provides the durable key-value substrate the note store runs on.
//
// Every public operation runs inside exactly one Tx: either all of its writes
// become visible on Commit or none do on Rollback.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Drivers.
const (
	DriverSQLite  = "sqlite"
	DriverLevelDB = "leveldb"
	DriverMemory  = "memory"
)

// ErrTxDone is returned by any Tx method called after Commit or Rollback.
var ErrTxDone = errors.New("kv: transaction already finished")

// Store opens transactions against the backing engine.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a unit of work. Reads observe the transaction's own pending writes.
// A missing key is reported through the bool, never as an error.
type Tx interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Has(key string) (bool, error)
	Commit() error
	// Rollback discards pending writes. Calling it after Commit is a no-op.
	Rollback() error
}

// Open returns a Store for the named driver. path is ignored by the memory driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("kv: create db dir: %w", err)
		}
		return OpenSQLite(path)
	case DriverLevelDB:
		return OpenLevelDB(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
}
