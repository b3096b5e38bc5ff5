package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDB is a Store backed by an embedded goleveldb database. Pending writes
// are collected in a leveldb.Batch and applied with one synced Write on Commit.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database directory at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: open leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// Begin starts a transaction.
func (l *LevelDB) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &levelTx{db: l.db, batch: new(leveldb.Batch), ov: newOverlay()}, nil
}

// Close closes the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

type levelTx struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	ov    overlay
}

func (t *levelTx) Get(key string) ([]byte, bool, error) {
	if t.ov.done {
		return nil, false, ErrTxDone
	}
	if v, ok := t.ov.get(key); ok {
		return v, true, nil
	}
	v, err := t.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv: leveldb get %s: %w", key, err)
	}
	return v, true, nil
}

func (t *levelTx) Set(key string, value []byte) error {
	if t.ov.done {
		return ErrTxDone
	}
	t.ov.set(key, value)
	t.batch.Put([]byte(key), value)
	return nil
}

func (t *levelTx) Has(key string) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

func (t *levelTx) Commit() error {
	if t.ov.done {
		return ErrTxDone
	}
	t.ov.done = true
	if t.batch.Len() == 0 {
		return nil
	}
	if err := t.db.Write(t.batch, &ldb_opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("kv: leveldb commit: %w", err)
	}
	return nil
}

func (t *levelTx) Rollback() error {
	t.ov.done = true
	t.batch.Reset()
	return nil
}
