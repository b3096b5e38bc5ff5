// Package notestore lays the note records, per-owner indexes, the global
// counter and the contract configuration out over a kv.Tx.
//
// Layout (logical key -> JSON value):
//
//	operator_identity     -> identity
//	fee_amount            -> integer
//	counter               -> integer, id of the most recently created note
//	note:{id}             -> Note
//	owner_index:{owner}   -> [id, ...] in creation order
//	fee_accrued:{id}      -> integer, fees journaled to an identity
package notestore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/models"
)

const (
	keyOperator = "operator_identity"
	keyFee      = "fee_amount"
	keyCounter  = "counter"

	prefixNote       = "note:"
	prefixOwnerIndex = "owner_index:"
	prefixFeeAccrued = "fee_accrued:"
)

// NoteKey returns the storage key of a note.
func NoteKey(id uint64) string { return prefixNote + strconv.FormatUint(id, 10) }

// OwnerIndexKey returns the storage key of an owner's index.
func OwnerIndexKey(owner models.Identity) string { return prefixOwnerIndex + string(owner) }

// FeeAccruedKey returns the storage key of an identity's accrued fee total.
func FeeAccruedKey(id models.Identity) string { return prefixFeeAccrued + string(id) }

// State is the contract state visible to one call. It wraps a single
// transaction; nothing it writes is durable until that transaction commits.
type State struct {
	tx kv.Tx
}

// New wraps tx.
func New(tx kv.Tx) *State {
	return &State{tx: tx}
}

// load decodes key into v. It reports false when the key is absent.
func (s *State) load(key string, v any) (bool, error) {
	raw, ok, err := s.tx.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("notestore: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *State) store(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("notestore: encode %s: %w", key, err)
	}
	return s.tx.Set(key, raw)
}
