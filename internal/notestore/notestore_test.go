package notestore

import (
	"context"
	"testing"

	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/models"
)

func testState(t *testing.T) (*State, kv.Tx) {
	t.Helper()
	tx, err := kv.NewMemory().Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tx.Rollback() })
	return New(tx), tx
}

func TestKeys(t *testing.T) {
	if got := NoteKey(42); got != "note:42" {
		t.Errorf("NoteKey = %q", got)
	}
	if got := OwnerIndexKey("GABC"); got != "owner_index:GABC" {
		t.Errorf("OwnerIndexKey = %q", got)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	s, _ := testState(t)

	n, err := s.Note(1)
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if n != nil {
		t.Fatalf("expected nil for missing note, got %+v", n)
	}

	want := &models.Note{ID: 1, Owner: "alice", Title: "T", ContentPointer: "QmA", Timestamp: 7, IsActive: true}
	if err := s.PutNote(want); err != nil {
		t.Fatalf("PutNote: %v", err)
	}
	got, err := s.Note(1)
	if err != nil || got == nil {
		t.Fatalf("Note: %v %v", got, err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestOwnerIndexAppendOnly(t *testing.T) {
	s, _ := testState(t)

	ids, err := s.OwnerNotes("alice")
	if err != nil {
		t.Fatalf("OwnerNotes: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty index, got %v", ids)
	}

	for _, id := range []uint64{1, 3, 4} {
		if err := s.AppendOwnerNote("alice", id); err != nil {
			t.Fatalf("AppendOwnerNote: %v", err)
		}
	}
	_ = s.AppendOwnerNote("bob", 2)

	ids, _ = s.OwnerNotes("alice")
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 3 || ids[2] != 4 {
		t.Errorf("alice index = %v, want [1 3 4]", ids)
	}
	ids, _ = s.OwnerNotes("bob")
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("bob index = %v, want [2]", ids)
	}
}

func TestCounter(t *testing.T) {
	s, _ := testState(t)

	if n, _ := s.NoteCount(); n != 0 {
		t.Fatalf("initial count = %d", n)
	}
	for want := uint64(1); want <= 3; want++ {
		got, err := s.NextNoteID()
		if err != nil {
			t.Fatalf("NextNoteID: %v", err)
		}
		if got != want {
			t.Errorf("NextNoteID = %d, want %d", got, want)
		}
	}
	if n, _ := s.NoteCount(); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestConfigKeys(t *testing.T) {
	s, tx := testState(t)

	if ok, _ := s.Initialized(); ok {
		t.Fatal("fresh state reports initialized")
	}
	_ = s.PutOperator("op")
	_ = s.PutFee(1_000_000)

	if ok, _ := tx.Has("operator_identity"); !ok {
		t.Error("operator_identity key missing")
	}
	op, ok, _ := s.Operator()
	if !ok || op != "op" {
		t.Errorf("Operator = %q %v", op, ok)
	}
	fee, ok, _ := s.Fee()
	if !ok || fee != 1_000_000 {
		t.Errorf("Fee = %d %v", fee, ok)
	}
}

func TestAccrued(t *testing.T) {
	s, _ := testState(t)
	_ = s.AddAccrued("op", 10)
	_ = s.AddAccrued("op", 5)
	if n, _ := s.Accrued("op"); n != 15 {
		t.Errorf("Accrued = %d, want 15", n)
	}
}
