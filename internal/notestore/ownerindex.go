package notestore

import "github.com/starford/inscribe/internal/models"

// OwnerNotes returns the ids created by owner in creation order. The index is
// a creation log: ids of deleted notes stay in it.
func (s *State) OwnerNotes(owner models.Identity) ([]uint64, error) {
	ids := []uint64{}
	if _, err := s.load(OwnerIndexKey(owner), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AppendOwnerNote appends id to owner's index. It is not idempotent and must
// run exactly once per created note.
func (s *State) AppendOwnerNote(owner models.Identity, id uint64) error {
	ids, err := s.OwnerNotes(owner)
	if err != nil {
		return err
	}
	return s.store(OwnerIndexKey(owner), append(ids, id))
}
