package notestore

import "github.com/starford/inscribe/internal/models"

// Note returns the note stored under id, or nil when there is none.
func (s *State) Note(id uint64) (*models.Note, error) {
	var n models.Note
	ok, err := s.load(NoteKey(id), &n)
	if err != nil || !ok {
		return nil, err
	}
	return &n, nil
}

// PutNote upserts n under n.ID. Soft delete is a PutNote with IsActive false.
func (s *State) PutNote(n *models.Note) error {
	return s.store(NoteKey(n.ID), n)
}
