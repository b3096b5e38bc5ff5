package noteservice

import "github.com/starford/inscribe/internal/models"

// Event kinds.
const (
	EventNoteCreated = "created"
	EventNoteUpdated = "updated"
	EventNoteDeleted = "deleted"
	EventFeeUpdated  = "fee"
)

// Event describes a committed change. Total is set on creation to the new
// global count.
type Event struct {
	Kind  string
	ID    uint64
	Owner models.Identity
	Fee   uint64
	Total uint64
}

// Observer receives events after the transaction that produced them commits.
type Observer func(Event)

func (s *Service) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}
