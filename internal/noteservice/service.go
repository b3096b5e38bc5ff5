// Package noteservice is the public operation surface over the note store.
//
// Every operation runs inside one kv transaction while holding the service
// lock, so two calls never interleave their reads and writes and a failed call
// leaves nothing behind. Gated operations verify the acting identity before
// touching state; mutating ones charge the fee next, before any write.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/fee"
	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/notestore"
)

// Service coordinates identity checks, fee charging and the note store.
type Service struct {
	mu sync.RWMutex

	store    kv.Store
	verifier identity.Verifier
	fees     *fee.Policy

	now      func() time.Time
	logger   *slog.Logger
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithObserver registers a callback for committed changes.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new note service.
func NewService(store kv.Store, verifier identity.Verifier, fees *fee.Policy, opts ...Option) *Service {
	s := &Service{
		store:    store,
		verifier: verifier,
		fees:     fees,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fees == nil {
		s.fees = fee.NewPolicy(nil)
	}
	return s
}

// ContractInfo is the public view of the contract configuration.
type ContractInfo struct {
	Initialized bool            `json:"initialized"`
	Operator    models.Identity `json:"operator,omitempty"`
	Fee         uint64          `json:"fee"`
	TotalCount  uint64          `json:"total_count"`
}

// Initialize configures the operator and fee. It succeeds once.
func (s *Service) Initialize(ctx context.Context, operator models.Identity, amount uint64) error {
	err := s.update(ctx, func(st *notestore.State) error {
		if err := s.fees.Configure(st, operator, amount); err != nil {
			return err
		}
		// Notes created before initialization keep their ids.
		n, err := st.NoteCount()
		if err != nil {
			return err
		}
		if n == 0 {
			return st.ResetCounter()
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("contract initialized",
		slog.String("operator", operator.String()),
		slog.Uint64("fee", amount))
	s.emit(Event{Kind: EventFeeUpdated, Fee: amount})
	return nil
}

// Create stores a new note for owner and returns its id.
func (s *Service) Create(ctx context.Context, owner models.Identity, title, pointer string) (uint64, error) {
	if err := s.verifier.Assert(ctx, owner); err != nil {
		return 0, err
	}
	var id uint64
	err := s.update(ctx, func(st *notestore.State) error {
		if err := s.fees.Charge(ctx, st, owner); err != nil {
			return err
		}
		next, err := st.NextNoteID()
		if err != nil {
			return err
		}
		n := &models.Note{
			ID:             next,
			Owner:          owner,
			Title:          title,
			ContentPointer: pointer,
			Timestamp:      s.timestamp(0),
			IsActive:       true,
		}
		if err := st.PutNote(n); err != nil {
			return err
		}
		if err := st.AppendOwnerNote(owner, next); err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("note created", slog.Uint64("id", id), slog.String("owner", owner.String()))
	s.emit(Event{Kind: EventNoteCreated, ID: id, Owner: owner, Total: id})
	return id, nil
}

// Get returns note id when requester owns it and it is active, otherwise nil.
func (s *Service) Get(ctx context.Context, id uint64, requester models.Identity) (*models.Note, error) {
	if err := s.verifier.Assert(ctx, requester); err != nil {
		return nil, err
	}
	var out *models.Note
	err := s.view(ctx, func(st *notestore.State) error {
		n, err := st.Note(id)
		if err != nil {
			return err
		}
		if visible(n, requester) {
			out = n
		}
		return nil
	})
	return out, err
}

// List returns owner's active notes in creation order. The owner is the
// subject of the query, not an authenticated caller.
func (s *Service) List(ctx context.Context, owner models.Identity) ([]models.Note, error) {
	out := []models.Note{}
	err := s.view(ctx, func(st *notestore.State) error {
		ids, err := st.OwnerNotes(owner)
		if err != nil {
			return err
		}
		for _, id := range ids {
			n, err := st.Note(id)
			if err != nil {
				return err
			}
			if n != nil && n.IsActive {
				out = append(out, *n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the title and content pointer of an active note owned by
// owner. It reports false, without error, when the note is missing, owned by
// someone else or deleted. The fee is charged either way.
func (s *Service) Update(ctx context.Context, id uint64, owner models.Identity, title, pointer string) (bool, error) {
	if err := s.verifier.Assert(ctx, owner); err != nil {
		return false, err
	}
	updated := false
	err := s.update(ctx, func(st *notestore.State) error {
		if err := s.fees.Charge(ctx, st, owner); err != nil {
			return err
		}
		n, err := st.Note(id)
		if err != nil {
			return err
		}
		if !visible(n, owner) {
			return nil
		}
		n.Title = title
		n.ContentPointer = pointer
		n.Timestamp = s.timestamp(n.Timestamp)
		if err := st.PutNote(n); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !updated {
		s.logger.Debug("note update rejected", slog.Uint64("id", id), slog.String("owner", owner.String()))
		return false, nil
	}
	s.logger.Info("note updated", slog.Uint64("id", id), slog.String("owner", owner.String()))
	s.emit(Event{Kind: EventNoteUpdated, ID: id, Owner: owner})
	return true, nil
}

// Delete marks a note owned by owner inactive. It reports false when the note
// is missing or owned by someone else. Deleting an already inactive note
// rewrites it and reports true.
func (s *Service) Delete(ctx context.Context, id uint64, owner models.Identity) (bool, error) {
	if err := s.verifier.Assert(ctx, owner); err != nil {
		return false, err
	}
	deleted := false
	err := s.update(ctx, func(st *notestore.State) error {
		n, err := st.Note(id)
		if err != nil {
			return err
		}
		if n == nil || n.Owner != owner {
			return nil
		}
		n.IsActive = false
		if err := st.PutNote(n); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !deleted {
		s.logger.Debug("note delete rejected", slog.Uint64("id", id), slog.String("owner", owner.String()))
		return false, nil
	}
	s.logger.Info("note deleted", slog.Uint64("id", id), slog.String("owner", owner.String()))
	s.emit(Event{Kind: EventNoteDeleted, ID: id, Owner: owner})
	return true, nil
}

// Stats counts owner's indexed notes that exist and the active subset.
func (s *Service) Stats(ctx context.Context, owner models.Identity) (models.Stats, error) {
	var out models.Stats
	err := s.view(ctx, func(st *notestore.State) error {
		ids, err := st.OwnerNotes(owner)
		if err != nil {
			return err
		}
		for _, id := range ids {
			n, err := st.Note(id)
			if err != nil {
				return err
			}
			if n == nil {
				continue
			}
			out.Total++
			if n.IsActive {
				out.Active++
			}
		}
		return nil
	})
	return out, err
}

// SetFee changes the fee. caller must be the operator.
func (s *Service) SetFee(ctx context.Context, caller models.Identity, amount uint64) error {
	if err := s.verifier.Assert(ctx, caller); err != nil {
		return err
	}
	err := s.update(ctx, func(st *notestore.State) error {
		return s.fees.SetFee(st, caller, amount)
	})
	if err != nil {
		return err
	}
	s.logger.Info("fee updated", slog.Uint64("fee", amount))
	s.emit(Event{Kind: EventFeeUpdated, Fee: amount})
	return nil
}

// TotalCount returns the id of the most recently created note.
func (s *Service) TotalCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.view(ctx, func(st *notestore.State) (err error) {
		n, err = st.NoteCount()
		return err
	})
	return n, err
}

// Operator returns the fee beneficiary, or apperr.ErrNotInitialized.
func (s *Service) Operator(ctx context.Context) (models.Identity, error) {
	var op models.Identity
	err := s.view(ctx, func(st *notestore.State) error {
		id, ok, err := st.Operator()
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrNotInitialized
		}
		op = id
		return nil
	})
	return op, err
}

// Fee returns the configured fee, or fee.DefaultFee before initialization.
func (s *Service) Fee(ctx context.Context) (uint64, error) {
	var amount uint64
	err := s.view(ctx, func(st *notestore.State) (err error) {
		amount, err = s.fees.Fee(st)
		return err
	})
	return amount, err
}

// Contract returns the configuration and counter in one consistent read.
func (s *Service) Contract(ctx context.Context) (ContractInfo, error) {
	var info ContractInfo
	err := s.view(ctx, func(st *notestore.State) error {
		op, ok, err := st.Operator()
		if err != nil {
			return err
		}
		info.Initialized = ok
		info.Operator = op
		if info.Fee, err = s.fees.Fee(st); err != nil {
			return err
		}
		info.TotalCount, err = st.NoteCount()
		return err
	})
	return info, err
}

// Accrued returns the fees journaled to id.
func (s *Service) Accrued(ctx context.Context, id models.Identity) (uint64, error) {
	var n uint64
	err := s.view(ctx, func(st *notestore.State) (err error) {
		n, err = st.Accrued(id)
		return err
	})
	return n, err
}

func visible(n *models.Note, requester models.Identity) bool {
	return n != nil && n.Owner == requester && n.IsActive
}

// timestamp returns the current unix time, never earlier than floor.
func (s *Service) timestamp(floor uint64) uint64 {
	sec := s.now().Unix()
	if sec < 0 {
		sec = 0
	}
	ts := uint64(sec)
	if ts < floor {
		return floor
	}
	return ts
}

// update runs fn in a write transaction and commits when fn succeeds.
func (s *Service) update(ctx context.Context, fn func(*notestore.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("noteservice: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(notestore.New(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// view runs fn in a transaction that is always rolled back.
func (s *Service) view(ctx context.Context, fn func(*notestore.State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("noteservice: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	return fn(notestore.New(tx))
}
