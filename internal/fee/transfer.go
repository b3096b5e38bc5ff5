package fee

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_transferer.go -package=mocks github.com/starford/inscribe/internal/fee Transferer

import (
	"context"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/notestore"
)

// Transferer moves amount from one identity to another. st is the state of
// the call being charged so a transferer that records anything does so in
// the same transaction.
type Transferer interface {
	Transfer(ctx context.Context, st *notestore.State, from, to models.Identity, amount uint64) error
}

// Noop accepts every charge without moving anything. It is used while fee
// collection is switched off.
type Noop struct{}

// Transfer implements Transferer.
func (Noop) Transfer(context.Context, *notestore.State, models.Identity, models.Identity, uint64) error {
	return nil
}

// Journal credits each charge to the operator's accrued total in the store.
type Journal struct{}

// Transfer implements Transferer.
func (Journal) Transfer(_ context.Context, st *notestore.State, _, to models.Identity, amount uint64) error {
	if to == "" {
		return apperr.ErrNotInitialized
	}
	if amount == 0 {
		return nil
	}
	return st.AddAccrued(to, amount)
}
