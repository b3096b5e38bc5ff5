// Package fee holds the fee configuration policy and the hook that charges
// callers for mutating operations.
package fee

import (
	"context"
	"fmt"

	"github.com/starford/inscribe/internal/apperr"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/notestore"
)

// DefaultFee is reported by Fee before the contract is initialized.
const DefaultFee uint64 = 1_000_000

// Policy gates mutations behind the configured fee.
type Policy struct {
	transferer Transferer
}

// NewPolicy returns a Policy that moves fees through t. A nil t charges nothing.
func NewPolicy(t Transferer) *Policy {
	if t == nil {
		t = Noop{}
	}
	return &Policy{transferer: t}
}

// Configure stores the operator and fee. It succeeds once per contract.
func (p *Policy) Configure(st *notestore.State, operator models.Identity, fee uint64) error {
	if operator == "" {
		return fmt.Errorf("fee: operator is required: %w", apperr.ErrInvalidInput)
	}
	ok, err := st.Initialized()
	if err != nil {
		return err
	}
	if ok {
		return apperr.ErrAlreadyInitialized
	}
	if err := st.PutOperator(operator); err != nil {
		return err
	}
	return st.PutFee(fee)
}

// SetFee replaces the fee. Only the operator may call it.
func (p *Policy) SetFee(st *notestore.State, caller models.Identity, fee uint64) error {
	operator, ok, err := st.Operator()
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotInitialized
	}
	if caller != operator {
		return fmt.Errorf("fee: %s is not the operator: %w", caller, apperr.ErrUnauthorized)
	}
	return st.PutFee(fee)
}

// Fee returns the configured fee, or DefaultFee when none is stored.
func (p *Policy) Fee(st *notestore.State) (uint64, error) {
	fee, ok, err := st.Fee()
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultFee, nil
	}
	return fee, nil
}

// Charge moves the fee from payer to the operator. Callers invoke it before
// writing anything so a failed charge aborts the mutation it gates.
func (p *Policy) Charge(ctx context.Context, st *notestore.State, payer models.Identity) error {
	fee, err := p.Fee(st)
	if err != nil {
		return err
	}
	operator, _, err := st.Operator()
	if err != nil {
		return err
	}
	if err := p.transferer.Transfer(ctx, st, payer, operator, fee); err != nil {
		return fmt.Errorf("fee: charge %s: %w", payer, err)
	}
	return nil
}
