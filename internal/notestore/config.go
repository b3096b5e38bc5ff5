package notestore

import "github.com/starford/inscribe/internal/models"

// Initialized reports whether an operator has been configured.
func (s *State) Initialized() (bool, error) {
	return s.tx.Has(keyOperator)
}

// Operator returns the configured operator and whether one exists.
func (s *State) Operator() (models.Identity, bool, error) {
	var id models.Identity
	ok, err := s.load(keyOperator, &id)
	return id, ok, err
}

// PutOperator writes the operator identity.
func (s *State) PutOperator(id models.Identity) error {
	return s.store(keyOperator, id)
}

// Fee returns the stored fee and whether one exists.
func (s *State) Fee() (uint64, bool, error) {
	var fee uint64
	ok, err := s.load(keyFee, &fee)
	return fee, ok, err
}

// PutFee writes the fee amount.
func (s *State) PutFee(fee uint64) error {
	return s.store(keyFee, fee)
}

// Accrued returns the fee total journaled to id.
func (s *State) Accrued(id models.Identity) (uint64, error) {
	var n uint64
	if _, err := s.load(FeeAccruedKey(id), &n); err != nil {
		return 0, err
	}
	return n, nil
}

// AddAccrued adds amount to id's journaled fee total.
func (s *State) AddAccrued(id models.Identity, amount uint64) error {
	n, err := s.Accrued(id)
	if err != nil {
		return err
	}
	return s.store(FeeAccruedKey(id), n+amount)
}
