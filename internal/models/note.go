// Package models defines the domain types for Inscribe.
package models

// Identity is an authenticated principal (an account address or key id).
type Identity string

// String implements fmt.Stringer.
func (i Identity) String() string { return string(i) }

// Note is a single owner record. It is never physically removed; Delete flips IsActive.
type Note struct {
	ID             uint64   `json:"id"`
	Owner          Identity `json:"owner"`
	Title          string   `json:"title"`
	ContentPointer string   `json:"content_pointer"`
	Timestamp      uint64   `json:"timestamp"`
	IsActive       bool     `json:"is_active"`
}

// Stats summarises an owner's index: Total counts ids that resolve to a stored
// note, Active the subset still visible.
type Stats struct {
	Total  uint64 `json:"total"`
	Active uint64 `json:"active"`
}
