package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inscribe/internal/models"
)

const maxFieldLen = 1024

// InitializeRequest is the request body for configuring the contract.
type InitializeRequest struct {
	Operator models.Identity `json:"operator" example:"operator" validate:"required"`
	Fee      *uint64         `json:"fee,omitempty" example:"1000000"`
}

// Validate validates the request.
func (r InitializeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Operator, validation.Required, validation.Length(1, maxFieldLen)),
	)
}

// SetFeeRequest is the request body for changing the fee.
type SetFeeRequest struct {
	Admin models.Identity `json:"admin" example:"operator" validate:"required"`
	Fee   *uint64         `json:"fee" example:"500000" validate:"required"`
}

// Validate validates the request.
func (r SetFeeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Admin, validation.Required),
		validation.Field(&r.Fee, validation.NotNil),
	)
}

// NoteRequest is the request body for creating or updating a note.
type NoteRequest struct {
	Title          string `json:"title" example:"Groceries"`
	ContentPointer string `json:"content_pointer" example:"sha256:9f86d0..."`
}

// Validate validates the request.
func (r NoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, maxFieldLen)),
		validation.Field(&r.ContentPointer, validation.Length(0, maxFieldLen)),
	)
}

// CreateNoteResponse is returned after a note is created.
type CreateNoteResponse struct {
	ID uint64 `json:"id" example:"1" validate:"required"`
}

// NoteListResponse wraps an owner's active notes.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
}

// UpdateNoteResponse reports whether the note changed.
type UpdateNoteResponse struct {
	Updated bool `json:"updated"`
}

// DeleteNoteResponse reports whether the note was deleted.
type DeleteNoteResponse struct {
	Deleted bool `json:"deleted"`
}

// AccruedResponse reports the fees journaled to an identity.
type AccruedResponse struct {
	Identity models.Identity `json:"identity" example:"operator"`
	Accrued  uint64          `json:"accrued" example:"3000000"`
}

// BlobUploadResponse is returned after a successful blob upload.
type BlobUploadResponse struct {
	ContentPointer string `json:"content_pointer" example:"sha256:9f86d0..." validate:"required"`
	Size           int64  `json:"size" example:"12345" validate:"required"`
}
