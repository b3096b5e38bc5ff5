package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inscribe/internal/fee"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/noteservice"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func ownerParam(r *http.Request) models.Identity {
	return models.Identity(chi.URLParam(r, "owner"))
}

func idParam(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// Initialize handles POST /api/contract/initialize.
//
//	@Summary		Configure the operator and fee
//	@Tags			contract
//	@Accept			json
//	@Param			body	body	InitializeRequest	true	"Operator and fee"
//	@Success		204
//	@Failure		409		{object}	errResponse
//	@Router			/contract/initialize [post]
func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if !decode(w, r, &req) {
		return
	}
	amount := fee.DefaultFee
	if req.Fee != nil {
		amount = *req.Fee
	}
	if err := h.svc.Initialize(r.Context(), req.Operator, amount); err != nil {
		writeError(w, err, "initialize")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Contract handles GET /api/contract.
//
//	@Summary		Show operator, fee and note count
//	@Tags			contract
//	@Produce		json
//	@Success		200	{object}	noteservice.ContractInfo
//	@Router			/contract [get]
func (h *Handler) Contract(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Contract(r.Context())
	if err != nil {
		writeError(w, err, "contract info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SetFee handles PUT /api/contract/fee.
//
//	@Summary		Change the fee (operator only)
//	@Tags			contract
//	@Accept			json
//	@Param			body	body	SetFeeRequest	true	"Admin and new fee"
//	@Success		204
//	@Failure		403		{object}	errResponse
//	@Router			/contract/fee [put]
func (h *Handler) SetFee(w http.ResponseWriter, r *http.Request) {
	var req SetFeeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SetFee(r.Context(), req.Admin, *req.Fee); err != nil {
		writeError(w, err, "set fee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /api/owners/{owner}/notes.
//
//	@Summary		List an owner's active notes
//	@Tags			notes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner identity"
//	@Success		200		{object}	NoteListResponse
//	@Router			/owners/{owner}/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context(), ownerParam(r))
	if err != nil {
		writeError(w, err, "list notes")
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes})
}

// CreateNote handles POST /api/owners/{owner}/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			owner	path		string		true	"Owner identity"
//	@Param			body	body		NoteRequest	true	"Title and content pointer"
//	@Success		201		{object}	CreateNoteResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/owners/{owner}/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.svc.Create(r.Context(), ownerParam(r), req.Title, req.ContentPointer)
	if err != nil {
		writeError(w, err, "create note")
		return
	}
	writeJSON(w, http.StatusCreated, CreateNoteResponse{ID: id})
}

// GetNote handles GET /api/owners/{owner}/notes/{id}.
//
//	@Summary		Get one of the caller's active notes
//	@Tags			notes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner identity"
//	@Param			id		path		int		true	"Note id"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/owners/{owner}/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, err := h.svc.Get(r.Context(), id, ownerParam(r))
	if err != nil {
		writeError(w, err, "get note")
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/owners/{owner}/notes/{id}.
//
//	@Summary		Replace a note's title and content pointer
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			owner	path		string		true	"Owner identity"
//	@Param			id		path		int			true	"Note id"
//	@Param			body	body		NoteRequest	true	"Title and content pointer"
//	@Success		200		{object}	UpdateNoteResponse
//	@Security		BearerAuth
//	@Router			/owners/{owner}/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req NoteRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := h.svc.Update(r.Context(), id, ownerParam(r), req.Title, req.ContentPointer)
	if err != nil {
		writeError(w, err, "update note")
		return
	}
	writeJSON(w, http.StatusOK, UpdateNoteResponse{Updated: updated})
}

// DeleteNote handles DELETE /api/owners/{owner}/notes/{id}.
//
//	@Summary		Soft-delete a note
//	@Tags			notes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner identity"
//	@Param			id		path		int		true	"Note id"
//	@Success		200		{object}	DeleteNoteResponse
//	@Security		BearerAuth
//	@Router			/owners/{owner}/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	deleted, err := h.svc.Delete(r.Context(), id, ownerParam(r))
	if err != nil {
		writeError(w, err, "delete note")
		return
	}
	writeJSON(w, http.StatusOK, DeleteNoteResponse{Deleted: deleted})
}

// Stats handles GET /api/owners/{owner}/stats.
//
//	@Summary		Count an owner's notes
//	@Tags			notes
//	@Produce		json
//	@Param			owner	path		string	true	"Owner identity"
//	@Success		200		{object}	models.Stats
//	@Router			/owners/{owner}/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), ownerParam(r))
	if err != nil {
		writeError(w, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Accrued handles GET /api/fees/accrued/{identity}.
func (h *Handler) Accrued(w http.ResponseWriter, r *http.Request) {
	id := models.Identity(chi.URLParam(r, "identity"))
	n, err := h.svc.Accrued(r.Context(), id)
	if err != nil {
		writeError(w, err, "accrued fees")
		return
	}
	writeJSON(w, http.StatusOK, AccruedResponse{Identity: id, Accrued: n})
}
