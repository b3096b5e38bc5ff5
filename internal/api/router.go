package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inscribe/internal/blobstore"
	"github.com/starford/inscribe/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// tokens, if non-nil, enables Bearer token auth; otherwise the X-Identity
// header names the caller. sseHandler, if non-nil, is mounted at GET /events
// inside the auth group.
func NewRouter(svc *noteservice.Service, blobs *blobstore.FS, tokens Authenticator, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	bh := NewBlobHandler(blobs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(tokens))

	// Contract configuration.
	r.Post("/contract/initialize", h.Initialize)
	r.Get("/contract", h.Contract)
	r.Put("/contract/fee", h.SetFee)

	// Notes, addressed by owner.
	r.Route("/owners/{owner}", func(r chi.Router) {
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)
		r.Get("/stats", h.Stats)
	})

	r.Get("/fees/accrued/{identity}", h.Accrued)

	// Blob upload (auth-protected).
	r.Post("/blobs", bh.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
