package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inscribe/internal/blobstore"
)

var maxUploadBytes int64 = 50 << 20 // 50 MB

// BlobHandler serves and accepts note bodies.
type BlobHandler struct {
	blobs *blobstore.FS
}

// NewBlobHandler creates a handler over the given blob store.
func NewBlobHandler(blobs *blobstore.FS) *BlobHandler {
	return &BlobHandler{blobs: blobs}
}

// ServeBlob handles GET /blobs/{pointer}.
func (h *BlobHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	pointer := chi.URLParam(r, "pointer")
	f, err := h.blobs.Open(pointer)
	if err != nil {
		writeError(w, err, "serve blob")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, err, "serve blob")
		return
	}
	// Content never changes for a pointer.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", `"`+pointer+`"`)
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// Upload handles POST /api/blobs (multipart/form-data, field "file").
//
//	@Summary		Store a note body and return its content pointer
//	@Tags			blobs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	BlobUploadResponse
//	@Security		BearerAuth
//	@Router			/blobs [post]
func (h *BlobHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart"))
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return
		}
		if err != nil {
			writeUploadError(w, err, "invalid multipart")
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		pointer, size, err := h.blobs.Put(part)
		part.Close()
		if err != nil {
			writeUploadError(w, err, "")
			return
		}
		writeJSON(w, http.StatusCreated, BlobUploadResponse{ContentPointer: pointer, Size: size})
		return
	}
}

// writeUploadError replies 413 when the body limit was hit. Other errors get
// 400 with msg, or the regular mapping when msg is empty.
func writeUploadError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
	case msg != "":
		writeJSON(w, http.StatusBadRequest, errorBody(msg))
	default:
		writeError(w, err, "store blob")
	}
}
