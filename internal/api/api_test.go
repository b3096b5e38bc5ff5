package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inscribe/internal/checksum"
	"github.com/starford/inscribe/internal/fee"
	"github.com/starford/inscribe/internal/identity"
	"github.com/starford/inscribe/internal/kv"
	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/noteservice"
	"github.com/starford/inscribe/internal/testutil"
)

// testEnv wires a memory-backed service behind the API router. A nil tokens
// runs in disabled mode.
func testEnv(t *testing.T, tokens Authenticator) http.Handler {
	t.Helper()
	_, blobs := testutil.TestBlobs(t)
	svc := noteservice.NewService(kv.NewMemory(), identity.ContextVerifier{}, fee.NewPolicy(nil))

	r := chi.NewRouter()
	r.Mount("/api", NewRouter(svc, blobs, tokens, nil))
	r.Get("/blobs/{pointer}", NewBlobHandler(blobs).ServeBlob)
	return r
}

// do sends a request acting as as (X-Identity) and returns the recorder.
func do(t *testing.T, h http.Handler, method, path string, as models.Identity, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if as != "" {
		req.Header.Set(IdentityHeader, string(as))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func initContract(t *testing.T, h http.Handler) {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/contract/initialize", "", map[string]any{"operator": "operator", "fee": 1000000})
	if w.Code != http.StatusNoContent {
		t.Fatalf("initialize = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestNoteLifecycle(t *testing.T) {
	h := testEnv(t, nil)
	initContract(t, h)

	w := do(t, h, http.MethodPost, "/api/owners/alice/notes", "alice", NoteRequest{Title: "Hello", ContentPointer: "ptr1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decodeBody[CreateNoteResponse](t, w); got.ID != 1 {
		t.Fatalf("id = %d, want 1", got.ID)
	}

	w = do(t, h, http.MethodGet, "/api/owners/alice/notes/1", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	note := decodeBody[models.Note](t, w)
	if note.Title != "Hello" || note.ContentPointer != "ptr1" || !note.IsActive {
		t.Errorf("note = %+v", note)
	}

	w = do(t, h, http.MethodPut, "/api/owners/alice/notes/1", "alice", NoteRequest{Title: "Hi", ContentPointer: "ptr2"})
	if got := decodeBody[UpdateNoteResponse](t, w); w.Code != http.StatusOK || !got.Updated {
		t.Fatalf("update = %d %+v", w.Code, got)
	}

	w = do(t, h, http.MethodDelete, "/api/owners/alice/notes/1", "alice", nil)
	if got := decodeBody[DeleteNoteResponse](t, w); w.Code != http.StatusOK || !got.Deleted {
		t.Fatalf("delete = %d %+v", w.Code, got)
	}

	w = do(t, h, http.MethodGet, "/api/owners/alice/notes/1", "alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/owners/alice/stats", "", nil)
	if got := decodeBody[models.Stats](t, w); got != (models.Stats{Total: 1, Active: 0}) {
		t.Errorf("stats = %+v", got)
	}

	w = do(t, h, http.MethodGet, "/api/contract", "", nil)
	info := decodeBody[noteservice.ContractInfo](t, w)
	if !info.Initialized || info.Operator != "operator" || info.TotalCount != 1 {
		t.Errorf("contract = %+v", info)
	}
}

func TestListNeedsNoIdentity(t *testing.T) {
	h := testEnv(t, nil)
	do(t, h, http.MethodPost, "/api/owners/alice/notes", "alice", NoteRequest{Title: "a"})
	do(t, h, http.MethodPost, "/api/owners/bob/notes", "bob", NoteRequest{Title: "b"})

	w := do(t, h, http.MethodGet, "/api/owners/alice/notes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	got := decodeBody[NoteListResponse](t, w)
	if len(got.Notes) != 1 || got.Notes[0].ID != 1 {
		t.Errorf("notes = %+v", got.Notes)
	}

	w = do(t, h, http.MethodGet, "/api/owners/nobody/notes", "", nil)
	if !strings.Contains(w.Body.String(), `"notes":[]`) {
		t.Errorf("empty list body = %s", w.Body.String())
	}
}

func TestActingForAnotherOwnerIsForbidden(t *testing.T) {
	h := testEnv(t, nil)
	do(t, h, http.MethodPost, "/api/owners/alice/notes", "alice", NoteRequest{Title: "a"})

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/owners/alice/notes", NoteRequest{Title: "x"}},
		{http.MethodGet, "/api/owners/alice/notes/1", nil},
		{http.MethodPut, "/api/owners/alice/notes/1", NoteRequest{Title: "x"}},
		{http.MethodDelete, "/api/owners/alice/notes/1", nil},
	} {
		if w := do(t, h, tc.method, tc.path, "bob", tc.body); w.Code != http.StatusForbidden {
			t.Errorf("%s %s as bob = %d, want 403", tc.method, tc.path, w.Code)
		}
	}
	if w := do(t, h, http.MethodPost, "/api/owners/alice/notes", "", NoteRequest{Title: "x"}); w.Code != http.StatusForbidden {
		t.Errorf("create without identity = %d, want 403", w.Code)
	}
}

func TestSoftMisses(t *testing.T) {
	h := testEnv(t, nil)
	do(t, h, http.MethodPost, "/api/owners/alice/notes", "alice", NoteRequest{Title: "a"})

	// bob asks about alice's note under his own name: not an auth failure.
	w := do(t, h, http.MethodGet, "/api/owners/bob/notes/1", "bob", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get = %d, want 404", w.Code)
	}
	w = do(t, h, http.MethodPut, "/api/owners/bob/notes/1", "bob", NoteRequest{Title: "x"})
	if got := decodeBody[UpdateNoteResponse](t, w); w.Code != http.StatusOK || got.Updated {
		t.Errorf("update = %d %+v", w.Code, got)
	}
	w = do(t, h, http.MethodDelete, "/api/owners/bob/notes/1", "bob", nil)
	if got := decodeBody[DeleteNoteResponse](t, w); w.Code != http.StatusOK || got.Deleted {
		t.Errorf("delete = %d %+v", w.Code, got)
	}
	if w := do(t, h, http.MethodGet, "/api/owners/alice/notes/abc", "alice", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestInitializeTwice(t *testing.T) {
	h := testEnv(t, nil)
	initContract(t, h)
	w := do(t, h, http.MethodPost, "/api/contract/initialize", "", map[string]any{"operator": "mallory"})
	if w.Code != http.StatusConflict {
		t.Errorf("second initialize = %d, want 409", w.Code)
	}
	w = do(t, h, http.MethodPost, "/api/contract/initialize", "", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing operator = %d, want 400", w.Code)
	}
}

func TestSetFee(t *testing.T) {
	h := testEnv(t, nil)
	initContract(t, h)

	w := do(t, h, http.MethodPut, "/api/contract/fee", "alice", map[string]any{"admin": "alice", "fee": 5})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-operator = %d, want 403", w.Code)
	}
	w = do(t, h, http.MethodPut, "/api/contract/fee", "alice", map[string]any{"admin": "operator", "fee": 5})
	if w.Code != http.StatusForbidden {
		t.Errorf("impersonating operator = %d, want 403", w.Code)
	}
	w = do(t, h, http.MethodPut, "/api/contract/fee", "operator", map[string]any{"admin": "operator"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fee = %d, want 400", w.Code)
	}
	w = do(t, h, http.MethodPut, "/api/contract/fee", "operator", map[string]any{"admin": "operator", "fee": 5})
	if w.Code != http.StatusNoContent {
		t.Fatalf("operator = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/contract", "", nil)
	if info := decodeBody[noteservice.ContractInfo](t, w); info.Fee != 5 {
		t.Errorf("fee = %d, want 5", info.Fee)
	}
}

func TestTokenAuth(t *testing.T) {
	tokens := identity.NewTokens(map[string]models.Identity{"s3cret": "alice", "other": "bob"})
	h := testEnv(t, tokens)

	send := func(token string) int {
		b, _ := json.Marshal(NoteRequest{Title: "t"})
		req := httptest.NewRequest(http.MethodPost, "/api/owners/alice/notes", bytes.NewReader(b))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		// The identity header is ignored in token mode.
		req.Header.Set(IdentityHeader, "alice")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(""); code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", code)
	}
	if code := send("wrong"); code != http.StatusUnauthorized {
		t.Errorf("unknown token = %d, want 401", code)
	}
	if code := send("other"); code != http.StatusForbidden {
		t.Errorf("bob's token = %d, want 403", code)
	}
	if code := send("s3cret"); code != http.StatusCreated {
		t.Errorf("alice's token = %d, want 201", code)
	}
}

func TestBlobUploadAndServe(t *testing.T) {
	h := testEnv(t, nil)
	content := []byte("# Groceries\n- milk\n")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "groceries.md")
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/blobs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	up := decodeBody[BlobUploadResponse](t, w)
	if up.ContentPointer != checksum.Pointer(content) || up.Size != int64(len(content)) {
		t.Errorf("upload = %+v", up)
	}

	w = do(t, h, http.MethodGet, "/blobs/"+up.ContentPointer, "", nil)
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), content) {
		t.Errorf("serve = %d %q", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/blobs/"+checksum.Pointer([]byte("missing")), "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing blob = %d, want 404", w.Code)
	}
	w = do(t, h, http.MethodGet, "/blobs/not-a-pointer", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad pointer = %d, want 400", w.Code)
	}
}

func TestBlobUploadMissingFile(t *testing.T) {
	h := testEnv(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/blobs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBlobUploadTooLarge(t *testing.T) {
	limit := maxUploadBytes
	maxUploadBytes = 1 << 10
	t.Cleanup(func() { maxUploadBytes = limit })

	h := testEnv(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "big.md")
	fw.Write(bytes.Repeat([]byte("x"), 8<<10))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/blobs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413, body = %s", w.Code, w.Body.String())
	}
}
