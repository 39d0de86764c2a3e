package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-body/pkg/blobstore"
	"github.com/tendant/simple-body/pkg/body"
	"github.com/tendant/simple-body/pkg/contenttype"
	"github.com/tendant/simple-body/pkg/streamsource"
)

// Representations accepted by the "as" query parameter
const (
	AsRaw    = "raw"
	AsText   = "text"
	AsJSON   = "json"
	AsBase64 = "base64"
)

// DefaultMaxUploadSize bounds request bodies accepted by PutBody and CreateBody
const DefaultMaxUploadSize = 32 << 20

// BodyResponse describes a stored body
type BodyResponse struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Binary      bool      `json:"binary"`
	UpdatedAt   time.Time `json:"updated_at"`
	Base64      string    `json:"base64,omitempty"`
}

// CompareResponse is the result of comparing two stored bodies
type CompareResponse struct {
	Key       string `json:"key"`
	Other     string `json:"other"`
	Equal     bool   `json:"equal"`
	Hash      string `json:"hash"`
	OtherHash string `json:"other_hash"`
}

// BodyHandler serves bodies kept in a keyed object store
type BodyHandler struct {
	store         blobstore.Store
	maxUploadSize int64
}

// NewBodyHandler creates a new body handler
func NewBodyHandler(store blobstore.Store) *BodyHandler {
	return &BodyHandler{
		store:         store,
		maxUploadSize: DefaultMaxUploadSize,
	}
}

// WithMaxUploadSize sets the largest request body PutBody accepts
func (h *BodyHandler) WithMaxUploadSize(n int64) *BodyHandler {
	h.maxUploadSize = n
	return h
}

// Routes returns the routes for bodies
func (h *BodyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateBody)
	r.Get("/{key}", h.GetBody)
	r.Put("/{key}", h.PutBody)
	r.Delete("/{key}", h.DeleteBody)
	r.Get("/{key}/meta", h.GetBodyMeta)
	r.Get("/{key}/compare/{other}", h.CompareBodies)

	return r
}

// storedBody builds a lazily fetched body for key, typed by the content type
// recorded in the store
func (h *BodyHandler) storedBody(r *http.Request, key string) (body.Body, *blobstore.ObjectMeta, error) {
	meta, err := h.store.Stat(r.Context(), key)
	if err != nil {
		return body.None(), nil, err
	}
	src := streamsource.ForBlobStoreItem(r.Context(), h.store, key)
	return body.FromSourceOfType(src, meta.ContentType), meta, nil
}

// GetBody writes the body stored under key in the representation selected by
// the "as" query parameter
func (h *BodyHandler) GetBody(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	as := r.URL.Query().Get("as")
	if as == "" {
		as = AsRaw
	}

	b, meta, err := h.storedBody(r, key)
	if err != nil {
		h.storeError(w, "Failed to get body", key, err)
		return
	}

	switch as {
	case AsRaw:
		rc, err := b.Reader()
		if err != nil {
			h.storeError(w, "Failed to open body", key, err)
			return
		}
		defer rc.Close()
		// No Content-Length: meta.Size is stale if the object was replaced after Stat
		w.Header().Set("Content-Type", meta.ContentType)
		if _, err := io.Copy(w, rc); err != nil {
			slog.Error("Failed to stream body", "key", key, "error", err)
		}

	case AsText:
		enc, err := contenttype.Charset(meta.ContentType)
		if err != nil {
			slog.Warn("Unknown charset, falling back to UTF-8", "key", key, "content_type", meta.ContentType)
			enc = nil
		}
		text, err := b.AsStringWithEncoding(enc)
		if err != nil {
			h.storeError(w, "Failed to read body", key, err)
			return
		}
		render.PlainText(w, r, text)

	case AsJSON:
		node, err := b.AsJSON()
		if err != nil {
			if errors.Is(err, body.ErrRead) || blobstore.IsNotFound(err) {
				h.storeError(w, "Failed to read body", key, err)
				return
			}
			slog.Error("Body is not valid JSON", "key", key, "error", err)
			http.Error(w, "Body is not valid JSON", http.StatusUnprocessableEntity)
			return
		}
		render.JSON(w, r, node)

	case AsBase64:
		encoded, err := b.AsBase64()
		if err != nil {
			h.storeError(w, "Failed to read body", key, err)
			return
		}
		resp := toBodyResponse(meta, b)
		resp.Base64 = encoded
		render.JSON(w, r, resp)

	default:
		http.Error(w, "Invalid representation, use raw, text, json or base64", http.StatusBadRequest)
	}
}

// GetBodyMeta returns metadata for the body stored under key
func (h *BodyHandler) GetBodyMeta(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	b, meta, err := h.storedBody(r, key)
	if err != nil {
		h.storeError(w, "Failed to get body metadata", key, err)
		return
	}
	render.JSON(w, r, toBodyResponse(meta, b))
}

// PutBody stores the request body under key
func (h *BodyHandler) PutBody(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, chi.URLParam(r, "key"), http.StatusOK)
}

// CreateBody stores the request body under a generated key
func (h *BodyHandler) CreateBody(w http.ResponseWriter, r *http.Request) {
	h.put(w, r, uuid.NewString(), http.StatusCreated)
}

func (h *BodyHandler) put(w http.ResponseWriter, r *http.Request, key string, status int) {
	reader := http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	params := blobstore.PutParams{ContentType: r.Header.Get("Content-Type")}

	if err := h.store.Put(r.Context(), key, reader, params); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Body too large", http.StatusRequestEntityTooLarge)
			return
		}
		if blobstore.IsInvalidKey(err) {
			slog.Warn("Rejected body key", "key", key, "error", err)
			http.Error(w, "Invalid key", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to store body", "key", key, "error", err)
		http.Error(w, "Failed to store body", http.StatusInternalServerError)
		return
	}

	b, meta, err := h.storedBody(r, key)
	if err != nil {
		h.storeError(w, "Failed to get body metadata", key, err)
		return
	}

	slog.Info("Body stored", "key", key, "size", meta.Size, "content_type", meta.ContentType)
	render.Status(r, status)
	render.JSON(w, r, toBodyResponse(meta, b))
}

// DeleteBody deletes the body stored under key
func (h *BodyHandler) DeleteBody(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.store.Delete(r.Context(), key); err != nil {
		h.storeError(w, "Failed to delete body", key, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompareBodies reports whether two stored bodies have equal content
func (h *BodyHandler) CompareBodies(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	other := chi.URLParam(r, "other")

	a, _, err := h.storedBody(r, key)
	if err != nil {
		h.storeError(w, "Failed to get body", key, err)
		return
	}
	b, _, err := h.storedBody(r, other)
	if err != nil {
		h.storeError(w, "Failed to get body", other, err)
		return
	}

	equal, err := a.Equal(b)
	if err != nil {
		h.storeError(w, "Failed to compare bodies", key, err)
		return
	}
	hashA, err := a.Hash()
	if err != nil {
		h.storeError(w, "Failed to hash body", key, err)
		return
	}
	hashB, err := b.Hash()
	if err != nil {
		h.storeError(w, "Failed to hash body", other, err)
		return
	}

	render.JSON(w, r, CompareResponse{
		Key:       key,
		Other:     other,
		Equal:     equal,
		Hash:      strconv.FormatUint(hashA, 16),
		OtherHash: strconv.FormatUint(hashB, 16),
	})
}

func (h *BodyHandler) storeError(w http.ResponseWriter, msg, key string, err error) {
	if blobstore.IsInvalidKey(err) {
		slog.Warn(msg, "key", key, "error", err)
		http.Error(w, "Invalid key", http.StatusBadRequest)
		return
	}
	if blobstore.IsNotFound(err) {
		slog.Warn(msg, "key", key, "error", err)
		http.Error(w, "Body not found", http.StatusNotFound)
		return
	}
	slog.Error(msg, "key", key, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func toBodyResponse(meta *blobstore.ObjectMeta, b body.Body) BodyResponse {
	return BodyResponse{
		Key:         meta.Key,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Binary:      b.IsBinary(),
		UpdatedAt:   meta.UpdatedAt,
	}
}
