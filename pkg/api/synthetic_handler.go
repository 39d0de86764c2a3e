package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-body/pkg/body"
	"github.com/tendant/simple-body/pkg/streamsource"
)

// DefaultMaxSyntheticSize bounds the bodies SyntheticHandler generates
const DefaultMaxSyntheticSize = 1 << 30

// SyntheticHandler serves generated bodies of a fixed size without
// allocating them
type SyntheticHandler struct {
	maxSize int64
}

// NewSyntheticHandler creates a handler that refuses sizes above maxSize.
// A non-positive maxSize selects DefaultMaxSyntheticSize.
func NewSyntheticHandler(maxSize int64) *SyntheticHandler {
	if maxSize <= 0 {
		maxSize = DefaultMaxSyntheticSize
	}
	return &SyntheticHandler{maxSize: maxSize}
}

// Routes returns the routes for synthetic bodies
func (h *SyntheticHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{size}", h.GetSynthetic)
	return r
}

// GetSynthetic streams size copies of the byte given by the "byte" query
// parameter, which is a single character or a decimal value. The default is 'x'.
func (h *SyntheticHandler) GetSynthetic(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.ParseInt(chi.URLParam(r, "size"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid size", http.StatusBadRequest)
		return
	}
	if size > h.maxSize {
		http.Error(w, "Size exceeds limit", http.StatusBadRequest)
		return
	}

	fill, err := parseFillByte(r.URL.Query().Get("byte"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	src, err := streamsource.ForRepeatingByte(fill, size)
	if err != nil {
		if errors.Is(err, streamsource.ErrInvalidSize) {
			http.Error(w, "Size must be at least 1", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to create synthetic source", "size", size, "error", err)
		http.Error(w, "Failed to create synthetic body", http.StatusInternalServerError)
		return
	}

	b := body.FromSource(src)
	rc, err := b.Reader()
	if err != nil {
		slog.Error("Failed to open synthetic body", "size", size, "error", err)
		http.Error(w, "Failed to open synthetic body", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(src.Size(), 10))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream synthetic body", "size", size, "error", err)
	}
}

func parseFillByte(v string) (byte, error) {
	switch {
	case v == "":
		return 'x', nil
	case len(v) == 1:
		return v[0], nil
	}
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return 0, errors.New("byte must be a single character or a value from 0 to 255")
	}
	return byte(n), nil
}
