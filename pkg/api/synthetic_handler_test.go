package api

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSyntheticRouter(maxSize int64) http.Handler {
	router := chi.NewRouter()
	router.Mount("/synthetic", NewSyntheticHandler(maxSize).Routes())
	return router
}

func TestSyntheticHandler_GetSynthetic(t *testing.T) {
	router := setupSyntheticRouter(1 << 20)

	rr := get(router, "/synthetic/100000?byte=a")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "100000", rr.Header().Get("Content-Length"))
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, bytes.Repeat([]byte("a"), 100000), rr.Body.Bytes())
}

func TestSyntheticHandler_FillByte(t *testing.T) {
	router := setupSyntheticRouter(0)

	tests := []struct {
		name  string
		query string
		want  byte
	}{
		{"default", "", 'x'},
		{"character", "?byte=z", 'z'},
		{"decimal", "?byte=0", 0},
		{"decimal max", "?byte=255", 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(router, "/synthetic/3"+tt.query)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, []byte{tt.want, tt.want, tt.want}, rr.Body.Bytes())
		})
	}
}

func TestSyntheticHandler_BadRequests(t *testing.T) {
	router := setupSyntheticRouter(1024)

	for _, path := range []string{
		"/synthetic/abc",
		"/synthetic/0",
		"/synthetic/-5",
		"/synthetic/2048",
		"/synthetic/10?byte=256",
		"/synthetic/10?byte=ab",
	} {
		t.Run(path, func(t *testing.T) {
			rr := get(router, path)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}
