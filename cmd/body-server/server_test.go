package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-body/pkg/api"
	"github.com/tendant/simple-body/pkg/blobstore/memory"
	"github.com/tendant/simple-body/pkg/config"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Environment:      "testing",
		StorageURL:       "memory://",
		RequestTimeout:   5 * time.Second,
		MaxSyntheticSize: 1 << 20,
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	handler, err := NewHTTPServer(memory.New(), cfg).Routes()
	require.NoError(t, err)
	return handler
}

func do(t *testing.T, handler http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t, newTestConfig())

	rr := do(t, handler, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "testing", resp["environment"])
}

func TestBodyLifecycle(t *testing.T) {
	handler := newTestHandler(t, newTestConfig())

	rr := do(t, handler, http.MethodPost, "/api/v1/bodies", "application/json", strings.NewReader(`{"name":"body"}`))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created api.BodyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.Key)

	rr = do(t, handler, http.MethodGet, "/api/v1/bodies/"+created.Key+"?as=json", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"name":"body"}`, rr.Body.String())

	rr = do(t, handler, http.MethodPut, "/api/v1/bodies/copy", "application/json", strings.NewReader(`{"name":"body"}`))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, handler, http.MethodGet, "/api/v1/bodies/"+created.Key+"/compare/copy", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var cmp api.CompareResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cmp))
	assert.True(t, cmp.Equal)

	rr = do(t, handler, http.MethodDelete, "/api/v1/bodies/"+created.Key, "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, handler, http.MethodGet, "/api/v1/bodies/"+created.Key, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSyntheticLimit(t *testing.T) {
	handler := newTestHandler(t, newTestConfig())

	rr := do(t, handler, http.MethodGet, "/api/v1/synthetic/1024?byte=q", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bytes.Repeat([]byte("q"), 1024), rr.Body.Bytes())

	rr = do(t, handler, http.MethodGet, "/api/v1/synthetic/2097152", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIKeyGuardsBodies(t *testing.T) {
	cfg := newTestConfig()
	// sha256("secret")
	cfg.APIKeySHA256 = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	handler := newTestHandler(t, cfg)

	rr := do(t, handler, http.MethodPut, "/api/v1/bodies/k", "text/plain", strings.NewReader("v"))
	assert.NotEqual(t, http.StatusOK, rr.Code)

	// synthetic bodies stay public
	rr = do(t, handler, http.MethodGet, "/api/v1/synthetic/8", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
