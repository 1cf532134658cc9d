package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/windrose-service/internal/adapter/http"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/render"
	"github.com/couchcryptid/windrose-service/internal/windrose"
)

const maxUpload = 64 << 10

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	r, err := render.New(render.WithDiameter(200))
	require.NoError(t, err)
	svc := windrose.NewService(r, discardLogger(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, svc, maxUpload, discardLogger())
}

func readExport(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../pipeline/testdata/rp5_khrabrovo.csv")
	require.NoError(t, err)
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestWindrose_RawBody(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", bytes.NewReader(readExport(t)))
	req.Header.Set("Content-Type", "text/csv")

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, render.Caption, rec.Header().Get(httpadapter.HeaderCaption))
	assert.Equal(t, "4.2%", rec.Header().Get(httpadapter.HeaderCalmPercent))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])
}

func TestWindrose_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "khrabrovo.csv")
	require.NoError(t, err)
	_, err = part.Write(readExport(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestWindrose_MultipartMissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWindrose_MissingColumns(t *testing.T) {
	doc := strings.Replace(string(readExport(t)), `"DD"`, `"Wind"`, 1)

	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", strings.NewReader(doc))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"DD"}, body["missing_columns"])
}

func TestWindrose_NoResolvableDirection(t *testing.T) {
	doc := "1\n2\n3\n4\n5\n6\n\"Местное время в Калининграде\";\"DD\";\"Ff\"\n\"01.01.2024 00:00\";\"Штиль, безветрие\";\"0\"\n"

	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", strings.NewReader(doc))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestWindrose_Truncated(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", strings.NewReader("only one line"))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWindrose_TooLarge(t *testing.T) {
	doc := strings.Repeat("#\n", 6) + strings.Repeat("x", maxUpload+1)

	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/windrose", strings.NewReader(doc))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestWindrose_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/windrose", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
