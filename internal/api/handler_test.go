package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savelyeva/docextract/internal/store"
	"github.com/savelyeva/docextract/internal/task"
)

func setupTestAPI(t *testing.T) (http.Handler, *store.Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	s, err := store.New(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	return NewRouter(NewHandler(s, nil)), s, mr
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestSubmitInvoice(t *testing.T) {
	router, s, _ := setupTestAPI(t)

	body, contentType := multipartBody(t, "invoice.txt", "text/plain", []byte("Invoice No. 42"))
	req := httptest.NewRequest("POST", "/invoices", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, "/tasks/"+resp.TaskID, resp.StatusURL)

	rec, err := s.Get(context.Background(), resp.TaskID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, task.StatusPending, rec.Status)
	assert.Equal(t, "invoice.txt", rec.SourceFilename)
	assert.Equal(t, "text/plain", rec.MediaType)
	assert.Equal(t, []byte("Invoice No. 42"), rec.RawContent)
}

func TestSubmitInvoice_UnsupportedMediaType(t *testing.T) {
	router, _, mr := setupTestAPI(t)

	body, contentType := multipartBody(t, "cat.png", "image/png", []byte("pretend image"))
	req := httptest.NewRequest("POST", "/invoices", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	// Rejected before any record exists: zero store writes.
	assert.Empty(t, mr.Keys())
}

func TestSubmitInvoice_EmptyPayload(t *testing.T) {
	router, _, mr := setupTestAPI(t)

	body, contentType := multipartBody(t, "empty.txt", "text/plain", nil)
	req := httptest.NewRequest("POST", "/invoices", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, mr.Keys())
}

func TestSubmitInvoice_NoFileField(t *testing.T) {
	router, _, mr := setupTestAPI(t)

	req := httptest.NewRequest("POST", "/invoices", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, mr.Keys())
}

func TestGetTask_NotFound(t *testing.T) {
	router, _, _ := setupTestAPI(t)

	req := httptest.NewRequest("GET", "/tasks/non-existent-id", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetTask_ProjectionHidesContent(t *testing.T) {
	router, s, _ := setupTestAPI(t)

	rec := task.New("t1", "secret.pdf", "application/pdf", []byte("sensitive document bytes"))
	require.NoError(t, s.Put(context.Background(), rec))

	req := httptest.NewRequest("GET", "/tasks/t1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, string(task.StatusPending), m["status"])
	assert.NotContains(t, m, "raw_content")
	assert.NotContains(t, m, "media_type")
	assert.NotContains(t, rr.Body.String(), "sensitive document bytes")
}

func TestGetTask_TerminalReadIsIdempotent(t *testing.T) {
	router, s, _ := setupTestAPI(t)

	rec := task.New("t1", "a.txt", "text/plain", []byte("x"))
	rec.Status = task.StatusFailed
	rec.RawContent = nil
	rec.Error = &task.ErrorDescriptor{Kind: task.KindEmptyOrUnreadable, Message: "no text"}
	require.NoError(t, s.Put(context.Background(), rec))

	var first string
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/tasks/t1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		if i == 0 {
			first = rr.Body.String()
			continue
		}
		assert.Equal(t, first, rr.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := setupTestAPI(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
