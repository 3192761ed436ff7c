package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/extract"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/store"
)

type stubExtractor struct {
	drafts []model.Draft
	err    error
}

func (s stubExtractor) Extract(context.Context, string) ([]model.Draft, error) {
	return s.drafts, s.err
}

func setupRouter(t *testing.T, ex budget.Extractor) (*Server, *budget.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := budget.New(store.New(), ex, budget.Config{})
	return New(svc, Config{Title: "RAB Test"}), svc
}

func do(t *testing.T, srv *Server, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv, _ := setupRouter(t, nil)
	w := do(t, srv, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
}

func TestAddListDeleteItems(t *testing.T) {
	srv, svc := setupRouter(t, nil)

	body := bytes.NewBufferString(`{"uraian":"Galian Tanah","volume":10,"satuan":"m3","hargaUpah":"50000","hargaBahan":0}`)
	w := do(t, srv, http.MethodPost, "/v1/items", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.True(t, resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Galian Tanah", data["uraian"])
	assert.Equal(t, 500000.0, data["jumlahHarga"])
	id := data["id"].(string)

	w = do(t, srv, http.MethodGet, "/v1/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var sum struct {
		Data model.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 500000.0, sum.Data.Totals.Grand)

	w = do(t, srv, http.MethodDelete, "/v1/items/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, srv, http.MethodDelete, "/v1/items/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.Items())
}

func TestAddItemValidation(t *testing.T) {
	srv, svc := setupRouter(t, nil)

	for name, body := range map[string]string{
		"missing fields": `{"volume":1}`,
		"blank fields":   `{"uraian":"  ","volume":"1","satuan":" "}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/v1/items", bytes.NewBufferString(body), "application/json")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Status)
			assert.Equal(t, "validation", resp.Kind)
			assert.Equal(t, budget.MsgMissingField, resp.Message)
		})
	}

	w := do(t, srv, http.MethodPost, "/v1/items", bytes.NewBufferString(`{"uraian":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.Items())
}

func TestAddItemNonNumericVolume(t *testing.T) {
	srv, svc := setupRouter(t, nil)
	form := url.Values{"uraian": {"Bongkaran"}, "volume": {"abc"}, "satuan": {"m2"}, "hargaUpah": {"1000"}}
	w := do(t, srv, http.MethodPost, "/v1/items", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 0.0, svc.Summary().Totals.Grand)
}

func TestUploadReplacesItems(t *testing.T) {
	srv, svc := setupRouter(t, stubExtractor{drafts: []model.Draft{
		{Description: "a", Volume: 2, Unit: "m", MaterialUnitPrice: 1000},
		{Description: "b", Volume: 3, Unit: "m", MaterialUnitPrice: 1000},
	}})
	_, _ = svc.AddEntry(model.Entry{Description: "old", Volume: "1", Unit: "ls"})

	body, ct := multipartBody(t, "rab.csv", []byte("Uraian,Volume\na,2\n"))
	w := do(t, srv, http.MethodPost, "/v1/upload", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	items := svc.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 5000.0, svc.Summary().Totals.Grand)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name string
		ex   budget.Extractor
		file string
		data []byte
		code int
		kind string
	}{
		{"no key", nil, "rab.csv", []byte("a,b\n1,2\n"), http.StatusServiceUnavailable, "config"},
		{"image", stubExtractor{}, "pic.png", []byte("\x89PNG\r\n\x1a\n0000000"), http.StatusUnsupportedMediaType, "ingestion"},
		{"ai failed", stubExtractor{err: extract.ErrMalformed}, "rab.csv", []byte("a,b\n1,2\n"), http.StatusBadGateway, "extraction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := setupRouter(t, tt.ex)
			kept, _ := svc.AddEntry(model.Entry{Description: "keep", Volume: "1", Unit: "ls"})

			body, ct := multipartBody(t, tt.file, tt.data)
			w := do(t, srv, http.MethodPost, "/v1/upload", body, ct)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.kind, decode(t, w).Kind)

			items := svc.Items()
			require.Len(t, items, 1)
			assert.Equal(t, kept.ID, items[0].ID)
		})
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv, _ := setupRouter(t, stubExtractor{})
	w := do(t, srv, http.MethodPost, "/v1/upload", bytes.NewBufferString(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusAndEvents(t *testing.T) {
	srv, svc := setupRouter(t, nil)
	_, _ = svc.AddEntry(model.Entry{Description: "a", Volume: "1", Unit: "ls", LaborUnitPrice: "5"})

	w := do(t, srv, http.MethodGet, "/v1/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st budget.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Count)
	assert.False(t, st.Loading)
	assert.False(t, st.AIConfigured)

	w = do(t, srv, http.MethodGet, "/v1/events", nil, "")
	var events []budget.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, budget.EventItemAdded, events[0].Type)
}

func TestPage(t *testing.T) {
	srv, svc := setupRouter(t, nil)
	_, _ = svc.AddEntry(model.Entry{Description: "<b>Galian</b>", Volume: "10", Unit: "m3", LaborUnitPrice: "50000"})

	w := do(t, srv, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>RAB Test</title>")
	assert.Contains(t, body, "&lt;b&gt;Galian&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Galian</b>")
	assert.Contains(t, body, "Rp 500.000")
	assert.Contains(t, body, "Total Biaya")
}

func TestPageEmpty(t *testing.T) {
	srv, _ := setupRouter(t, nil)
	w := do(t, srv, http.MethodGet, "/?error=Gagal", nil, "")
	body := w.Body.String()
	assert.Contains(t, body, "Belum ada item")
	assert.Contains(t, body, "Gagal")
	assert.Contains(t, body, "Rp 0")
}

func TestFormFlow(t *testing.T) {
	srv, svc := setupRouter(t, nil)

	form := url.Values{"uraian": {"Galian"}, "volume": {"2"}, "satuan": {"m3"}}
	w := do(t, srv, http.MethodPost, "/items", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	items := svc.Items()
	require.Len(t, items, 1)

	w = do(t, srv, http.MethodPost, "/items", bytes.NewBufferString("volume=1"), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/?error="))
	assert.Len(t, svc.Items(), 1)

	w = do(t, srv, http.MethodPost, "/items/"+items[0].ID+"/delete", nil, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, svc.Items())

	body, ct := multipartBody(t, "rab.csv", []byte("a,b\n1,2\n"))
	w = do(t, srv, http.MethodPost, "/upload", body, ct)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=")
	assert.Equal(t, budget.MsgMissingKey, svc.Status().LastError)

	w = do(t, srv, http.MethodPost, "/error/clear", nil, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, svc.Status().LastError)
}

func TestExports(t *testing.T) {
	srv, svc := setupRouter(t, nil)
	_, _ = svc.AddEntry(model.Entry{Description: "a", Volume: "1", Unit: "ls", LaborUnitPrice: "5"})

	w := do(t, srv, http.MethodGet, "/v1/export/xlsx", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = do(t, srv, http.MethodGet, "/v1/export/pdf", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestStream(t *testing.T) {
	srv, svc := setupRouter(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	next := func() string {
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "event: ") {
				return strings.TrimPrefix(line, "event: ")
			}
		}
		return ""
	}
	require.Equal(t, budget.EventSnapshot, next())

	_, _ = svc.AddEntry(model.Entry{Description: "a", Volume: "1", Unit: "ls"})
	assert.Equal(t, budget.EventItemAdded, next())
}

func TestRunShutsDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := New(budget.New(nil, nil, budget.Config{}), Config{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
