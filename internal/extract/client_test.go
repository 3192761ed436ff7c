package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/rab/internal/model"
)

// geminiStub serves generateContent with the given model text.
func geminiStub(t *testing.T, status int, body string) (*httptest.Server, *generateRequest) {
	t.Helper()
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	return string(b)
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient("test-key", append([]Option{WithBaseURL(url)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("   ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := NewClient("k", WithModel("gemini-pro"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", c.Model())
}

func TestExtractSuccess(t *testing.T) {
	out := `[{"uraian":"Galian Tanah","volume":10,"satuan":"m3","hargaUpah":50000,"hargaBahan":0},
	         {"uraian":"Pasang Bata","volume":"12,5","satuan":"m2","hargaUpah":"Rp 45.000","hargaBahan":null}]`
	srv, req := geminiStub(t, http.StatusOK, candidateBody(out))

	drafts, err := newTestClient(t, srv.URL).Extract(context.Background(), "Uraian,Volume\nGalian Tanah,10\n")
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, model.Draft{Description: "Galian Tanah", Volume: 10, Unit: "m3", LaborUnitPrice: 50000}, drafts[0])
	assert.Equal(t, 12.5, drafts[1].Volume)
	assert.Equal(t, 45000.0, drafts[1].LaborUnitPrice)
	assert.Equal(t, 0.0, drafts[1].MaterialUnitPrice)

	require.Len(t, req.Contents, 1)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "Galian Tanah,10")
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
	require.NotNil(t, req.GenerationConfig.ResponseSchema)
	assert.Equal(t, "ARRAY", req.GenerationConfig.ResponseSchema.Type)
	assert.ElementsMatch(t, []string{"uraian", "volume", "satuan", "hargaUpah", "hargaBahan"},
		req.GenerationConfig.ResponseSchema.Items.Required)
}

func TestExtractStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{}`, ErrUnauthorized},
		{"bad key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, ErrEmptyResponse},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, ErrEmptyResponse},
		{"not json", http.StatusOK, `<html>`, ErrMalformed},
		{"prose answer", http.StatusOK, candidateBody("Maaf, saya tidak bisa membaca file ini."), ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := geminiStub(t, tt.status, tt.body)
			_, err := newTestClient(t, srv.URL).Extract(context.Background(), "a,b\n")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractServerError(t *testing.T) {
	srv, _ := geminiStub(t, http.StatusInternalServerError, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`)
	_, err := newTestClient(t, srv.URL).Extract(context.Background(), "a,b\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "internal")
}

func TestExtractTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := newTestClient(t, srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.Extract(context.Background(), "a,b\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExtractEmptyCSV(t *testing.T) {
	c, err := NewClient("k")
	require.NoError(t, err)
	_, err = c.Extract(context.Background(), "  \n")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("No,Uraian\n1,Galian\n\n")
	assert.Contains(t, p, "No,Uraian\n1,Galian\n---")
	assert.True(t, strings.HasPrefix(p, "Anda adalah Quantity Surveyor"))
}
