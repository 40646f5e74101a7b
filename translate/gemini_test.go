package translate

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
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGemini("test-key", "gemini-test", 5*time.Second)
	g.BaseURL = srv.URL
	g.Client = srv.Client()
	return g
}

func TestGemini_Success(t *testing.T) {
	var gotBody geminiRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Hola "},{"text":"{name}"}]},"finishReason":"STOP"}]}`)
	})

	out, err := g.Translate(context.Background(), Request{Text: "Hello {name}", SourceLang: "en", TargetLang: "es"})
	require.NoError(t, err)
	assert.Equal(t, "Hola {name}", out)

	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Hello {name}")
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Contains(t, gotBody.SystemInstruction.Parts[0].Text, "Spanish")
}

func TestGemini_StatusWithErrorBody(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := g.Translate(context.Background(), Request{Text: "Hi", SourceLang: "en", TargetLang: "es"})
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindStatus, terr.Kind)
	assert.Equal(t, http.StatusBadRequest, terr.Status)
	assert.Equal(t, "es", terr.Lang)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", terr.Message)
}

func TestGemini_StatusWithRawBody(t *testing.T) {
	long := strings.Repeat("x", 800)
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, long)
	})

	_, err := g.Translate(context.Background(), Request{Text: "Hi", SourceLang: "en", TargetLang: "de"})
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindStatus, terr.Kind)
	assert.Equal(t, strings.Repeat("x", 500)+"...", terr.Message)
}

func TestGemini_NoCandidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "blocked prompt", body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, msg: "blockReason SAFETY"},
		{name: "empty candidates", body: `{"candidates":[]}`, msg: "no candidates"},
		{name: "blank text", body: `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"MAX_TOKENS"}]}`, msg: "finishReason MAX_TOKENS"},
		{name: "no parts", body: `{"candidates":[{"content":{},"finishReason":"SAFETY"}]}`, msg: "empty text"},
		{name: "not json", body: `<html>`, msg: "invalid JSON"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			})
			_, err := g.Translate(context.Background(), Request{Text: "Hi", SourceLang: "en", TargetLang: "fr"})
			var terr *Error
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, KindNoCandidate, terr.Kind)
			assert.Contains(t, terr.Message, tc.msg)
		})
	}
}

func TestGemini_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGemini("k", "", time.Second)
	g.BaseURL = url
	_, err := g.Translate(context.Background(), Request{Text: "Hi", SourceLang: "en", TargetLang: "it"})
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindTransport, terr.Kind)
	assert.Equal(t, "it", terr.Lang)
}

func TestGemini_TimeoutIsTransport(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	g.Client.Timeout = 50 * time.Millisecond

	_, err := g.Translate(context.Background(), Request{Text: "Hi", SourceLang: "en", TargetLang: "ja"})
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindTransport, terr.Kind)
}

func TestNewGemini_Defaults(t *testing.T) {
	g := NewGemini("k", "", 0)
	assert.Equal(t, DefaultModel, g.Model)
	assert.Equal(t, DefaultGeminiBaseURL, g.BaseURL)
	assert.NotNil(t, g.Client)
}
