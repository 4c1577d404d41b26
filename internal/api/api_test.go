package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/llm"
	"github.com/joescharf/fixxy/internal/models"
)

type fakeAnswerer struct {
	mu     sync.Mutex
	reqs   []models.AskRequest
	answer string
	err    error
}

func (f *fakeAnswerer) Answer(_ context.Context, req models.AskRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.answer, f.err
}

func (f *fakeAnswerer) last() models.AskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func setupTestServer(t *testing.T, opts ...Option) (*Server, *fakeAnswerer) {
	t.Helper()
	fa := &fakeAnswerer{answer: "use a hash map"}
	return NewServer(fa, catalog.Builtin(), opts...), fa
}

func postAsk(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeAnswer(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Answer
}

func TestRoot(t *testing.T) {
	srv, _ := setupTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"IE-Fixxy backend is running!"}`, w.Body.String())
}

func TestAsk_OK(t *testing.T) {
	srv, fa := setupTestServer(t)
	w := postAsk(t, srv.Router(), `{"task":"Explain","question":"Two Sum","language":"Java","code":""}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "use a hash map", decodeAnswer(t, w))
	assert.Equal(t, models.AskRequest{Task: "Explain", Question: "Two Sum", Language: "Java"}, fa.last())
}

func TestAsk_Defaults(t *testing.T) {
	srv, fa := setupTestServer(t)
	w := postAsk(t, srv.Router(), `{"task":"Explain","question":"Two Sum"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	got := fa.last()
	assert.Equal(t, "Python", got.Language)
	assert.Equal(t, "", got.Code)
}

func TestAsk_EmptyQuestionAccepted(t *testing.T) {
	srv, fa := setupTestServer(t)
	w := postAsk(t, srv.Router(), `{"task":"Debug","question":"","code":"int x"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "int x", fa.last().Code)
}

func TestAsk_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no task", `{"question":"Two Sum"}`},
		{"no question", `{"task":"Explain"}`},
		{"empty object", `{}`},
		{"not json", `task=Explain`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, fa := setupTestServer(t)
			w := postAsk(t, srv.Router(), tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Empty(t, fa.reqs)
		})
	}
}

func TestAsk_InvalidTask(t *testing.T) {
	srv, fa := setupTestServer(t)
	fa.err = fmt.Errorf("%w: %q", llm.ErrUnknownTask, "Draw")

	w := postAsk(t, srv.Router(), `{"task":"Draw","question":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Invalid task selected.", decodeAnswer(t, w))
}

func TestAsk_ProviderError(t *testing.T) {
	srv, fa := setupTestServer(t)
	fa.err = errors.New("quota exceeded")

	w := postAsk(t, srv.Router(), `{"task":"Explain","question":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "An error occurred: quota exceeded", decodeAnswer(t, w))
}

func TestAsk_RateLimited(t *testing.T) {
	srv, _ := setupTestServer(t, WithRateLimit(0.001, 1))
	router := srv.Router()

	w := postAsk(t, router, `{"task":"Explain","question":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postAsk(t, router, `{"task":"Explain","question":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAsk_RateLimitSharedAcrossClients(t *testing.T) {
	srv, _ := setupTestServer(t, WithRateLimit(0.001, 1))
	router := srv.Router()

	ask := func(remote string) int {
		req := httptest.NewRequest("POST", "/ask", bytes.NewBufferString(`{"task":"Explain","question":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, ask("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, ask("10.0.0.2:5000"))
}

func TestAsk_RateLimitDisabled(t *testing.T) {
	srv, _ := setupTestServer(t, WithRateLimit(0, 0))
	router := srv.Router()
	for range 20 {
		w := postAsk(t, router, `{"task":"Explain","question":"x"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := setupTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/ask", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest("GET", "/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestListSets(t *testing.T) {
	srv, _ := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/sets", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var sets []*models.ProblemSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sets))
	require.Len(t, sets, 3)
	assert.Equal(t, "Ravi 251", sets[0].Name)
}

func TestListQuestions(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("GET", "/api/v1/sets/ravi251/questions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var questions []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	assert.Equal(t, []string{"Two Sum", "Reverse Linked List", "Binary Search"}, questions)

	req = httptest.NewRequest("GET", "/api/v1/sets/ravi251/questions?q=LINK", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	assert.Equal(t, []string{"Reverse Linked List"}, questions)

	req = httptest.NewRequest("GET", "/api/v1/sets/ravi251/questions?q=zzz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestListQuestions_UnknownSet(t *testing.T) {
	srv, _ := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/sets/nope/questions", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetrics(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()
	postAsk(t, router, `{"task":"Explain","question":"x"}`)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `fixxy_http_requests_total{code="200",route="POST /ask"} 1`)
	assert.Contains(t, body, `fixxy_ask_duration_seconds_count{outcome="ok",task="Explain"} 1`)
}
