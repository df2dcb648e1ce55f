package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// LoginRequest is the body the fake API recorded for one POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response is a canned reply: Status plus a JSON-encoded Body.
type Response struct {
	Status int
	Body   any
}

// FakeAPI is an in-process stand-in for the portfolio backend. It answers
// POST /login with whatever response is currently installed.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	response Response
	requests []LoginRequest
}

// NewFakeAPI starts a server that accepts every login with a fixed token.
// The server is closed when the test finishes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{response: Success("fake_access_token", 1594771200)}

	r := chi.NewRouter()
	r.Post("/login", f.handleLogin)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Use replaces the installed response.
func (f *FakeAPI) Use(resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.response = resp
}

// Requests returns every login body received so far.
func (f *FakeAPI) Requests() []LoginRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LoginRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp := f.response
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if resp.Body != nil {
		_ = json.NewEncoder(w).Encode(resp.Body)
	}
}

func Success(token string, expiry int64) Response {
	return Response{
		Status: http.StatusOK,
		Body:   map[string]any{"access_token": token, "access_expiry": expiry},
	}
}

func Failure(status int, message string) Response {
	return Response{
		Status: status,
		Body:   map[string]string{"message": message},
	}
}
