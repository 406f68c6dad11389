package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	fakeGitHubPort  = "9092"
	fakeGitHubCode  = "github-test-code"
	fakeGitHubToken = "github-test-token"
	fakeClientID    = "abc"
	fakeSecret      = "github-test-secret"
)

// FakeGitHubServer simulates GitHub's OAuth endpoints for integration testing.
type FakeGitHubServer struct {
	server *http.Server
	port   string
}

// NewFakeGitHubServer creates a new fake GitHub server.
// The authorize endpoint approves immediately; the token endpoint answers
// the way github.com does, with HTTP 200 carrying either a token or an
// OAuth error.
func NewFakeGitHubServer(port string) *FakeGitHubServer {
	mux := http.NewServeMux()

	mux.HandleFunc("/login/oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client_id") != fakeClientID {
			http.Error(w, "unknown client", http.StatusNotFound)
			return
		}
		target := fmt.Sprintf("%s?code=%s&state=%s",
			q.Get("redirect_uri"), fakeGitHubCode, url.QueryEscape(q.Get("state")))
		http.Redirect(w, r, target, http.StatusFound)
	})

	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if r.FormValue("client_id") != fakeClientID || r.FormValue("client_secret") != fakeSecret {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":             "incorrect_client_credentials",
				"error_description": "The client_id and/or client_secret passed are incorrect.",
			})
			return
		}

		if r.FormValue("code") != fakeGitHubCode {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":             "bad_verification_code",
				"error_description": "The code passed is incorrect or expired.",
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fakeGitHubToken,
			"token_type":   "bearer",
			"scope":        "public_repo",
		})
	})

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return &FakeGitHubServer{
		server: server,
		port:   port,
	}
}

// URL returns the fake server's base URL
func (s *FakeGitHubServer) URL() string {
	return "http://localhost:" + s.port
}

// Start starts the fake GitHub server
func (s *FakeGitHubServer) Start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	return nil
}

// Stop stops the fake GitHub server
func (s *FakeGitHubServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
