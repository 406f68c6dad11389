package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

const (
	binaryPath = "../cmd/decap-auth/decap-auth"
	serverURL  = "http://localhost:8080"
)

// writeTestConfig writes a config map to a temporary JSON file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTestConfig(t *testing.T, cfg map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close temp config: %v", err)
	}
	return f.Name()
}

// buildTestConfig builds a complete decap-auth config map pointed at the
// fake GitHub server.
func buildTestConfig(redirectBase, basePath string) map[string]any {
	github := "http://localhost:" + fakeGitHubPort
	return map[string]any{
		"version": "v0.0.1-DEV_EDITION",
		"server": map[string]any{
			"addr":         ":8080",
			"redirectBase": redirectBase,
			"basePath":     basePath,
		},
		"oauth": map[string]any{
			"provider":     "github",
			"clientId":     map[string]string{"$env": "GITHUB_CLIENT_ID"},
			"clientSecret": map[string]string{"$env": "GITHUB_CLIENT_SECRET"},
			"authorizeUrl": github + "/login/oauth/authorize",
			"tokenUrl":     github + "/login/oauth/access_token",
		},
		"admin": map[string]any{
			"path":         "/admin/",
			"editorConfig": "/admin/config.yml",
		},
	}
}

// defaultTestEnv is the environment every decap-auth instance starts with.
func defaultTestEnv() []string {
	return []string{
		"DECAP_AUTH_ENV=dev",
		"GITHUB_CLIENT_ID=" + fakeClientID,
		"GITHUB_CLIENT_SECRET=" + fakeSecret,
	}
}

// trace logs a message if TRACE environment variable is set
func trace(t *testing.T, format string, args ...any) {
	if os.Getenv("TRACE") == "1" {
		t.Logf("TRACE: "+format, args...)
	}
}

// startDecapAuth starts decap-auth with the given arguments
func startDecapAuth(t *testing.T, args []string, extraEnv ...string) {
	cmd := exec.Command(binaryPath, args...)

	cmd.Env = append(os.Environ(), defaultTestEnv()...)
	// Extra env can override defaults
	cmd.Env = append(cmd.Env, extraEnv...)

	if logFile := os.Getenv("DECAP_AUTH_LOG_FILE"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			cmd.Stderr = f
			cmd.Stdout = f
			t.Cleanup(func() { f.Close() })
		}
	}

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start decap-auth: %v", err)
	}
	trace(t, "started decap-auth pid=%d args=%v", cmd.Process.Pid, args)

	t.Cleanup(func() {
		stopDecapAuth(cmd)
	})
}

// startWithConfig writes cfg to disk and starts decap-auth with it
func startWithConfig(t *testing.T, cfg map[string]any, extraEnv ...string) {
	startDecapAuth(t, []string{"-config", writeTestConfig(t, cfg)}, extraEnv...)
	waitForDecapAuth(t)
}

// stopDecapAuth stops decap-auth gracefully
func stopDecapAuth(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}

	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

// waitForDecapAuth waits for decap-auth to answer its health check
func waitForDecapAuth(t *testing.T) {
	t.Helper()
	for range 50 {
		resp, err := http.Get(serverURL + "/healthz")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatal("decap-auth failed to become ready after 10 seconds")
}

// noRedirectClient returns a client that surfaces redirects instead of following them
func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// stateCookie returns the state cookie set on resp, or nil
func stateCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "decap_state" {
			return c
		}
	}
	return nil
}

// getWithCookie issues a GET carrying the given cookie. The state cookie
// is Secure, so a cookie jar would not replay it over plain http.
func getWithCookie(client *http.Client, target string, c *http.Cookie) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c != nil {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return client.Do(req)
}
