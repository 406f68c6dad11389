package cookie

import (
	"net/http"
	"time"

	"github.com/dgellow/decap-auth/internal/log"
)

// StateCookie carries the OAuth state nonce between /auth and /callback
const StateCookie = "decap_state"

// NewState builds the state cookie scoped to the auth subtree.
// The attributes are fixed: the callback is a top-level GET navigation
// from the provider, which Lax permits.
func NewState(value, path string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
}

// ClearedState builds a cookie that deletes the state cookie (Max-Age=0).
func ClearedState(path string) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    "",
		Path:     path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// SetState sets the state cookie on the response
func SetState(w http.ResponseWriter, c *http.Cookie) {
	http.SetCookie(w, c)

	log.LogTraceWithFields("cookie", "State cookie set", map[string]any{
		"path":   c.Path,
		"maxAge": c.MaxAge,
	})
}

// ClearState removes the state cookie
func ClearState(w http.ResponseWriter, path string) {
	http.SetCookie(w, ClearedState(path))
	log.LogTraceWithFields("cookie", "State cookie cleared", nil)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// GetState retrieves the state cookie value, or "" when absent
func GetState(r *http.Request) string {
	value, err := Get(r, StateCookie)
	if err != nil {
		return ""
	}
	return value
}
