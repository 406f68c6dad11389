package integration

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dgellow/decap-auth/internal/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// beginLogin calls /auth and returns the provider redirect and state cookie.
func beginLogin(t *testing.T, client *http.Client, authURL string) (*url.URL, *http.Cookie) {
	t.Helper()

	resp, err := client.Get(authURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	cookie := stateCookie(resp)
	require.NotNil(t, cookie, "auth must set the state cookie")
	return location, cookie
}

// approveAtProvider follows the provider authorize redirect and returns the
// callback URL it sends the browser back to.
func approveAtProvider(t *testing.T, client *http.Client, authorize *url.URL) string {
	t.Helper()

	resp, err := client.Get(authorize.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOAuthHandshake(t *testing.T) {
	startWithConfig(t, buildTestConfig(serverURL, "/api/decap-auth"))
	client := noRedirectClient()

	t.Run("full popup handshake delivers the token", func(t *testing.T) {
		authorize, cookie := beginLogin(t, client, serverURL+"/api/decap-auth/auth")
		trace(t, "authorize redirect: %s", authorize)

		assert.Equal(t, "localhost:"+fakeGitHubPort, authorize.Host)
		q := authorize.Query()
		assert.Equal(t, fakeClientID, q.Get("client_id"))
		assert.Equal(t, serverURL+"/api/decap-auth/callback", q.Get("redirect_uri"))
		assert.Equal(t, "public_repo", q.Get("scope"))
		assert.Equal(t, "false", q.Get("allow_signup"))
		assert.Equal(t, cookie.Value, q.Get("state"))
		assert.Equal(t, "/api/decap-auth", cookie.Path)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)

		callback := approveAtProvider(t, client, authorize)
		require.True(t, strings.HasPrefix(callback, serverURL+"/api/decap-auth/callback?"), callback)

		resp, err := getWithCookie(client, callback, cookie)
		require.NoError(t, err)
		defer resp.Body.Close()

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
		assert.Contains(t, body, delivery.JSLiteral(delivery.SuccessMessage("github", fakeGitHubToken)))

		cleared := stateCookie(resp)
		require.NotNil(t, cleared, "callback must clear the state cookie")
		assert.Equal(t, "", cleared.Value)
	})

	t.Run("each login gets a fresh state", func(t *testing.T) {
		_, first := beginLogin(t, client, serverURL+"/api/decap-auth/auth")
		_, second := beginLogin(t, client, serverURL+"/api/decap-auth/auth")
		assert.NotEqual(t, first.Value, second.Value)
	})

	t.Run("callback without the state cookie is rejected", func(t *testing.T) {
		authorize, _ := beginLogin(t, client, serverURL+"/api/decap-auth/auth")
		callback := approveAtProvider(t, client, authorize)

		resp, err := getWithCookie(client, callback, nil)
		require.NoError(t, err)
		defer resp.Body.Close()

		body := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Invalid OAuth state")
		assert.Contains(t, body, delivery.ErrorPrefix("github"))
	})

	t.Run("callback with a different state is rejected", func(t *testing.T) {
		_, cookie := beginLogin(t, client, serverURL+"/api/decap-auth/auth")

		resp, err := getWithCookie(client,
			serverURL+"/api/decap-auth/callback?code="+fakeGitHubCode+"&state=forged", cookie)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Invalid OAuth state")
	})

	t.Run("callback without code is rejected", func(t *testing.T) {
		_, cookie := beginLogin(t, client, serverURL+"/api/decap-auth/auth")

		resp, err := getWithCookie(client,
			serverURL+"/api/decap-auth/callback?state="+url.QueryEscape(cookie.Value), cookie)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Missing ?code")
	})

	t.Run("provider OAuth error is reported to the opener", func(t *testing.T) {
		_, cookie := beginLogin(t, client, serverURL+"/api/decap-auth/auth")

		resp, err := getWithCookie(client,
			serverURL+"/api/decap-auth/callback?code=expired&state="+url.QueryEscape(cookie.Value), cookie)
		require.NoError(t, err)
		defer resp.Body.Close()

		body := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "OAuth error: The code passed is incorrect or expired.")
		assert.Contains(t, body, delivery.JSLiteral(delivery.ErrorMessage("github", "OAuth error: The code passed is incorrect or expired.")))
	})

	t.Run("non-canonical host is bounced without a cookie", func(t *testing.T) {
		resp, err := client.Get("http://127.0.0.1:8080/api/decap-auth/auth?site_id=example.com&scope=repo")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, serverURL+"/api/decap-auth/auth?site_id=example.com&scope=repo", resp.Header.Get("Location"))
		assert.Nil(t, stateCookie(resp))
	})

	t.Run("cross-origin requests get CORS headers", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, serverURL+"/api/decap-auth/auth", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://editor.example.com")

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "https://editor.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestOAuthHandshake_WrongClientSecret(t *testing.T) {
	startWithConfig(t, buildTestConfig(serverURL, "/api/decap-auth"), "GITHUB_CLIENT_SECRET=wrong")
	client := noRedirectClient()

	authorize, cookie := beginLogin(t, client, serverURL+"/api/decap-auth/auth")
	callback := approveAtProvider(t, client, authorize)

	resp, err := getWithCookie(client, callback, cookie)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "OAuth error: The client_id and/or client_secret passed are incorrect.")
}
