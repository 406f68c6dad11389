package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/dgellow/decap-auth/internal/cookie"
	"github.com/dgellow/decap-auth/internal/delivery"
	"github.com/dgellow/decap-auth/internal/idp"
	"github.com/dgellow/decap-auth/internal/log"
	"github.com/dgellow/decap-auth/internal/oauthstate"
	"github.com/dgellow/decap-auth/internal/urlutil"
)

// AuthHandlers serves the auth subtree: the authorization redirect and the
// provider callback. They hold no mutable state.
type AuthHandlers struct {
	provider  idp.Provider
	states    oauthstate.Issuer
	canonical urlutil.Canonicalizer
	basePath  string
	adminPath string
}

// NewAuthHandlers creates new auth handlers with dependency injection
func NewAuthHandlers(
	provider idp.Provider,
	states oauthstate.Issuer,
	canonical urlutil.Canonicalizer,
	basePath string,
	adminPath string,
) *AuthHandlers {
	return &AuthHandlers{
		provider:  provider,
		states:    states,
		canonical: canonical,
		basePath:  basePath,
		adminPath: adminPath,
	}
}

func (h *AuthHandlers) authPath() string {
	return h.basePath + "/auth"
}

func (h *AuthHandlers) callbackURL(r *http.Request) (string, error) {
	return urlutil.JoinPath(h.canonical.BaseFor(r), h.basePath, "callback")
}

// AuthorizeHandler starts a login. A request that did not arrive on the
// canonical origin is first bounced there, without a cookie, so that the
// state cookie and the callback share one origin.
func (h *AuthHandlers) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	if target, ok := h.canonical.BounceURL(r, h.authPath()); ok {
		log.LogDebugWithFields("auth", "Bouncing to canonical origin", map[string]any{
			"from": h.canonical.RequestOrigin(r),
			"to":   h.canonical.BaseFor(r),
		})
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	if err := h.provider.CheckClient(false); err != nil {
		log.LogErrorWithFields("auth", "OAuth client not configured", map[string]any{
			"error": err.Error(),
		})
		http.Error(w, "Missing OAuth client ID", http.StatusInternalServerError)
		return
	}

	redirectURI, err := h.callbackURL(r)
	if err != nil {
		log.LogError("Failed to build callback URL: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	state, stateCookie, err := h.states.Issue()
	if err != nil {
		log.LogError("Failed to issue OAuth state: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	authURL, err := h.provider.AuthURL(state, redirectURI)
	if err != nil {
		log.LogError("Failed to build authorization URL: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// The cookie must ride on the same response as the redirect.
	cookie.SetState(w, stateCookie)
	log.LogInfoWithFields("auth", "Redirecting to identity provider", map[string]any{
		"provider":    h.provider.Type(),
		"redirectURI": redirectURI,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler completes a login: it validates the state, exchanges the
// code once and answers with a document that delivers the credential to the
// opener. Every response clears the state cookie.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie.ClearState(w, h.states.Path())

	if err := h.provider.CheckClient(true); err != nil {
		log.LogErrorWithFields("auth", "OAuth client not configured", map[string]any{
			"error": err.Error(),
		})
		h.writeError(w, http.StatusInternalServerError, "Missing OAuth client ID or secret")
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "Missing ?code")
		return
	}

	if err := h.states.ValidateRequest(r); err != nil {
		log.LogWarnWithFields("auth", "Rejected callback", map[string]any{
			"reason": err.Error(),
		})
		h.writeError(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	redirectURI, err := h.callbackURL(r)
	if err != nil {
		log.LogError("Failed to build callback URL: %v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	token, err := h.provider.ExchangeCode(r.Context(), code, query.Get("state"), redirectURI)
	if err != nil {
		var exchangeErr *idp.ExchangeError
		if !errors.As(err, &exchangeErr) {
			log.LogError("Token exchange failed: %v", err)
			h.writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		log.LogWarnWithFields("auth", "Token exchange failed", map[string]any{
			"kind":   string(exchangeErr.Kind),
			"status": exchangeErr.StatusCode,
			"code":   exchangeErr.Code,
		})
		h.writeError(w, exchangeErr.HTTPStatus(), exchangeErr.Reason())
		return
	}

	provider := h.provider.Type()
	log.LogInfoWithFields("auth", "Login completed", map[string]any{
		"provider": provider,
	})
	h.writePage(w, http.StatusOK, successPageTemplate, SuccessPageData{
		Token:        token.AccessToken,
		Message:      delivery.SuccessMessage(provider, token.AccessToken),
		StorageKeys:  delivery.StorageKeys,
		AdminPath:    h.adminPath,
		CloseDelayMS: closeDelayMS,
	})
}

// RootHandler answers the base path itself.
func (h *AuthHandlers) RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}

// NotFoundHandler answers unknown paths under the base path.
func (h *AuthHandlers) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not found", http.StatusNotFound)
}

func (h *AuthHandlers) writeError(w http.ResponseWriter, status int, reason string) {
	h.writePage(w, status, errorPageTemplate, ErrorPageData{
		Reason:    reason,
		Message:   delivery.ErrorMessage(h.provider.Type(), reason),
		AdminPath: h.adminPath,
	})
}

type pageTemplate interface {
	Execute(w io.Writer, data any) error
}

// writePage renders into a buffer first so a template error still yields a
// clean 500.
func (h *AuthHandlers) writePage(w http.ResponseWriter, status int, tmpl pageTemplate, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.LogError("Failed to render page: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
