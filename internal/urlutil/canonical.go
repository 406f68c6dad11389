package urlutil

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Canonicalizer pins the OAuth flow to one origin so that the state cookie
// set by /auth is visible to /callback.
type Canonicalizer struct {
	// Base is the configured canonical origin (scheme://host[:port]).
	// When empty the request's own origin is used.
	Base string
	// TrustForwarded honours X-Forwarded-Proto and X-Forwarded-Host.
	TrustForwarded bool
}

// RequestOrigin returns scheme://host for the request.
func (c Canonicalizer) RequestOrigin(r *http.Request) string {
	scheme, _ := c.requestScheme(r)
	return scheme + "://" + c.requestHost(r)
}

// requestScheme returns the scheme the client used. The second result is
// false when it cannot be known: a plain-http listener behind a TLS
// terminating proxy sees "http" either way.
func (c Canonicalizer) requestScheme(r *http.Request) (string, bool) {
	if c.TrustForwarded {
		if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			return strings.ToLower(proto), true
		}
	}
	if r.TLS != nil {
		return "https", true
	}
	return "http", false
}

func (c Canonicalizer) requestHost(r *http.Request) string {
	if c.TrustForwarded {
		if fwdHost := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwdHost != "" {
			return strings.ToLower(fwdHost)
		}
	}
	return strings.ToLower(r.Host)
}

// BaseFor returns the canonical origin for the request, without a trailing
// slash.
func (c Canonicalizer) BaseFor(r *http.Request) string {
	if base := strings.TrimRight(c.Base, "/"); base != "" {
		return base
	}
	return c.RequestOrigin(r)
}

// IsCanonical reports whether the request arrived on the canonical origin.
// Hosts are compared without default ports. The scheme is compared only
// when the request's scheme is known.
func (c Canonicalizer) IsCanonical(r *http.Request) bool {
	base := strings.TrimRight(c.Base, "/")
	if base == "" {
		return true
	}
	u, err := url.Parse(base)
	if err != nil {
		return false
	}

	baseScheme := strings.ToLower(u.Scheme)
	scheme, known := c.requestScheme(r)
	host := c.requestHost(r)
	if known {
		if scheme != baseScheme {
			return false
		}
		host = stripDefaultPort(scheme, host)
	} else {
		host = stripDefaultPort("http", stripDefaultPort("https", host))
	}
	return stripDefaultPort(baseScheme, u.Host) == host
}

// BounceURL returns the URL the request must be redirected to when it did
// not arrive on the canonical origin: the canonical base joined with
// authPath, carrying the original query unchanged. The second result is
// false when the request is already canonical.
func (c Canonicalizer) BounceURL(r *http.Request, authPath string) (string, bool) {
	if c.IsCanonical(r) {
		return "", false
	}

	target, err := JoinPath(c.BaseFor(r), authPath)
	if err != nil {
		return "", false
	}
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target, true
}

// StripDefaultPort lowercases host and drops the scheme's default port.
func StripDefaultPort(scheme, host string) string {
	return stripDefaultPort(strings.ToLower(scheme), host)
}

func stripDefaultPort(scheme, host string) string {
	host = strings.ToLower(host)
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
