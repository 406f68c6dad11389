package idp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// ExchangeErrorKind classifies a failed code exchange.
type ExchangeErrorKind string

const (
	// ExchangeTransport means the token endpoint could not be reached.
	ExchangeTransport ExchangeErrorKind = "transport"
	// ExchangeProviderStatus means the token endpoint answered non-2xx.
	ExchangeProviderStatus ExchangeErrorKind = "provider_status"
	// ExchangeOAuth means the provider answered 2xx but reported an OAuth
	// error or returned no access token.
	ExchangeOAuth ExchangeErrorKind = "oauth"
)

// ExchangeError describes a failed code exchange.
type ExchangeError struct {
	Kind        ExchangeErrorKind
	StatusCode  int
	Code        string
	Description string
	Body        string
	Err         error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange (%s): %v", e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Reason is the human-readable failure shown in the popup.
func (e *ExchangeError) Reason() string {
	switch e.Kind {
	case ExchangeProviderStatus:
		return "Token exchange failed: " + e.Body
	case ExchangeTransport:
		return "Token exchange failed: " + e.Err.Error()
	default:
		detail := e.Description
		if detail == "" {
			detail = e.Code
		}
		if detail == "" {
			detail = "No access_token"
		}
		return "OAuth error: " + detail
	}
}

// HTTPStatus is the status the callback responds with.
func (e *ExchangeError) HTTPStatus() int {
	if e.Kind == ExchangeOAuth {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// classifyExchangeError maps an oauth2 exchange failure onto ExchangeError.
func classifyExchangeError(err error) *ExchangeError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if status < 200 || status > 299 {
			return &ExchangeError{
				Kind:       ExchangeProviderStatus,
				StatusCode: status,
				Code:       retrieveErr.ErrorCode,
				Body:       string(retrieveErr.Body),
				Err:        err,
			}
		}
		return &ExchangeError{
			Kind:        ExchangeOAuth,
			StatusCode:  status,
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
			Err:         err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ExchangeError{Kind: ExchangeTransport, Err: err}
	}

	// A 2xx response that carried no usable token.
	return &ExchangeError{Kind: ExchangeOAuth, StatusCode: http.StatusOK, Err: err}
}
