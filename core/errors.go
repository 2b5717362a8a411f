package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ClientErrorBadInput        = "CLIENT_BAD_INPUT"
	ClientErrorAuthRequired    = "CLIENT_AUTH_REQUIRED"
	ClientErrorSessionExpired  = "CLIENT_SESSION_EXPIRED"
	ClientErrorTransportFailed = "CLIENT_TRANSPORT_FAILED"
	ClientErrorRemote          = "CLIENT_REMOTE_ERROR"
	ClientErrorStoreFailed     = "CLIENT_STORE_FAILED"
	ClientErrorRateLimited     = "CLIENT_RATE_LIMITED"
	ClientErrorInternal        = "CLIENT_INTERNAL_ERROR"
)

// IsAuthFailureStatus reports whether a response status indicates the
// presented access token is missing, expired, or invalid.
func IsAuthFailureStatus(status int) bool {
	return status == http.StatusUnauthorized
}

// NewAuthRequiredError marks a refresh attempted without a stored refresh
// token. No network call precedes it.
func NewAuthRequiredError(message string) *goerrors.Error {
	if strings.TrimSpace(message) == "" {
		message = "core: no refresh token available"
	}
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ClientErrorAuthRequired)
}

// NewSessionExpiredError is the terminal authentication error: refresh
// failed (or was exhausted) and the stored credentials have been cleared.
// No further local recovery is attempted for the session.
func NewSessionExpiredError(cause error) *goerrors.Error {
	message := "core: session expired"
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(ClientErrorSessionExpired)
	}
	return goerrors.Wrap(cause, goerrors.CategoryAuth, message).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ClientErrorSessionExpired)
}

// IsSessionExpired reports whether err is the terminal authentication error.
// Hosts use it to distinguish "send the user back to login" from ordinary
// transport or remote failures.
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.TrimSpace(richErr.TextCode) == ClientErrorSessionExpired
}

// NewRemoteError wraps a non-2xx, non-auth response. The pipeline does not
// interpret business-level error codes; status and body travel unchanged in
// the error metadata.
func NewRemoteError(status int, body []byte) *goerrors.Error {
	err := goerrors.New("core: remote api error", remoteCategory(status)).
		WithCode(status).
		WithTextCode(ClientErrorRemote)
	metadata := map[string]any{"status_code": status}
	if len(body) > 0 {
		metadata["response_body"] = string(body)
	}
	err.WithMetadata(metadata)
	return err
}

func NewStoreError(cause error, message string) *goerrors.Error {
	if strings.TrimSpace(message) == "" {
		message = "core: credential store operation failed"
	}
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ClientErrorStoreFailed)
	}
	return goerrors.Wrap(cause, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ClientErrorStoreFailed)
}

// MapError normalizes any error into the client error envelope: categorized,
// carrying an HTTP status code and a stable text code.
func MapError(err error) *goerrors.Error {
	return clientErrorMapper(err)
}

func clientErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "refresh token"), strings.Contains(msg, "not authenticated"):
		return newClientError(err.Error(), goerrors.CategoryAuth, ClientErrorAuthRequired)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newClientError(err.Error(), goerrors.CategoryBadInput, ClientErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClientErrorEnvelope(mapped)
}

func newClientError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureClientErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureClientErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = clientHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClientTextCode(err.Category)
	}
	return err
}

func defaultClientTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ClientErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ClientErrorAuthRequired
	case goerrors.CategoryExternal:
		return ClientErrorTransportFailed
	default:
		return ClientErrorInternal
	}
}

func clientHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func remoteCategory(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}
