package authclient

import (
	"errors"
	"fmt"
)

// RefreshErrorTag marks a Session whose refresh token has been rejected.
// The session is kept (not cleared) so callers can inspect the tag and
// run a full logout/redirect instead of silently losing state.
const RefreshErrorTag = "RefreshAccessTokenError"

var (
	// ErrUnauthenticated is returned when an operation needs a session and none is held.
	ErrUnauthenticated = errors.New("authclient: not authenticated")
	// ErrSessionExpired is returned when the backend rejects an access token
	// that was already refreshed; the caller should force a logout.
	ErrSessionExpired = errors.New("authclient: session expired")
	// ErrRefreshAccessToken is returned when the refresh token itself is dead.
	ErrRefreshAccessToken = errors.New("authclient: " + RefreshErrorTag)
	// ErrNoSession flags a programmer error: patching tokens with no session held.
	ErrNoSession = errors.New("authclient: cannot patch tokens without a session")
)

// ValidationError reports malformed input, caught before any network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "authclient: " + e.Msg }

// AuthError reports credentials the backend rejected, with its message.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string { return "authclient: authentication failed: " + e.Detail }

// APIError reports any other non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authclient: api error (status %d): %s", e.Status, e.Message)
}
