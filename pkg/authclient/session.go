// Package authclient is a client-side SDK for the identity service.
// It keeps a session (token pair plus profile) in a pluggable slot,
// exchanges credentials for sessions, refreshes access tokens just in
// time, and gates route access on session state.
package authclient

import "time"

// AccessTokenTTL is how long an access token is treated as usable
// client-side. It mirrors the server's JWT_ACCESS_TOKEN_TTL default.
const AccessTokenTTL = 30 * time.Minute

// Profile is the user identity carried inside a session. Field tags match
// the identity service's user representation so login responses decode
// without a translation layer.
type Profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	PhoneVerified bool   `json:"phoneVerified"`
	Staff         bool   `json:"staff"`
}

// Session holds the token pair and profile for one authenticated user.
// Err, when set, names a terminal condition (see RefreshErrorTag); a
// tagged session is kept in the store so the caller can react to it.
type Session struct {
	AccessToken       string    `json:"access_token"`
	RefreshToken      string    `json:"refresh_token"`
	AccessTokenExpiry time.Time `json:"access_token_expiry"`
	Profile           Profile   `json:"profile"`
	Err               string    `json:"err,omitempty"`
}

// Fresh reports whether the access token is still usable at now.
func (s *Session) Fresh(now time.Time) bool {
	return s != nil && s.Err == "" && now.Before(s.AccessTokenExpiry)
}

// clone returns a shallow copy so callers never share the store's internal state.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
