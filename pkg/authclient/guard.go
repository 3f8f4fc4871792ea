package authclient

import "strings"

// Decision is the outcome of a route authorization check.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// RouteGuard decides whether a path may be visited given the current
// session. Protected paths need a session; auth-only paths (login,
// register) bounce authenticated users back home.
type RouteGuard struct {
	protected         []string
	protectedPrefixes []string
	authOnly          []string
	loginPath         string
	homePath          string
}

// NewRouteGuard builds a guard with the platform's default route table.
func NewRouteGuard() *RouteGuard {
	return &RouteGuard{
		protected:         []string{"/profile", "/courses/my-courses"},
		protectedPrefixes: []string{"/dashboard"},
		authOnly:          []string{"/login", "/register"},
		loginPath:         "/login",
		homePath:          "/",
	}
}

// Protect adds an exact protected path.
func (g *RouteGuard) Protect(path string) { g.protected = append(g.protected, path) }

// ProtectPrefix protects every path under prefix.
func (g *RouteGuard) ProtectPrefix(prefix string) {
	g.protectedPrefixes = append(g.protectedPrefixes, prefix)
}

// Authorize returns Allow for public paths and for protected paths with
// a live session. A protected path without a session redirects to the
// login page with the original path carried as callbackUrl; an
// auth-only path with a session redirects home.
func (g *RouteGuard) Authorize(path string, s *Session) Decision {
	authed := s != nil && s.Err == ""
	if g.isProtected(path) && !authed {
		return Decision{RedirectTo: g.loginPath + "?callbackUrl=" + path}
	}
	if g.isAuthOnly(path) && authed {
		return Decision{RedirectTo: g.homePath}
	}
	return Decision{Allow: true}
}

func (g *RouteGuard) isProtected(path string) bool {
	for _, p := range g.protected {
		if path == p {
			return true
		}
	}
	for _, p := range g.protectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func (g *RouteGuard) isAuthOnly(path string) bool {
	for _, p := range g.authOnly {
		if path == p {
			return true
		}
	}
	return false
}
