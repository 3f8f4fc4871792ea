package authclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardRedirectsAnonymousFromProtectedPath(t *testing.T) {
	g := NewRouteGuard()
	d := g.Authorize("/profile", nil)
	require.False(t, d.Allow)
	require.Equal(t, "/login?callbackUrl=/profile", d.RedirectTo)
}

func TestGuardTable(t *testing.T) {
	g := NewRouteGuard()
	authed := testSession("A1")
	tagged := testSession("A1")
	tagged.Err = RefreshErrorTag

	cases := []struct {
		name     string
		path     string
		session  *Session
		allow    bool
		redirect string
	}{
		{"public path anonymous", "/courses/go-101", nil, true, ""},
		{"public path authed", "/courses/go-101", authed, true, ""},
		{"protected path authed", "/courses/my-courses", authed, true, ""},
		{"protected prefix anonymous", "/dashboard/settings", nil, false, "/login?callbackUrl=/dashboard/settings"},
		{"protected prefix exact", "/dashboard", nil, false, "/login?callbackUrl=/dashboard"},
		{"prefix does not over-match", "/dashboardy", nil, true, ""},
		{"login anonymous", "/login", nil, true, ""},
		{"login authed bounces home", "/login", authed, false, "/"},
		{"register authed bounces home", "/register", authed, false, "/"},
		{"tagged session counts as anonymous", "/profile", tagged, false, "/login?callbackUrl=/profile"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Authorize(tc.path, tc.session)
			require.Equal(t, tc.allow, d.Allow)
			require.Equal(t, tc.redirect, d.RedirectTo)
		})
	}
}

func TestGuardCustomRoutes(t *testing.T) {
	g := NewRouteGuard()
	g.Protect("/billing")
	g.ProtectPrefix("/admin")

	d := g.Authorize("/billing", nil)
	require.Equal(t, "/login?callbackUrl=/billing", d.RedirectTo)
	d = g.Authorize("/admin/users", nil)
	require.Equal(t, "/login?callbackUrl=/admin/users", d.RedirectTo)
}
