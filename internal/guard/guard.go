// Package guard decides whether a navigation target may be rendered for the
// current session.
package guard

import (
	"net/http"
	"net/url"
	"strings"
)

// Outcome is the result of a guard decision. When Permit is false the
// caller must send the user to Redirect.
type Outcome struct {
	Permit   bool
	Redirect string
}

// Guard protects every destination except the login page and the listed
// public ones. A public entry ending in "/" matches the whole subtree.
type Guard struct {
	loginPath string
	public    []string
}

func New(loginPath string, public ...string) *Guard {
	return &Guard{
		loginPath: loginPath,
		public:    append([]string{loginPath}, public...),
	}
}

// Decide is a pure function of the session state and the destination.
func (g *Guard) Decide(authenticated bool, destination string) Outcome {
	if authenticated || g.isPublic(destination) {
		return Outcome{Permit: true}
	}
	return Outcome{Redirect: g.loginRedirect(destination)}
}

func (g *Guard) isPublic(destination string) bool {
	path := destination
	if u, err := url.Parse(destination); err == nil {
		path = u.Path
	}
	for _, p := range g.public {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

func (g *Guard) loginRedirect(destination string) string {
	if destination == "" || destination == "/" {
		return g.loginPath
	}
	return g.loginPath + "?next=" + url.QueryEscape(destination)
}

// Middleware applies Decide to every request. authenticated reports the
// session state of the request.
func (g *Guard) Middleware(authenticated func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome := g.Decide(authenticated(r), r.URL.RequestURI())
			if !outcome.Permit {
				http.Redirect(w, r, outcome.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SafeNext returns next if it is a local path, otherwise fallback. It keeps
// the ?next= parameter from turning into an open redirect.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
