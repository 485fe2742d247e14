package http

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/guard"
)

func (s *Storefront) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := guard.SafeNext(r.URL.Query().Get("next"), productsPath)
	if isAuthenticated(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", page{Title: "Login", Next: next})
}

func (s *Storefront) Login(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login", page{Title: "Login", Error: "Invalid form submission."})
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	next := guard.SafeNext(r.PostForm.Get("next"), productsPath)

	if err := p.session.Login(r.Context(), email, r.PostForm.Get("password")); err != nil {
		log.Printf("login failed for profile %s: %v", p.id, err)
		s.render(w, r, loginStatus(err), "login", page{
			Title: "Login",
			Error: api.UserMessage(err, "Login failed. Please try again."),
			Next:  next,
			Email: email,
		})
		return
	}

	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Storefront) Logout(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	s.endSession(r, p)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// endSession logs the profile out and, if configured, empties its cart.
func (s *Storefront) endSession(r *http.Request, p *profile) {
	p.session.Logout(r.Context())
	if !s.opts.ClearCartOnLogout {
		return
	}
	if err := p.cart.ClearCart(r.Context()); err != nil {
		log.Printf("clear cart on logout for profile %s: %v", p.id, err)
	}
}

// expireSession handles an API call rejected for an invalid token: the
// session is dropped and the user is sent to log in again.
func (s *Storefront) expireSession(w http.ResponseWriter, r *http.Request, p *profile) {
	log.Printf("api rejected token of profile %s, logging out", p.id)
	s.endSession(r, p)
	target := loginPath
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func loginStatus(err error) int {
	switch {
	case api.IsKind(err, api.KindValidation):
		return http.StatusBadRequest
	case api.IsKind(err, api.KindUnauthorized), api.IsKind(err, api.KindServer):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
