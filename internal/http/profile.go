package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/google/uuid"
)

const (
	ProfileCookie    = "sf_profile"
	profileCookieAge = 365 * 24 * 60 * 60
)

type profileKey struct{}

// profile is everything one browser owns: its session, its cart and an API
// client that authenticates as that session.
type profile struct {
	id      string
	session *session.Store
	cart    *cart.Store
	api     *api.Client
}

func profileFrom(ctx context.Context) (*profile, bool) {
	p, ok := ctx.Value(profileKey{}).(*profile)
	return p, ok
}

// ProfileMiddleware identifies the browser by cookie, serializes its
// requests and opens its stores for the duration of the request.
func (s *Storefront) ProfileMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := profileID(r)
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ProfileCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   profileCookieAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		unlock := s.locks.Lock(id)
		defer unlock()

		p, err := s.openProfile(r.Context(), id)
		if err != nil {
			log.Printf("open profile %s: %v", id, err)
			http.Error(w, "storefront storage unavailable", http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), profileKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func profileID(r *http.Request) string {
	c, err := r.Cookie(ProfileCookie)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

func (s *Storefront) openProfile(ctx context.Context, id string) (*profile, error) {
	kv := storage.Namespace(s.kv, "storefront:"+id)

	sess, err := session.Open(ctx, kv, s.api)
	if err != nil {
		return nil, err
	}
	client := s.api.WithTokenSource(sess)

	var opts []cart.Option
	if s.opts.MirrorServerCart {
		opts = append(opts, cart.WithMirror(client))
	}
	c, err := cart.Open(ctx, kv, opts...)
	if err != nil {
		return nil, err
	}

	return &profile{id: id, session: sess, cart: c, api: client}, nil
}

func isAuthenticated(r *http.Request) bool {
	p, ok := profileFrom(r.Context())
	return ok && p.session.IsAuthenticated()
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
