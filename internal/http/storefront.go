// Package http is the server-rendered storefront: catalog, product detail,
// cart and login pages.
package http

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/guard"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath    = "/login"
	productsPath = "/products"
	cartPath     = "/cart"
)

type Options struct {
	ClearCartOnLogout bool
	MirrorServerCart  bool
	HandlerTimeout    time.Duration
}

type Storefront struct {
	api    *api.Client
	kv     storage.Store
	opts   Options
	guard  *guard.Guard
	locks  *keyedMutex
	pages  map[string]*template.Template
	flight singleflight.Group // collapses identical concurrent API reads
}

func NewStorefront(client *api.Client, kv storage.Store, opts Options) (*Storefront, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}
	return &Storefront{
		api:   client,
		kv:    kv,
		opts:  opts,
		guard: guard.New(loginPath, "/health"),
		locks: newKeyedMutex(),
		pages: pages,
	}, nil
}

// Handler returns the instrumented router.
func (s *Storefront) Handler() http.Handler {
	return otelhttp.NewHandler(s.Routes(), "storefront")
}

func (s *Storefront) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.HandlerTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.ProfileMiddleware)
		r.Use(s.guard.Middleware(isAuthenticated))

		r.Get(loginPath, s.LoginPage)
		r.Post(loginPath, s.Login)
		r.Post("/logout", s.Logout)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, productsPath, http.StatusFound)
		})
		r.Get(productsPath, s.ListProducts)
		r.Get(productsPath+"/{id}", s.ProductDetail)

		r.Route(cartPath, func(r chi.Router) {
			r.Get("/", s.ViewCart)
			r.Post("/items", s.AddItem)
			r.Post("/items/{id}/quantity", s.UpdateQuantity)
			r.Post("/items/{id}/increment", s.Increment)
			r.Post("/items/{id}/decrement", s.Decrement)
			r.Post("/items/{id}/remove", s.RemoveItem)
			r.Post("/clear", s.ClearCart)
			r.Post("/checkout", s.Checkout)
		})
	})

	return r
}

// shared runs fn once for all concurrent callers with the same key. Each
// caller stops waiting when its own context ends; the late result is dropped.
func (s *Storefront) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
