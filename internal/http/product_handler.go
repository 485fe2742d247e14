package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (s *Storefront) ListProducts(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())

	v, err := s.shared(r.Context(), "products:"+p.session.Token(), func(ctx context.Context) (interface{}, error) {
		return p.api.ListProducts(ctx)
	})
	if err != nil {
		if api.IsKind(err, api.KindUnauthorized) {
			s.expireSession(w, r, p)
			return
		}
		s.render(w, r, upstreamStatus(err), "products", page{
			Title: "Products",
			Error: api.UserMessage(err, "Failed to load products. Please try again later."),
		})
		return
	}

	s.render(w, r, http.StatusOK, "products", page{
		Title:    "Products",
		Products: v.([]domain.Product),
	})
}

func (s *Storefront) ProductDetail(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	id := chi.URLParam(r, "id")

	product, err := s.fetchProduct(r.Context(), p, id)
	if err != nil {
		if api.IsKind(err, api.KindUnauthorized) {
			s.expireSession(w, r, p)
			return
		}
		s.render(w, r, upstreamStatus(err), "product", page{
			Title:     "Product",
			Error:     api.UserMessage(err, "Failed to load product. Please try again later."),
			ProductID: id,
		})
		return
	}

	data := page{Title: product.Name, Product: &product}
	if r.URL.Query().Get("added") != "" {
		data.Notice = "Added to cart."
	}
	s.render(w, r, http.StatusOK, "product", data)
}

func (s *Storefront) fetchProduct(ctx context.Context, p *profile, id string) (domain.Product, error) {
	v, err := s.shared(ctx, "product:"+id+":"+p.session.Token(), func(ctx context.Context) (interface{}, error) {
		return p.api.GetProduct(ctx, id)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

// upstreamStatus maps an API failure to the status of the page showing it.
func upstreamStatus(err error) int {
	switch {
	case api.IsKind(err, api.KindNotFound):
		return http.StatusNotFound
	case api.IsKind(err, api.KindValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
