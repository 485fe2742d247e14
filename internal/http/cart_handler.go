package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/guard"
	"github.com/go-chi/chi/v5"
)

const maxQuantity = 99

func (s *Storefront) ViewCart(w http.ResponseWriter, r *http.Request) {
	s.renderCart(w, r, http.StatusOK, "", "")
}

// AddItem adds the product named in the form. The product is fetched from
// the API so the snapshotted price is the catalog's, not the browser's.
func (s *Storefront) AddItem(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		s.renderCart(w, r, http.StatusBadRequest, "Invalid form submission.", "")
		return
	}

	productID := strings.TrimSpace(r.PostForm.Get("product_id"))
	if productID == "" {
		s.renderCart(w, r, http.StatusBadRequest, "Product ID is missing.", "")
		return
	}
	quantity, ok := parseQuantity(r.PostForm.Get("quantity"), 1)
	if !ok || quantity <= 0 || quantity > maxQuantity {
		s.renderCart(w, r, http.StatusBadRequest, "Quantity must be between 1 and 99.", "")
		return
	}

	product, err := s.fetchProduct(r.Context(), p, productID)
	if err != nil {
		if api.IsKind(err, api.KindUnauthorized) {
			s.expireSession(w, r, p)
			return
		}
		s.render(w, r, upstreamStatus(err), "product", page{
			Title:     "Product",
			Error:     api.UserMessage(err, "Failed to load product. Please try again later."),
			ProductID: productID,
		})
		return
	}

	if err := p.cart.AddItem(r.Context(), product, quantity); err != nil {
		s.cartError(w, r, err)
		return
	}
	http.Redirect(w, r, guard.SafeNext(r.PostForm.Get("return_to"), cartPath), http.StatusSeeOther)
}

func (s *Storefront) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		s.renderCart(w, r, http.StatusBadRequest, "Invalid form submission.", "")
		return
	}
	quantity, ok := parseQuantity(r.PostForm.Get("quantity"), 0)
	if !ok {
		s.renderCart(w, r, http.StatusBadRequest, "Quantity must be a whole number.", "")
		return
	}
	if quantity > maxQuantity {
		s.renderCart(w, r, http.StatusBadRequest, "Quantity must be between 1 and 99.", "")
		return
	}

	if err := p.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), quantity); err != nil {
		s.cartError(w, r, err)
		return
	}
	http.Redirect(w, r, cartPath, http.StatusSeeOther)
}

func (s *Storefront) Increment(w http.ResponseWriter, r *http.Request) {
	s.stepQuantity(w, r, 1)
}

func (s *Storefront) Decrement(w http.ResponseWriter, r *http.Request) {
	s.stepQuantity(w, r, -1)
}

func (s *Storefront) stepQuantity(w http.ResponseWriter, r *http.Request, delta int) {
	p, _ := profileFrom(r.Context())
	id := chi.URLParam(r, "id")

	if item, ok := p.cart.Item(id); ok {
		if err := p.cart.UpdateQuantity(r.Context(), id, item.Quantity+delta); err != nil {
			s.cartError(w, r, err)
			return
		}
	}
	http.Redirect(w, r, cartPath, http.StatusSeeOther)
}

func (s *Storefront) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	if err := p.cart.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.cartError(w, r, err)
		return
	}
	http.Redirect(w, r, cartPath, http.StatusSeeOther)
}

func (s *Storefront) ClearCart(w http.ResponseWriter, r *http.Request) {
	p, _ := profileFrom(r.Context())
	if err := p.cart.ClearCart(r.Context()); err != nil {
		s.cartError(w, r, err)
		return
	}
	http.Redirect(w, r, cartPath, http.StatusSeeOther)
}

// Checkout is a dead end: there is no settlement behind it.
func (s *Storefront) Checkout(w http.ResponseWriter, r *http.Request) {
	s.renderCart(w, r, http.StatusOK, "", "Checkout is not available.")
}

func (s *Storefront) renderCart(w http.ResponseWriter, r *http.Request, status int, errMsg, notice string) {
	p, _ := profileFrom(r.Context())
	s.render(w, r, status, "cart", page{
		Title:  "Cart",
		Error:  errMsg,
		Notice: notice,
		Items:  p.cart.Items(),
		Total:  p.cart.TotalPrice(),
	})
}

func (s *Storefront) cartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrMissingProductID), errors.Is(err, cart.ErrInvalidPrice):
		s.renderCart(w, r, http.StatusBadRequest, "This item cannot be added to the cart.", "")
	default:
		log.Printf("cart update failed: %v", err)
		s.renderCart(w, r, http.StatusInternalServerError, "Could not update your cart. Please try again.", "")
	}
}

// parseQuantity reads a form quantity; an empty value yields def.
func parseQuantity(raw string, def int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
