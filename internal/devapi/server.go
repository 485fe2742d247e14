// Package devapi serves the REST contract the storefront consumes, backed
// by the sqlite catalog. It exists for local runs and integration tests.
package devapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

const maxQuantity = 99

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

type Server struct {
	catalog Catalog
	tokens  *Tokens
	users   map[string][]byte
	carts   *carts
}

// NewServer hashes the given email/password pairs and keeps only the hashes.
func NewServer(c Catalog, tokens *Tokens, users map[string]string) (*Server, error) {
	hashed := make(map[string][]byte, len(users))
	for email, password := range users {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || password == "" {
			return nil, errors.New("user email and password must not be empty")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}
		hashed[email] = h
	}
	return &Server{catalog: c, tokens: tokens, users: hashed, carts: newCarts()}, nil
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", s.Login)
	r.Get("/products", s.ListProducts)
	r.Get("/products/{id}", s.GetProduct)

	r.Route("/cart", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/", s.GetCart)
		r.Post("/", s.WriteCart)
	})
	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, ok := s.users[email]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.tokens.Issue(email)
	if err != nil {
		log.Printf("login %s: %v", email, err)
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"token": token})
}

// productDTO sends the price as a JSON number and the image as image_url.
type productDTO struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"image_url,omitempty"`
	Description string      `json:"description,omitempty"`
}

func toDTO(p domain.Product) productDTO {
	return productDTO{
		ID:          json.Number(p.ID),
		Name:        p.Name,
		Price:       json.Number(p.Price.String()),
		ImageURL:    p.Image,
		Description: p.Description,
	}
}

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListProducts(r.Context())
	if err != nil {
		log.Printf("list products: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	dtos := make([]productDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toDTO(p))
	}
	respondData(w, http.StatusOK, map[string]any{"products": dtos})
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("get product: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	respondData(w, http.StatusOK, map[string]any{"product": toDTO(p)})
}

func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]any{"items": s.carts.get(userFrom(r.Context()))})
}

func (s *Server) WriteCart(w http.ResponseWriter, r *http.Request) {
	var req cartLine
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "quantity must be between 0 and 99")
		return
	}

	if req.Quantity > 0 {
		_, err := s.catalog.GetProduct(r.Context(), req.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			log.Printf("write cart: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to load product")
			return
		}
	}

	user := userFrom(r.Context())
	s.carts.set(user, req.ProductID, req.Quantity)
	respondData(w, http.StatusOK, map[string]any{"items": s.carts.get(user)})
}

type userKey struct{}

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signed, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || signed == "" {
			respondError(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		user, err := s.tokens.Subject(signed)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{Success: false, Message: message})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
