package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "products", "product", "cart", "error"}

// page is the data every template renders from.
type page struct {
	Title         string
	ShowNav       bool
	Authenticated bool
	ItemCount     int
	Error         string
	Notice        string

	Next  string
	Email string

	Products  []domain.Product
	Product   *domain.Product
	ProductID string

	Items []domain.CartItem
	Total decimal.Decimal
}

// FormatPrice renders an amount with two decimals. This is the only place
// prices are rounded.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{"price": FormatPrice}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (s *Storefront) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	if p, ok := profileFrom(r.Context()); ok {
		data.Authenticated = p.session.IsAuthenticated()
		data.ItemCount = p.cart.ItemCount()
	}
	data.ShowNav = name != "login"

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("write %s page: %v", name, err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
