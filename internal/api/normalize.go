package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingID     = errors.New("product has no id")
	ErrMissingPrice  = errors.New("product has no price")
	ErrNegativePrice = errors.New("product price is negative")
)

// flexID accepts identifiers sent either as JSON strings or as numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type productPayload struct {
	ID            flexID           `json:"id"`
	Name          string           `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	Image         string           `json:"image"`
	ImageURL      string           `json:"imageUrl"`
	ImageURLSnake string           `json:"image_url"`
	Description   string           `json:"description"`
}

// NormalizeProduct turns one product object, as sent by the server, into a
// domain.Product. The image may arrive as image, imageUrl or image_url; the
// first non-empty one wins.
func NormalizeProduct(raw json.RawMessage) (domain.Product, error) {
	var p productPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Product{}, err
	}
	if p.ID == "" {
		return domain.Product{}, ErrMissingID
	}
	if p.Price == nil {
		return domain.Product{}, ErrMissingPrice
	}
	if p.Price.IsNegative() {
		return domain.Product{}, ErrNegativePrice
	}

	return domain.Product{
		ID:          string(p.ID),
		Name:        p.Name,
		Price:       *p.Price,
		Image:       firstNonEmpty(p.Image, p.ImageURL, p.ImageURLSnake),
		Description: p.Description,
	}, nil
}

// productFromEnvelope picks the product out of a detail response. Servers nest
// it as data.product, as data, or put the fields next to success; the first
// present candidate is used and must carry an id.
func productFromEnvelope(env *envelope) (domain.Product, error) {
	candidate := env.body
	if present(env.Data) {
		candidate = env.Data
		var wrapped struct {
			Product json.RawMessage `json:"product"`
		}
		if err := json.Unmarshal(env.Data, &wrapped); err == nil && present(wrapped.Product) {
			candidate = wrapped.Product
		}
	}
	return NormalizeProduct(candidate)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
