package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// ListProducts returns the catalog in server order. A response without a
// products list is an empty catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "list products"
	env, err := c.do(ctx, op, http.MethodGet, nil, "products")
	if err != nil {
		return nil, err
	}

	var data struct {
		Products []json.RawMessage `json:"products"`
	}
	if present(env.Data) {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &Error{Kind: KindShape, Op: op, Err: err}
		}
	}

	products := make([]domain.Product, 0, len(data.Products))
	for i, raw := range data.Products {
		p, err := NormalizeProduct(raw)
		if err != nil {
			return nil, &Error{Kind: KindShape, Op: op, Err: fmt.Errorf("product %d: %w", i, err)}
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct fetches one product. A 404 is reported as KindNotFound.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const op = "get product"
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, &Error{Kind: KindValidation, Op: op, Message: "Product ID is missing."}
	}

	env, err := c.do(ctx, op, http.MethodGet, nil, "products", url.PathEscape(id))
	if err != nil {
		return domain.Product{}, err
	}

	p, err := productFromEnvelope(env)
	if err != nil {
		return domain.Product{}, &Error{Kind: KindShape, Op: op, Message: "Product data format is invalid.", Err: err}
	}
	return p, nil
}
