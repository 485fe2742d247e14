package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ServerCartItem is one line of the server-side cart mirror.
type ServerCartItem struct {
	ProductID string
	Quantity  int
}

type serverCartLine struct {
	ProductID flexID `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCart reads the server-side cart of the authenticated user.
func (c *Client) GetCart(ctx context.Context) ([]ServerCartItem, error) {
	const op = "get cart"
	env, err := c.do(ctx, op, http.MethodGet, nil, "cart")
	if err != nil {
		return nil, err
	}

	var data struct {
		Items []serverCartLine `json:"items"`
	}
	if present(env.Data) {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &Error{Kind: KindShape, Op: op, Err: err}
		}
	}

	items := make([]ServerCartItem, 0, len(data.Items))
	for _, line := range data.Items {
		items = append(items, ServerCartItem{ProductID: string(line.ProductID), Quantity: line.Quantity})
	}
	return items, nil
}

type writeCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// WriteCartItem sets the server-side quantity of one product. A quantity of 0
// deletes the server line.
func (c *Client) WriteCartItem(ctx context.Context, productID string, quantity int) error {
	const op = "write cart item"
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return &Error{Kind: KindValidation, Op: op, Message: "Product ID is missing."}
	}
	if quantity < 0 {
		return &Error{Kind: KindValidation, Op: op, Message: "Quantity must not be negative."}
	}

	_, err := c.do(ctx, op, http.MethodPost, writeCartRequest{ProductID: productID, Quantity: quantity}, "cart")
	return err
}
