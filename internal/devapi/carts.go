package devapi

import "sync"

type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// carts holds one server-side cart per user. Writes carry absolute
// quantities; zero deletes the line.
type carts struct {
	mu    sync.Mutex
	users map[string][]cartLine
}

func newCarts() *carts {
	return &carts{users: make(map[string][]cartLine)}
}

func (c *carts) get(user string) []cartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]cartLine, len(c.users[user]))
	copy(lines, c.users[user])
	return lines
}

func (c *carts) set(user, productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := c.users[user]
	for i := range lines {
		if lines[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			c.users[user] = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		return
	}
	if quantity > 0 {
		c.users[user] = append(lines, cartLine{ProductID: productID, Quantity: quantity})
	}
}
