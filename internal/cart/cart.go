// Package cart is the client-side cart of one storefront profile: an ordered
// list of line items persisted after every change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

// SnapshotKey is the storage key of the serialized line items.
const SnapshotKey = "cart"

var (
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrMissingProductID = errors.New("product has no id")
	ErrInvalidPrice     = errors.New("product price must not be negative")
)

// Mirror receives the absolute quantity of every line a mutation touched
// (0 when the line is gone). The local cart stays authoritative.
type Mirror interface {
	WriteCartItem(ctx context.Context, productID string, quantity int) error
}

type Option func(*Store)

func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// Store owns the line items of one profile. It is not safe for concurrent
// use; callers serialize access per profile.
type Store struct {
	kv     storage.Store
	items  []domain.CartItem
	mirror Mirror
}

// Open restores the last persisted snapshot. An unreadable snapshot is
// logged and replaced by an empty cart.
func Open(ctx context.Context, kv storage.Store, opts ...Option) (*Store, error) {
	s := &Store{kv: kv}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := kv.Load(ctx, SnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	if !ok {
		return s, nil
	}

	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("cart snapshot unreadable, starting empty: %v", err)
		return s, nil
	}
	s.items = sanitize(items)
	return s, nil
}

// AddItem appends p with the given quantity, or raises the quantity of its
// existing line. The price of an existing line is never refreshed.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.ID == "" {
		return ErrMissingProductID
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}

	next := s.clone()
	if i := indexOf(next, p.ID); i >= 0 {
		next[i].Quantity += quantity
	} else {
		next = append(next, domain.NewCartItem(p, quantity))
	}
	return s.commit(ctx, next, p.ID)
}

// RemoveItem deletes the line with the given id. A missing id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	i := indexOf(s.items, id)
	if i < 0 {
		return nil
	}
	next := s.clone()
	next = append(next[:i], next[i+1:]...)
	return s.commit(ctx, next, id)
}

// UpdateQuantity sets the quantity of a line exactly. A quantity of zero or
// less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}
	i := indexOf(s.items, id)
	if i < 0 {
		return nil
	}
	next := s.clone()
	next[i].Quantity = quantity
	return s.commit(ctx, next, id)
}

// ClearCart removes every line.
func (s *Store) ClearCart(ctx context.Context) error {
	touched := make([]string, len(s.items))
	for i, item := range s.items {
		touched[i] = item.ID
	}
	return s.commit(ctx, nil, touched...)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	return s.clone()
}

func (s *Store) Item(id string) (domain.CartItem, bool) {
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return domain.CartItem{}, false
}

func (s *Store) Len() int {
	return len(s.items)
}

// ItemCount is the sum of all quantities.
func (s *Store) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// TotalPrice is the sum of price × quantity, unrounded.
func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// commit persists next and only then makes it the current state, so memory
// never runs ahead of storage.
func (s *Store) commit(ctx context.Context, next []domain.CartItem, touched ...string) error {
	if next == nil {
		next = []domain.CartItem{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Save(ctx, SnapshotKey, string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	s.mirrorLines(ctx, touched)
	return nil
}

func (s *Store) mirrorLines(ctx context.Context, ids []string) {
	if s.mirror == nil {
		return
	}
	for _, id := range ids {
		quantity := 0
		if item, ok := s.Item(id); ok {
			quantity = item.Quantity
		}
		if err := s.mirror.WriteCartItem(ctx, id, quantity); err != nil {
			log.Printf("cart mirror: write %s=%d: %v", id, quantity, err)
		}
	}
}

func (s *Store) clone() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func indexOf(items []domain.CartItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// sanitize drops lines that break the cart invariants; a snapshot written by
// this package never contains any.
func sanitize(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 || item.Price.IsNegative() || indexOf(out, item.ID) >= 0 {
			log.Printf("cart snapshot: dropping invalid line %q (quantity %d)", item.ID, item.Quantity)
			continue
		}
		out = append(out, item)
	}
	return out
}
