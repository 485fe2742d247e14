package cart

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, price string) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.RequireFromString(price),
		Image: id + ".png",
	}
}

func openEmpty(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	s, err := Open(context.Background(), kv)
	require.NoError(t, err)
	return s, kv
}

func assertSameItems(t *testing.T, want, got []domain.CartItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Image, got[i].Image)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price of %s: want %s got %s", want[i].ID, want[i].Price, got[i].Price)
	}
}

type mirrorMock struct {
	writes []string
	err    error
}

func (m *mirrorMock) WriteCartItem(_ context.Context, productID string, quantity int) error {
	m.writes = append(m.writes, fmt.Sprintf("%s=%d", productID, quantity))
	return m.err
}

type failingStore struct {
	storage.Store
}

func (failingStore) Save(context.Context, string, string) error { return errors.New("quota exceeded") }

func TestAddItem_SameProductAccumulates(t *testing.T) {
	ctx := context.Background()
	s, _ := openEmpty(t)

	require.NoError(t, s.AddItem(ctx, product("a", "10.00"), 1))
	require.NoError(t, s.AddItem(ctx, product("a", "99.99"), 2))
	require.NoError(t, s.AddItem(ctx, product("a", "1.00"), 4))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(items[0].Price), "price is captured on first add")
	assert.Equal(t, 7, s.ItemCount())
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openEmpty(t)

	for _, id := range []string{"c", "a", "b", "a"} {
		require.NoError(t, s.AddItem(ctx, product(id, "1"), 1))
	}

	var ids []string
	for _, item := range s.Items() {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestAddItem_Rejects(t *testing.T) {
	ctx := context.Background()
	s, kv := openEmpty(t)

	assert.ErrorIs(t, s.AddItem(ctx, product("a", "1"), 0), ErrInvalidQuantity)
	assert.ErrorIs(t, s.AddItem(ctx, product("a", "1"), -3), ErrInvalidQuantity)
	assert.ErrorIs(t, s.AddItem(ctx, product("", "1"), 1), ErrMissingProductID)
	assert.ErrorIs(t, s.AddItem(ctx, product("a", "-1"), 1), ErrInvalidPrice)

	assert.Zero(t, s.Len())
	assert.Zero(t, kv.Len(), "rejected input must not be persisted")
}

func TestUpdateQuantity_NonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -1} {
		t.Run(fmt.Sprint(q), func(t *testing.T) {
			ctx := context.Background()
			s, _ := openEmpty(t)
			require.NoError(t, s.AddItem(ctx, product("a", "2"), 3))
			require.NoError(t, s.AddItem(ctx, product("b", "1"), 1))

			require.NoError(t, s.UpdateQuantity(ctx, "a", q))

			_, ok := s.Item("a")
			assert.False(t, ok)
			assert.Equal(t, 1, s.ItemCount())
		})
	}
}

func TestUpdateQuantity_SetsExactly(t *testing.T) {
	ctx := context.Background()
	s, _ := openEmpty(t)
	require.NoError(t, s.AddItem(ctx, product("a", "2"), 3))

	require.NoError(t, s.UpdateQuantity(ctx, "a", 5))
	item, ok := s.Item("a")
	require.True(t, ok)
	assert.Equal(t, 5, item.Quantity)

	require.NoError(t, s.UpdateQuantity(ctx, "missing", 4))
	assert.Equal(t, 1, s.Len())
}

func TestRemoveItem_MissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := openEmpty(t)
	require.NoError(t, s.AddItem(ctx, product("a", "2"), 1))
	before := s.Items()

	assert.NoError(t, s.RemoveItem(ctx, "nope"))
	assertSameItems(t, before, s.Items())

	require.NoError(t, s.RemoveItem(ctx, "a"))
	assert.Zero(t, s.Len())
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := openEmpty(t)

	assert.True(t, s.TotalPrice().IsZero())
	assert.Equal(t, 0, s.ItemCount())

	require.NoError(t, s.AddItem(ctx, product("a", "10.00"), 2))
	require.NoError(t, s.AddItem(ctx, product("b", "5.50"), 1))

	assert.Equal(t, "25.50", s.TotalPrice().StringFixed(2))
	assert.Equal(t, 3, s.ItemCount())
}

func TestTotals_KeepFullPrecision(t *testing.T) {
	ctx := context.Background()
	s, _ := openEmpty(t)
	require.NoError(t, s.AddItem(ctx, product("a", "0.333"), 3))

	assert.True(t, decimal.RequireFromString("0.999").Equal(s.TotalPrice()))
	assert.Equal(t, "1.00", s.TotalPrice().StringFixed(2))
}

func TestClearCart_ThenReload(t *testing.T) {
	ctx := context.Background()
	s, kv := openEmpty(t)
	require.NoError(t, s.AddItem(ctx, product("a", "1"), 1))
	require.NoError(t, s.AddItem(ctx, product("b", "1"), 2))

	require.NoError(t, s.ClearCart(ctx))
	assert.Zero(t, s.ItemCount())

	reloaded, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Len())
}

func TestPersistence_RoundTripRandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d"}
	prices := []string{"0.99", "10.00", "5.50", "123.456"}

	for run := 0; run < 20; run++ {
		s, kv := openEmpty(t)
		for step := 0; step < 30; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(4) {
			case 0:
				require.NoError(t, s.AddItem(ctx, product(id, prices[rng.Intn(len(prices))]), rng.Intn(3)+1))
			case 1:
				require.NoError(t, s.RemoveItem(ctx, id))
			case 2:
				require.NoError(t, s.UpdateQuantity(ctx, id, rng.Intn(5)-1))
			case 3:
				if rng.Intn(5) == 0 {
					require.NoError(t, s.ClearCart(ctx))
				}
			}
		}

		reloaded, err := Open(ctx, kv)
		require.NoError(t, err)
		assertSameItems(t, s.Items(), reloaded.Items())
		assert.True(t, s.TotalPrice().Equal(reloaded.TotalPrice()))
		for _, item := range reloaded.Items() {
			assert.GreaterOrEqual(t, item.Quantity, 1)
		}
	}
}

func TestOpen_CorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Save(ctx, SnapshotKey, "{not json"))

	s, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestOpen_DropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Save(ctx, SnapshotKey, `[
		{"id":"a","name":"A","price":"1.5","quantity":2},
		{"id":"","name":"blank","price":"1","quantity":1},
		{"id":"b","name":"B","price":"2","quantity":0},
		{"id":"a","name":"dup","price":"9","quantity":1}
	]`))

	s, err := Open(ctx, kv)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	item, _ := s.Item("a")
	assert.Equal(t, "A", item.Name)
	assert.Equal(t, 2, item.Quantity)
}

func TestPersistFailure_RollsBack(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	s, err := Open(ctx, mem)
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, product("a", "1"), 1))

	broken, err := Open(ctx, failingStore{mem})
	require.NoError(t, err)
	require.Equal(t, 1, broken.Len())

	assert.ErrorContains(t, broken.AddItem(ctx, product("b", "1"), 1), "persist cart")
	assert.ErrorContains(t, broken.UpdateQuantity(ctx, "a", 9), "persist cart")
	assert.ErrorContains(t, broken.ClearCart(ctx), "persist cart")

	item, ok := broken.Item("a")
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 1, broken.Len())
}

func TestMirror_ReceivesAbsoluteQuantities(t *testing.T) {
	ctx := context.Background()
	mirror := &mirrorMock{}
	s, err := Open(ctx, storage.NewMemoryStore(), WithMirror(mirror))
	require.NoError(t, err)

	require.NoError(t, s.AddItem(ctx, product("a", "1"), 2))
	require.NoError(t, s.AddItem(ctx, product("a", "1"), 1))
	require.NoError(t, s.AddItem(ctx, product("b", "1"), 1))
	require.NoError(t, s.UpdateQuantity(ctx, "b", 0))
	require.NoError(t, s.RemoveItem(ctx, "zzz"))
	require.NoError(t, s.ClearCart(ctx))

	assert.Equal(t, []string{"a=2", "a=3", "b=1", "b=0", "a=0"}, mirror.writes)
}

func TestMirror_FailureDoesNotAffectLocalCart(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, storage.NewMemoryStore(), WithMirror(&mirrorMock{err: errors.New("offline")}))
	require.NoError(t, err)

	require.NoError(t, s.AddItem(ctx, product("a", "1"), 2))
	assert.Equal(t, 2, s.ItemCount())
}
