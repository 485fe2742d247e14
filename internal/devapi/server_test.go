package devapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/devapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "demo@example.com"
	testPassword = "password"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := catalog.NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.RunMigrations())

	tokens, err := devapi.NewTokens([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	srv, err := devapi.NewServer(repo, tokens, map[string]string{testEmail: testPassword})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, ts *httptest.Server, token string) *api.Client {
	t.Helper()
	c, err := api.NewClient(ts.URL, api.WithTokenSource(staticToken(token)))
	require.NoError(t, err)
	return c
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	token, err := newClient(t, ts, "").Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return token
}

func TestLogin(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t, ts, "")

	t.Run("valid credentials", func(t *testing.T) {
		token, err := c.Login(context.Background(), "  DEMO@example.com ", testPassword)
		require.NoError(t, err)
		assert.Equal(t, 3, len(strings.Split(token, ".")))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.Login(context.Background(), testEmail, "nope")
		require.Error(t, err)
		assert.True(t, api.IsKind(err, api.KindUnauthorized))
		assert.Equal(t, "Invalid email or password", api.UserMessage(err, "fallback"))
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/auth/login", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "invalid JSON body", body["message"])
	})
}

func TestProducts(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t, ts, "")

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "12.5", products[0].Price.String())
	assert.NotEmpty(t, products[0].Image)

	p, err := c.GetProduct(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Cast Iron Skillet", p.Name)

	_, err = c.GetProduct(context.Background(), "404")
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestCart_RequiresToken(t *testing.T) {
	ts := setupServer(t)

	_, err := newClient(t, ts, "").GetCart(context.Background())
	assert.True(t, api.IsKind(err, api.KindUnauthorized))

	_, err = newClient(t, ts, "not-a-jwt").GetCart(context.Background())
	assert.True(t, api.IsKind(err, api.KindUnauthorized))
}

func TestCart_AbsoluteQuantities(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t, ts, login(t, ts))
	ctx := context.Background()

	items, err := c.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, c.WriteCartItem(ctx, "2", 3))
	require.NoError(t, c.WriteCartItem(ctx, "1", 1))
	require.NoError(t, c.WriteCartItem(ctx, "2", 5))

	items, err = c.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, []api.ServerCartItem{
		{ProductID: "2", Quantity: 5},
		{ProductID: "1", Quantity: 1},
	}, items)

	require.NoError(t, c.WriteCartItem(ctx, "2", 0))
	items, err = c.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, []api.ServerCartItem{{ProductID: "1", Quantity: 1}}, items)

	err = c.WriteCartItem(ctx, "999", 1)
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestTokens(t *testing.T) {
	tokens, err := devapi.NewTokens([]byte("secret"), time.Minute)
	require.NoError(t, err)

	signed, err := tokens.Issue(testEmail)
	require.NoError(t, err)

	subject, err := tokens.Subject(signed)
	require.NoError(t, err)
	assert.Equal(t, testEmail, subject)

	other, err := devapi.NewTokens([]byte("other"), time.Minute)
	require.NoError(t, err)
	_, err = other.Subject(signed)
	assert.ErrorIs(t, err, devapi.ErrInvalidToken)

	_, err = devapi.NewTokens(nil, time.Minute)
	assert.Error(t, err)
}

func TestNewServer_RejectsEmptyUser(t *testing.T) {
	tokens, err := devapi.NewTokens([]byte("secret"), time.Minute)
	require.NoError(t, err)
	_, err = devapi.NewServer(nil, tokens, map[string]string{"": "pw"})
	assert.Error(t, err)
}
