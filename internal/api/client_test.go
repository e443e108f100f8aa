package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

func newTestClient(server *httptest.Server) *Client {
	return New(Config{
		UserURL:     server.URL + "/api/user",
		OrderURL:    server.URL + "/api/order",
		ProductURL:  server.URL + "/api/product",
		CategoryURL: server.URL + "/api/category",
	}, zap.NewNop())
}

func TestClient_GetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/user/12345", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"tgId":        12345,
			"firstName":   "Kirill",
			"phoneNumber": "+79990001122",
		})
	}))
	defer server.Close()

	c := newTestClient(server)
	acc, err := c.GetUser(context.Background(), 12345)
	require.NoError(t, err)

	assert.Equal(t, int64(12345), acc.TgID)
	profile := acc.Profile()
	require.NotNil(t, profile.FirstName)
	assert.Equal(t, "Kirill", *profile.FirstName)
	assert.Nil(t, profile.LastName)
}

func TestClient_GetUser_InvalidPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// tgId missing
		json.NewEncoder(w).Encode(map[string]any{"firstName": "Kirill"})
	}))
	defer server.Close()

	c := newTestClient(server)
	acc, err := c.GetUser(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Nil(t, acc)
}

func TestClient_GetUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server)
	acc, err := c.GetUser(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Nil(t, acc)
}

func TestClient_GetUser_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := newTestClient(server)
	_, err := c.GetUser(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestClient_CreateUser(t *testing.T) {
	var got UserData
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer server.Close()

	acc := domain.NewAccount(12345)
	name := "Kirill"
	acc.SetProfile(domain.Profile{FirstName: &name})

	c := newTestClient(server)
	require.NoError(t, c.CreateUser(context.Background(), acc))

	assert.Equal(t, int64(12345), got.TgID)
	require.NotNil(t, got.FirstName)
	assert.Equal(t, "Kirill", *got.FirstName)
}

func TestClient_UpdateUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/user", r.URL.Path)
	}))
	defer server.Close()

	c := newTestClient(server)
	assert.NoError(t, c.UpdateUser(context.Background(), domain.NewAccount(12345)))
}

func TestClient_GetOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/order/12345", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"tgId":             12345,
				"idOrder":          7,
				"status":           1,
				"datetimeCreation": "01.02.2026 12:00",
				"totalCost":        150,
				"products": []map[string]any{
					{"productsId": "p1", "count": 3},
				},
			},
			{
				"tgId":             12345,
				"status":           0,
				"datetimeCreation": "02.02.2026 09:30",
				"products":         []map[string]any{},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server)
	orders, err := c.GetOrders(context.Background(), 12345)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	require.NotNil(t, first.ID)
	assert.Equal(t, int64(7), *first.ID)
	assert.Equal(t, domain.StatusPendingConfirm, first.Status)
	assert.Equal(t, 3, first.ProductCount("p1"))
	assert.True(t, first.RegisteredOnServer())
	assert.False(t, first.IsUpdated(), "freshly fetched order is in sync")

	assert.Equal(t, domain.StatusBasket, orders[1].Status)
}

func TestClient_GetSellerOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/order/new/0/100", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	c := newTestClient(server)
	orders, err := c.GetSellerOrders(context.Background(), "new", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var got OrderData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, int64(12345), got.TgID)
		assert.Len(t, got.Products, 1)

		json.NewEncoder(w).Encode(map[string]any{"idOrder": 42})
	}))
	defer server.Close()

	o := domain.NewBasket(12345)
	o.AddProduct(domain.Product{ID: "p1", Price: 50}, 2)

	c := newTestClient(server)
	id, err := c.CreateOrder(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestClient_GetProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/product/p1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"productId": "p1",
			"name":      "bread",
			"price":     50,
			"delivery":  true,
		})
	}))
	defer server.Close()

	c := newTestClient(server)
	p, err := c.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "bread", p.Name)
	assert.Equal(t, 50, p.Price)
	assert.True(t, p.Delivery)
}

func TestClient_GetCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/category", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"categoryId": 1, "name": "Хлеб", "variability": true},
			{"categoryId": 2, "name": "Торты"},
		})
	}))
	defer server.Close()

	c := newTestClient(server)
	categories, err := c.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Хлеб", categories[0].Name)
	assert.True(t, categories[0].Variability)
	assert.False(t, categories[1].Variability)
}

func TestClient_GetCategoryProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/category/1", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"productId": "p1", "name": "bread", "price": 50},
			{"productId": "p2", "name": "baguette", "price": 70},
		})
	}))
	defer server.Close()

	c := newTestClient(server)
	products, err := c.GetCategoryProducts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[1].ID)
}
