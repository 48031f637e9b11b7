package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/identity"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

const testSecret = "test-secret"

type testEnv struct {
	router   *gin.Engine
	products *repository.MemoryProductRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := repository.NewMemoryProductRepository()
	categories := repository.NewMemoryCategoryRepository(products)
	cartRepo := repository.NewMemoryCartRepository(products)
	orderRepo := repository.NewMemoryOrderRepository(cartRepo)

	features := config.FeatureFlags{EnableOrderEvents: true}

	catalogSvc := service.NewCatalogService(products, categories, repository.NewMemoryProductCache(), features, "USD")
	cartSvc := service.NewCartService(cartRepo, products)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, clients.NewMockUserClient(), clients.NewMockNotificationSender(), events.NewMockPublisher(), features)

	resolver := identity.NewResolver(session.NewMemoryStore())
	h := New(catalogSvc, cartSvc, orderSvc, resolver)

	cfg := &config.Config{
		Auth:    config.AuthConfig{JWTSecret: testSecret},
		Session: config.SessionConfig{CookieName: "sf_session", TTL: time.Hour},
	}
	authMW := auth.NewMiddleware(cfg)

	router := gin.New()
	router.Use(authMW.Session())
	router.Use(authMW.Identify())

	v1 := router.Group("/api/v1")
	v1.GET("/products", h.ListProducts)
	v1.GET("/products/:id", h.GetProduct)
	v1.GET("/cart", h.GetCart)
	v1.POST("/cart/lines", h.AddToCart)
	v1.PUT("/cart/lines/:lineId", h.UpdateCartLine)
	v1.DELETE("/cart/lines/:lineId", h.RemoveCartLine)
	v1.POST("/cart/merge", authMW.RequireAuth(), h.MergeCart)
	v1.POST("/checkout", authMW.RequireAuth(), h.PlaceOrder)
	v1.GET("/orders/:id", authMW.RequireAuth(), h.GetOrder)

	admin := v1.Group("/admin", authMW.RequireRole(identity.RoleAdmin))
	admin.PUT("/orders/:id/status", h.AdminUpdateOrderStatus)
	admin.POST("/products", h.AdminCreateProduct)

	// Categories are needed by the admin product flow.
	_, err := categories.Create(context.Background(), &models.Category{Name: "Default"})
	require.NoError(t, err)

	return &testEnv{router: router, products: products}
}

func (e *testEnv) seedProduct(t *testing.T, price float64, stock int) *models.Product {
	t.Helper()
	product, err := e.products.Create(context.Background(), &models.Product{
		Name:       "Widget",
		Price:      models.NewMoney(price, "USD"),
		CategoryID: 1,
		Stock:      stock,
		Available:  true,
	})
	require.NoError(t, err)
	return product
}

func signToken(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type requestOpt func(*http.Request)

func withToken(token string) requestOpt {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookies(cookies []*http.Cookie) requestOpt {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/products/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, 10, 5)
	env.seedProduct(t, 20, 5)

	w := env.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestAnonymousCartFlow(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 25, 5)

	// First request establishes the session cookie.
	w := env.do(t, http.MethodPost, "/api/v1/cart/lines", gin.H{
		"product_id": product.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Same session sees the same cart.
	w = env.do(t, http.MethodGet, "/api/v1/cart", nil, withCookies(cookies))
	require.Equal(t, http.StatusOK, w.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Count)
	assert.Equal(t, int64(5000), cart.Total.Amount)

	// A fresh session gets an empty cart.
	w = env.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var other models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))
	assert.Empty(t, other.Lines)
}

func TestAddToCartUnavailableProduct(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/cart/lines", gin.H{
		"product_id": 999,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCartLineToZeroRemoves(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 10, 5)

	w := env.do(t, http.MethodPost, "/api/v1/cart/lines", gin.H{
		"product_id": product.ID,
		"quantity":   3,
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	var line models.CartLine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &line))

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/cart/lines/%d", line.ID), gin.H{
		"quantity": 0,
	}, withCookies(cookies))
	require.Equal(t, http.StatusOK, w.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Empty(t, cart.Lines)
}

func TestCheckoutRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/checkout", gin.H{
		"shipping_address": "1 Main St",
		"payment_method":   "Card",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 100, 5)
	token := signToken(t, "user-1", identity.RoleCustomer)

	w := env.do(t, http.MethodPost, "/api/v1/cart/lines", gin.H{
		"product_id": product.ID,
		"quantity":   2,
	}, withToken(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/checkout", gin.H{
		"shipping_address": "1 Main St",
		"payment_method":   "Card",
	}, withToken(token))
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(20000), order.Total.Amount)

	// The cart is empty afterwards, so checking out again conflicts.
	w = env.do(t, http.MethodPost, "/api/v1/checkout", gin.H{
		"shipping_address": "1 Main St",
		"payment_method":   "Card",
	}, withToken(token))
	assert.Equal(t, http.StatusConflict, w.Code)

	// The order is visible to its owner but not to others.
	w = env.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, withToken(token))
	assert.Equal(t, http.StatusOK, w.Code)

	otherToken := signToken(t, "user-2", identity.RoleCustomer)
	w = env.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, withToken(otherToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMergeCartAfterLogin(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 10, 5)

	// Anonymous add, keyed by session cookie.
	w := env.do(t, http.MethodPost, "/api/v1/cart/lines", gin.H{
		"product_id": product.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	// After login, merge with the same session cookie.
	token := signToken(t, "user-1", identity.RoleCustomer)
	w = env.do(t, http.MethodPost, "/api/v1/cart/merge", nil, withToken(token), withCookies(cookies))
	require.Equal(t, http.StatusOK, w.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Count)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/admin/products", gin.H{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	customer := signToken(t, "user-1", identity.RoleCustomer)
	w = env.do(t, http.MethodPost, "/api/v1/admin/products", gin.H{"name": "X"}, withToken(customer))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCreateProductAndUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	admin := signToken(t, "admin-1", identity.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/v1/admin/products", gin.H{
		"name":        "New Gadget",
		"price":       59.99,
		"category_id": 1,
		"stock":       10,
		"available":   true,
	}, withToken(admin))
	require.Equal(t, http.StatusCreated, w.Code)

	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, int64(5999), product.Price.Amount)

	// Place an order as a customer, then flip its status as admin.
	customer := signToken(t, "user-1", identity.RoleCustomer)
	w = env.do(t, http.MethodPost, "/api/v1/cart/lines", gin.H{
		"product_id": product.ID,
		"quantity":   1,
	}, withToken(customer))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/checkout", gin.H{
		"shipping_address": "1 Main St",
		"payment_method":   "Card",
	}, withToken(customer))
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	w = env.do(t, http.MethodPut, "/api/v1/admin/orders/"+order.ID+"/status", gin.H{
		"status": "shipped",
	}, withToken(admin))
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	w = env.do(t, http.MethodPut, "/api/v1/admin/orders/"+order.ID+"/status", gin.H{
		"status": "teleported",
	}, withToken(admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/cart", nil, withToken("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
