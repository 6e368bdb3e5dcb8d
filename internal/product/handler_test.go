package product

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/pricing"
	"go.uber.org/zap"
)

// requireUser stands in for the session middleware: any X-User-ID header
// counts as authenticated.
func requireUser(c *fiber.Ctx) error {
	if c.Get("X-User-ID") == "" {
		return apperror.NewUnauthorized("unauthorized")
	}
	return c.Next()
}

func makeApp(repo Repository) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(zap.NewNop())})
	h := NewHandler(NewService(repo))
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app, requireUser)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string, auth bool) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("X-User-ID", "1")
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func seedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Holzbrett", Price: pricing.MustMoney("11.90"), PriceNet: pricing.MustMoney("10"), TaxRate: pricing.NewRate(dec("0.19")), Stock: 10},
		{ID: 2, Name: "Steinfigur", Price: pricing.MustMoney("23.80"), PriceNet: pricing.MustMoney("20"), TaxRate: pricing.NewRate(dec("0.19")), Stock: 11},
	}
}

func TestProductRoutes_Registered(t *testing.T) {
	app := makeApp(NewInMemoryRepository(nil))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"GET /api/products",
		"GET /api/products/:id<int>",
		"POST /api/products",
		"PUT /api/products/:id<int>",
		"POST /api/products/:id<int>",
		"DELETE /api/products/:id<int>",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestGetProducts_StockStatusAndOrder(t *testing.T) {
	app := makeApp(NewInMemoryRepository(seedProducts()))

	res, body := send(t, app, "GET", "/api/products", "", false)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 2)
	assert.Equal(t, float64(2), list[0]["id"])
	assert.Equal(t, "OK", list[0]["stock_status"])
	assert.Equal(t, "LOW", list[1]["stock_status"])
	assert.Equal(t, 11.9, list[1]["price_gross"])
	assert.Equal(t, 0.19, list[1]["tax_rate"])
}

func TestGetProduct(t *testing.T) {
	app := makeApp(NewInMemoryRepository(seedProducts()))

	res, body := send(t, app, "GET", "/api/products/2", "", false)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"name":"Steinfigur"`)

	res, body = send(t, app, "GET", "/api/products/77", "", false)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	assert.JSONEq(t, `{"message":"product not found"}`, body)

	res, _ = send(t, app, "GET", "/api/products/abc", "", false)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestCreateProduct(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := makeApp(repo)

	res, _ := send(t, app, "POST", "/api/products", `{"name":"Ohrringe","price_net":100}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, body := send(t, app, "POST", "/api/products", `{"name":"Ohrringe","price_net":100,"category":"Schmuck"}`, true)
	require.Equal(t, fiber.StatusCreated, res.StatusCode, body)
	assert.JSONEq(t, `{"success":true,"id":1,"message":"Product created","price_gross":119.00}`, body)

	all, _ := repo.List(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, 0, all[0].Stock)
}

func TestCreateProduct_Validation(t *testing.T) {
	app := makeApp(NewInMemoryRepository(nil))

	res, body := send(t, app, "POST", "/api/products", `{"name":"","price_net":-1,"tax_rate":-0.1,"stock":-2}`, true)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var parsed struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Equal(t, "invalid data", parsed.Message)
	assert.Equal(t, "is required", parsed.Errors["name"])
	assert.Equal(t, "must be at least 0", parsed.Errors["price_net"])
	assert.Equal(t, "must be at least 0", parsed.Errors["tax_rate"])
	assert.Equal(t, "must be at least 0", parsed.Errors["stock"])

	res, body = send(t, app, "POST", "/api/products", `{"name":"x"}`, true)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, `"price_net":"is required"`)
}

func TestProductName_BlankIsRejectedAndTrimmed(t *testing.T) {
	repo := NewInMemoryRepository(seedProducts())
	app := makeApp(repo)

	res, body := send(t, app, "POST", "/api/products", `{"name":"   ","price_net":10}`, true)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, `"name":"is required"`)

	res, body = send(t, app, "PUT", "/api/products/1", `{"name":"  "}`, true)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, `"name":"must not be blank"`)

	res, body = send(t, app, "POST", "/api/products", `{"name":"  Ohrringe ","price_net":10}`, true)
	require.Equal(t, fiber.StatusCreated, res.StatusCode, body)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	p, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ohrringe", p.Name)
}

func TestUpdateProduct(t *testing.T) {
	repo := NewInMemoryRepository(seedProducts())
	app := makeApp(repo)

	res, body := send(t, app, "PUT", "/api/products/1", `{}`, true)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Contains(t, body, "nothing to change")

	res, _ = send(t, app, "PUT", "/api/products/9", `{"stock":1}`, true)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, _ = send(t, app, "POST", "/api/products/1", `{"tax_rate":0}`, true)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	p, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "10.00", p.Price.String())
	assert.True(t, p.TaxRate.IsZero())
}

func TestDeleteProduct(t *testing.T) {
	app := makeApp(NewInMemoryRepository(seedProducts()))

	res, _ := send(t, app, "DELETE", "/api/products/1", "", true)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, _ = send(t, app, "DELETE", "/api/products/1", "", true)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}
