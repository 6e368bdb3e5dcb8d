package category

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"go.uber.org/zap"
)

type fakeSource struct {
	names []string
	err   error
}

func (f fakeSource) Categories(context.Context) ([]string, error) { return f.names, f.err }

func TestList_MergesDefaults(t *testing.T) {
	svc := NewService(fakeSource{names: []string{"Glas", "Holz", "", "Anhänger"}})

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Anhänger", "Glas", "Holz", "Schmuck", "Stein"}, got)
}

func TestList_OnlyDefaults(t *testing.T) {
	got, err := NewService(fakeSource{}).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Holz", "Schmuck", "Stein"}, got)
}

func TestCategoriesRoute(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(zap.NewNop())})
	NewHandler(NewService(fakeSource{names: []string{"Glas"}})).RegisterPublicRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/api/products/categories", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	b, _ := io.ReadAll(res.Body)
	assert.JSONEq(t, `["Glas","Holz","Schmuck","Stein"]`, string(b))
}

func TestCategoriesRoute_SourceFailure(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(zap.NewNop())})
	NewHandler(NewService(fakeSource{err: errors.New("db down")})).RegisterPublicRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/api/products/categories", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
}
