package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/user"
	"go.uber.org/zap"
)

func newPagesApp(t *testing.T, s *Sessions) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "admin"), 0o755))
	for name, body := range map[string]string{
		"login.html":          "login page",
		"dashboard.html":      "dashboard page",
		"reset-password.html": "reset page",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "admin", name), []byte(body), 0o644))
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(zap.NewNop())})
	NewPages(dir, s).RegisterRoutes(app)
	return app
}

func getPage(t *testing.T, app *fiber.App, path string, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func TestPages_DashboardRedirectsWithoutSession(t *testing.T) {
	app := newPagesApp(t, NewSessions("test-secret", time.Hour, false))

	for _, path := range []string{"/admin", "/admin/dashboard", "/admin/orders"} {
		res, body := getPage(t, app, path, nil)
		assert.Equal(t, fiber.StatusFound, res.StatusCode, path)
		assert.Equal(t, "/admin/login", res.Header.Get("Location"), path)
		assert.NotContains(t, body, "dashboard page")
	}
}

func TestPages_InvalidSessionIsClearedAndRedirected(t *testing.T) {
	app := newPagesApp(t, NewSessions("test-secret", time.Hour, false))

	res, _ := getPage(t, app, "/admin/orders", &http.Cookie{Name: CookieName, Value: "garbage"})
	assert.Equal(t, fiber.StatusFound, res.StatusCode)
	assert.Equal(t, "/admin/login", res.Header.Get("Location"))
	ck := findCookie(res)
	require.NotNil(t, ck)
	assert.Empty(t, ck.Value)
}

func TestPages_ValidSessionServesDashboard(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, false)
	token, err := s.Issue(user.User{ID: 1, Username: "admin", Role: user.RoleAdmin})
	require.NoError(t, err)
	app := newPagesApp(t, s)

	res, body := getPage(t, app, "/admin/dashboard", &http.Cookie{Name: CookieName, Value: token})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "dashboard page", body)
}

func TestPages_LoginAndResetArePublic(t *testing.T) {
	app := newPagesApp(t, NewSessions("test-secret", time.Hour, false))

	res, body := getPage(t, app, "/admin/login", nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "login page", body)

	res, body = getPage(t, app, "/admin/reset-password?token=abc", nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "reset page", body)
}

func TestIsAdminAsset(t *testing.T) {
	assert.True(t, IsAdminAsset("/admin"))
	assert.True(t, IsAdminAsset("/admin/dashboard.html"))
	assert.False(t, IsAdminAsset("/administrator.png"))
	assert.False(t, IsAdminAsset("/index.html"))
}
