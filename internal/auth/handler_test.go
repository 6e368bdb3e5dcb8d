package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/notify"
	"github.com/wichananm65/deko-shop-backend/internal/password"
	"github.com/wichananm65/deko-shop-backend/internal/user"
	"go.uber.org/zap"
)

var testHasher = password.NewHasher(password.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})

type memTokens struct {
	mu      sync.Mutex
	entries map[string]int64
}

func (m *memTokens) Save(_ context.Context, hash string, userID int64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash] = userID
	return nil
}

func (m *memTokens) Consume(_ context.Context, hash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.entries[hash]
	if !ok {
		return 0, ErrTokenInvalid
	}
	delete(m.entries, hash)
	return id, nil
}

type captureDispatcher struct {
	events []notify.Event
}

func (c *captureDispatcher) Dispatch(ev notify.Event) { c.events = append(c.events, ev) }

type fixture struct {
	app      *fiber.App
	users    *user.Service
	dispatch *captureDispatcher
	sessions *Sessions
}

// bootstrap middleware: injects a jwt.Token when X-User-ID is set, like the
// real session middleware would after verifying the cookie.
func fakeProtect(c *fiber.Ctx) error {
	v := c.Get("X-User-ID")
	id, err := strconv.Atoi(v)
	if v == "" || err != nil {
		return apperror.NewUnauthorized("unauthorized")
	}
	c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": float64(id), "username": "admin", "role": "admin"}})
	return c.Next()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := testHasher.Hash("securePassword123!")
	require.NoError(t, err)

	users := user.NewService(
		user.NewInMemoryRepository([]user.User{{ID: 1, Username: "admin", PasswordHash: hash, Role: user.RoleAdmin}}),
		testHasher, zap.NewNop(),
	)
	sessions := NewSessions("test-secret", 8*time.Hour, false)
	dispatch := &captureDispatcher{}
	svc := NewService(users, sessions, &memTokens{entries: map[string]int64{}}, dispatch, Options{
		ResetTokenTTL: time.Hour,
		PublicBaseURL: "https://shop.example",
		AdminEmail:    "owner@shop.example",
	}, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(zap.NewNop())})
	h := NewHandler(svc, sessions, zap.NewNop())
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app, fakeProtect)

	return &fixture{app: app, users: users, dispatch: dispatch, sessions: sessions}
}

func (f *fixture) do(t *testing.T, method, path, body string, userID string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := f.app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func TestRoutesRegistered(t *testing.T) {
	f := newFixture(t)

	routes := map[string]bool{}
	for _, grp := range f.app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"POST /api/admin/login",
		"POST /api/admin/logout",
		"POST /api/admin/forgot-password",
		"POST /api/admin/reset-password",
		"GET /api/admin/me",
		"PUT /api/admin/change-password",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestLogin_SetsCookie(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "POST", "/api/admin/login", `{"username":"admin","password":"securePassword123!"}`, "")
	require.Equal(t, fiber.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "Login successful")
	assert.NotContains(t, body, "password")

	ck := findCookie(res)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)

	parsed, err := jwt.Parse(ck.Value, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["username"])
	assert.Equal(t, float64(1), claims["user_id"])
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)

	wrongPw, body1 := f.do(t, "POST", "/api/admin/login", `{"username":"admin","password":"nope"}`, "")
	noUser, body2 := f.do(t, "POST", "/api/admin/login", `{"username":"ghost","password":"nope"}`, "")

	assert.Equal(t, fiber.StatusUnauthorized, wrongPw.StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, noUser.StatusCode)
	assert.Equal(t, body1, body2)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, body1)
	assert.Nil(t, findCookie(wrongPw))
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "POST", "/api/admin/login", `{"username":""}`, "")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, `"password":"is required"`)
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newFixture(t)

	res, _ := f.do(t, "POST", "/api/admin/logout", "", "")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	ck := findCookie(res)
	require.NotNil(t, ck)
	assert.Empty(t, ck.Value)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	res, _ := f.do(t, "GET", "/api/admin/me", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, body := f.do(t, "GET", "/api/admin/me", "", "1")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"user_id":1,"username":"admin","role":"admin"}`, body)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "PUT", "/api/admin/change-password", `{"currentPassword":"wrong","newPassword":"anotherPassword1"}`, "1")
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "current password is incorrect")

	res, _ = f.do(t, "PUT", "/api/admin/change-password", `{"currentPassword":"securePassword123!","newPassword":"short"}`, "1")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	res, _ = f.do(t, "PUT", "/api/admin/change-password", `{"currentPassword":"securePassword123!","newPassword":"anotherPassword1"}`, "42")
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, _ = f.do(t, "PUT", "/api/admin/change-password", `{"currentPassword":"securePassword123!","newPassword":"anotherPassword1"}`, "1")
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	_, err := f.users.Authenticate(context.Background(), "admin", "anotherPassword1")
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "POST", "/api/admin/forgot-password", `{}`, "")
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Contains(t, body, msgResetRequested)

	require.Len(t, f.dispatch.events, 1)
	ev := f.dispatch.events[0]
	assert.Equal(t, notify.EventPasswordResetRequested, ev.Type)
	assert.Equal(t, "owner@shop.example", ev.Recipient)

	link, err := url.Parse(ev.Payload["reset_link"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/admin/reset-password", link.Path)
	token := link.Query().Get("token")
	require.Len(t, token, 64)

	res, _ = f.do(t, "POST", "/api/admin/reset-password", `{"token":"`+token+`","newPassword":"freshPassword9"}`, "")
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	_, err = f.users.Authenticate(context.Background(), "admin", "freshPassword9")
	assert.NoError(t, err)

	res, body = f.do(t, "POST", "/api/admin/reset-password", `{"token":"`+token+`","newPassword":"secondTry99"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "invalid or expired token")
}

func TestResetPassword_Validation(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "POST", "/api/admin/reset-password", `{"token":"","newPassword":"x"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var parsed struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Equal(t, "is required", parsed.Errors["token"])
	assert.Equal(t, "must be at least 8 characters", parsed.Errors["newPassword"])
}
