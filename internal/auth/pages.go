package auth

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Pages serves the back-office HTML shell from dir/admin. The dashboard pages
// need a session; login and password reset do not.
type Pages struct {
	dir      string
	sessions *Sessions
}

func NewPages(dir string, sessions *Sessions) *Pages {
	return &Pages{dir: filepath.Join(dir, "admin"), sessions: sessions}
}

func (p *Pages) RegisterRoutes(r fiber.Router) {
	guard := p.sessions.PageMiddleware()
	r.Get(LoginPagePath, p.file("login.html"))
	r.Get("/admin/reset-password", p.file("reset-password.html"))
	r.Get("/admin", guard, p.file("dashboard.html"))
	r.Get("/admin/dashboard", guard, p.file("dashboard.html"))
	r.Get("/admin/orders", guard, p.file("dashboard.html"))
}

// IsAdminAsset reports whether path points into the admin page directory,
// which the public static handler must not serve.
func IsAdminAsset(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

func (p *Pages) file(name string) fiber.Handler {
	path := filepath.Join(p.dir, name)
	return func(c *fiber.Ctx) error {
		return c.SendFile(path)
	}
}
