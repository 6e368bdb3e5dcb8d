package user

const RoleAdmin = "admin"

// User is a back-office account. PasswordHash never leaves the server.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	CreatedAt    string `db:"created_at" json:"created_at,omitempty"`
}
