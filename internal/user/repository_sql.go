package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLRepository stores users in the shared SQLite or PostgreSQL database.
type SQLRepository struct {
	db *sqlx.DB
}

const (
	selectUserColumns = `SELECT id, username, password_hash, role, created_at FROM users`

	getUserByIDQuery       = selectUserColumns + ` WHERE id = ?`
	getUserByUsernameQuery = selectUserColumns + ` WHERE username = ?`
	firstUserByRoleQuery   = selectUserColumns + ` WHERE role = ? ORDER BY id LIMIT 1`

	insertUserQuery = `
		INSERT INTO users (username, password_hash, role)
		VALUES (?, ?, ?)
		RETURNING id
	`
	updatePasswordQuery = `UPDATE users SET password_hash = ? WHERE id = ?`
)

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getOne(ctx, getUserByUsernameQuery, username)
}

func (r *SQLRepository) FirstByRole(ctx context.Context, role string) (User, error) {
	return r.getOne(ctx, firstUserByRoleQuery, role)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) Create(ctx context.Context, user User) (User, error) {
	if _, err := r.GetByUsername(ctx, user.Username); err == nil {
		return User{}, ErrUsernameExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(insertUserQuery),
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&id)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *SQLRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(updatePasswordQuery), hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
