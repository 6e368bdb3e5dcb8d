package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

var ErrTokenInvalid = errors.New("invalid or expired token")

// TokenStore keeps password reset tokens by hash. Consume removes the entry,
// so a token works at most once.
type TokenStore interface {
	Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error
	Consume(ctx context.Context, tokenHash string) (int64, error)
}

// NewResetToken returns a random 32-byte token (hex) and the hash to store.
func NewResetToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type SQLTokenStore struct {
	db  *sqlx.DB
	now func() time.Time
}

const (
	purgeTokensQuery  = `DELETE FROM password_reset_tokens WHERE expires_at < ? OR user_id = ?`
	insertTokenQuery  = `INSERT INTO password_reset_tokens (token_hash, user_id, expires_at) VALUES (?, ?, ?)`
	consumeTokenQuery = `DELETE FROM password_reset_tokens WHERE token_hash = ? RETURNING user_id, expires_at`
)

func NewSQLTokenStore(db *sqlx.DB) *SQLTokenStore {
	return &SQLTokenStore{db: db, now: time.Now}
}

// Save replaces any earlier token of the same user and drops expired ones.
func (s *SQLTokenStore) Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error {
	now := s.now()
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(purgeTokensQuery), now.Unix(), userID); err != nil {
		return fmt.Errorf("purge reset tokens: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(insertTokenQuery), tokenHash, userID, now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

func (s *SQLTokenStore) Consume(ctx context.Context, tokenHash string) (int64, error) {
	var userID, expiresAt int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(consumeTokenQuery), tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("consume reset token: %w", err)
	}
	if s.now().Unix() > expiresAt {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

const redisTokenPrefix = "pwreset:"

type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisTokenPrefix+tokenHash, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

// Consume uses GETDEL so two concurrent resets cannot both succeed.
func (s *RedisTokenStore) Consume(ctx context.Context, tokenHash string) (int64, error) {
	val, err := s.client.GetDel(ctx, redisTokenPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("consume reset token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
