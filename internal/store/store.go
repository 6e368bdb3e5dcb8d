package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/wichananm65/deko-shop-backend/internal/config"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

// Store owns the database handle shared by every repository.
type Store struct {
	DB     *sqlx.DB
	Driver string
}

// Open connects to the database selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	case DriverPgx:
		if cfg.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		s, err := open(DriverPgx, cfg.URL)
		if err != nil {
			return nil, err
		}
		s.DB.SetMaxOpenConns(25)
		s.DB.SetMaxIdleConns(5)
		s.DB.SetConnMaxLifetime(5 * time.Minute)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// OpenSQLite opens (and creates) the embedded database file at path.
func OpenSQLite(path string) (*Store, error) {
	return open(DriverSQLite, sqliteDSN(path))
}

func open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return &Store{DB: db, Driver: driver}, nil
}

// sqliteDSN enables foreign keys and WAL, waits on a locked database instead
// of failing, and starts write transactions with BEGIN IMMEDIATE.
func sqliteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_txlock=immediate"
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// WithTx runs fn inside a transaction on s.DB.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithTx(ctx, s.DB, fn)
}

// WithTx commits when fn returns nil and rolls back otherwise.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
