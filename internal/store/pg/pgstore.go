// Package pg persists tasknest state in PostgreSQL through the pgx
// stdlib driver.
package pg

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store owns the shared connection pool. Entity stores hang off it.
type Store struct {
	db *sql.DB
}

// Open connects and applies pool defaults; adjust under load tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (tests use this with sqlmock).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Todos returns the todo persistence adapter.
func (s *Store) Todos() *TodoStore { return &TodoStore{db: s.db} }

// Users returns the user persistence adapter.
func (s *Store) Users() *UserStore { return &UserStore{db: s.db} }

// Memberships returns the org membership resolver.
func (s *Store) Memberships() *MembershipStore { return &MembershipStore{db: s.db} }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
