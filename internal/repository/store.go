package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// Postgres error codes the repositories translate into sentinel errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store groups the repositories that share one database handle. Repositories
// obtained from the Store passed to InTx's callback run inside that transaction.
type Store interface {
	Products() ProductRepository
	Audits() AuditRepository
	Users() UserRepository

	// InTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

// NewStore creates a Store backed by db
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db, q: db}
}

func (s *sqlStore) Products() ProductRepository {
	return NewProductRepository(s.q)
}

func (s *sqlStore) Audits() AuditRepository {
	return NewAuditRepository(s.q)
}

func (s *sqlStore) Users() UserRepository {
	return NewUserRepository(s.q)
}

func (s *sqlStore) InTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
			}
		}
	}()

	if err = fn(&sqlStore{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
