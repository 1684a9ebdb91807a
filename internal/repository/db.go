package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DB is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrStaleWrite is returned by compare-and-swap writes whose expected value no longer matches.
var ErrStaleWrite = errors.New("stale write: record changed since it was read")

// ErrMalformedRecord marks rows that fail validation at load time.
var ErrMalformedRecord = errors.New("malformed record")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// runInTx commits when fn succeeds and rolls back otherwise.
func runInTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toStrings(ids []domain.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toIDs(values []string) []domain.ID {
	out := make([]domain.ID, len(values))
	for i, v := range values {
		out[i] = domain.ID(v)
	}
	return out
}

func optionalString(id *domain.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func optionalID(s *string) *domain.ID {
	if s == nil {
		return nil
	}
	id := domain.ID(*s)
	return &id
}
