package repository

import (
	"context"
	"errors"
	"fmt"

	"pokertable/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on top of a pgx connection pool
type PostgresStore struct {
	db    *database.PostgresDB
	repos *Repositories
}

// NewPostgresStore creates a store backed by PostgreSQL
func NewPostgresStore(db *database.PostgresDB) *PostgresStore {
	return &PostgresStore{
		db:    db,
		repos: newPostgresRepositories(db.Pool),
	}
}

func newPostgresRepositories(q dbtx) *Repositories {
	return &Repositories{
		Participants:   &postgresParticipantRepository{q: q},
		Tables:         &postgresTableRepository{q: q},
		Participations: &postgresParticipationRepository{q: q},
		UserStories:    &postgresUserStoryRepository{q: q},
	}
}

// Repositories returns repositories that run each statement on its own
func (s *PostgresStore) Repositories() *Repositories {
	return s.repos
}

// WithTx runs fn inside a READ COMMITTED transaction. Row locks taken by the
// repositories are held until commit or rollback.
func (s *PostgresStore) WithTx(ctx context.Context, fn TxFunc) error {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newPostgresRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func lockClause(lock LockMode) string {
	switch lock {
	case LockShare:
		return " FOR SHARE"
	case LockUpdate:
		return " FOR UPDATE"
	default:
		return ""
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
