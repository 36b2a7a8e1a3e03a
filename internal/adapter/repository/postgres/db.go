package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
)

// Postgres error codes that abort a unit of work without it being at fault
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

//go:embed schema.sql
var schema string

// txOptions applies to every unit of work
var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=wealthnest sslmode=disable statement_timeout=5000"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate creates the ledger tables if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements domain.Store on PostgreSQL
type Store struct {
	db *DB
}

// NewStore creates a store over an open connection
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories that run each statement on its own
func (s *Store) Repositories() domain.Repositories {
	return newRepositories(s.db)
}

// RunInTx runs fn inside one READ COMMITTED transaction.
// Writers lock their vault rows with FOR UPDATE before reading balances, so
// operations on the same vault queue behind each other instead of aborting.
//
// Logic:
// 1. Begin the transaction and hand fn repositories bound to it
// 2. Roll back if fn fails; nothing it wrote is kept
// 3. Commit otherwise
// 4. Serialization failures and deadlocks surface as *domain.ConflictError
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	dbTx, err := s.db.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(ctx, newRepositories(dbTx)); err != nil {
		return classifyError(err)
	}

	if err := dbTx.Commit(); err != nil {
		return classifyError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func newRepositories(q querier) domain.Repositories {
	return domain.Repositories{
		Vaults:       newVaultRepository(q),
		Transactions: newTransactionRepository(q),
		Goals:        newGoalRepository(q),
		Profiles:     newProfileRepository(q),
	}
}

// classifyError turns a concurrent-modification abort into *domain.ConflictError
func classifyError(err error) error {
	if domain.IsConflict(err) {
		return err
	}
	if pqErrorCode(err) == codeSerializationFailure || pqErrorCode(err) == codeDeadlockDetected {
		return &domain.ConflictError{Err: err}
	}
	return err
}

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
