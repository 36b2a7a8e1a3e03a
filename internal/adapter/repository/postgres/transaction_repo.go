package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/shopspring/decimal"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db querier
}

// newTransactionRepository creates a transaction repository bound to a connection or transaction
func newTransactionRepository(db querier) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Append records new transactions in the order given.
// Entries are only ever inserted; the table has no update or delete path.
func (r *transactionRepository) Append(ctx context.Context, txs ...*domain.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("invalid transaction: %w", err)
		}
	}

	query := `
		INSERT INTO transactions (id, owner_id, vault_id, amount, kind, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, tx := range txs {
		_, err := r.db.ExecContext(ctx, query,
			tx.ID,
			tx.OwnerID,
			tx.VaultID,
			tx.Amount.StringFixed(domain.MoneyPlaces),
			string(tx.Kind),
			tx.Description,
			tx.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	return nil
}

// List retrieves transactions newest first
func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	where, args := transactionWhere(filter)
	query := `
		SELECT id, owner_id, vault_id, amount, kind, description, created_at
		FROM transactions
		WHERE ` + where + `
		ORDER BY created_at DESC, seq DESC
	`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		var amountStr, kind string

		if err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.VaultID, &amountStr, &kind, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		tx.Amount = amount
		tx.Kind = domain.TransactionKind(kind)
		tx.CreatedAt = tx.CreatedAt.UTC()

		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, nil
}

// Count returns the number of transactions matching the filter
func (r *transactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	where, args := transactionWhere(filter)
	query := `SELECT COUNT(*) FROM transactions WHERE ` + where

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

func transactionWhere(filter domain.TransactionFilter) (string, []any) {
	clauses := []string{"owner_id = $1"}
	args := []any{filter.OwnerID}
	if filter.VaultID != nil {
		args = append(args, *filter.VaultID)
		clauses = append(clauses, fmt.Sprintf("vault_id = $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}
