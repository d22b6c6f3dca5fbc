package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// CreateTransaction persists a group transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Date.IsZero() {
		txn.Date = txn.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, group_id, payer_id, name, amount, currency, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.GroupID, txn.PayerID, txn.Name, txn.Amount.String(), txn.Currency,
		toMillis(txn.Date), toMillis(txn.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("group %s or payer %s: %w", txn.GroupID, txn.PayerID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var date, createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, name, amount, currency, date, created_at
		 FROM transactions WHERE id = ?`,
		id,
	).Scan(&txn.ID, &txn.GroupID, &txn.PayerID, &txn.Name, &txn.Amount, &txn.Currency, &date, &createdAt)
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	txn.Date = fromMillis(date)
	txn.CreatedAt = fromMillis(createdAt)
	return txn, nil
}
