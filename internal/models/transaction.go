package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a group expense paid by one user.
type Transaction struct {
	ID      string
	GroupID string

	// PayerID is the user who paid; debts from approved splits are owed to them.
	PayerID string

	Name     string
	Amount   decimal.Decimal
	Currency string
	Date     time.Time

	CreatedAt time.Time
}

// TransactionSummary is the subset of a transaction shown next to a proposal.
type TransactionSummary struct {
	ID       string
	Name     string
	Amount   decimal.Decimal
	Currency string
	Date     time.Time
}

// Summary returns the summary fields of t.
func (t *Transaction) Summary() TransactionSummary {
	return TransactionSummary{
		ID:       t.ID,
		Name:     t.Name,
		Amount:   t.Amount,
		Currency: t.Currency,
		Date:     t.Date,
	}
}
