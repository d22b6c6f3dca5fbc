package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtStatus tracks whether a member debt has been settled.
type DebtStatus string

const (
	DebtUnpaid DebtStatus = "unpaid"
	DebtPaid   DebtStatus = "paid"
)

// MemberDebt is an amount one member owes as a result of an approved proposal.
type MemberDebt struct {
	ID         string
	ProposalID string
	DebtorID   string
	Amount     decimal.Decimal
	Status     DebtStatus
	CreatedAt  time.Time

	// PaidAt is set once the debt is settled.
	PaidAt *time.Time
}

// OutstandingDebt is an unpaid debt together with the member it is owed to.
type OutstandingDebt struct {
	DebtID     string
	ProposalID string
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
}
