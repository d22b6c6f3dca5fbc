// Package ledger settles member debts and reports group balances.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/access"
	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// Store is the persistence surface the ledger depends on.
type Store interface {
	storage.DebtStore
	GetProposal(ctx context.Context, id string) (*models.SplitProposal, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	GetMembership(ctx context.Context, groupID, userID string) (*models.Member, error)
}

// Balances is a group's outstanding position.
type Balances struct {
	GroupID  string
	Members  []calculator.MemberBalance
	Payments []calculator.DebtEdge
}

// Service implements debt settlement and balance reporting.
type Service struct {
	store  Store
	access *access.Checker
	now    func() time.Time
}

// NewService creates a new ledger service.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		access: access.NewChecker(store),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Settle marks an unpaid debt as paid. Only the debtor or the payer of the
// underlying transaction may settle it.
func (s *Service) Settle(ctx context.Context, debtID, callerID string) (*models.MemberDebt, error) {
	slog.Info("SettleDebt request received", "debt_id", debtID, "caller_id", callerID)

	if debtID == "" {
		return nil, apperr.BadRequest("debt id is required")
	}

	debt, err := s.store.GetDebt(ctx, debtID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Debt not found")
	}
	if err != nil {
		slog.Error("SettleDebt failed - could not load debt", "debt_id", debtID, "error", err)
		return nil, apperr.Persistence("failed to load debt", err)
	}

	proposal, err := s.store.GetProposal(ctx, debt.ProposalID)
	if err != nil {
		slog.Error("SettleDebt failed - could not load proposal", "proposal_id", debt.ProposalID, "error", err)
		return nil, apperr.Persistence("failed to load proposal", err)
	}
	if _, err := s.access.RequireMember(ctx, proposal.GroupID, callerID); err != nil {
		return nil, err
	}

	txn, err := s.store.GetTransaction(ctx, proposal.TransactionID)
	if err != nil {
		slog.Error("SettleDebt failed - could not load transaction", "transaction_id", proposal.TransactionID, "error", err)
		return nil, apperr.Persistence("failed to load transaction", err)
	}
	if callerID != debt.DebtorID && callerID != txn.PayerID {
		return nil, apperr.Forbidden("Only the debtor or the payer can settle this debt")
	}

	if debt.Status != models.DebtUnpaid {
		return nil, apperr.InvalidState("Debt is already paid")
	}

	err = s.store.SettleDebt(ctx, debt.ID, s.now())
	if errors.Is(err, storage.ErrConflict) {
		return nil, apperr.InvalidState("Debt is already paid")
	}
	if err != nil {
		slog.Error("SettleDebt failed", "debt_id", debtID, "error", err)
		return nil, apperr.Persistence("failed to settle debt", err)
	}

	settled, err := s.store.GetDebt(ctx, debt.ID)
	if err != nil {
		slog.Error("Failed to fetch settled debt", "debt_id", debtID, "error", err)
		return nil, apperr.Persistence("failed to load debt", err)
	}

	slog.Info("Debt settled", "debt_id", debtID, "group_id", proposal.GroupID, "amount", settled.Amount.String())
	return settled, nil
}

// Balances computes per-member net balances and a simplified payment plan
// from the group's unpaid debts.
func (s *Service) Balances(ctx context.Context, groupID, callerID string) (*Balances, error) {
	slog.Info("GetGroupBalances request received", "group_id", groupID)

	if _, err := s.access.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	outstanding, err := s.store.ListOutstandingDebts(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed - could not list debts", "group_id", groupID, "error", err)
		return nil, apperr.Persistence("failed to list debts", err)
	}

	debts := make([]calculator.DebtForBalance, len(outstanding))
	for i, d := range outstanding {
		debts[i] = calculator.DebtForBalance{
			DebtorID:   d.DebtorID,
			CreditorID: d.CreditorID,
			Amount:     d.Amount,
		}
	}
	members, payments := calculator.CalculateGroupBalances(debts)

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"debts_count", len(debts),
		"members_count", len(members),
		"payments_count", len(payments),
	)

	return &Balances{
		GroupID:  groupID,
		Members:  members,
		Payments: payments,
	}, nil
}
