package proposal

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// CreateRequest asks to split one transaction among group members.
type CreateRequest struct {
	TransactionID string
	Splits        []Split

	// SplitEqually divides the transaction among every member except the
	// payer. It only applies when Splits is empty.
	SplitEqually bool
}

// Create stores a new pending proposal for a group transaction.
//
// The caller must be a member. Every split names a distinct group member
// with a positive amount, and the splits may not add up to more than the
// transaction amount.
func (e *Engine) Create(ctx context.Context, groupID, callerID string, req CreateRequest) (*models.SplitProposal, error) {
	log := e.logger.With("group_id", groupID, "caller_id", callerID, "transaction_id", req.TransactionID)

	if _, err := e.auth.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	if req.TransactionID == "" {
		return nil, apperr.BadRequest("transactionId is required")
	}

	txn, err := e.store.GetTransaction(ctx, req.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Transaction not found")
	}
	if err != nil {
		log.Error("Failed to load transaction", "error", err)
		return nil, apperr.Persistence("failed to load transaction", err)
	}
	if txn.GroupID != groupID {
		return nil, apperr.BadRequest("Transaction does not belong to this group")
	}

	members, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		log.Error("Failed to list members", "error", err)
		return nil, apperr.Persistence("failed to list members", err)
	}

	splits := req.Splits
	if len(splits) == 0 && req.SplitEqually {
		if splits, err = equalSplits(txn, members); err != nil {
			return nil, err
		}
	}
	if err := validateSplits(splits, txn, members); err != nil {
		return nil, err
	}

	rule, err := EncodeSplitRule(splits)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "invalid splits", err)
	}

	now := e.now()
	proposal := &models.SplitProposal{
		GroupID:       groupID,
		TransactionID: txn.ID,
		ProposedBy:    callerID,
		SplitRule:     rule,
		Status:        models.ProposalPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.CreateProposal(ctx, proposal); err != nil {
		log.Error("Failed to create proposal", "error", err)
		return nil, apperr.Persistence("failed to create proposal", err)
	}

	log.Info("Proposal created", "proposal_id", proposal.ID, "splits", len(splits))
	return proposal, nil
}

// equalSplits shares the transaction among all members but the payer.
func equalSplits(txn *models.Transaction, members []models.Member) ([]Split, error) {
	var ids []string
	for _, m := range members {
		if m.UserID != txn.PayerID {
			ids = append(ids, m.UserID)
		}
	}
	if len(ids) == 0 {
		return nil, apperr.BadRequest("No members besides the payer to split with")
	}

	shares, err := calculator.EqualShares(txn.Amount.Abs(), ids)
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("cannot split transaction equally: %v", err))
	}

	splits := make([]Split, 0, len(shares))
	for _, s := range shares {
		// Tiny totals over many members leave some shares at zero.
		if s.Amount.IsPositive() {
			splits = append(splits, Split{UserID: s.UserID, Amount: s.Amount})
		}
	}
	return splits, nil
}

func validateSplits(splits []Split, txn *models.Transaction, members []models.Member) error {
	if len(splits) == 0 {
		return apperr.BadRequest("At least one split is required")
	}

	isMember := make(map[string]bool, len(members))
	for _, m := range members {
		isMember[m.UserID] = true
	}

	seen := make(map[string]bool, len(splits))
	rule := SplitRule{Splits: splits}
	for i, s := range splits {
		switch {
		case s.UserID == "":
			return apperr.BadRequest(fmt.Sprintf("splits[%d].userId is required", i))
		case !isMember[s.UserID]:
			return apperr.BadRequest(fmt.Sprintf("splits[%d].userId is not a member of this group", i))
		case seen[s.UserID]:
			return apperr.BadRequest(fmt.Sprintf("splits[%d].userId appears more than once", i))
		case !s.Amount.IsPositive():
			return apperr.BadRequest(fmt.Sprintf("splits[%d].amount must be greater than zero", i))
		}
		seen[s.UserID] = true
	}

	if rule.Total().GreaterThan(txn.Amount.Abs()) {
		return apperr.BadRequest(fmt.Sprintf("splits total %s exceeds transaction amount %s",
			rule.Total().StringFixed(2), txn.Amount.Abs().StringFixed(2)))
	}
	return nil
}

