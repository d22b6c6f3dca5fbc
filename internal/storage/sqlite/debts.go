package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/fintrack/internal/models"
)

const debtColumns = `id, proposal_id, debtor_id, amount, status, created_at, paid_at`

// GetDebt retrieves a member debt by ID.
func (s *SQLiteStore) GetDebt(ctx context.Context, id string) (*models.MemberDebt, error) {
	debt, err := scanDebt(s.db.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM member_debts WHERE id = ?`,
		id,
	))
	if err != nil {
		return nil, notFound(err, "debt", id)
	}
	return debt, nil
}

// ListDebtsByProposal retrieves the debts an approval produced, ordered by debtor.
func (s *SQLiteStore) ListDebtsByProposal(ctx context.Context, proposalID string) ([]*models.MemberDebt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+debtColumns+` FROM member_debts WHERE proposal_id = ? ORDER BY debtor_id, id`,
		proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	debts := []*models.MemberDebt{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return debts, nil
}

// ListOutstandingDebts retrieves the unpaid debts of a group's approved
// proposals. The creditor is the payer of the proposal's transaction.
func (s *SQLiteStore) ListOutstandingDebts(ctx context.Context, groupID string) ([]*models.OutstandingDebt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.proposal_id, d.debtor_id, t.payer_id, d.amount
		 FROM member_debts d
		 JOIN split_proposals p ON p.id = d.proposal_id
		 JOIN transactions t ON t.id = p.transaction_id
		 WHERE p.group_id = ? AND p.status = ? AND d.status = ?
		 ORDER BY d.created_at, d.id`,
		groupID, string(models.ProposalApproved), string(models.DebtUnpaid),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.OutstandingDebt
	for rows.Next() {
		d := &models.OutstandingDebt{}
		if err := rows.Scan(&d.DebtID, &d.ProposalID, &d.DebtorID, &d.CreditorID, &d.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan outstanding debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outstanding debts: %w", err)
	}

	return debts, nil
}

// SettleDebt marks an unpaid debt as paid.
func (s *SQLiteStore) SettleDebt(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE member_debts SET status = ?, paid_at = ? WHERE id = ? AND status = ?`,
		string(models.DebtPaid), toMillis(at), id, string(models.DebtUnpaid),
	)
	if err != nil {
		return fmt.Errorf("failed to settle debt: %w", err)
	}
	return expectOneRow(res, "debt "+id)
}

func scanDebt(row rowScanner) (*models.MemberDebt, error) {
	debt := &models.MemberDebt{}
	var status string
	var createdAt int64
	var paidAt sql.NullInt64
	if err := row.Scan(
		&debt.ID, &debt.ProposalID, &debt.DebtorID, &debt.Amount,
		&status, &createdAt, &paidAt,
	); err != nil {
		return nil, err
	}
	debt.Status = models.DebtStatus(status)
	debt.CreatedAt = fromMillis(createdAt)
	if paidAt.Valid {
		t := fromMillis(paidAt.Int64)
		debt.PaidAt = &t
	}
	return debt, nil
}
