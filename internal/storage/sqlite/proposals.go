package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const proposalColumns = `p.id, p.group_id, p.transaction_id, p.proposed_by, p.split_rule, p.status, p.created_at, p.updated_at`

// CreateProposal persists a new split proposal.
func (s *SQLiteStore) CreateProposal(ctx context.Context, proposal *models.SplitProposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.New().String()
	}
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = time.Now().UTC()
	}
	if proposal.UpdatedAt.IsZero() {
		proposal.UpdatedAt = proposal.CreatedAt
	}
	if proposal.Status == "" {
		proposal.Status = models.ProposalPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO split_proposals (id, group_id, transaction_id, proposed_by, split_rule, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		proposal.ID, proposal.GroupID, proposal.TransactionID, proposal.ProposedBy,
		string(proposal.SplitRule), string(proposal.Status),
		toMillis(proposal.CreatedAt), toMillis(proposal.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("group %s or transaction %s: %w", proposal.GroupID, proposal.TransactionID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}

	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *SQLiteStore) GetProposal(ctx context.Context, id string) (*models.SplitProposal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM split_proposals p WHERE p.id = ?`,
		id,
	)
	proposal, err := scanProposal(row)
	if err != nil {
		return nil, notFound(err, "proposal", id)
	}
	return proposal, nil
}

// ListProposals returns one page of a group's proposals joined with their
// transaction summaries, plus the number of rows matching the filter.
func (s *SQLiteStore) ListProposals(ctx context.Context, q storage.ProposalQuery) ([]*models.ProposalListing, int, error) {
	where := "p.group_id = ?"
	args := []any{q.GroupID}
	if q.Status != "" {
		where += " AND p.status = ?"
		args = append(args, string(q.Status))
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM split_proposals p WHERE "+where,
		args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	query := `SELECT ` + proposalColumns + `, t.id, t.name, t.amount, t.currency, t.date
		FROM split_proposals p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE ` + where + `
		ORDER BY ` + orderBy(q) + `
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, append(args, limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	listings := []*models.ProposalListing{}
	for rows.Next() {
		l := &models.ProposalListing{}
		var splitRule []byte
		var status string
		var createdAt, updatedAt, date int64
		if err := rows.Scan(
			&l.Proposal.ID, &l.Proposal.GroupID, &l.Proposal.TransactionID, &l.Proposal.ProposedBy,
			&splitRule, &status, &createdAt, &updatedAt,
			&l.Transaction.ID, &l.Transaction.Name, &l.Transaction.Amount, &l.Transaction.Currency, &date,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan proposal: %w", err)
		}
		l.Proposal.SplitRule = splitRule
		l.Proposal.Status = models.ProposalStatus(status)
		l.Proposal.CreatedAt = fromMillis(createdAt)
		l.Proposal.UpdatedAt = fromMillis(updatedAt)
		l.Transaction.Date = fromMillis(date)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate proposals: %w", err)
	}

	return listings, total, nil
}

// ApproveProposal inserts the debts and flips the proposal to approved in a
// single transaction. The status update is the last statement and only
// matches a pending row, so a concurrent transition makes this one roll back.
func (s *SQLiteStore) ApproveProposal(ctx context.Context, id string, debts []*models.MemberDebt, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, debt := range debts {
			prepareDebt(debt, id, at)
			_, err := tx.ExecContext(ctx,
				`INSERT INTO member_debts (id, proposal_id, debtor_id, amount, status, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				debt.ID, debt.ProposalID, debt.DebtorID, debt.Amount.String(),
				string(debt.Status), toMillis(debt.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("failed to insert member debt: %w", err)
			}
		}

		return transition(ctx, tx, id, models.ProposalApproved, at)
	})
}

// RejectProposal flips a pending proposal to rejected.
func (s *SQLiteStore) RejectProposal(ctx context.Context, id string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return transition(ctx, tx, id, models.ProposalRejected, at)
	})
}

func transition(ctx context.Context, tx *sql.Tx, id string, to models.ProposalStatus, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE split_proposals SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), toMillis(at), id, string(models.ProposalPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}
	return expectOneRow(res, "proposal "+id+" -> "+string(to))
}

func prepareDebt(debt *models.MemberDebt, proposalID string, at time.Time) {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	debt.ProposalID = proposalID
	if debt.Status == "" {
		debt.Status = models.DebtUnpaid
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = at
	}
}

// orderBy builds the ORDER BY clause from whitelisted columns only.
func orderBy(q storage.ProposalQuery) string {
	field := q.SortField
	if !field.Valid() {
		field = storage.SortByCreatedAt
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	return "p." + string(field) + " " + dir + ", p.id " + dir
}

func scanProposal(row rowScanner) (*models.SplitProposal, error) {
	p := &models.SplitProposal{}
	var splitRule []byte
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&p.ID, &p.GroupID, &p.TransactionID, &p.ProposedBy,
		&splitRule, &status, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	p.SplitRule = splitRule
	p.Status = models.ProposalStatus(status)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}
