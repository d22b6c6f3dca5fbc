package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const proposalColumns = `p.id, p.group_id, p.transaction_id, p.proposed_by, p.split_rule::text, p.status, p.created_at, p.updated_at`

// CreateProposal persists a new split proposal.
func (s *Store) CreateProposal(ctx context.Context, proposal *models.SplitProposal) error {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO split_proposals (id, group_id, transaction_id, proposed_by, split_rule, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::text::jsonb, $6, $7, $8)`,
		proposal.ID, proposal.GroupID, proposal.TransactionID, proposal.ProposedBy,
		string(proposal.SplitRule), string(proposal.Status), proposal.CreatedAt, proposal.UpdatedAt,
	)
	if pgCode(err) == codeForeignKeyViolation {
		return fmt.Errorf("group %s or transaction %s: %w", proposal.GroupID, proposal.TransactionID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *Store) GetProposal(ctx context.Context, id string) (*models.SplitProposal, error) {
	p := &models.SplitProposal{}
	var splitRule, status string
	err := s.pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM split_proposals p WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.GroupID, &p.TransactionID, &p.ProposedBy, &splitRule, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "proposal", id)
	}
	p.SplitRule = []byte(splitRule)
	p.Status = models.ProposalStatus(status)
	return p, nil
}

// ListProposals returns one page of a group's proposals with transaction
// summaries, plus the total matching the filter.
func (s *Store) ListProposals(ctx context.Context, q storage.ProposalQuery) ([]*models.ProposalListing, int, error) {
	where := "p.group_id = $1"
	args := []any{q.GroupID}
	if q.Status != "" {
		where += " AND p.status = $2"
		args = append(args, string(q.Status))
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM split_proposals p WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	query := `SELECT ` + proposalColumns + `, t.id, t.name, t.amount::text, t.currency, t.date
		FROM split_proposals p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE ` + where + `
		ORDER BY ` + orderBy(q)
	if q.Limit > 0 {
		query += " LIMIT $" + strconv.Itoa(len(args)+1)
		args = append(args, q.Limit)
	}
	query += " OFFSET $" + strconv.Itoa(len(args)+1)
	args = append(args, q.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}

	listings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ProposalListing, error) {
		l := &models.ProposalListing{}
		var splitRule, status, amount string
		if err := row.Scan(
			&l.Proposal.ID, &l.Proposal.GroupID, &l.Proposal.TransactionID, &l.Proposal.ProposedBy,
			&splitRule, &status, &l.Proposal.CreatedAt, &l.Proposal.UpdatedAt,
			&l.Transaction.ID, &l.Transaction.Name, &amount, &l.Transaction.Currency, &l.Transaction.Date,
		); err != nil {
			return nil, err
		}
		l.Proposal.SplitRule = []byte(splitRule)
		l.Proposal.Status = models.ProposalStatus(status)
		var err error
		l.Transaction.Amount, err = parseAmount(amount)
		return l, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan proposals: %w", err)
	}
	return listings, total, nil
}

// ApproveProposal inserts the debts and flips the proposal to approved in one
// transaction. Under READ COMMITTED a concurrent approver blocks on the row
// lock taken by the UPDATE, then re-evaluates status = 'pending' and matches
// nothing, so its debt inserts roll back with it.
func (s *Store) ApproveProposal(ctx context.Context, id string, debts []*models.MemberDebt, at time.Time) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if len(debts) > 0 {
			batch := &pgx.Batch{}
			for _, debt := range debts {
				prepareDebt(debt, id, at)
				batch.Queue(
					`INSERT INTO member_debts (id, proposal_id, debtor_id, amount, status, created_at)
					 VALUES ($1, $2, $3, $4::text::numeric, $5, $6)`,
					debt.ID, debt.ProposalID, debt.DebtorID, debt.Amount.String(), string(debt.Status), debt.CreatedAt,
				)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to insert member debts: %w", err)
			}
		}

		return transition(ctx, tx, id, models.ProposalApproved, at)
	})
}

// RejectProposal flips a pending proposal to rejected.
func (s *Store) RejectProposal(ctx context.Context, id string, at time.Time) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return transition(ctx, tx, id, models.ProposalRejected, at)
	})
}

func transition(ctx context.Context, tx pgx.Tx, id string, to models.ProposalStatus, at time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE split_proposals SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), at, id, string(models.ProposalPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("proposal %s -> %s: %w", id, to, storage.ErrConflict)
	}
	return nil
}

const debtColumns = `id, proposal_id, debtor_id, amount::text, status, created_at, paid_at`

// GetDebt retrieves a member debt by ID.
func (s *Store) GetDebt(ctx context.Context, id string) (*models.MemberDebt, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+debtColumns+` FROM member_debts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	debt, err := pgx.CollectExactlyOneRow(rows, scanDebt)
	if err != nil {
		return nil, notFound(err, "debt", id)
	}
	return debt, nil
}

// ListDebtsByProposal retrieves the debts an approval produced.
func (s *Store) ListDebtsByProposal(ctx context.Context, proposalID string) ([]*models.MemberDebt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+debtColumns+` FROM member_debts WHERE proposal_id = $1 ORDER BY debtor_id, id`,
		proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	debts, err := pgx.CollectRows(rows, scanDebt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan debts: %w", err)
	}
	return debts, nil
}

// ListOutstandingDebts retrieves unpaid debts of approved proposals, owed to
// the transaction payer.
func (s *Store) ListOutstandingDebts(ctx context.Context, groupID string) ([]*models.OutstandingDebt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.proposal_id, d.debtor_id, t.payer_id, d.amount::text
		 FROM member_debts d
		 JOIN split_proposals p ON p.id = d.proposal_id
		 JOIN transactions t ON t.id = p.transaction_id
		 WHERE p.group_id = $1 AND p.status = $2 AND d.status = $3
		 ORDER BY d.created_at, d.id`,
		groupID, string(models.ProposalApproved), string(models.DebtUnpaid),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding debts: %w", err)
	}
	debts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.OutstandingDebt, error) {
		d := &models.OutstandingDebt{}
		var amount string
		if err := row.Scan(&d.DebtID, &d.ProposalID, &d.DebtorID, &d.CreditorID, &amount); err != nil {
			return nil, err
		}
		var err error
		d.Amount, err = parseAmount(amount)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan outstanding debts: %w", err)
	}
	return debts, nil
}

// SettleDebt marks an unpaid debt as paid.
func (s *Store) SettleDebt(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE member_debts SET status = $1, paid_at = $2 WHERE id = $3 AND status = $4`,
		string(models.DebtPaid), at, id, string(models.DebtUnpaid),
	)
	if err != nil {
		return fmt.Errorf("failed to settle debt: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("debt %s: %w", id, storage.ErrConflict)
	}
	return nil
}

func scanDebt(row pgx.CollectableRow) (*models.MemberDebt, error) {
	debt := &models.MemberDebt{}
	var amount, status string
	if err := row.Scan(&debt.ID, &debt.ProposalID, &debt.DebtorID, &amount, &status, &debt.CreatedAt, &debt.PaidAt); err != nil {
		return nil, err
	}
	debt.Status = models.DebtStatus(status)
	var err error
	debt.Amount, err = parseAmount(amount)
	return debt, err
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

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}
