// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/fintrack/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional status write matched no row,
	// i.e. the row was no longer in the expected state.
	ErrConflict = errors.New("state transition conflict")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
)

// SortField names a column proposals can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByStatus    SortField = "status"
)

// Valid reports whether f is one of the sortable columns.
func (f SortField) Valid() bool {
	switch f {
	case SortByCreatedAt, SortByUpdatedAt, SortByStatus:
		return true
	default:
		return false
	}
}

// ProposalQuery selects one page of a group's proposals.
type ProposalQuery struct {
	GroupID string

	// Status filters by status when non-empty.
	Status models.ProposalStatus

	SortField  SortField
	Descending bool

	Limit  int
	Offset int
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	// CreateGroup inserts the group and every entry of group.Members.
	// group.ID and group.CreatedAt are populated when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	GetMembership(ctx context.Context, groupID, userID string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	AddMember(ctx context.Context, groupID string, member models.Member) error
	UpdateMemberRole(ctx context.Context, groupID, userID string, role models.Role) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// TransactionStore persists the transactions proposals refer to.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
}

// ProposalStore persists split proposals and the debts they produce.
type ProposalStore interface {
	CreateProposal(ctx context.Context, proposal *models.SplitProposal) error
	GetProposal(ctx context.Context, id string) (*models.SplitProposal, error)

	// ListProposals returns one page of proposals and the total row count
	// matching the query's group and status.
	ListProposals(ctx context.Context, q ProposalQuery) ([]*models.ProposalListing, int, error)

	// ApproveProposal inserts debts and moves the proposal from pending to
	// approved in one transaction. The status update is conditional on the
	// row still being pending; if it is not, nothing is written and
	// ErrConflict is returned.
	ApproveProposal(ctx context.Context, id string, debts []*models.MemberDebt, at time.Time) error

	// RejectProposal moves the proposal from pending to rejected.
	// Returns ErrConflict if the row is no longer pending.
	RejectProposal(ctx context.Context, id string, at time.Time) error
}

// DebtStore reads and settles member debts.
type DebtStore interface {
	GetDebt(ctx context.Context, id string) (*models.MemberDebt, error)
	ListDebtsByProposal(ctx context.Context, proposalID string) ([]*models.MemberDebt, error)

	// ListOutstandingDebts returns the unpaid debts of a group's approved
	// proposals, each paired with the payer of the underlying transaction.
	ListOutstandingDebts(ctx context.Context, groupID string) ([]*models.OutstandingDebt, error)

	// SettleDebt marks an unpaid debt as paid.
	// Returns ErrConflict if the debt is not unpaid.
	SettleDebt(ctx context.Context, id string, at time.Time) error
}

// Store defines the full persistence surface.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	TransactionStore
	ProposalStore
	DebtStore

	// Migrate applies the schema. It is safe to run repeatedly.
	Migrate(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
