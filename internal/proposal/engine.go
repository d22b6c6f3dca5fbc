// Package proposal implements the split proposal lifecycle: creating
// proposals, listing them, and moving them from pending to approved or
// rejected. Approval materializes one unpaid debt per split entry.
package proposal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// Store is the persistence surface the engine depends on.
type Store interface {
	CreateProposal(ctx context.Context, proposal *models.SplitProposal) error
	GetProposal(ctx context.Context, id string) (*models.SplitProposal, error)
	ListProposals(ctx context.Context, q storage.ProposalQuery) ([]*models.ProposalListing, int, error)
	ApproveProposal(ctx context.Context, id string, debts []*models.MemberDebt, at time.Time) error
	RejectProposal(ctx context.Context, id string, at time.Time) error
	ListDebtsByProposal(ctx context.Context, proposalID string) ([]*models.MemberDebt, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
}

// Authorizer resolves the caller's standing in a group.
type Authorizer interface {
	RequireMember(ctx context.Context, groupID, callerID string) (models.Role, error)
	RequireAdmin(ctx context.Context, groupID, callerID string) error
}

// Locker serializes transitions of one proposal across instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Recorder receives lifecycle metrics.
type Recorder interface {
	ProposalTransition(to models.ProposalStatus, outcome string)
	DebtsCreated(n int)
}

// TransitionResult describes a successful approve or reject.
type TransitionResult struct {
	ProposalID   string
	Status       models.ProposalStatus
	DebtsCreated int
}

// Detail is one proposal with the debts its approval produced.
type Detail struct {
	Proposal *models.SplitProposal
	Debts    []*models.MemberDebt
}

// Engine runs proposal operations against an injected store.
// It keeps no state between calls.
type Engine struct {
	store    Store
	auth     Authorizer
	locker   Locker
	recorder Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker runs approve and reject under a per-proposal lock.
func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithRecorder reports transitions to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine.
func NewEngine(store Store, auth Authorizer, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		auth:     auth,
		locker:   noopLocker{},
		recorder: noopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Approve moves a pending proposal to approved and creates its debts.
//
// The debts and the status change are written in one store transaction whose
// status update only matches a pending row, so concurrent approvals of the
// same proposal produce exactly one debt set; the losers get InvalidState.
// An empty or malformed split rule approves the proposal without debts.
func (e *Engine) Approve(ctx context.Context, proposalID, callerID string) (*TransitionResult, error) {
	return e.transition(ctx, proposalID, callerID, models.ProposalApproved)
}

// Reject moves a pending proposal to rejected. No debts are created.
func (e *Engine) Reject(ctx context.Context, proposalID, callerID string) (*TransitionResult, error) {
	return e.transition(ctx, proposalID, callerID, models.ProposalRejected)
}

func (e *Engine) transition(ctx context.Context, proposalID, callerID string, to models.ProposalStatus) (result *TransitionResult, err error) {
	log := e.logger.With("proposal_id", proposalID, "caller_id", callerID, "to", string(to))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperr.KindOf(err))
			if outcome == "" {
				outcome = "error"
			}
		}
		e.recorder.ProposalTransition(to, outcome)
	}()

	if proposalID == "" {
		return nil, apperr.BadRequest("proposal id is required")
	}

	release, err := e.locker.Acquire(ctx, lockKey(proposalID))
	if err != nil {
		log.Error("Failed to acquire proposal lock", "error", err)
		return nil, apperr.Persistence("failed to lock proposal", err)
	}
	defer release()

	proposal, err := e.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if !proposal.Status.CanTransitionTo(to) {
		log.Info("Proposal transition refused", "status", string(proposal.Status))
		return nil, apperr.InvalidState("Proposal is not pending")
	}

	if err := e.auth.RequireAdmin(ctx, proposal.GroupID, callerID); err != nil {
		log.Info("Proposal transition not authorized", "group_id", proposal.GroupID, "error", err)
		return nil, err
	}

	at := e.now()
	var debts []*models.MemberDebt
	if to == models.ProposalApproved {
		debts = e.materialize(log, proposal, at)
		err = e.store.ApproveProposal(ctx, proposal.ID, debts, at)
	} else {
		err = e.store.RejectProposal(ctx, proposal.ID, at)
	}
	if errors.Is(err, storage.ErrConflict) {
		log.Info("Proposal was transitioned concurrently")
		return nil, apperr.InvalidState("Proposal is not pending")
	}
	if err != nil {
		log.Error("Failed to persist proposal transition", "error", err)
		return nil, apperr.Persistence("failed to update proposal", err)
	}

	if len(debts) > 0 {
		e.recorder.DebtsCreated(len(debts))
	}
	log.Info("Proposal transitioned", "group_id", proposal.GroupID, "debts_created", len(debts))

	return &TransitionResult{
		ProposalID:   proposal.ID,
		Status:       to,
		DebtsCreated: len(debts),
	}, nil
}

// materialize builds one unpaid debt per split entry. A payload that does not
// parse yields no debts; the proposal is still approved.
func (e *Engine) materialize(log *slog.Logger, proposal *models.SplitProposal, at time.Time) []*models.MemberDebt {
	rule, err := ParseSplitRule(proposal.SplitRule)
	if err != nil {
		log.Warn("Approving proposal without debts: split rule is malformed", "error", err)
		return nil
	}
	if len(rule.Splits) == 0 {
		log.Warn("Approving proposal without debts: split rule is empty", "form", rule.Form.String())
		return nil
	}

	debts := make([]*models.MemberDebt, len(rule.Splits))
	for i, s := range rule.Splits {
		debts[i] = &models.MemberDebt{
			ProposalID: proposal.ID,
			DebtorID:   s.UserID,
			Amount:     s.Amount,
			Status:     models.DebtUnpaid,
			CreatedAt:  at,
		}
	}
	return debts
}

// Get returns a proposal and its debts. The caller must be a group member.
func (e *Engine) Get(ctx context.Context, proposalID, callerID string) (*Detail, error) {
	if proposalID == "" {
		return nil, apperr.BadRequest("proposal id is required")
	}

	proposal, err := e.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := e.auth.RequireMember(ctx, proposal.GroupID, callerID); err != nil {
		return nil, err
	}

	debts, err := e.store.ListDebtsByProposal(ctx, proposal.ID)
	if err != nil {
		e.logger.Error("Failed to list debts", "proposal_id", proposalID, "error", err)
		return nil, apperr.Persistence("failed to list debts", err)
	}
	return &Detail{Proposal: proposal, Debts: debts}, nil
}

func (e *Engine) load(ctx context.Context, proposalID string) (*models.SplitProposal, error) {
	proposal, err := e.store.GetProposal(ctx, proposalID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Proposal not found")
	}
	if err != nil {
		e.logger.Error("Failed to load proposal", "proposal_id", proposalID, "error", err)
		return nil, apperr.Persistence("failed to load proposal", err)
	}
	return proposal, nil
}

func lockKey(proposalID string) string {
	return "lock:proposal:" + proposalID
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

type noopRecorder struct{}

func (noopRecorder) ProposalTransition(models.ProposalStatus, string) {}
func (noopRecorder) DebtsCreated(int)                                  {}
