package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProposalStatus is the lifecycle state of a split proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// ParseProposalStatus validates a raw status string.
func ParseProposalStatus(raw string) (ProposalStatus, error) {
	status := ProposalStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("invalid proposal status %q", raw)
	}
	return status, nil
}

// Valid reports whether the status is part of the proposal lifecycle.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalPending, ProposalApproved, ProposalRejected:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a transition from s to next is allowed.
// Only pending proposals move, and only to a terminal state.
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	switch s {
	case ProposalPending:
		return next == ProposalApproved || next == ProposalRejected
	default:
		return false
	}
}

// SplitProposal proposes dividing one transaction among group members.
type SplitProposal struct {
	ID            string
	GroupID       string
	TransactionID string

	// ProposedBy is the member who created the proposal.
	ProposedBy string

	// SplitRule is the raw split payload. Older rows hold a bare
	// [{userId, amount}] array, newer ones {"splits": [...]}.
	SplitRule json.RawMessage

	Status    ProposalStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProposalListing is a proposal joined with its transaction summary.
type ProposalListing struct {
	Proposal    SplitProposal
	Transaction TransactionSummary
}
