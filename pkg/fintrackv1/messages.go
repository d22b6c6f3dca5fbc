package fintrackv1

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	Id          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Split is one member's share of a transaction.
type Split struct {
	UserId string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type TransactionSummary struct {
	Id       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
}

type Proposal struct {
	Id            string              `json:"id"`
	GroupId       string              `json:"groupId"`
	TransactionId string              `json:"transactionId"`
	ProposedBy    string              `json:"proposedBy,omitempty"`
	Status        string              `json:"status"`
	SplitRule     json.RawMessage     `json:"splitRule,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	Transaction   *TransactionSummary `json:"transaction,omitempty"`
}

type CreateProposalRequest struct {
	GroupId       string   `json:"groupId"`
	TransactionId string   `json:"transactionId"`
	Splits        []*Split `json:"splits,omitempty"`
	SplitEqually  bool     `json:"splitEqually,omitempty"`
}

type CreateProposalResponse struct {
	Proposal *Proposal `json:"proposal"`
}

type ListProposalsRequest struct {
	GroupId string `json:"groupId"`
	Status  string `json:"status,omitempty"`
	Page    int32  `json:"page,omitempty"`
	Size    int32  `json:"size,omitempty"`
	Sort    string `json:"sort,omitempty"`
}

type PageInfo struct {
	Number        int32 `json:"number"`
	Size          int32 `json:"size"`
	TotalElements int32 `json:"totalElements"`
	TotalPages    int32 `json:"totalPages"`
}

type ListProposalsResponse struct {
	Proposals []*Proposal `json:"proposals"`
	Page      *PageInfo   `json:"page"`
}

type ApproveProposalRequest struct {
	ProposalId string `json:"proposalId"`
}

type ApproveProposalResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Status       string `json:"status"`
	DebtsCreated int32  `json:"debtsCreated"`
}

type RejectProposalRequest struct {
	ProposalId string `json:"proposalId"`
}

type RejectProposalResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
