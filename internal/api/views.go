package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/proposal"
)

type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type sessionView struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

type memberView struct {
	UserID   string      `json:"userId"`
	Role     models.Role `json:"role"`
	JoinedAt time.Time   `json:"joinedAt"`
}

type groupView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CreatedBy string       `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
	Members   []memberView `json:"members"`
}

type transactionView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
}

type proposalView struct {
	ID            string                `json:"id"`
	GroupID       string                `json:"groupId"`
	TransactionID string                `json:"transactionId"`
	ProposedBy    string                `json:"proposedBy,omitempty"`
	Status        models.ProposalStatus `json:"status"`
	SplitRule     json.RawMessage       `json:"splitRule"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	Transaction   *transactionView      `json:"transaction,omitempty"`
	Debts         []debtView            `json:"debts,omitempty"`
}

type debtView struct {
	ID         string            `json:"id"`
	ProposalID string            `json:"proposalId"`
	DebtorID   string            `json:"debtorId"`
	Amount     decimal.Decimal   `json:"amount"`
	Status     models.DebtStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	PaidAt     *time.Time        `json:"paidAt,omitempty"`
}

type pageInfo struct {
	Number        int `json:"number"`
	Size          int `json:"size"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
}

type proposalPage struct {
	Content []proposalView `json:"content"`
	Page    pageInfo       `json:"page"`
}

type transitionView struct {
	Success      bool                  `json:"success"`
	Message      string                `json:"message"`
	Status       models.ProposalStatus `json:"status"`
	DebtsCreated int                   `json:"debtsCreated"`
}

type balanceView struct {
	UserID     string          `json:"userId"`
	NetBalance decimal.Decimal `json:"netBalance"`
	TotalLent  decimal.Decimal `json:"totalLent"`
	TotalOwed  decimal.Decimal `json:"totalOwed"`
}

type paymentView struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type balancesView struct {
	GroupID  string        `json:"groupId"`
	Balances []balanceView `json:"balances"`
	Debts    []paymentView `json:"debts"`
}

func toUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toMemberView(m models.Member) memberView {
	return memberView{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
}

func toGroupView(g *models.Group) groupView {
	members := make([]memberView, len(g.Members))
	for i, m := range g.Members {
		members[i] = toMemberView(m)
	}
	return groupView{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		Members:   members,
	}
}

func toProposalView(p *models.SplitProposal) proposalView {
	return proposalView{
		ID:            p.ID,
		GroupID:       p.GroupID,
		TransactionID: p.TransactionID,
		ProposedBy:    p.ProposedBy,
		Status:        p.Status,
		SplitRule:     p.SplitRule,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toDebtView(d *models.MemberDebt) debtView {
	return debtView{
		ID:         d.ID,
		ProposalID: d.ProposalID,
		DebtorID:   d.DebtorID,
		Amount:     d.Amount,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
		PaidAt:     d.PaidAt,
	}
}

func toProposalPage(page *proposal.Page) proposalPage {
	content := make([]proposalView, len(page.Content))
	for i, l := range page.Content {
		v := toProposalView(&l.Proposal)
		v.Transaction = &transactionView{
			ID:       l.Transaction.ID,
			Name:     l.Transaction.Name,
			Amount:   l.Transaction.Amount,
			Currency: l.Transaction.Currency,
			Date:     l.Transaction.Date,
		}
		content[i] = v
	}
	return proposalPage{
		Content: content,
		Page: pageInfo{
			Number:        page.Number,
			Size:          page.Size,
			TotalElements: page.TotalElements,
			TotalPages:    page.TotalPages,
		},
	}
}

func toBalancesView(groupID string, members []calculator.MemberBalance, payments []calculator.DebtEdge) balancesView {
	out := balancesView{
		GroupID:  groupID,
		Balances: make([]balanceView, len(members)),
		Debts:    make([]paymentView, len(payments)),
	}
	for i, b := range members {
		out.Balances[i] = balanceView{
			UserID:     b.UserID,
			NetBalance: b.NetBalance,
			TotalLent:  b.TotalLent,
			TotalOwed:  b.TotalOwed,
		}
	}
	for i, p := range payments {
		out.Debts[i] = paymentView{From: p.From, To: p.To, Amount: p.Amount}
	}
	return out
}
