package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DebtForBalance is an outstanding debt with the minimal information needed
// for balance calculations.
type DebtForBalance struct {
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID     string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalLent  decimal.Decimal // Outstanding amount others owe this member
	TotalOwed  decimal.Decimal // Outstanding amount this member owes
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// CalculateGroupBalances aggregates outstanding debts into per-member
// balances and a simplified set of payments that would clear them.
//
// Algorithm:
//   - For each debt: creditor +amount, debtor -amount
//   - net_balance = total_lent - total_owed
//   - Debt edges: greedy matching of the largest debtor with the largest
//     creditor until every balance is zero
//
// Balances are returned ordered by user ID. Ties in the greedy step are broken
// by user ID so the output is deterministic.
func CalculateGroupBalances(debts []DebtForBalance) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	get := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{UserID: id}
			balances[id] = b
		}
		return b
	}

	for _, d := range debts {
		if d.DebtorID == d.CreditorID || !d.Amount.IsPositive() {
			continue
		}
		creditor := get(d.CreditorID)
		creditor.TotalLent = creditor.TotalLent.Add(d.Amount)
		debtor := get(d.DebtorID)
		debtor.TotalOwed = debtor.TotalOwed.Add(d.Amount)
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	var creditors, debtors []*MemberBalance
	for _, b := range balances {
		b.NetBalance = b.TotalLent.Sub(b.TotalOwed)
		memberBalances = append(memberBalances, *b)
		switch b.NetBalance.Sign() {
		case 1:
			creditors = append(creditors, b)
		case -1:
			debtors = append(debtors, b)
		}
	}
	sort.Slice(memberBalances, func(i, j int) bool {
		return memberBalances[i].UserID < memberBalances[j].UserID
	})

	// Largest amounts first
	byMagnitude := func(list []*MemberBalance) {
		sort.Slice(list, func(i, j int) bool {
			ai, aj := list[i].NetBalance.Abs(), list[j].NetBalance.Abs()
			if !ai.Equal(aj) {
				return ai.GreaterThan(aj)
			}
			return list[i].UserID < list[j].UserID
		})
	}
	byMagnitude(creditors)
	byMagnitude(debtors)

	remainingDebt := make(map[string]decimal.Decimal, len(debtors))
	for _, d := range debtors {
		remainingDebt[d.UserID] = d.NetBalance.Neg()
	}
	remainingCredit := make(map[string]decimal.Decimal, len(creditors))
	for _, c := range creditors {
		remainingCredit[c.UserID] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := debtors[i].UserID
		creditor := creditors[j].UserID

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(remainingDebt[debtor], remainingCredit[creditor])
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{From: debtor, To: creditor, Amount: amount})
		}

		remainingDebt[debtor] = remainingDebt[debtor].Sub(amount)
		remainingCredit[creditor] = remainingCredit[creditor].Sub(amount)

		if !remainingDebt[debtor].IsPositive() {
			i++
		}
		if !remainingCredit[creditor].IsPositive() {
			j++
		}
	}

	return memberBalances, edges
}
