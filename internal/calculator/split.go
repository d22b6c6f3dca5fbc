// Package calculator holds the money arithmetic behind splits and balances.
// All amounts are decimals rounded to cents.
package calculator

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// CentPlaces is the precision splits are rounded to.
const CentPlaces = 2

var (
	ErrNoParticipants   = errors.New("must have at least one participant")
	ErrNonPositiveTotal = errors.New("total must be greater than zero")
)

// Share is one participant's part of a split.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// EqualShares divides total among participants in whole cents.
//
// Participants are ordered by ID; when the total does not divide evenly the
// leftover cents go one each to the first participants in that order, so the
// shares always sum to the rounded total exactly.
func EqualShares(total decimal.Decimal, participants []string) ([]Share, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	ids := append([]string(nil), participants...)
	sort.Strings(ids)

	cents := total.Round(CentPlaces).Shift(CentPlaces).IntPart()
	n := int64(len(ids))
	base, remainder := cents/n, cents%n

	shares := make([]Share, len(ids))
	for i, id := range ids {
		c := base
		if int64(i) < remainder {
			c++
		}
		shares[i] = Share{UserID: id, Amount: decimal.New(c, -CentPlaces)}
	}
	return shares, nil
}

// Sum adds up share amounts.
func Sum(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}
