package proposal

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
)

func split(userID, amount string) Split {
	return Split{UserID: userID, Amount: decimal.RequireFromString(amount)}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a pending proposal in object form", func(t *testing.T) {
		engine, store := newTestEngine(t)

		p, err := engine.Create(ctx, groupID, memberA, CreateRequest{
			TransactionID: "t1",
			Splits:        []Split{split(memberA, "40"), split(memberB, "35.50")},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, models.ProposalPending, p.Status)
		assert.Equal(t, memberA, p.ProposedBy)
		assert.Equal(t, fixedNow, p.CreatedAt)
		assert.Equal(t, models.ProposalPending, store.status(p.ID))

		rule, err := ParseSplitRule(p.SplitRule)
		require.NoError(t, err)
		assert.Equal(t, FormObject, rule.Form)
		assert.True(t, rule.Total().Equal(decimal.RequireFromString("75.50")))
	})

	t.Run("created proposal approves into matching debts", func(t *testing.T) {
		engine, store := newTestEngine(t)

		p, err := engine.Create(ctx, groupID, memberB, CreateRequest{
			TransactionID: "t1",
			Splits:        []Split{split(memberA, "30"), split(memberB, "70")},
		})
		require.NoError(t, err)

		res, err := engine.Approve(ctx, p.ID, adminID)
		require.NoError(t, err)
		assert.Equal(t, 2, res.DebtsCreated)
		assert.Len(t, store.debtsFor(p.ID), 2)
	})

	t.Run("split equally excludes the payer", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		p, err := engine.Create(ctx, groupID, memberA, CreateRequest{TransactionID: "t1", SplitEqually: true})
		require.NoError(t, err)

		rule, err := ParseSplitRule(p.SplitRule)
		require.NoError(t, err)
		require.Len(t, rule.Splits, 3)
		got := map[string]string{}
		for _, s := range rule.Splits {
			got[s.UserID] = s.Amount.StringFixed(2)
		}
		// 100.00 over u-admin2, u1, u2 sorted by id: the first gets the extra cent.
		assert.Equal(t, map[string]string{adminID2: "33.34", memberA: "33.33", memberB: "33.33"}, got)
		assert.True(t, rule.Total().Equal(decimal.NewFromInt(100)))
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name    string
			caller  string
			req     CreateRequest
			wantErr error
		}{
			{"non-member caller", outsider, CreateRequest{TransactionID: "t1", Splits: []Split{split(memberA, "1")}}, apperr.ErrForbidden},
			{"missing transaction id", memberA, CreateRequest{Splits: []Split{split(memberA, "1")}}, apperr.ErrBadRequest},
			{"unknown transaction", memberA, CreateRequest{TransactionID: "nope", Splits: []Split{split(memberA, "1")}}, apperr.ErrNotFound},
			{"transaction of another group", memberA, CreateRequest{TransactionID: "t-other", Splits: []Split{split(memberA, "1")}}, apperr.ErrBadRequest},
			{"no splits", memberA, CreateRequest{TransactionID: "t1"}, apperr.ErrBadRequest},
			{"split for non-member", memberA, CreateRequest{TransactionID: "t1", Splits: []Split{split(outsider, "1")}}, apperr.ErrBadRequest},
			{"duplicate user", memberA, CreateRequest{TransactionID: "t1", Splits: []Split{split(memberA, "1"), split(memberA, "2")}}, apperr.ErrBadRequest},
			{"zero amount", memberA, CreateRequest{TransactionID: "t1", Splits: []Split{split(memberA, "0")}}, apperr.ErrBadRequest},
			{"negative amount", memberA, CreateRequest{TransactionID: "t1", Splits: []Split{split(memberA, "-3")}}, apperr.ErrBadRequest},
			{"exceeds transaction", memberA, CreateRequest{TransactionID: "t1", Splits: []Split{split(memberA, "60"), split(memberB, "40.01")}}, apperr.ErrBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				engine, _ := newTestEngine(t)
				_, err := engine.Create(ctx, groupID, tt.caller, tt.req)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}
