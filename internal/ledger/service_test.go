package ledger

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
)

type fixture struct {
	store                   *sqlite.SQLiteStore
	alice, bob, carol, dave *models.User
	group                   *models.Group
	bobDebt, carolDebt      *models.MemberDebt
}

// setup builds a group where alice paid 30.00, and an approved proposal
// leaves bob owing 15.00 and carol 10.00. dave is not a member.
func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() { store.Close() })

	f := fixture{
		store: store,
		alice: models.NewUser("alice@example.com", "Alice", "hash"),
		bob:   models.NewUser("bob@example.com", "Bob", "hash"),
		carol: models.NewUser("carol@example.com", "Carol", "hash"),
		dave:  models.NewUser("dave@example.com", "Dave", "hash"),
	}
	for _, u := range []*models.User{f.alice, f.bob, f.carol, f.dave} {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	f.group = &models.Group{
		Name:      "Roommates",
		CreatedBy: f.alice.ID,
		Members: []models.Member{
			{UserID: f.alice.ID, Role: models.RoleAdmin},
			{UserID: f.bob.ID, Role: models.RoleMember},
			{UserID: f.carol.ID, Role: models.RoleMember},
		},
	}
	require.NoError(t, store.CreateGroup(ctx, f.group))

	txn := &models.Transaction{
		GroupID:  f.group.ID,
		PayerID:  f.alice.ID,
		Name:     "Groceries",
		Amount:   decimal.RequireFromString("30.00"),
		Currency: "USD",
	}
	require.NoError(t, store.CreateTransaction(ctx, txn))

	p := &models.SplitProposal{
		GroupID:       f.group.ID,
		TransactionID: txn.ID,
		ProposedBy:    f.bob.ID,
		SplitRule:     json.RawMessage(`[]`),
	}
	require.NoError(t, store.CreateProposal(ctx, p))

	f.bobDebt = &models.MemberDebt{DebtorID: f.bob.ID, Amount: decimal.RequireFromString("15.00"), Status: models.DebtUnpaid}
	f.carolDebt = &models.MemberDebt{DebtorID: f.carol.ID, Amount: decimal.RequireFromString("10.00"), Status: models.DebtUnpaid}
	require.NoError(t, store.ApproveProposal(ctx, p.ID, []*models.MemberDebt{f.bobDebt, f.carolDebt}, txn.CreatedAt))

	return f
}

func balanceOf(t *testing.T, balances []calculator.MemberBalance, userID string) decimal.Decimal {
	t.Helper()
	for _, b := range balances {
		if b.UserID == userID {
			return b.NetBalance
		}
	}
	return decimal.Zero
}

func TestBalances(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	svc := NewService(f.store)

	got, err := svc.Balances(ctx, f.group.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, f.group.ID, got.GroupID)
	assert.True(t, balanceOf(t, got.Members, f.alice.ID).Equal(decimal.RequireFromString("25")))
	assert.True(t, balanceOf(t, got.Members, f.bob.ID).Equal(decimal.RequireFromString("-15")))
	assert.True(t, balanceOf(t, got.Members, f.carol.ID).Equal(decimal.RequireFromString("-10")))

	require.Len(t, got.Payments, 2)
	for _, p := range got.Payments {
		assert.Equal(t, f.alice.ID, p.To)
	}

	_, err = svc.Balances(ctx, f.group.ID, f.dave.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	svc := NewService(f.store)

	t.Run("unknown debt", func(t *testing.T) {
		_, err := svc.Settle(ctx, "no-such-debt", f.alice.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("non-member", func(t *testing.T) {
		_, err := svc.Settle(ctx, f.bobDebt.ID, f.dave.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("unrelated member", func(t *testing.T) {
		_, err := svc.Settle(ctx, f.bobDebt.ID, f.carol.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("payer settles", func(t *testing.T) {
		debt, err := svc.Settle(ctx, f.bobDebt.ID, f.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DebtPaid, debt.Status)
		require.NotNil(t, debt.PaidAt)

		_, err = svc.Settle(ctx, f.bobDebt.ID, f.bob.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("debtor settles", func(t *testing.T) {
		debt, err := svc.Settle(ctx, f.carolDebt.ID, f.carol.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DebtPaid, debt.Status)
	})

	t.Run("nothing outstanding", func(t *testing.T) {
		got, err := svc.Balances(ctx, f.group.ID, f.alice.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Payments)
		assert.True(t, balanceOf(t, got.Members, f.alice.ID).IsZero())
	})
}
