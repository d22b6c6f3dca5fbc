package proposal

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/access"
	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
)

// TestEngineOnSQLite runs the lifecycle against the real SQLite store.
func TestEngineOnSQLite(t *testing.T) {
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	admin := models.NewUser("admin@example.com", "Admin", "hash")
	admin2 := models.NewUser("admin2@example.com", "Admin Two", "hash")
	member := models.NewUser("member@example.com", "Member", "hash")
	stranger := models.NewUser("stranger@example.com", "Stranger", "hash")
	for _, u := range []*models.User{admin, admin2, member, stranger} {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	group := &models.Group{
		Name:      "Flat",
		CreatedBy: admin.ID,
		Members: []models.Member{
			{UserID: admin.ID, Role: models.RoleAdmin},
			{UserID: admin2.ID, Role: models.RoleAdmin},
			{UserID: member.ID, Role: models.RoleMember},
		},
	}
	require.NoError(t, store.CreateGroup(ctx, group))

	txn := &models.Transaction{
		GroupID:  group.ID,
		PayerID:  admin.ID,
		Name:     "Rent",
		Amount:   decimal.RequireFromString("100"),
		Currency: "USD",
	}
	require.NoError(t, store.CreateTransaction(ctx, txn))

	engine := NewEngine(store, access.NewChecker(store))
	create := func(t *testing.T) *models.SplitProposal {
		t.Helper()
		p, err := engine.Create(ctx, group.ID, member.ID, CreateRequest{
			TransactionID: txn.ID,
			Splits: []Split{
				{UserID: member.ID, Amount: decimal.NewFromInt(30)},
				{UserID: admin2.ID, Amount: decimal.NewFromInt(70)},
			},
		})
		require.NoError(t, err)
		return p
	}

	t.Run("approve then approve again", func(t *testing.T) {
		p := create(t)

		res, err := engine.Approve(ctx, p.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, res.DebtsCreated)

		_, err = engine.Approve(ctx, p.ID, admin.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)

		detail, err := engine.Get(ctx, p.ID, member.ID)
		require.NoError(t, err)
		require.Len(t, detail.Debts, 2)
		total := decimal.Zero
		for _, d := range detail.Debts {
			total = total.Add(d.Amount)
		}
		assert.True(t, total.Equal(decimal.NewFromInt(100)))
	})

	t.Run("member cannot approve", func(t *testing.T) {
		p := create(t)

		_, err := engine.Approve(ctx, p.ID, member.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		got, err := store.GetProposal(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProposalPending, got.Status)
	})

	t.Run("stranger cannot list", func(t *testing.T) {
		_, err := engine.List(ctx, group.ID, stranger.ID, ListFilter{})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("concurrent approvals by two admins", func(t *testing.T) {
		p := create(t)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, caller := range []string{admin.ID, admin2.ID} {
			wg.Add(1)
			go func(i int, caller string) {
				defer wg.Done()
				_, errs[i] = engine.Approve(ctx, p.ID, caller)
			}(i, caller)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidState)
		}
		assert.Equal(t, 1, succeeded)

		debts, err := store.ListDebtsByProposal(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, debts, 2)
	})
}
