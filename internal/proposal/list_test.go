package proposal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
)

func TestList(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	for i, id := range []string{"p-old", "p-mid", "p-new"} {
		store.addProposal(&models.SplitProposal{
			ID:            id,
			GroupID:       groupID,
			TransactionID: "t1",
			SplitRule:     json.RawMessage(twoSplits),
			Status:        models.ProposalPending,
			CreatedAt:     fixedNow.Add(time.Duration(i) * time.Hour),
			UpdatedAt:     fixedNow.Add(time.Duration(i) * time.Hour),
		})
	}
	store.addProposal(&models.SplitProposal{
		ID:            "p-foreign",
		GroupID:       "g2",
		TransactionID: "t-other",
		SplitRule:     json.RawMessage(`[]`),
		Status:        models.ProposalPending,
		CreatedAt:     fixedNow.Add(10 * time.Hour),
	})
	_, err := engine.Reject(ctx, "p-mid", adminID)
	require.NoError(t, err)

	ids := func(page *Page) []string {
		var out []string
		for _, l := range page.Content {
			out = append(out, l.Proposal.ID)
		}
		return out
	}

	t.Run("non-member is Forbidden", func(t *testing.T) {
		_, err := engine.List(ctx, groupID, outsider, ListFilter{})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("defaults to newest first within the group", func(t *testing.T) {
		page, err := engine.List(ctx, groupID, memberA, ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-new", "p-mid", "p-old"}, ids(page))
		assert.Equal(t, 0, page.Number)
		assert.Equal(t, DefaultPageSize, page.Size)
		assert.Equal(t, 3, page.TotalElements)
		assert.Equal(t, 1, page.TotalPages)

		summary := page.Content[0].Transaction
		assert.Equal(t, "t1", summary.ID)
		assert.Equal(t, "Dinner", summary.Name)
		assert.Equal(t, "USD", summary.Currency)
		assert.True(t, summary.Amount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("status filter", func(t *testing.T) {
		page, err := engine.List(ctx, groupID, memberA, ListFilter{Status: "rejected"})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-mid"}, ids(page))
		assert.Equal(t, 1, page.TotalElements)
	})

	t.Run("ascending sort and paging", func(t *testing.T) {
		page, err := engine.List(ctx, groupID, memberA, ListFilter{Sort: "createdAt,asc", Page: 1, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-new"}, ids(page))
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 2, page.Size)
		assert.Equal(t, 3, page.TotalElements)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("size is capped and negative page is zero", func(t *testing.T) {
		page, err := engine.List(ctx, groupID, memberA, ListFilter{Page: -3, Size: 1000})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Number)
		assert.Equal(t, MaxPageSize, page.Size)
	})

	t.Run("bad filters are BadRequest", func(t *testing.T) {
		for _, f := range []ListFilter{
			{Status: "archived"},
			{Sort: "amount"},
			{Sort: "created_at,sideways"},
		} {
			_, err := engine.List(ctx, groupID, memberA, f)
			assert.ErrorIs(t, err, apperr.ErrBadRequest, "filter %+v", f)
		}
	})
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw      string
		field    string
		desc     bool
		wantErr  bool
	}{
		{raw: "", field: "created_at", desc: true},
		{raw: "updated_at", field: "updated_at", desc: true},
		{raw: "status,asc", field: "status", desc: false},
		{raw: " createdAt , DESC ", field: "created_at", desc: true},
		{raw: "id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			field, desc, err := parseSort(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.field, string(field))
			assert.Equal(t, tt.desc, desc)
		})
	}
}
