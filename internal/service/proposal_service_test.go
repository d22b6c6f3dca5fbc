package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/access"
	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/proposal"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	pb "github.com/mmynk/fintrack/pkg/fintrackv1"
)

type testClients struct {
	auth      pb.AuthServiceClient
	proposals pb.ProposalServiceClient
	store     *sqlite.SQLiteStore
}

// setupTestServer serves both Connect services over httptest with the real
// auth and logging interceptors.
func setupTestServer(t *testing.T) testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	sessions := auth.NewSessions(auth.NewPasswordAuthenticator(store), store, jwtManager, logger)
	engine := proposal.NewEngine(store, access.NewChecker(store), proposal.WithLogger(logger))

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, pb.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(pb.NewAuthServiceHandler(NewAuthService(sessions, logger), interceptors))
	mux.Handle(pb.NewProposalServiceHandler(NewProposalService(engine), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return testClients{
		auth:      pb.NewAuthServiceClient(http.DefaultClient, server.URL),
		proposals: pb.NewProposalServiceClient(http.DefaultClient, server.URL),
		store:     store,
	}
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func register(t *testing.T, c testClients, email string) *pb.RegisterResponse {
	t.Helper()
	resp, err := c.auth.Register(context.Background(), connect.NewRequest(&pb.RegisterRequest{
		Email:       email,
		DisplayName: email,
		Password:    "correct-horse",
	}))
	require.NoError(t, err)
	return resp.Msg
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	c := setupTestServer(t)

	alice := register(t, c, "alice@example.com")
	assert.NotEmpty(t, alice.Token)
	assert.Equal(t, "alice@example.com", alice.User.Email)

	_, err := c.auth.Register(ctx, connect.NewRequest(&pb.RegisterRequest{
		Email: "alice@example.com", DisplayName: "Alice", Password: "correct-horse",
	}))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	login, err := c.auth.Login(ctx, connect.NewRequest(&pb.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, alice.User.Id, login.Msg.User.Id)

	_, err = c.auth.Login(ctx, connect.NewRequest(&pb.LoginRequest{
		Email: "alice@example.com", Password: "nope-nope",
	}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = c.auth.GetCurrentUser(ctx, connect.NewRequest(&pb.GetCurrentUserRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	me, err := c.auth.GetCurrentUser(ctx, withToken(&pb.GetCurrentUserRequest{}, login.Msg.Token))
	require.NoError(t, err)
	assert.Equal(t, alice.User.Id, me.Msg.User.Id)
}

func TestProposalService(t *testing.T) {
	ctx := context.Background()
	c := setupTestServer(t)

	alice := register(t, c, "alice@example.com")
	bob := register(t, c, "bob@example.com")

	group := &models.Group{
		Name:      "Flat",
		CreatedBy: alice.User.Id,
		Members: []models.Member{
			{UserID: alice.User.Id, Role: models.RoleAdmin},
			{UserID: bob.User.Id, Role: models.RoleMember},
		},
	}
	require.NoError(t, c.store.CreateGroup(ctx, group))

	txn := &models.Transaction{
		GroupID:  group.ID,
		PayerID:  alice.User.Id,
		Name:     "Power bill",
		Amount:   decimal.RequireFromString("60.00"),
		Currency: "EUR",
	}
	require.NoError(t, c.store.CreateTransaction(ctx, txn))

	created, err := c.proposals.CreateProposal(ctx, withToken(&pb.CreateProposalRequest{
		GroupId:       group.ID,
		TransactionId: txn.ID,
		Splits:        []*pb.Split{{UserId: bob.User.Id, Amount: decimal.RequireFromString("30")}},
	}, bob.Token))
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Msg.Proposal.Status)
	assert.Equal(t, bob.User.Id, created.Msg.Proposal.ProposedBy)
	proposalID := created.Msg.Proposal.Id

	t.Run("requires a token", func(t *testing.T) {
		_, err := c.proposals.ApproveProposal(ctx, connect.NewRequest(&pb.ApproveProposalRequest{ProposalId: proposalID}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("list", func(t *testing.T) {
		resp, err := c.proposals.ListProposals(ctx, withToken(&pb.ListProposalsRequest{GroupId: group.ID}, bob.Token))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Proposals, 1)
		assert.Equal(t, "Power bill", resp.Msg.Proposals[0].Transaction.Name)
		assert.Equal(t, int32(1), resp.Msg.Page.TotalElements)
		assert.Equal(t, int32(20), resp.Msg.Page.Size)

		_, err = c.proposals.ListProposals(ctx, withToken(&pb.ListProposalsRequest{GroupId: group.ID, Sort: "amount"}, bob.Token))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("member cannot approve", func(t *testing.T) {
		_, err := c.proposals.ApproveProposal(ctx, withToken(&pb.ApproveProposalRequest{ProposalId: proposalID}, bob.Token))
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
	})

	t.Run("unknown proposal", func(t *testing.T) {
		_, err := c.proposals.ApproveProposal(ctx, withToken(&pb.ApproveProposalRequest{ProposalId: "missing"}, alice.Token))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})

	t.Run("approve once", func(t *testing.T) {
		resp, err := c.proposals.ApproveProposal(ctx, withToken(&pb.ApproveProposalRequest{ProposalId: proposalID}, alice.Token))
		require.NoError(t, err)
		assert.True(t, resp.Msg.Success)
		assert.Equal(t, "approved", resp.Msg.Status)
		assert.Equal(t, int32(1), resp.Msg.DebtsCreated)

		_, err = c.proposals.ApproveProposal(ctx, withToken(&pb.ApproveProposalRequest{ProposalId: proposalID}, alice.Token))
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

		var cerr *connect.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "Proposal is not pending", cerr.Message())
		assert.Equal(t, "invalid_state", cerr.Meta().Get("Fintrack-Error-Code"))
	})

	t.Run("reject", func(t *testing.T) {
		second, err := c.proposals.CreateProposal(ctx, withToken(&pb.CreateProposalRequest{
			GroupId:       group.ID,
			TransactionId: txn.ID,
			SplitEqually:  true,
		}, bob.Token))
		require.NoError(t, err)

		resp, err := c.proposals.RejectProposal(ctx, withToken(&pb.RejectProposalRequest{ProposalId: second.Msg.Proposal.Id}, alice.Token))
		require.NoError(t, err)
		assert.True(t, resp.Msg.Success)
		assert.Equal(t, "rejected", resp.Msg.Status)
	})
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, connect.CodeNotFound, CodeFor(apperr.KindNotFound))
	assert.Equal(t, connect.CodeFailedPrecondition, CodeFor(apperr.KindInvalidState))
	assert.Equal(t, connect.CodePermissionDenied, CodeFor(apperr.KindForbidden))
	assert.Equal(t, connect.CodeInvalidArgument, CodeFor(apperr.KindBadRequest))
	assert.Equal(t, connect.CodeAlreadyExists, CodeFor(apperr.KindConflict))
	assert.Equal(t, connect.CodeUnavailable, CodeFor(apperr.KindPersistence))
	assert.Equal(t, connect.CodeUnauthenticated, CodeFor(apperr.KindUnauthenticated))
	assert.Equal(t, connect.CodeInternal, CodeFor(""))

	cerr := toConnectError(apperr.Persistence("failed to update proposal", io.ErrUnexpectedEOF))
	assert.Equal(t, "failed to update proposal", cerr.Message())
}
