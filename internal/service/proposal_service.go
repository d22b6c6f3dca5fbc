package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/proposal"
	pb "github.com/mmynk/fintrack/pkg/fintrackv1"
)

// ProposalService implements the ProposalService RPC interface on top of
// the proposal engine.
type ProposalService struct {
	engine *proposal.Engine
}

// NewProposalService creates a new ProposalService.
func NewProposalService(engine *proposal.Engine) *ProposalService {
	return &ProposalService{engine: engine}
}

// CreateProposal proposes a split of a group transaction.
func (s *ProposalService) CreateProposal(ctx context.Context, req *connect.Request[pb.CreateProposalRequest]) (*connect.Response[pb.CreateProposalResponse], error) {
	slog.Info("CreateProposal request received", "group_id", req.Msg.GroupId, "transaction_id", req.Msg.TransactionId)

	splits := make([]proposal.Split, 0, len(req.Msg.Splits))
	for _, sp := range req.Msg.Splits {
		if sp == nil {
			continue
		}
		splits = append(splits, proposal.Split{UserID: sp.UserId, Amount: sp.Amount})
	}

	p, err := s.engine.Create(ctx, req.Msg.GroupId, middleware.GetUserID(ctx), proposal.CreateRequest{
		TransactionID: req.Msg.TransactionId,
		Splits:        splits,
		SplitEqually:  req.Msg.SplitEqually,
	})
	if err != nil {
		slog.Error("CreateProposal failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.CreateProposalResponse{Proposal: toPbProposal(p)}), nil
}

// ListProposals returns one page of a group's proposals.
func (s *ProposalService) ListProposals(ctx context.Context, req *connect.Request[pb.ListProposalsRequest]) (*connect.Response[pb.ListProposalsResponse], error) {
	slog.Info("ListProposals request received", "group_id", req.Msg.GroupId, "status", req.Msg.Status)

	page, err := s.engine.List(ctx, req.Msg.GroupId, middleware.GetUserID(ctx), proposal.ListFilter{
		Status: req.Msg.Status,
		Page:   int(req.Msg.Page),
		Size:   int(req.Msg.Size),
		Sort:   req.Msg.Sort,
	})
	if err != nil {
		slog.Error("ListProposals failed", "error", err)
		return nil, toConnectError(err)
	}

	proposals := make([]*pb.Proposal, len(page.Content))
	for i, l := range page.Content {
		p := toPbProposal(&l.Proposal)
		p.Transaction = &pb.TransactionSummary{
			Id:       l.Transaction.ID,
			Name:     l.Transaction.Name,
			Amount:   l.Transaction.Amount,
			Currency: l.Transaction.Currency,
			Date:     l.Transaction.Date,
		}
		proposals[i] = p
	}

	return connect.NewResponse(&pb.ListProposalsResponse{
		Proposals: proposals,
		Page: &pb.PageInfo{
			Number:        int32(page.Number),
			Size:          int32(page.Size),
			TotalElements: int32(page.TotalElements),
			TotalPages:    int32(page.TotalPages),
		},
	}), nil
}

// ApproveProposal approves a pending proposal and materializes its debts.
func (s *ProposalService) ApproveProposal(ctx context.Context, req *connect.Request[pb.ApproveProposalRequest]) (*connect.Response[pb.ApproveProposalResponse], error) {
	slog.Info("ApproveProposal request received", "proposal_id", req.Msg.ProposalId)

	res, err := s.engine.Approve(ctx, req.Msg.ProposalId, middleware.GetUserID(ctx))
	if err != nil {
		slog.Error("ApproveProposal failed", "proposal_id", req.Msg.ProposalId, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.ApproveProposalResponse{
		Success:      true,
		Message:      "Proposal approved successfully",
		Status:       string(res.Status),
		DebtsCreated: int32(res.DebtsCreated),
	}), nil
}

// RejectProposal rejects a pending proposal.
func (s *ProposalService) RejectProposal(ctx context.Context, req *connect.Request[pb.RejectProposalRequest]) (*connect.Response[pb.RejectProposalResponse], error) {
	slog.Info("RejectProposal request received", "proposal_id", req.Msg.ProposalId)

	res, err := s.engine.Reject(ctx, req.Msg.ProposalId, middleware.GetUserID(ctx))
	if err != nil {
		slog.Error("RejectProposal failed", "proposal_id", req.Msg.ProposalId, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.RejectProposalResponse{
		Success: true,
		Message: "Proposal rejected successfully",
		Status:  string(res.Status),
	}), nil
}

func toPbProposal(p *models.SplitProposal) *pb.Proposal {
	return &pb.Proposal{
		Id:            p.ID,
		GroupId:       p.GroupID,
		TransactionId: p.TransactionID,
		ProposedBy:    p.ProposedBy,
		Status:        string(p.Status),
		SplitRule:     p.SplitRule,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
