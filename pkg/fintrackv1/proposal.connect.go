package fintrackv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ProposalServiceName is the fully-qualified name of the ProposalService service.
const ProposalServiceName = "fintrack.v1.ProposalService"

const (
	ProposalServiceCreateProposalProcedure  = "/fintrack.v1.ProposalService/CreateProposal"
	ProposalServiceListProposalsProcedure   = "/fintrack.v1.ProposalService/ListProposals"
	ProposalServiceApproveProposalProcedure = "/fintrack.v1.ProposalService/ApproveProposal"
	ProposalServiceRejectProposalProcedure  = "/fintrack.v1.ProposalService/RejectProposal"
)

// ProposalServiceClient is a client for the fintrack.v1.ProposalService service.
type ProposalServiceClient interface {
	CreateProposal(context.Context, *connect.Request[CreateProposalRequest]) (*connect.Response[CreateProposalResponse], error)
	ListProposals(context.Context, *connect.Request[ListProposalsRequest]) (*connect.Response[ListProposalsResponse], error)
	ApproveProposal(context.Context, *connect.Request[ApproveProposalRequest]) (*connect.Response[ApproveProposalResponse], error)
	RejectProposal(context.Context, *connect.Request[RejectProposalRequest]) (*connect.Response[RejectProposalResponse], error)
}

// NewProposalServiceClient constructs a client for the fintrack.v1.ProposalService
// service. The JSON codec is always used.
func NewProposalServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ProposalServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append(opts, connect.WithCodec(Codec{}))
	return &proposalServiceClient{
		createProposal: connect.NewClient[CreateProposalRequest, CreateProposalResponse](
			httpClient, baseURL+ProposalServiceCreateProposalProcedure, opts...),
		listProposals: connect.NewClient[ListProposalsRequest, ListProposalsResponse](
			httpClient, baseURL+ProposalServiceListProposalsProcedure, opts...),
		approveProposal: connect.NewClient[ApproveProposalRequest, ApproveProposalResponse](
			httpClient, baseURL+ProposalServiceApproveProposalProcedure, opts...),
		rejectProposal: connect.NewClient[RejectProposalRequest, RejectProposalResponse](
			httpClient, baseURL+ProposalServiceRejectProposalProcedure, opts...),
	}
}

type proposalServiceClient struct {
	createProposal  *connect.Client[CreateProposalRequest, CreateProposalResponse]
	listProposals   *connect.Client[ListProposalsRequest, ListProposalsResponse]
	approveProposal *connect.Client[ApproveProposalRequest, ApproveProposalResponse]
	rejectProposal  *connect.Client[RejectProposalRequest, RejectProposalResponse]
}

func (c *proposalServiceClient) CreateProposal(ctx context.Context, req *connect.Request[CreateProposalRequest]) (*connect.Response[CreateProposalResponse], error) {
	return c.createProposal.CallUnary(ctx, req)
}

func (c *proposalServiceClient) ListProposals(ctx context.Context, req *connect.Request[ListProposalsRequest]) (*connect.Response[ListProposalsResponse], error) {
	return c.listProposals.CallUnary(ctx, req)
}

func (c *proposalServiceClient) ApproveProposal(ctx context.Context, req *connect.Request[ApproveProposalRequest]) (*connect.Response[ApproveProposalResponse], error) {
	return c.approveProposal.CallUnary(ctx, req)
}

func (c *proposalServiceClient) RejectProposal(ctx context.Context, req *connect.Request[RejectProposalRequest]) (*connect.Response[RejectProposalResponse], error) {
	return c.rejectProposal.CallUnary(ctx, req)
}

// ProposalServiceHandler is an implementation of the fintrack.v1.ProposalService service.
type ProposalServiceHandler interface {
	CreateProposal(context.Context, *connect.Request[CreateProposalRequest]) (*connect.Response[CreateProposalResponse], error)
	ListProposals(context.Context, *connect.Request[ListProposalsRequest]) (*connect.Response[ListProposalsResponse], error)
	ApproveProposal(context.Context, *connect.Request[ApproveProposalRequest]) (*connect.Response[ApproveProposalResponse], error)
	RejectProposal(context.Context, *connect.Request[RejectProposalRequest]) (*connect.Response[RejectProposalResponse], error)
}

// NewProposalServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewProposalServiceHandler(svc ProposalServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, connect.WithCodec(Codec{}))
	createProposal := connect.NewUnaryHandler(ProposalServiceCreateProposalProcedure, svc.CreateProposal, opts...)
	listProposals := connect.NewUnaryHandler(ProposalServiceListProposalsProcedure, svc.ListProposals, opts...)
	approveProposal := connect.NewUnaryHandler(ProposalServiceApproveProposalProcedure, svc.ApproveProposal, opts...)
	rejectProposal := connect.NewUnaryHandler(ProposalServiceRejectProposalProcedure, svc.RejectProposal, opts...)

	return "/" + ProposalServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProposalServiceCreateProposalProcedure:
			createProposal.ServeHTTP(w, r)
		case ProposalServiceListProposalsProcedure:
			listProposals.ServeHTTP(w, r)
		case ProposalServiceApproveProposalProcedure:
			approveProposal.ServeHTTP(w, r)
		case ProposalServiceRejectProposalProcedure:
			rejectProposal.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
