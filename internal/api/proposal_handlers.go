package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/proposal"
)

type splitRequest struct {
	UserID string          `json:"userId" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"positive_decimal"`
}

type createProposalRequest struct {
	TransactionID string         `json:"transactionId" validate:"required"`
	Splits        []splitRequest `json:"splits" validate:"omitempty,dive"`
	SplitEqually  bool           `json:"splitEqually"`
}

func (h *handlers) createProposal(c *fiber.Ctx) error {
	var req createProposalRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	splits := make([]proposal.Split, len(req.Splits))
	for i, s := range req.Splits {
		splits[i] = proposal.Split{UserID: s.UserID, Amount: s.Amount}
	}

	p, err := h.Proposals.Create(c.UserContext(), c.Params("groupId"), callerID(c), proposal.CreateRequest{
		TransactionID: req.TransactionID,
		Splits:        splits,
		SplitEqually:  req.SplitEqually,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toProposalView(p))
}

func (h *handlers) listProposals(c *fiber.Ctx) error {
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	size, err := intQuery(c, "size")
	if err != nil {
		return err
	}

	result, err := h.Proposals.List(c.UserContext(), c.Params("groupId"), callerID(c), proposal.ListFilter{
		Status: c.Query("status"),
		Page:   page,
		Size:   size,
		Sort:   c.Query("sort"),
	})
	if err != nil {
		return err
	}
	return c.JSON(toProposalPage(result))
}

func (h *handlers) getProposal(c *fiber.Ctx) error {
	detail, err := h.Proposals.Get(c.UserContext(), c.Params("id"), callerID(c))
	if err != nil {
		return err
	}

	v := toProposalView(detail.Proposal)
	v.Debts = make([]debtView, len(detail.Debts))
	for i, d := range detail.Debts {
		v.Debts[i] = toDebtView(d)
	}
	return c.JSON(v)
}

func (h *handlers) approveProposal(c *fiber.Ctx) error {
	res, err := h.Proposals.Approve(c.UserContext(), c.Params("id"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(transitionView{
		Success:      true,
		Message:      "Proposal approved successfully",
		Status:       res.Status,
		DebtsCreated: res.DebtsCreated,
	})
}

func (h *handlers) rejectProposal(c *fiber.Ctx) error {
	res, err := h.Proposals.Reject(c.UserContext(), c.Params("id"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(transitionView{
		Success: true,
		Message: "Proposal rejected successfully",
		Status:  res.Status,
	})
}

// intQuery reads an optional integer query parameter; absent means 0.
func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("'" + key + "' must be an integer")
	}
	return n, nil
}
