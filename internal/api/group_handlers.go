package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mmynk/fintrack/internal/models"
)

type createGroupRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=admin member"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

func (h *handlers) createGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	group, err := h.Groups.Create(c.UserContext(), callerID(c), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toGroupView(group))
}

func (h *handlers) listGroups(c *fiber.Ctx) error {
	groups, err := h.Groups.ListForUser(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}

	views := make([]groupView, len(groups))
	for i, g := range groups {
		views[i] = toGroupView(g)
	}
	return c.JSON(fiber.Map{"groups": views})
}

func (h *handlers) getGroup(c *fiber.Ctx) error {
	group, err := h.Groups.Get(c.UserContext(), c.Params("groupId"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(toGroupView(group))
}

func (h *handlers) addMember(c *fiber.Ctx) error {
	var req addMemberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	member, err := h.Groups.AddMember(c.UserContext(), c.Params("groupId"), callerID(c), req.UserID, models.Role(req.Role))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toMemberView(*member))
}

func (h *handlers) changeRole(c *fiber.Ctx) error {
	var req changeRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	member, err := h.Groups.ChangeRole(c.UserContext(), c.Params("groupId"), callerID(c), c.Params("userId"), models.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(toMemberView(*member))
}

func (h *handlers) removeMember(c *fiber.Ctx) error {
	if err := h.Groups.RemoveMember(c.UserContext(), c.Params("groupId"), callerID(c), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) balances(c *fiber.Ctx) error {
	b, err := h.Ledger.Balances(c.UserContext(), c.Params("groupId"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(toBalancesView(b.GroupID, b.Members, b.Payments))
}
