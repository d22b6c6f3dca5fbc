package api

import "github.com/gofiber/fiber/v2"

func (h *handlers) settleDebt(c *fiber.Ctx) error {
	debt, err := h.Ledger.Settle(c.UserContext(), c.Params("id"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(toDebtView(debt))
}
