package api

import (
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.Sessions.Register(c.UserContext(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sessionView{User: toUserView(session.User), Token: session.Token})
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.Sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(sessionView{User: toUserView(session.User), Token: session.Token})
}

func (h *handlers) me(c *fiber.Ctx) error {
	user, err := h.Sessions.CurrentUser(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(toUserView(user))
}
