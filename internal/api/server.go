// Package api serves the REST surface with fiber. Handlers decode and
// validate requests, call the domain services, and render apperr kinds as
// HTTP status codes.
package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/group"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/proposal"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Deps are the services behind the routes.
type Deps struct {
	Sessions  *auth.Sessions
	JWT       *auth.JWTManager
	Groups    *group.Service
	Proposals *proposal.Engine
	Ledger    *ledger.Service

	// Metrics is optional.
	Metrics RequestObserver
	Logger  *slog.Logger
}

type handlers struct {
	Deps
}

// New builds the fiber app with every REST route registered.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "fintrack",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})
	app.Use(recover.New())
	app.Use(requestLogger(deps.Logger, deps.Metrics))

	h := &handlers{Deps: deps}

	app.Get("/healthz", h.health)
	app.Post("/auth/register", h.register)
	app.Post("/auth/login", h.login)

	authed := app.Group("", middleware.FiberAuth(deps.JWT))
	authed.Get("/auth/me", h.me)

	authed.Post("/groups", h.createGroup)
	authed.Get("/groups", h.listGroups)
	authed.Get("/groups/:groupId", h.getGroup)
	authed.Post("/groups/:groupId/members", h.addMember)
	authed.Patch("/groups/:groupId/members/:userId", h.changeRole)
	authed.Delete("/groups/:groupId/members/:userId", h.removeMember)
	authed.Get("/groups/:groupId/balances", h.balances)

	authed.Post("/groups/:groupId/proposals", h.createProposal)
	authed.Get("/groups/:groupId/proposals", h.listProposals)
	authed.Get("/proposals/:id", h.getProposal)
	authed.Post("/proposals/:id/approve", h.approveProposal)
	authed.Post("/proposals/:id/reject", h.rejectProposal)

	authed.Post("/debts/:id/settle", h.settleDebt)

	return app
}

// requestLogger logs one line per request and records request metrics. The
// error handler runs here so the logged status is the one sent.
func requestLogger(logger *slog.Logger, observer RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		logger.Info("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"route", route,
			"status", status,
			"user_id", middleware.GetUserID(c.UserContext()),
			"duration_ms", elapsed.Milliseconds(),
		)
		if observer != nil {
			observer.ObserveRequest(c.Method(), route, status, elapsed)
		}
		return nil
	}
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func callerID(c *fiber.Ctx) string {
	return middleware.GetUserID(c.UserContext())
}
