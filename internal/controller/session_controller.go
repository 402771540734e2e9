package controller

import (
	"context"

	"reconcile-be/internal/dto"
	"reconcile-be/internal/pkg/serverutils"
	"reconcile-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SendInvitation(ctx *fiber.Ctx) error
	AcceptInvitation(ctx *fiber.Ctx) error
	SignCompact(ctx *fiber.Ctx) error
	Pause(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	Resolve(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Post("invitations/:code/accept", c.AcceptInvitation)
	h.Get(":sessionId", c.Show)
	h.Post(":sessionId/invitation", c.SendInvitation)
	h.Post(":sessionId/compact", c.SignCompact)
	h.Post(":sessionId/pause", c.Pause)
	h.Post(":sessionId/resume", c.Resume)
	h.Post(":sessionId/resolve", c.Resolve)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.GetSession(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) SendInvitation(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.ConfirmInvitation(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Invitation processed", res))
}

func (c *sessionController) AcceptInvitation(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.AcceptInvitation(ctx.UserContext(), ctx.Params("code"), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Invitation accepted", res))
}

func (c *sessionController) SignCompact(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.SignCompact(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Compact processed", res))
}

func (c *sessionController) Pause(ctx *fiber.Ctx) error {
	return c.changeStatus(ctx, c.service.Pause, "Session paused")
}

func (c *sessionController) Resume(ctx *fiber.Ctx) error {
	return c.changeStatus(ctx, c.service.Resume, "Session resumed")
}

func (c *sessionController) Resolve(ctx *fiber.Ctx) error {
	return c.changeStatus(ctx, c.service.Resolve, "Session resolved")
}

type statusChange func(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error)

func (c *sessionController) changeStatus(ctx *fiber.Ctx, change statusChange, message string) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := change(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
