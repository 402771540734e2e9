package controller

import (
	"reconcile-be/internal/dto"
	"reconcile-be/internal/pkg/serverutils"
	"reconcile-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INeedsController interface {
	RegisterRoutes(r fiber.Router)
	GetNeeds(ctx *fiber.Ctx) error
	AddNeed(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
	Consent(ctx *fiber.Ctx) error
}

type needsController struct {
	service service.INeedsService
}

func NewNeedsController(service service.INeedsService) INeedsController {
	return &needsController{service: service}
}

func (c *needsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/needs/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":sessionId", c.GetNeeds)
	h.Post(":sessionId", c.AddNeed)
	h.Post(":sessionId/confirm", c.Confirm)
	h.Post(":sessionId/consent", c.Consent)
}

// GetNeeds answers 202 while another request is extracting the caller's needs.
func (c *needsController) GetNeeds(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.GetOrComputeNeeds(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	if res.Extracting {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Needs are being extracted", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get needs", res))
}

func (c *needsController) AddNeed(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	var req dto.AddNeedRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddNeed(ctx.UserContext(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Need processed", res))
}

func (c *needsController) Confirm(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	var req dto.ConfirmNeedsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ConfirmNeeds(ctx.UserContext(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Needs confirmation processed", res))
}

func (c *needsController) Consent(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	var req dto.ConsentNeedsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ConsentToShareNeeds(ctx.UserContext(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Consent processed", res))
}
