package controller

import (
	"reconcile-be/internal/pkg/serverutils"
	"reconcile-be/internal/service"
	"reconcile-be/pkg/gate"

	"github.com/gofiber/fiber/v2"
)

type IStageController interface {
	RegisterRoutes(r fiber.Router)
	Progress(ctx *fiber.Ctx) error
	Advance(ctx *fiber.Ctx) error
	RecordGate(ctx *fiber.Ctx) error
}

type stageController struct {
	service service.IStageService
}

func NewStageController(service service.IStageService) IStageController {
	return &stageController{service: service}
}

func (c *stageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/stage/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":sessionId/progress", c.Progress)
	h.Post(":sessionId/advance", c.Advance)
	h.Post(":sessionId/gates/:stage/:gate", c.RecordGate)
}

func (c *stageController) Progress(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.GetProgress(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get progress", res))
}

// Advance answers 200 for both outcomes; a blocked advance carries its reason in the body.
func (c *stageController) Advance(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.Advance(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Advance processed", res))
}

func (c *stageController) RecordGate(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}
	stage, err := ctx.ParamsInt("stage")
	if err != nil || !gate.Stage(stage).Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid stage")
	}

	res, err := c.service.RecordGate(ctx.UserContext(), sessionId, userId, gate.Stage(stage), gate.Name(ctx.Params("gate")))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Gate processed", res))
}
