package controller

import (
	"reconcile-be/internal/dto"
	"reconcile-be/internal/pkg/serverutils"
	"reconcile-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICommonGroundController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
}

type commonGroundController struct {
	service service.ICommonGroundService
}

func NewCommonGroundController(service service.ICommonGroundService) ICommonGroundController {
	return &commonGroundController{service: service}
}

func (c *commonGroundController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/common-ground/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":sessionId", c.Show)
	h.Post(":sessionId/confirm", c.Confirm)
}

func (c *commonGroundController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.GetCommonGround(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	if res.Status == dto.CommonGroundComputing {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Common ground is being analysed", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get common ground", res))
}

func (c *commonGroundController) Confirm(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	var req dto.ConfirmCommonGroundRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.ConfirmCommonGround(ctx.UserContext(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Common ground confirmation processed", res))
}
