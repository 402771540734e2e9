package controller

import (
	"reconcile-be/internal/dto"
	"reconcile-be/internal/pkg/serverutils"
	"reconcile-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Record(ctx *fiber.Ctx) error
}

type messageController struct {
	service service.IMessageService
}

func NewMessageController(service service.IMessageService) IMessageController {
	return &messageController{service: service}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/message/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":sessionId", c.List)
	h.Post(":sessionId", c.Record)
}

func (c *messageController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.service.ListMessages(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *messageController) Record(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessionId, err := serverutils.ParamUUID(ctx, "sessionId")
	if err != nil {
		return err
	}

	var req dto.RecordMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RecordMessage(ctx.UserContext(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Message recorded", res))
}
