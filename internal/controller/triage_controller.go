package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medicore-triage-be/internal/dto"
	"medicore-triage-be/internal/pkg/serverutils"
	"medicore-triage-be/internal/service"
)

type ITriageController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type triageController struct {
	triageService service.ITriageService
}

func NewTriageController(triageService service.ITriageService) ITriageController {
	return &triageController{
		triageService: triageService,
	}
}

func (c *triageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/triage/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("chat", c.Chat)
	h.Get("sessions/:session_id/history", c.History)
}

func (c *triageController) Chat(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.triageService.Chat(ctx.Context(), userId, &req)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process chat turn", res))
}

func (c *triageController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionKey := ctx.Params("session_id")

	res, err := c.triageService.GetHistory(ctx.Context(), userId, sessionKey)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat history", res))
}
