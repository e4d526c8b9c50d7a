package controller

import (
	"os"

	"prepxl-be/internal/dto"
	"prepxl-be/internal/pkg/logger"
	"prepxl-be/internal/pkg/serverutils"
	"prepxl-be/internal/service"
	internalWS "prepxl-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router)
	Attach(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	FetchQuestion(ctx *fiber.Ctx) error
	StartRecording(ctx *fiber.Ctx) error
	StopRecording(ctx *fiber.Ctx) error
	AppendText(ctx *fiber.Ctx) error
	RecoverDraft(ctx *fiber.Ctx) error
	Advance(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
	DismissError(ctx *fiber.Ctx) error
	ServeSpeech(ctx *fiber.Ctx) error
}

type interviewController struct {
	interviewService service.IInterviewService
	logger           logger.ILogger
}

func NewInterviewController(interviewService service.IInterviewService, logger logger.ILogger) IInterviewController {
	return &interviewController{
		interviewService: interviewService,
		logger:           logger,
	}
}

func (c *interviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/interview/v1")

	// WebSocket handshake carries the token itself, no middleware
	h.Get(":id/speech", c.ServeSpeech)

	h.Use(serverutils.JwtMiddleware)
	h.Post(":id/attach", c.Attach)
	h.Get(":id/state", c.State)
	h.Post(":id/question", c.FetchQuestion)
	h.Post(":id/recording/start", c.StartRecording)
	h.Post(":id/recording/stop", c.StopRecording)
	h.Post(":id/text", c.AppendText)
	h.Post(":id/draft", c.RecoverDraft)
	h.Post(":id/answer", c.Advance)
	h.Post(":id/end", c.End)
	h.Post(":id/dismiss-error", c.DismissError)
}

func (c *interviewController) Attach(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.interviewService.Attach(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success attach interview", res))
}

func (c *interviewController) State(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.interviewService.State(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show interview state", res))
}

func (c *interviewController) FetchQuestion(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.interviewService.FetchQuestion(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch question", res))
}

func (c *interviewController) StartRecording(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	if err := c.interviewService.StartRecording(ctx.Context(), userId, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success start recording", nil))
}

func (c *interviewController) StopRecording(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	if err := c.interviewService.StopRecording(ctx.Context(), userId, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success stop recording", nil))
}

func (c *interviewController) AppendText(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	var req dto.AppendTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.interviewService.AppendText(ctx.Context(), userId, sessionId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success append answer text", nil))
}

func (c *interviewController) RecoverDraft(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	var req dto.RecoverDraftRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.interviewService.RecoverDraft(ctx.Context(), userId, sessionId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success resolve draft", nil))
}

func (c *interviewController) Advance(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.interviewService.Advance(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit answer", res))
}

func (c *interviewController) End(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	res, err := c.interviewService.End(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success end interview", res))
}

func (c *interviewController) DismissError(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.ids(ctx)
	if err != nil {
		return err
	}

	if err := c.interviewService.DismissError(ctx.Context(), userId, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success dismiss error", nil))
}

// ServeSpeech upgrades the connection and bridges it to the session's
// speech relay. The browser authenticates with a token query param since
// the WebSocket API cannot set headers.
func (c *interviewController) ServeSpeech(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.logger.Warn("InterviewController", "Invalid token in speech handshake", map[string]interface{}{"error": err})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userId, err := uuid.Parse(userIDStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	relay, err := c.interviewService.Relay(userId, sessionId)
	if err != nil {
		if appErr, ok := serverutils.AsAppError(err); ok {
			return ctx.Status(appErr.Status).JSON(serverutils.ErrorResponse(appErr))
		}
		return err
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("InterviewController", "Speech session started", map[string]interface{}{
				"session_id": sessionId.String(),
			})
			internalWS.ServeSpeech(conn, relay, userId, sessionId)
			c.logger.Info("InterviewController", "Speech session ended", map[string]interface{}{
				"session_id": sessionId.String(),
			})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

func (c *interviewController) ids(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, uuid.Nil, fiber.ErrUnauthorized
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.ErrUnauthorized
	}

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.ErrBadRequest
	}
	return userId, sessionId, nil
}
