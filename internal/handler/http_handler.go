package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/middleware"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/repository"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/service"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/response"
)

// HTTPHandler handles the REST surface: accounts, the user directory,
// and message send/history.
type HTTPHandler struct {
	users          service.UserService
	messages       service.MessageService
	authMiddleware *middleware.AuthMiddleware
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(users service.UserService, messages service.MessageService, authMiddleware *middleware.AuthMiddleware) *HTTPHandler {
	return &HTTPHandler{
		users:          users,
		messages:       messages,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		api.GET("/users", h.ListUsers)

		protected := api.Group("")
		protected.Use(h.authMiddleware.RequireAuth())
		{
			protected.GET("/users/me", h.GetMe)
			protected.POST("/messages", h.SendMessage)
			protected.GET("/messages/:user_id", h.GetHistory)
		}
	}
}

// Register handles user registration.
func (h *HTTPHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			response.Conflict(c, "username already taken")
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, user)
}

// Login handles user login and token issuance.
func (h *HTTPHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.users.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "incorrect username or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, token)
}

// ListUsers returns the user directory.
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.users.List(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("list users failed")
		response.InternalError(c, "failed to list users")
		return
	}

	response.Success(c, users)
}

// GetMe returns the caller's account and stamps last_seen.
func (h *HTTPHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.users.Me(ctx, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("get me failed")
		response.InternalError(c, "failed to load user")
		return
	}

	response.Success(c, user)
}

// SendMessage persists a message and pushes it to the recipient's live
// connections. Delivery is best-effort; the response reflects only the
// persisted record.
func (h *HTTPHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid send message request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messages.Send(ctx, middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrRecipientNotFound) {
			response.NotFound(c, "recipient not found")
			return
		}
		l.Error().Err(err).Msg("send message failed")
		response.InternalError(c, "failed to send message")
		return
	}

	response.Created(c, msg)
}

// GetHistory returns the conversation with another user, oldest first.
func (h *HTTPHandler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()

	withUserID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	history, err := h.messages.History(ctx, middleware.GetUserID(c), withUserID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("get history failed")
		response.InternalError(c, "failed to load history")
		return
	}

	response.Success(c, history)
}
