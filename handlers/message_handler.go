package handlers

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/internal/service"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
	"github.com/dreamtoapp/amwaj-messaging/pkg/validator"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(service *service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

type SendTextRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	Message     string `json:"message" validate:"required,max=4096"`
}

type SendTemplateRequest struct {
	PhoneNumber  string   `json:"phoneNumber" validate:"required,max=32"`
	TemplateName string   `json:"templateName" validate:"required,max=512"`
	Language     string   `json:"language" validate:"required,wa_lang"`
	Parameters   []string `json:"parameters,omitempty" validate:"omitempty,max=10,dive,required,max=1024"`
}

type PhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
}

type QueueMessageRequest struct {
	Content     string `json:"content" validate:"required,max=4096"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
}

// bind decodes and validates req. When it returns false the error response
// has already been written and its result should be returned as is.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, response.BadRequest(c, err)
	}

	if err := c.Validate(req); err != nil {
		return false, validator.HandleValidationError(c, err)
	}

	return true, nil
}

// SendText godoc
// @Summary Send a text message
// @Description Sends a free-form text message. Only delivered inside the 24h session window.
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param message body SendTextRequest true "Recipient and text"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/messages/text [post]
func (h *MessageHandler) SendText(c echo.Context) error {
	var req SendTextRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.service.SendText(c.Request().Context(), req.PhoneNumber, req.Message)
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Message sent successfully", result)
}

// SendTemplate godoc
// @Summary Send a template message
// @Description Sends an approved template with optional body parameters
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param message body SendTemplateRequest true "Template to send"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/messages/template [post]
func (h *MessageHandler) SendTemplate(c echo.Context) error {
	var req SendTemplateRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.service.SendTemplate(
		c.Request().Context(),
		req.PhoneNumber,
		req.TemplateName,
		req.Language,
		req.Parameters...,
	)
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Template sent successfully", result)
}

// SendHelloWorld godoc
// @Summary Send the hello_world template
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param message body PhoneRequest true "Recipient"
// @Success 200 {object} response.SuccessResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/messages/hello-world [post]
func (h *MessageHandler) SendHelloWorld(c echo.Context) error {
	var req PhoneRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.service.SendHelloWorld(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Template sent successfully", result)
}

// SendCanned godoc
// @Summary Send a canned text message
// @Description name is one of verification, automated-reply, test, simple-text
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param name path string true "Canned message name"
// @Param message body PhoneRequest true "Recipient"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/messages/canned/{name} [post]
func (h *MessageHandler) SendCanned(c echo.Context) error {
	var req PhoneRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.service.SendCanned(c.Request().Context(), req.PhoneNumber, c.Param("name"))
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Message sent successfully", result)
}

// QueueMessage godoc
// @Summary Queue a text message
// @Description Stores a text message for the scheduler to send
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param message body QueueMessageRequest true "Message to queue"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/queue [post]
func (h *MessageHandler) QueueMessage(c echo.Context) error {
	var req QueueMessageRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	message, err := h.service.QueueText(c.Request().Context(), req.PhoneNumber, req.Content)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, "Message queued successfully", message)
}

// GetSentMessages godoc
// @Summary Get sent messages
// @Description Retrieves a paginated list of all sent messages
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/sent [get]
func (h *MessageHandler) GetSentMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	messages, totalCount, err := h.service.GetSentMessages(c.Request().Context(), page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// GetAllMessages godoc
// @Summary Get all messages
// @Description Retrieves a paginated list of all messages with optional status filter
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (pending, sent, failed)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetAllMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.MessageStatus
	switch s := domain.MessageStatus(c.QueryParam("status")); s {
	case "":
	case domain.StatusPending, domain.StatusSent, domain.StatusFailed:
		status = &s
	default:
		return response.BadRequest(c, fmt.Errorf("status must be one of pending, sent, failed"))
	}

	messages, totalCount, err := h.service.GetAllMessages(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// GetStats godoc
// @Summary Get message statistics
// @Description Returns count of messages by status
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/stats [get]
func (h *MessageHandler) GetStats(c echo.Context) error {
	pending, sent, failed, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"pending": pending,
		"sent":    sent,
		"failed":  failed,
		"total":   pending + sent + failed,
	})
}

// GetCachedMessages godoc
// @Summary Get cached sent messages
// @Description Returns the wamid of every recently sent message cached in Valkey
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/messages/cached [get]
func (h *MessageHandler) GetCachedMessages(c echo.Context) error {
	cached, err := h.service.GetCachedMessages(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, cached)
}

// GetCachedMessage godoc
// @Summary Get the cached receipt of a sent message
// @Description Returns the wamid and send time cached in Valkey for one message. Receipts expire after 24h.
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param id path int true "Message ID"
// @Success 200 {object} domain.SentMessageCache
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/messages/{id}/cached [get]
func (h *MessageHandler) GetCachedMessage(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(c, fmt.Errorf("invalid message id"))
	}

	cached, err := h.service.GetCachedMessage(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, cached)
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}

// ReplayAllFailedMessages godoc
// @Summary Replay all failed messages
// @Description Sets status='pending' for all failed messages so the scheduler can resend them
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/replay [post]
func (h *MessageHandler) ReplayAllFailedMessages(c echo.Context) error {
	count, err := h.service.ReplayAllFailedMessages(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"replayed": count,
	})
}

// ReplayFailedMessage godoc
// @Summary Replay a single failed message
// @Description Sets status='pending' for a specific failed message so the scheduler can resend it
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param id path int true "Message ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/messages/{id}/replay [post]
func (h *MessageHandler) ReplayFailedMessage(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("invalid message id"))
	}

	if err := h.service.ReplayFailedMessage(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, map[string]any{
		"replayed": 1,
	})
}
