package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
	"github.com/dreamtoapp/amwaj-messaging/pkg/whatsapp"
)

// WhatsAppHandler exposes read-only account checks.
type WhatsAppHandler struct {
	client *whatsapp.Client
}

func NewWhatsAppHandler(client *whatsapp.Client) *WhatsAppHandler {
	return &WhatsAppHandler{client: client}
}

// GetStatus godoc
// @Summary Diagnose the WhatsApp account
// @Description Checks the phone number, business account, token identity and templates; each check is reported on its own
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/whatsapp/status [get]
func (h *WhatsAppHandler) GetStatus(c echo.Context) error {
	return response.Ok(c, h.client.Diagnose(c.Request().Context()))
}

// ListTemplates godoc
// @Summary List message templates
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/whatsapp/templates [get]
func (h *WhatsAppHandler) ListTemplates(c echo.Context) error {
	templates, err := h.client.ListTemplates(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, templates)
}

// GetTemplateStatus godoc
// @Summary Check whether a template can carry verification codes
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Param name path string true "Template name"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/whatsapp/templates/{name} [get]
func (h *WhatsAppHandler) GetTemplateStatus(c echo.Context) error {
	report, err := h.client.TemplateStatus(c.Request().Context(), c.Param("name"))
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, report)
}
