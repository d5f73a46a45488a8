package handlers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/internal/otp"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
)

type OtpHandler struct {
	flow *otp.Flow
}

func NewOtpHandler(flow *otp.Flow) *OtpHandler {
	return &OtpHandler{flow: flow}
}

type VerifyOtpRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

// OtpSessionView is the public shape of a session. The code is only
// included while insecure demo mode is on.
type OtpSessionView struct {
	Phone     string          `json:"phoneNumber"`
	State     domain.OtpState `json:"state"`
	Verified  bool            `json:"verified"`
	Attempts  int             `json:"attempts"`
	Code      string          `json:"code,omitempty"`
	SentAt    *time.Time      `json:"sentAt,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

func (h *OtpHandler) view(session *domain.OtpSession) OtpSessionView {
	v := OtpSessionView{
		Phone:    session.Phone,
		State:    session.State,
		Verified: session.Verified,
		Attempts: session.Attempts,
	}
	if !session.SentAt.IsZero() {
		sentAt, expiresAt := session.SentAt, session.ExpiresAt
		v.SentAt = &sentAt
		v.ExpiresAt = &expiresAt
	}
	if h.flow.DemoMode() {
		v.Code = session.Code
	}
	return v
}

// SendOtp godoc
// @Summary Send a verification code
// @Description Generates a six digit code and sends it with the authentication template
// @Tags otp
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param request body PhoneRequest true "Recipient"
// @Success 200 {object} response.SuccessResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/otp/send [post]
func (h *OtpHandler) SendOtp(c echo.Context) error {
	var req PhoneRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.flow.SendOtp(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Verification code sent", map[string]any{
		"session":  h.view(result.Session),
		"dispatch": result.Dispatch,
	})
}

// VerifyOtp godoc
// @Summary Verify a code
// @Description Compares the code with the one sent and marks the phone verified on a match
// @Tags otp
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param request body VerifyOtpRequest true "Phone and code"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/v1/otp/verify [post]
func (h *OtpHandler) VerifyOtp(c echo.Context) error {
	var req VerifyOtpRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.flow.VerifyCode(c.Request().Context(), req.PhoneNumber, req.Code)
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Phone number verified", map[string]any{
		"session":  h.view(result.Session),
		"dispatch": result.Dispatch,
	})
}

// DemoVerifyOtp godoc
// @Summary Verify without checking the code (demo only)
// @Description Marks the phone verified once the confirmation text is delivered. Disabled unless OTP_ALLOW_INSECURE_DEMO_VERIFY is true.
// @Tags otp
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param request body PhoneRequest true "Phone"
// @Success 200 {object} response.SuccessResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/otp/demo-verify [post]
func (h *OtpHandler) DemoVerifyOtp(c echo.Context) error {
	var req PhoneRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.flow.InsecureDemoVerify(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Phone number marked verified (insecure demo)", map[string]any{
		"session":  h.view(result.Session),
		"dispatch": result.Dispatch,
	})
}

// GetOtpStatus godoc
// @Summary Get verification state
// @Tags otp
// @Produce json
// @Param x-api-key header string true "API key"
// @Param phone path string true "Phone number"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/otp/{phone} [get]
func (h *OtpHandler) GetOtpStatus(c echo.Context) error {
	session, err := h.flow.Status(c.Request().Context(), c.Param("phone"))
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, h.view(session))
}

// ResetOtp godoc
// @Summary Reset verification state
// @Tags otp
// @Param x-api-key header string true "API key"
// @Param phone path string true "Phone number"
// @Success 204
// @Router /api/v1/otp/{phone} [delete]
func (h *OtpHandler) ResetOtp(c echo.Context) error {
	if err := h.flow.Reset(c.Request().Context(), c.Param("phone")); err != nil {
		return respondError(c, err)
	}

	return response.NoContent(c)
}
