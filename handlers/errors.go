package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/internal/otp"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
	"github.com/dreamtoapp/amwaj-messaging/pkg/validator"
)

// respondError picks the HTTP status for err. Provider messages are passed
// through unchanged so the operator sees what WhatsApp or Google said.
func respondError(c echo.Context, err error) error {
	var (
		validationErr *validator.ValidationError
		cfgErr        *domain.ConfigurationError
		remoteErr     *domain.RemoteAPIError
		networkErr    *domain.NetworkError
	)

	switch {
	case errors.As(err, &validationErr):
		return validator.HandleValidationError(c, validationErr)
	case errors.As(err, &cfgErr):
		logger.Errorf("Request %s blocked by configuration: %v", c.Path(), err)
		return response.ServiceUnavailable(c, err)
	case errors.As(err, &remoteErr), errors.As(err, &networkErr):
		return response.BadGateway(c, err)
	case errors.Is(err, otp.ErrInsecureVerifyDisabled):
		return response.Forbidden(c, err)
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err)
	case errors.Is(err, domain.ErrInvalidState):
		return response.Conflict(c, err)
	case errors.Is(err, domain.ErrRateLimited):
		return response.TooManyRequests(c, err)
	default:
		logger.Errorf("Request %s failed: %v", c.Path(), err)
		return response.InternalServerError(c, err)
	}
}
