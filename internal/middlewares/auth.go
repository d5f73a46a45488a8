package middlewares

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
)

const APIKeyHeader = "x-api-key"

func keyMatches(given, want string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}

// APIKeyAuth guards a route group with a shared key sent in the x-api-key
// header. An empty key closes the group with 503 until it is configured.
func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if apiKey == "" {
			unconfigured := &domain.ConfigurationError{
				Problems: []string{"API key is not configured for this endpoint group"},
			}
			return func(c echo.Context) error {
				return response.ServiceUnavailable(c, unconfigured)
			}
		}

		return func(c echo.Context) error {
			given := c.Request().Header.Get(APIKeyHeader)
			if given == "" || !keyMatches(given, apiKey) {
				logger.Warnf("Rejected %s %s from %s: bad API key",
					c.Request().Method, c.Request().URL.Path, c.RealIP())
				return response.Unauthorized(c)
			}

			return next(c)
		}
	}
}
