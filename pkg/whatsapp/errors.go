package whatsapp

import (
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

const (
	serviceName          = "whatsapp"
	malformedTokenMarker = "Malformed access token"
	defaultErrorMessage  = "Failed to send message"
)

// ErrorResponse mirrors the Graph API error body.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func remoteError(resp *resty.Response) error {
	apiErr := &domain.RemoteAPIError{
		Service:    serviceName,
		StatusCode: resp.StatusCode(),
	}

	var body ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
		apiErr.Code = body.Error.Code
	}

	if strings.Contains(resp.String(), malformedTokenMarker) {
		apiErr.Err = domain.ErrMalformedToken
	}

	if apiErr.Message == "" {
		apiErr.Message = defaultErrorMessage
	}

	return apiErr
}
