package whatsapp

import (
	"fmt"
	"strings"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

const (
	messagingProduct = "whatsapp"
	recipientType    = "individual"
)

// Payload is the JSON body of POST /{phone-number-id}/messages.
type Payload struct {
	MessagingProduct string    `json:"messaging_product"`
	RecipientType    string    `json:"recipient_type,omitempty"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             *Text     `json:"text,omitempty"`
	Template         *Template `json:"template,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Template struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components,omitempty"`
}

type Language struct {
	Code string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NormalizePhone strips a single leading "+". Nothing else is checked; the
// Cloud API rejects malformed numbers itself.
func NormalizePhone(phone string) string {
	return strings.TrimPrefix(phone, "+")
}

// BuildPayload converts msg into the wire format for recipient to.
func BuildPayload(to string, msg domain.OutboundMessage) (*Payload, error) {
	payload := &Payload{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientType,
		To:               NormalizePhone(to),
		Type:             string(msg.Kind),
	}

	switch msg.Kind {
	case domain.KindText:
		payload.Text = &Text{Body: msg.Body}

	case domain.KindTemplate:
		if msg.TemplateName == "" {
			return nil, fmt.Errorf("template name is required")
		}

		payload.Template = &Template{
			Name:     msg.TemplateName,
			Language: Language{Code: msg.LanguageCode},
		}

		if len(msg.Parameters) > 0 {
			params := make([]Parameter, 0, len(msg.Parameters))
			for _, p := range msg.Parameters {
				params = append(params, Parameter{Type: "text", Text: p})
			}
			payload.Template.Components = []Component{{Type: "body", Parameters: params}}
		}

	default:
		return nil, fmt.Errorf("unsupported message kind %q", msg.Kind)
	}

	return payload, nil
}
