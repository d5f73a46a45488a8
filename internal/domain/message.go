package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type MessageKind string

const (
	KindText     MessageKind = "text"
	KindTemplate MessageKind = "template"
)

type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// OutboundMessage is either a free-text body or a template reference. Only the
// fields of the active Kind are meaningful.
type OutboundMessage struct {
	Kind         MessageKind
	Body         string
	TemplateName string
	LanguageCode string
	Parameters   []string
}

func TextMessage(body string) OutboundMessage {
	return OutboundMessage{Kind: KindText, Body: body}
}

func TemplateMessage(name, languageCode string, parameters ...string) OutboundMessage {
	return OutboundMessage{
		Kind:         KindTemplate,
		TemplateName: name,
		LanguageCode: languageCode,
		Parameters:   parameters,
	}
}

// Message is one row of the message log.
type Message struct {
	ID               int64         `db:"id" json:"id"`
	Kind             MessageKind   `db:"kind" json:"kind"`
	PhoneNumber      string        `db:"phone_number" json:"phoneNumber"`
	Content          string        `db:"content" json:"content"`
	TemplateLanguage *string       `db:"template_language" json:"templateLanguage,omitempty"`
	TemplateParams   *string       `db:"template_params" json:"templateParams,omitempty"`
	Status           MessageStatus `db:"status" json:"status"`
	MessageID        *string       `db:"message_id" json:"messageId,omitempty"`
	Error            *string       `db:"error" json:"error,omitempty"`
	SentAt           *time.Time    `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// NewMessageRecord builds a log row for msg. Template parameters are stored as
// a JSON array.
func NewMessageRecord(phoneNumber string, msg OutboundMessage, status MessageStatus) (*Message, error) {
	record := &Message{
		Kind:        msg.Kind,
		PhoneNumber: phoneNumber,
		Status:      status,
	}

	switch msg.Kind {
	case KindText:
		record.Content = msg.Body
	case KindTemplate:
		record.Content = msg.TemplateName
		lang := msg.LanguageCode
		record.TemplateLanguage = &lang

		if len(msg.Parameters) > 0 {
			data, err := json.Marshal(msg.Parameters)
			if err != nil {
				return nil, fmt.Errorf("failed to encode template parameters: %w", err)
			}
			params := string(data)
			record.TemplateParams = &params
		}
	default:
		return nil, fmt.Errorf("unsupported message kind %q", msg.Kind)
	}

	return record, nil
}

// Outbound rebuilds the message that produced this row.
func (m *Message) Outbound() (OutboundMessage, error) {
	switch m.Kind {
	case KindText, "":
		return TextMessage(m.Content), nil
	case KindTemplate:
		out := OutboundMessage{Kind: KindTemplate, TemplateName: m.Content}
		if m.TemplateLanguage != nil {
			out.LanguageCode = *m.TemplateLanguage
		}
		if m.TemplateParams != nil && *m.TemplateParams != "" {
			if err := json.Unmarshal([]byte(*m.TemplateParams), &out.Parameters); err != nil {
				return OutboundMessage{}, fmt.Errorf("failed to decode template parameters: %w", err)
			}
		}
		return out, nil
	default:
		return OutboundMessage{}, fmt.Errorf("unsupported message kind %q", m.Kind)
	}
}

type SentMessageCache struct {
	MessageID string    `json:"messageId"`
	SentAt    time.Time `json:"sentAt"`
}

// SendResponse mirrors the Cloud API success body.
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID            string `json:"id"`
		MessageStatus string `json:"message_status"`
	} `json:"messages"`
}

// DispatchResult is what callers of a send get back.
type DispatchResult struct {
	LogID     int64  `json:"logId,omitempty"`
	MessageID string `json:"messageId"`
	Status    string `json:"status,omitempty"`
	WaID      string `json:"waId,omitempty"`
}

// Dispatch flattens the first contact and message of r.
func (r *SendResponse) Dispatch() DispatchResult {
	var result DispatchResult
	if len(r.Messages) > 0 {
		result.MessageID = r.Messages[0].ID
		result.Status = r.Messages[0].MessageStatus
	}
	if len(r.Contacts) > 0 {
		result.WaID = r.Contacts[0].WaID
	}
	return result
}

type SendResult struct {
	MessageDBID int64
	MessageID   string
	Success     bool
	Error       error
	SentAt      time.Time
}
