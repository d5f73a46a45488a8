package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
	"github.com/dreamtoapp/amwaj-messaging/pkg/whatsapp"
)

const (
	helloWorldTemplate = "hello_world"
	helloWorldLanguage = "en_US"
)

// Small internal interfaces so we can test without touching real DB/Redis/WhatsApp.
type messageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	GetPending(ctx context.Context, limit int) ([]domain.Message, error)
	MarkAsSent(ctx context.Context, id int64, messageID string, sentAt time.Time) error
	MarkAsFailed(ctx context.Context, id int64, reason string) error

	GetSent(ctx context.Context, page, pageSize int) ([]domain.Message, int64, error)
	GetAll(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.Message, int64, error)
	GetStats(ctx context.Context) (pending, sent, failed int64, err error)

	ReplayFailedByID(ctx context.Context, id int64) error
	ReplayAllFailed(ctx context.Context) (int64, error)
}

type whatsappClient interface {
	SendMessage(ctx context.Context, to string, msg domain.OutboundMessage) (*domain.SendResponse, error)
}

type redisClient interface {
	CacheSentMessage(ctx context.Context, dbID int64, messageID string, sentAt time.Time) error
	GetCachedMessage(ctx context.Context, dbID int64) (*domain.SentMessageCache, error)
	GetAllCachedMessages(ctx context.Context) (map[int64]*domain.SentMessageCache, error)
}

// MessageService sends WhatsApp messages and keeps a log row for every attempt.
type MessageService struct {
	repo           messageRepository
	whatsappClient whatsappClient
	redisClient    redisClient
	config         environments.MessageConfig
	now            func() time.Time
}

func NewMessageService(
	repo messageRepository,
	whatsappClient whatsappClient,
	redisClient redisClient,
	config environments.MessageConfig,
) *MessageService {
	return &MessageService{
		repo:           repo,
		whatsappClient: whatsappClient,
		redisClient:    redisClient,
		config:         config,
		now:            time.Now,
	}
}

func (s *MessageService) checkLength(msg domain.OutboundMessage) error {
	if msg.Kind != domain.KindText {
		return nil
	}
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("message body is empty: %w", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(msg.Body) > s.config.MaxContentLength {
		return fmt.Errorf("content exceeds maximum length of %d characters: %w", s.config.MaxContentLength, domain.ErrInvalidInput)
	}
	return nil
}

// Send dispatches msg right away. The attempt is logged as sent or failed
// either way; a logging problem never hides the dispatch outcome.
func (s *MessageService) Send(ctx context.Context, phone string, msg domain.OutboundMessage) (*domain.DispatchResult, error) {
	if err := s.checkLength(msg); err != nil {
		return nil, err
	}

	phone = whatsapp.NormalizePhone(phone)

	resp, sendErr := s.whatsappClient.SendMessage(ctx, phone, msg)

	var cfgErr *domain.ConfigurationError
	if errors.As(sendErr, &cfgErr) {
		// Nothing left the process; there is no attempt to record.
		return nil, sendErr
	}

	record, err := domain.NewMessageRecord(phone, msg, domain.StatusFailed)
	if err != nil {
		return nil, err
	}

	var dispatch domain.DispatchResult
	if sendErr != nil {
		reason := sendErr.Error()
		record.Error = &reason
	} else {
		dispatch = resp.Dispatch()
		sentAt := s.now()
		record.Status = domain.StatusSent
		record.MessageID = &dispatch.MessageID
		record.SentAt = &sentAt
	}

	saved, err := s.repo.Create(ctx, record)
	if err != nil {
		logger.Errorf("Failed to log %s message to %s: %v", msg.Kind, phone, err)
	} else if saved != nil {
		dispatch.LogID = saved.ID
	}

	if sendErr != nil {
		logger.Errorf("Failed to send %s message to %s: %v", msg.Kind, phone, sendErr)
		return nil, sendErr
	}

	if s.redisClient != nil && dispatch.LogID != 0 {
		if err := s.redisClient.CacheSentMessage(ctx, dispatch.LogID, dispatch.MessageID, *record.SentAt); err != nil {
			logger.Warnf("Failed to cache message %d: %v", dispatch.LogID, err)
		}
	}

	logger.Infof("Sent %s message to %s (wamid: %s)", msg.Kind, phone, dispatch.MessageID)

	return &dispatch, nil
}

func (s *MessageService) SendText(ctx context.Context, phone, body string) (*domain.DispatchResult, error) {
	return s.Send(ctx, phone, domain.TextMessage(body))
}

func (s *MessageService) SendTemplate(
	ctx context.Context,
	phone, name, languageCode string,
	parameters ...string,
) (*domain.DispatchResult, error) {
	return s.Send(ctx, phone, domain.TemplateMessage(name, languageCode, parameters...))
}

// SendHelloWorld sends Meta's sample template, which every new account has.
func (s *MessageService) SendHelloWorld(ctx context.Context, phone string) (*domain.DispatchResult, error) {
	return s.SendTemplate(ctx, phone, helloWorldTemplate, helloWorldLanguage)
}

func (s *MessageService) SendCanned(ctx context.Context, phone, name string) (*domain.DispatchResult, error) {
	body, ok := CannedText(name)
	if !ok {
		return nil, fmt.Errorf("canned message %q: %w", name, domain.ErrNotFound)
	}
	return s.SendText(ctx, phone, body)
}

// QueueText stores a text message for the scheduler to send later.
func (s *MessageService) QueueText(ctx context.Context, phone, body string) (*domain.Message, error) {
	msg := domain.TextMessage(body)
	if err := s.checkLength(msg); err != nil {
		return nil, err
	}

	record, err := domain.NewMessageRecord(whatsapp.NormalizePhone(phone), msg, domain.StatusPending)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, record)
}

// ProcessPendingMessages sends one batch of queued messages, oldest first.
func (s *MessageService) ProcessPendingMessages(ctx context.Context) ([]domain.SendResult, error) {
	messages, err := s.repo.GetPending(ctx, s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	if len(messages) == 0 {
		logger.Debugf("No pending messages to process")
		return nil, nil
	}

	logger.Infof("Processing %d pending messages", len(messages))

	results := make([]domain.SendResult, 0, len(messages))

	for _, msg := range messages {
		results = append(results, s.deliverMessage(ctx, &msg))
	}

	return results, nil
}

func (s *MessageService) deliverMessage(ctx context.Context, msg *domain.Message) domain.SendResult {
	result := domain.SendResult{
		MessageDBID: msg.ID,
		SentAt:      s.now(),
	}

	fail := func(err error) domain.SendResult {
		result.Success = false
		result.Error = err

		if markErr := s.repo.MarkAsFailed(ctx, msg.ID, err.Error()); markErr != nil {
			logger.Errorf("Failed to mark message %d as failed: %v", msg.ID, markErr)
		}

		return result
	}

	out, err := msg.Outbound()
	if err != nil {
		logger.Errorf("Message %d cannot be rebuilt: %v", msg.ID, err)
		return fail(err)
	}

	if out.Kind == domain.KindText {
		out.Body = truncate(out.Body, s.config.MaxContentLength)
		if out.Body != msg.Content {
			logger.Warnf("Message %d exceeds max content length (%d), truncated",
				msg.ID, s.config.MaxContentLength)
		}
	}

	resp, err := s.whatsappClient.SendMessage(ctx, msg.PhoneNumber, out)
	if err != nil {
		logger.Errorf("Failed to send message %d: %v", msg.ID, err)
		return fail(err)
	}

	dispatch := resp.Dispatch()

	if err := s.repo.MarkAsSent(ctx, msg.ID, dispatch.MessageID, result.SentAt); err != nil {
		logger.Errorf("Failed to mark message %d as sent: %v", msg.ID, err)
		result.Success = false
		result.Error = err
		return result
	}

	if s.redisClient != nil {
		if err := s.redisClient.CacheSentMessage(ctx, msg.ID, dispatch.MessageID, result.SentAt); err != nil {
			logger.Warnf("Failed to cache message %d: %v", msg.ID, err)
		}
	}

	logger.Infof("Successfully sent message %d (wamid: %s)", msg.ID, dispatch.MessageID)

	result.Success = true
	result.MessageID = dispatch.MessageID

	return result
}

// truncate shortens s to max characters, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}

	const ellipsis = "..."
	if max > len(ellipsis) {
		return string(runes[:max-len(ellipsis)]) + ellipsis
	}
	return string(runes[:max])
}

func (s *MessageService) GetSentMessages(ctx context.Context, page, pageSize int) ([]domain.Message, int64, error) {
	return s.repo.GetSent(ctx, page, pageSize)
}

func (s *MessageService) GetAllMessages(
	ctx context.Context,
	status *domain.MessageStatus,
	page,
	pageSize int,
) ([]domain.Message, int64, error) {
	return s.repo.GetAll(ctx, status, page, pageSize)
}

func (s *MessageService) GetStats(ctx context.Context) (pending, sent, failed int64, err error) {
	return s.repo.GetStats(ctx)
}

var errCacheDisabled = &domain.ConfigurationError{Problems: []string{"redis client not configured"}}

func (s *MessageService) GetCachedMessages(ctx context.Context) (map[int64]*domain.SentMessageCache, error) {
	if s.redisClient == nil {
		return nil, errCacheDisabled
	}
	return s.redisClient.GetAllCachedMessages(ctx)
}

// GetCachedMessage returns the cached receipt of one sent message. Receipts
// expire after a day, so a sent message may have none.
func (s *MessageService) GetCachedMessage(ctx context.Context, id int64) (*domain.SentMessageCache, error) {
	if s.redisClient == nil {
		return nil, errCacheDisabled
	}

	cached, err := s.redisClient.GetCachedMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, fmt.Errorf("cached receipt for message %d: %w", id, domain.ErrNotFound)
	}
	return cached, nil
}

func (s *MessageService) ReplayFailedMessage(ctx context.Context, id int64) error {
	return s.repo.ReplayFailedByID(ctx, id)
}

func (s *MessageService) ReplayAllFailedMessages(ctx context.Context) (int64, error) {
	return s.repo.ReplayAllFailed(ctx)
}
