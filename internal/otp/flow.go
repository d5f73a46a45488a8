package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
	"github.com/dreamtoapp/amwaj-messaging/pkg/whatsapp"
)

const (
	// Sessions outlive their code so an expired code can be told apart from
	// one that was never sent.
	sessionRetention = 24 * time.Hour

	maxVerifyAttempts = 5
)

var (
	ErrInsecureVerifyDisabled = errors.New("insecure demo verification is disabled")
	ErrNoSession              = fmt.Errorf("no verification code has been sent: %w", domain.ErrInvalidState)
	ErrOtpExpired             = fmt.Errorf("verification code has expired: %w", domain.ErrInvalidState)
	ErrInvalidCode            = fmt.Errorf("verification code does not match: %w", domain.ErrInvalidInput)
	ErrTooManyAttempts        = fmt.Errorf("too many verification attempts: %w", domain.ErrRateLimited)
)

type messageSender interface {
	Send(ctx context.Context, phone string, msg domain.OutboundMessage) (*domain.DispatchResult, error)
}

type SendOtpResult struct {
	Session  *domain.OtpSession     `json:"session"`
	Code     string                 `json:"-"`
	Dispatch *domain.DispatchResult `json:"dispatch"`
}

type VerifyResult struct {
	Session  *domain.OtpSession     `json:"session"`
	Dispatch *domain.DispatchResult `json:"dispatch,omitempty"`
}

// Flow drives a phone number from idle through otp_sent to verified.
type Flow struct {
	sender  messageSender
	store   Store
	limiter *sendLimiter
	config  environments.OTPConfig
	now     func() time.Time
}

func NewFlow(sender messageSender, store Store, cfg environments.OTPConfig) *Flow {
	return &Flow{
		sender:  sender,
		store:   store,
		limiter: newSendLimiter(cfg.SendsPerMinute),
		config:  cfg,
		now:     time.Now,
	}
}

// SendOtp dispatches a fresh code through the authentication template. The
// stored session only changes when the dispatch succeeds.
func (f *Flow) SendOtp(ctx context.Context, phone string) (*SendOtpResult, error) {
	phone = whatsapp.NormalizePhone(phone)

	release, ok := f.limiter.Reserve(phone)
	if !ok {
		return nil, fmt.Errorf("verification code for %s: %w", phone, domain.ErrRateLimited)
	}

	code, err := GenerateCode()
	if err != nil {
		release()
		return nil, err
	}

	dispatch, err := f.sender.Send(ctx, phone, domain.TemplateMessage(f.config.TemplateName, f.config.TemplateLanguage, code))
	if err != nil {
		release()
		logger.Errorf("Failed to send verification code to %s: %v", phone, err)
		return nil, err
	}

	now := f.now()
	session := &domain.OtpSession{
		ID:        ulid.Make().String(),
		Phone:     phone,
		Code:      code,
		State:     domain.OtpSent,
		SentAt:    now,
		ExpiresAt: now.Add(f.config.TTL),
	}

	if err := f.store.SaveOtpSession(ctx, session, sessionRetention); err != nil {
		return nil, fmt.Errorf("failed to store verification session: %w", err)
	}

	logger.Infof("Verification code sent to %s (message %s)", phone, dispatch.MessageID)

	return &SendOtpResult{Session: session, Code: code, Dispatch: dispatch}, nil
}

// InsecureDemoVerify marks the session verified as soon as the confirmation
// text is delivered. The entered code is never compared, so this is only
// reachable when AllowInsecureDemoVerify is set.
func (f *Flow) InsecureDemoVerify(ctx context.Context, phone string) (*VerifyResult, error) {
	if !f.config.AllowInsecureDemoVerify {
		return nil, ErrInsecureVerifyDisabled
	}

	phone = whatsapp.NormalizePhone(phone)

	session, err := f.store.GetOtpSession(ctx, phone)
	if err != nil {
		return nil, err
	}
	if session == nil || session.State == domain.OtpIdle {
		return nil, ErrNoSession
	}

	logger.Warnf("Insecure demo verification used for %s; no code was checked", phone)

	dispatch, err := f.sender.Send(ctx, phone, domain.TextMessage(f.config.VerificationMessage))
	if err != nil {
		return nil, err
	}

	session.State = domain.OtpVerified
	session.Verified = true

	if err := f.store.SaveOtpSession(ctx, session, sessionRetention); err != nil {
		return nil, fmt.Errorf("failed to store verification session: %w", err)
	}

	return &VerifyResult{Session: session, Dispatch: dispatch}, nil
}

// VerifyCode checks code against the one sent to phone. A match moves the
// session to verified and sends the confirmation text; a failed confirmation
// does not undo the verification.
func (f *Flow) VerifyCode(ctx context.Context, phone, code string) (*VerifyResult, error) {
	phone = whatsapp.NormalizePhone(phone)

	session, err := f.store.GetOtpSession(ctx, phone)
	if err != nil {
		return nil, err
	}
	if session == nil || session.State == domain.OtpIdle {
		return nil, ErrNoSession
	}
	if session.State == domain.OtpVerified {
		return &VerifyResult{Session: session}, nil
	}
	if session.Expired(f.now()) {
		return nil, ErrOtpExpired
	}
	if session.Attempts >= maxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}

	// The limit is checked on the incremented value so parallel guesses
	// cannot all pass on the same stale count.
	attempts, err := f.store.IncrementOtpAttempts(ctx, phone, sessionRetention)
	if err != nil {
		return nil, fmt.Errorf("failed to count verification attempt: %w", err)
	}
	if attempts > maxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(session.Code), []byte(code)) != 1 {
		return nil, ErrInvalidCode
	}

	session.Attempts = attempts
	session.State = domain.OtpVerified
	session.Verified = true

	if err := f.store.SaveOtpSession(ctx, session, sessionRetention); err != nil {
		return nil, fmt.Errorf("failed to store verification session: %w", err)
	}

	result := &VerifyResult{Session: session}

	dispatch, err := f.sender.Send(ctx, phone, domain.TextMessage(f.config.VerificationMessage))
	if err != nil {
		logger.Warnf("Phone %s verified but confirmation message failed: %v", phone, err)
		return result, nil
	}
	result.Dispatch = dispatch

	return result, nil
}

// Status reports the session for phone, or an idle one when none exists.
func (f *Flow) Status(ctx context.Context, phone string) (*domain.OtpSession, error) {
	phone = whatsapp.NormalizePhone(phone)

	session, err := f.store.GetOtpSession(ctx, phone)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &domain.OtpSession{Phone: phone, State: domain.OtpIdle}, nil
	}
	return session, nil
}

// Reset returns phone to idle.
func (f *Flow) Reset(ctx context.Context, phone string) error {
	return f.store.DeleteOtpSession(ctx, whatsapp.NormalizePhone(phone))
}

// DemoMode reports whether codes may be echoed back to the caller.
func (f *Flow) DemoMode() bool {
	return f.config.AllowInsecureDemoVerify
}
