package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

type sentMessage struct {
	phone string
	msg   domain.OutboundMessage
}

type fakeSender struct {
	sent []sentMessage
	errs []error
}

func (f *fakeSender) Send(_ context.Context, phone string, msg domain.OutboundMessage) (*domain.DispatchResult, error) {
	f.sent = append(f.sent, sentMessage{phone: phone, msg: msg})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &domain.DispatchResult{MessageID: "wamid.TEST", Status: "accepted"}, nil
}

func otpConfig() environments.OTPConfig {
	return environments.OTPConfig{
		TemplateName:        "confirm",
		TemplateLanguage:    "ar",
		VerificationMessage: "verified",
		TTL:                 10 * time.Minute,
		SendsPerMinute:      0,
	}
}

func newTestFlow(cfg environments.OTPConfig) (*Flow, *fakeSender, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	flow := NewFlow(sender, store, cfg)
	flow.now = func() time.Time { return now }
	flow.limiter.now = func() time.Time { return now }

	return flow, sender, &now
}

func TestSendOtp_DispatchesTemplateAndStoresSession(t *testing.T) {
	flow, sender, _ := newTestFlow(otpConfig())
	ctx := context.Background()

	result, err := flow.SendOtp(ctx, "+966500000000")
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0].msg
	assert.Equal(t, "966500000000", sender.sent[0].phone)
	assert.Equal(t, domain.KindTemplate, msg.Kind)
	assert.Equal(t, "confirm", msg.TemplateName)
	assert.Equal(t, "ar", msg.LanguageCode)
	assert.Equal(t, []string{result.Code}, msg.Parameters)

	status, err := flow.Status(ctx, "966500000000")
	require.NoError(t, err)
	assert.Equal(t, domain.OtpSent, status.State)
	assert.False(t, status.Verified)
	assert.Equal(t, result.Code, status.Code)
}

func TestSendOtp_FailureLeavesStateUnchanged(t *testing.T) {
	flow, sender, _ := newTestFlow(otpConfig())
	sender.errs = []error{errors.New("remote down")}
	ctx := context.Background()

	_, err := flow.SendOtp(ctx, "12345")
	require.Error(t, err)

	status, err := flow.Status(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, domain.OtpIdle, status.State)
}

func TestSendOtp_RateLimitedPerPhone(t *testing.T) {
	cfg := otpConfig()
	cfg.SendsPerMinute = 1
	flow, _, now := newTestFlow(cfg)
	ctx := context.Background()

	_, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	_, err = flow.SendOtp(ctx, "+12345")
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = flow.SendOtp(ctx, "67890")
	assert.NoError(t, err)

	*now = now.Add(time.Minute)
	_, err = flow.SendOtp(ctx, "12345")
	assert.NoError(t, err)
}

func TestInsecureDemoVerify_DisabledByDefault(t *testing.T) {
	flow, sender, _ := newTestFlow(otpConfig())
	ctx := context.Background()

	_, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	_, err = flow.InsecureDemoVerify(ctx, "12345")
	assert.ErrorIs(t, err, ErrInsecureVerifyDisabled)
	assert.Len(t, sender.sent, 1)
}

func TestInsecureDemoVerify_VerifiesOnSuccessfulSend(t *testing.T) {
	cfg := otpConfig()
	cfg.AllowInsecureDemoVerify = true
	flow, sender, _ := newTestFlow(cfg)
	ctx := context.Background()

	_, err := flow.InsecureDemoVerify(ctx, "12345")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	sender.errs = []error{errors.New("remote down")}
	_, err = flow.InsecureDemoVerify(ctx, "12345")
	require.Error(t, err)
	status, _ := flow.Status(ctx, "12345")
	assert.Equal(t, domain.OtpSent, status.State)

	result, err := flow.InsecureDemoVerify(ctx, "12345")
	require.NoError(t, err)
	assert.True(t, result.Session.Verified)
	assert.Equal(t, domain.OtpVerified, result.Session.State)
	assert.Equal(t, domain.TextMessage("verified"), sender.sent[len(sender.sent)-1].msg)
}

func TestVerifyCode(t *testing.T) {
	flow, sender, _ := newTestFlow(otpConfig())
	ctx := context.Background()

	_, err := flow.VerifyCode(ctx, "12345", "123456")
	assert.ErrorIs(t, err, ErrNoSession)

	sent, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	wrong := "000000"
	if sent.Code == wrong {
		wrong = "111111"
	}
	_, err = flow.VerifyCode(ctx, "12345", wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	status, _ := flow.Status(ctx, "12345")
	assert.Equal(t, 1, status.Attempts)

	result, err := flow.VerifyCode(ctx, "12345", sent.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.OtpVerified, result.Session.State)
	assert.Equal(t, "wamid.TEST", result.Dispatch.MessageID)
	assert.Equal(t, domain.TextMessage("verified"), sender.sent[len(sender.sent)-1].msg)
}

func TestVerifyCode_Expired(t *testing.T) {
	flow, _, now := newTestFlow(otpConfig())
	ctx := context.Background()

	sent, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	*now = now.Add(11 * time.Minute)

	_, err = flow.VerifyCode(ctx, "12345", sent.Code)
	assert.ErrorIs(t, err, ErrOtpExpired)
}

func TestVerifyCode_AttemptLimit(t *testing.T) {
	flow, _, _ := newTestFlow(otpConfig())
	ctx := context.Background()

	sent, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	wrong := "000000"
	if sent.Code == wrong {
		wrong = "111111"
	}
	for i := 0; i < maxVerifyAttempts; i++ {
		_, err = flow.VerifyCode(ctx, "12345", wrong)
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	_, err = flow.VerifyCode(ctx, "12345", sent.Code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestReset(t *testing.T) {
	flow, _, _ := newTestFlow(otpConfig())
	ctx := context.Background()

	_, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)
	require.NoError(t, flow.Reset(ctx, "+12345"))

	status, err := flow.Status(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, domain.OtpIdle, status.State)
}

func TestSendOtp_FailedSendDoesNotSpendRateLimit(t *testing.T) {
	cfg := otpConfig()
	cfg.SendsPerMinute = 1
	flow, sender, _ := newTestFlow(cfg)
	ctx := context.Background()

	sender.errs = []error{&domain.NetworkError{Service: "WhatsApp", Err: errors.New("connection reset")}}

	_, err := flow.SendOtp(ctx, "966500000000")
	var networkErr *domain.NetworkError
	require.ErrorAs(t, err, &networkErr)

	_, err = flow.SendOtp(ctx, "966500000000")
	require.NoError(t, err)

	_, err = flow.SendOtp(ctx, "966500000000")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

// slowStore delays reads so concurrent verifications overlap between reading
// the session and recording the attempt.
type slowStore struct {
	*MemoryStore
	delay time.Duration
}

func (s *slowStore) GetOtpSession(ctx context.Context, phone string) (*domain.OtpSession, error) {
	time.Sleep(s.delay)
	return s.MemoryStore.GetOtpSession(ctx, phone)
}

func TestVerifyCode_ConcurrentGuessesRespectAttemptLimit(t *testing.T) {
	store := &slowStore{MemoryStore: NewMemoryStore(), delay: 20 * time.Millisecond}
	flow := NewFlow(&fakeSender{}, store, otpConfig())
	ctx := context.Background()

	sent, err := flow.SendOtp(ctx, "966500000000")
	require.NoError(t, err)

	wrong := "000000"
	if sent.Code == wrong {
		wrong = "111111"
	}

	const guesses = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		invalid  int
		rejected int
	)
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := flow.VerifyCode(ctx, "966500000000", wrong)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrInvalidCode):
				invalid++
			case errors.Is(err, ErrTooManyAttempts):
				rejected++
			default:
				t.Errorf("unexpected result: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxVerifyAttempts, invalid)
	assert.Equal(t, guesses-maxVerifyAttempts, rejected)

	_, err = flow.VerifyCode(ctx, "966500000000", sent.Code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	status, err := flow.Status(ctx, "966500000000")
	require.NoError(t, err)
	assert.False(t, status.Verified)
}

func TestSendOtp_ResendResetsAttempts(t *testing.T) {
	flow, _, _ := newTestFlow(otpConfig())
	ctx := context.Background()

	sent, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	wrong := "000000"
	if sent.Code == wrong {
		wrong = "111111"
	}
	for i := 0; i < maxVerifyAttempts; i++ {
		_, _ = flow.VerifyCode(ctx, "12345", wrong)
	}

	resent, err := flow.SendOtp(ctx, "12345")
	require.NoError(t, err)

	result, err := flow.VerifyCode(ctx, "12345", resent.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Session.Attempts)
}
