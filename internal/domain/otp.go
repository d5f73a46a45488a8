package domain

import "time"

type OtpState string

const (
	OtpIdle     OtpState = "idle"
	OtpSent     OtpState = "otp_sent"
	OtpVerified OtpState = "verified"
)

// OtpSession tracks one phone number through idle -> otp_sent -> verified.
// A failed dispatch never moves the state.
type OtpSession struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	State     OtpState  `json:"state"`
	Verified  bool      `json:"verified"`
	Attempts  int       `json:"attempts"`
	SentAt    time.Time `json:"sentAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *OtpSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
