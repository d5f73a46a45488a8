package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	sentMessageKeyPrefix = "sent_message:"
	sentMessageTTL       = 24 * time.Hour
	otpSessionKeyPrefix  = "otp_session:"
	otpAttemptsKeyPrefix = "otp_attempts:"
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	logger.Infof("Connected to Valkey at %s:%s", cfg.Host, cfg.Port)

	return &Client{client: client}, nil
}

func (c *Client) CacheSentMessage(ctx context.Context, dbID int64, messageID string, sentAt time.Time) error {
	cache := domain.SentMessageCache{
		MessageID: messageID,
		SentAt:    sentAt,
	}

	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	key := fmt.Sprintf("%s%d", sentMessageKeyPrefix, dbID)

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Ex(sentMessageTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache sent message: %w", err)
	}

	logger.Debugf("Cached message %d -> %s", dbID, messageID)

	return nil
}

func (c *Client) GetCachedMessage(ctx context.Context, dbID int64) (*domain.SentMessageCache, error) {
	key := fmt.Sprintf("%s%d", sentMessageKeyPrefix, dbID)

	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached message: %w", result.Error())
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached message: %w", err)
	}

	var cache domain.SentMessageCache
	if err := json.Unmarshal([]byte(data), &cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &cache, nil
}

func (c *Client) GetAllCachedMessages(ctx context.Context) (map[int64]*domain.SentMessageCache, error) {
	pattern := fmt.Sprintf("%s*", sentMessageKeyPrefix)

	var keys []string
	var cursor uint64
	for {
		result := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		if result.Error() != nil {
			return nil, fmt.Errorf("failed to scan cache keys: %w", result.Error())
		}

		scanResult, err := result.AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan result: %w", err)
		}

		keys = append(keys, scanResult.Elements...)
		cursor = scanResult.Cursor

		if cursor == 0 {
			break
		}
	}

	result := make(map[int64]*domain.SentMessageCache)

	for _, key := range keys {
		getResult := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
		if getResult.Error() != nil {
			continue
		}

		data, err := getResult.ToString()
		if err != nil {
			continue
		}

		var cache domain.SentMessageCache
		if err := json.Unmarshal([]byte(data), &cache); err != nil {
			continue
		}

		var dbID int64

		if _, err := fmt.Sscanf(key, sentMessageKeyPrefix+"%d", &dbID); err != nil {
			logger.Warnf("failed to parse message id from cache key %q: %v", key, err)
			continue
		}

		result[dbID] = &cache
	}

	return result, nil
}

func otpSessionKey(phone string) string {
	return otpSessionKeyPrefix + phone
}

func otpAttemptsKey(phone string) string {
	return otpAttemptsKeyPrefix + phone
}

// SaveOtpSession stores session under its phone number for ttl. The attempt
// counter is written next to it so a new session starts from its own count.
func (c *Client) SaveOtpSession(ctx context.Context, session *domain.OtpSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal otp session: %w", err)
	}

	results := c.client.DoMulti(ctx,
		c.client.B().Set().Key(otpSessionKey(session.Phone)).Value(string(data)).Ex(ttl).Build(),
		c.client.B().Set().Key(otpAttemptsKey(session.Phone)).Value(strconv.Itoa(session.Attempts)).Ex(ttl).Build(),
	)
	for _, result := range results {
		if err := result.Error(); err != nil {
			return fmt.Errorf("failed to save otp session: %w", err)
		}
	}

	return nil
}

// GetOtpSession returns nil, nil when phone has no stored session.
func (c *Client) GetOtpSession(ctx context.Context, phone string) (*domain.OtpSession, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(otpSessionKey(phone)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get otp session: %w", err)
	}

	var session domain.OtpSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal otp session: %w", err)
	}

	attempts, err := c.client.Do(ctx, c.client.B().Get().Key(otpAttemptsKey(phone)).Build()).AsInt64()
	switch {
	case err == nil:
		session.Attempts = int(attempts)
	case !valkey.IsValkeyNil(err):
		return nil, fmt.Errorf("failed to get otp attempts: %w", err)
	}

	return &session, nil
}

// IncrementOtpAttempts counts one verification attempt with INCR, so
// concurrent requests on any instance each get a distinct value.
func (c *Client) IncrementOtpAttempts(ctx context.Context, phone string, ttl time.Duration) (int, error) {
	key := otpAttemptsKey(phone)

	results := c.client.DoMulti(ctx,
		c.client.B().Incr().Key(key).Build(),
		c.client.B().Expire().Key(key).Seconds(int64(ttl/time.Second)).Build(),
	)

	attempts, err := results[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to count otp attempt: %w", err)
	}
	if err := results[1].Error(); err != nil {
		logger.Warnf("Failed to set expiry on %s: %v", key, err)
	}

	return int(attempts), nil
}

func (c *Client) DeleteOtpSession(ctx context.Context, phone string) error {
	cmd := c.client.B().Del().Key(otpSessionKey(phone), otpAttemptsKey(phone)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete otp session: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
