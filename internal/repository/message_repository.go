package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

const messageColumns = `id, kind, phone_number, content, template_language, template_params,
	status, message_id, error, sent_at, created_at, updated_at`

// MessageRepository stores the log of every outbound WhatsApp message.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	query := `
		INSERT INTO messages
			(kind, phone_number, content, template_language, template_params, status, message_id, error, sent_at)
		VALUES
			(:kind, :phone_number, :content, :template_language, :template_params, :status, :message_id, :error, :sent_at)
	`

	result, err := r.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetPending returns queued messages, oldest first.
func (r *MessageRepository) GetPending(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`

	var messages []domain.Message
	if err := r.db.SelectContext(ctx, &messages, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	return messages, nil
}

func (r *MessageRepository) MarkAsSent(ctx context.Context, id int64, messageID string, sentAt time.Time) error {
	query := `
		UPDATE messages
		SET status = 'sent', message_id = ?, error = NULL, sent_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, messageID, sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark message as sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *MessageRepository) MarkAsFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE messages
		SET status = 'failed', error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, reason, id); err != nil {
		return fmt.Errorf("failed to mark message as failed: %w", err)
	}

	return nil
}

func (r *MessageRepository) GetSent(ctx context.Context, page, pageSize int) ([]domain.Message, int64, error) {
	offset := (page - 1) * pageSize

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM messages WHERE status = 'sent'"); err != nil {
		return nil, 0, fmt.Errorf("failed to count sent messages: %w", err)
	}

	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE status = 'sent'
		ORDER BY sent_at DESC
		LIMIT ? OFFSET ?
	`

	var messages []domain.Message
	if err := r.db.SelectContext(ctx, &messages, query, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to get sent messages: %w", err)
	}

	return messages, totalCount, nil
}

// GetByID returns nil, nil when no row matches.
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	var message domain.Message
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &message, nil
}

func (r *MessageRepository) GetAll(
	ctx context.Context,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.Message, int64, error) {
	offset := (page - 1) * pageSize

	where := ""
	var args []any
	if status != nil {
		where = "WHERE status = ?"
		args = append(args, *status)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM messages "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + `
		FROM messages
		` + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	var messages []domain.Message
	if err := r.db.SelectContext(ctx, &messages, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to get messages: %w", err)
	}

	return messages, totalCount, nil
}

func (r *MessageRepository) GetStats(ctx context.Context) (pending, sent, failed int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0)    AS sent,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)  AS failed
		FROM messages
	`

	var stats struct {
		Pending int64 `db:"pending"`
		Sent    int64 `db:"sent"`
		Failed  int64 `db:"failed"`
	}

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats.Pending, stats.Sent, stats.Failed, nil
}

// ReplayFailedByID puts a failed message back in the queue.
func (r *MessageRepository) ReplayFailedByID(ctx context.Context, id int64) error {
	query := `
		UPDATE messages
		SET status = 'pending',
		    message_id = NULL,
		    error = NULL,
		    sent_at = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'failed'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to replay failed message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("failed message %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *MessageRepository) ReplayAllFailed(ctx context.Context) (int64, error) {
	query := `
		UPDATE messages
		SET status = 'pending',
		    message_id = NULL,
		    error = NULL,
		    sent_at = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE status = 'failed'
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to replay failed messages: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}
