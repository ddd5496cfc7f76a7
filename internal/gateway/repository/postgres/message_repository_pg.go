package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/smsdispatch/gateway/internal/gateway/repository"
)

const messageColumns = `
	id, recipient, content, status, channel_type, provider_message_id,
	error_message, created_at, sent_at, updated_at,
	delivered_at, delivery_status, error_code, delivery_receipt_text`

type pgMessageRepository struct {
	db *pgxpool.Pool
}

// NewPgMessageRepository creates a MessageRepository backed by PostgreSQL.
func NewPgMessageRepository(db *pgxpool.Pool) repository.MessageRepository {
	return &pgMessageRepository{db: db}
}

func (r *pgMessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Status == "" {
		msg.Status = domain.MessageStatusCreated
	}

	query := `
		INSERT INTO messages (
			id, recipient, content, status, channel_type, provider_message_id,
			error_message, created_at, sent_at, updated_at,
			delivered_at, delivery_status, error_code, delivery_receipt_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.Recipient, msg.Content, msg.Status, msg.ChannelType, msg.ProviderMessageID,
		msg.ErrorMessage, msg.CreatedAt, msg.SentAt, msg.UpdatedAt,
		msg.DeliveredAt, msg.DeliveryStatus, msg.ErrorCode, msg.DeliveryReceiptText,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *pgMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *pgMessageRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE provider_message_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, providerMessageID))
}

func (r *pgMessageRepository) List(ctx context.Context, limit, offset int) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *pgMessageRepository) UpdateSendOutcome(ctx context.Context, id string, status domain.MessageStatus,
	providerMessageID *string, errorMessage *string, sentAt *time.Time) error {
	now := time.Now().UTC()
	query := `
		UPDATE messages
		SET status = $2,
		    provider_message_id = COALESCE($3, provider_message_id),
		    error_message = $4,
		    sent_at = COALESCE($5, sent_at),
		    updated_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, status, providerMessageID, errorMessage, sentAt, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) UpdateDeliveryInfo(ctx context.Context, id string, status domain.MessageStatus,
	deliveredAt *time.Time, deliveryStatus, errorCode, receiptText *string) error {
	now := time.Now().UTC()
	query := `
		UPDATE messages
		SET status = $2,
		    delivered_at = COALESCE($3, delivered_at),
		    delivery_status = COALESCE($4, delivery_status),
		    error_code = COALESCE($5, error_code),
		    delivery_receipt_text = COALESCE($6, delivery_receipt_text),
		    updated_at = $7
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, status, deliveredAt, deliveryStatus, errorCode, receiptText, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) error {
	now := time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) ListAwaitingReceipt(ctx context.Context, sentBefore time.Time, limit int) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE status = $1 AND sent_at < $2
		ORDER BY sent_at ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, domain.MessageStatusSent, sentBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *pgMessageRepository) scanOne(row pgx.Row) (*domain.Message, error) {
	msg := &domain.Message{}
	err := row.Scan(
		&msg.ID, &msg.Recipient, &msg.Content, &msg.Status, &msg.ChannelType, &msg.ProviderMessageID,
		&msg.ErrorMessage, &msg.CreatedAt, &msg.SentAt, &msg.UpdatedAt,
		&msg.DeliveredAt, &msg.DeliveryStatus, &msg.ErrorCode, &msg.DeliveryReceiptText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (r *pgMessageRepository) scanAll(rows pgx.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		msg := &domain.Message{}
		err := rows.Scan(
			&msg.ID, &msg.Recipient, &msg.Content, &msg.Status, &msg.ChannelType, &msg.ProviderMessageID,
			&msg.ErrorMessage, &msg.CreatedAt, &msg.SentAt, &msg.UpdatedAt,
			&msg.DeliveredAt, &msg.DeliveryStatus, &msg.ErrorCode, &msg.DeliveryReceiptText,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
