package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulink/edulink-api/internal/models"
)

// MessageRepository manages persistence for direct messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO messages (id, sender_id, receiver_id, content, file_url, is_read, created_at)
        VALUES (:id, :sender_id, :receiver_id, :content, :file_url, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// Conversation returns every message exchanged between two users, oldest first.
func (r *MessageRepository) Conversation(ctx context.Context, userID, otherID string) ([]models.MessageDetail, error) {
	const query = `SELECT m.id, m.sender_id, m.receiver_id, m.content, m.file_url, m.is_read, m.created_at,
               s.name AS sender_name, s.role AS sender_role,
               t.name AS receiver_name, t.role AS receiver_role
        FROM messages m
        JOIN users s ON s.id = m.sender_id
        JOIN users t ON t.id = m.receiver_id
        WHERE (m.sender_id = $1 AND m.receiver_id = $2)
           OR (m.sender_id = $2 AND m.receiver_id = $1)
        ORDER BY m.created_at ASC`
	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, userID, otherID); err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return messages, nil
}

// ListForUser returns every message the user sent or received, newest first.
func (r *MessageRepository) ListForUser(ctx context.Context, userID string) ([]models.MessageDetail, error) {
	const query = `SELECT m.id, m.sender_id, m.receiver_id, m.content, m.file_url, m.is_read, m.created_at,
               s.name AS sender_name, s.role AS sender_role,
               t.name AS receiver_name, t.role AS receiver_role
        FROM messages m
        JOIN users s ON s.id = m.sender_id
        JOIN users t ON t.id = m.receiver_id
        WHERE m.sender_id = $1 OR m.receiver_id = $1
        ORDER BY m.created_at DESC`
	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// MarkConversationRead flags every message the user received from the other
// party as read.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, userID, otherID string) error {
	const query = `UPDATE messages SET is_read = TRUE
        WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, otherID); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}
