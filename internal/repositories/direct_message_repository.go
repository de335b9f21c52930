package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"academy-chat/internal/models"
)

// DirectMessageRepository is the append-only store for direct messages.
type DirectMessageRepository interface {
	Append(ctx context.Context, conversationID int, senderID int, senderName string, body string) (models.DirectMessage, error)
	History(ctx context.Context, conversationID int, limit int) ([]models.DirectMessage, error)
}

// DirectMessageRepo is a sqlx-backed repository.
type DirectMessageRepo struct {
	db *sqlx.DB
}

// NewDirectMessageRepo constructs DirectMessageRepo.
func NewDirectMessageRepo(db *sqlx.DB) *DirectMessageRepo {
	return &DirectMessageRepo{db: db}
}

// Append persists a direct message and returns the stored row.
func (r *DirectMessageRepo) Append(ctx context.Context, conversationID int, senderID int, senderName string, body string) (models.DirectMessage, error) {
	var stored models.DirectMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO direct_messages (conversation_id, sender_id, sender_name, body)
         VALUES ($1, $2, $3, $4)
         RETURNING id, conversation_id, sender_id, sender_name, body, created_at`,
		conversationID, senderID, senderName, body).StructScan(&stored)
	return stored, err
}

// History returns the most recent direct messages, newest-last.
func (r *DirectMessageRepo) History(ctx context.Context, conversationID int, limit int) ([]models.DirectMessage, error) {
	query := `SELECT id, conversation_id, sender_id, sender_name, body, created_at
        FROM (
            SELECT id, conversation_id, sender_id, sender_name, body, created_at
            FROM direct_messages
            WHERE conversation_id=$1
            ORDER BY created_at DESC, id DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC, id ASC`
	msgs := []models.DirectMessage{}
	err := r.db.SelectContext(ctx, &msgs, query, conversationID, limit)
	return msgs, err
}
