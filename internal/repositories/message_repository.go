package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"academy-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// NewMessage carries the fields of a room message before persistence.
type NewMessage struct {
	Room       string
	SenderID   int
	SenderName string
	Body       string
	ImageURL   *string
	ImageKey   *string
	Mentions   []int64
}

// MessageRepository is the append-only store for room messages. Messages are
// immutable once persisted; there is no update or delete path.
type MessageRepository interface {
	Append(ctx context.Context, msg NewMessage) (models.Message, error)
	History(ctx context.Context, room string, limit int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append persists a room message and returns the stored row.
func (r *MessageRepo) Append(ctx context.Context, msg NewMessage) (models.Message, error) {
	var stored models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room, sender_id, sender_name, body, image_url, image_key, mentions)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, room, sender_id, sender_name, body, image_url, image_key, mentions, created_at`,
		msg.Room, msg.SenderID, msg.SenderName, msg.Body, msg.ImageURL, msg.ImageKey, pq.Int64Array(msg.Mentions)).
		StructScan(&stored)
	return stored, err
}

// History returns the most recent messages for a room, newest-last, ordered
// by creation time with ties broken by id.
func (r *MessageRepo) History(ctx context.Context, room string, limit int) ([]models.Message, error) {
	query := `SELECT id, room, sender_id, sender_name, body, image_url, image_key, mentions, created_at
        FROM (
            SELECT id, room, sender_id, sender_name, body, image_url, image_key, mentions, created_at
            FROM messages
            WHERE room=$1
            ORDER BY created_at DESC, id DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, room, limit)
	return msgs, err
}
