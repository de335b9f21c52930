package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"academy-chat/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository manages two-party DM threads.
type ConversationRepository interface {
	CreateOrGet(ctx context.Context, userID int, otherID int) (models.Conversation, error)
	Get(ctx context.Context, conversationID int) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	MarkRead(ctx context.Context, conversationID int, userID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CreateOrGet returns the conversation between two users, creating it if none
// exists. Participants are stored in sorted order so the same pair always
// maps to the same row regardless of who initiates.
func (r *ConversationRepo) CreateOrGet(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	if userID == otherID {
		return models.Conversation{}, errors.New("cannot start conversation with self")
	}
	participants := []int{userID, otherID}
	sort.Ints(participants)
	user1, user2 := participants[0], participants[1]

	var conv models.Conversation
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO conversations (user1_id, user2_id) VALUES ($1, $2)
         ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = EXCLUDED.user1_id
         RETURNING id, user1_id, user2_id, created_at`,
		user1, user2).StructScan(&conv)
	return conv, err
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id, created_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns the user's conversations with unread counts derived
// from the read markers.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.user1_id, c.user2_id, c.created_at,
            COUNT(dm.id) FILTER (
                WHERE dm.sender_id <> $1
                AND dm.created_at > COALESCE(rm.last_read_at, 'epoch'::timestamptz)
            ) AS unread_count
        FROM conversations c
        LEFT JOIN read_markers rm ON rm.conversation_id = c.id AND rm.user_id = $1
        LEFT JOIN direct_messages dm ON dm.conversation_id = c.id
        WHERE c.user1_id=$1 OR c.user2_id=$1
        GROUP BY c.id, c.user1_id, c.user2_id, c.created_at, rm.last_read_at
        ORDER BY c.created_at DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ConversationSummary
	for rows.Next() {
		var row struct {
			models.Conversation
			UnreadCount int `db:"unread_count"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		result = append(result, models.ConversationSummary{
			ConversationID: row.ID,
			FriendID:       row.Other(userID),
			UnreadCount:    row.UnreadCount,
			CreatedAt:      row.Conversation.CreatedAt,
		})
	}
	return result, rows.Err()
}

// MarkRead advances the user's last-read marker to now.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO read_markers (conversation_id, user_id, last_read_at) VALUES ($1, $2, NOW())
         ON CONFLICT (conversation_id, user_id) DO UPDATE SET last_read_at = NOW()`,
		conversationID, userID)
	return err
}
