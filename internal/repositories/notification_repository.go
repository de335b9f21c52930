package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"academy-chat/internal/models"
)

// NotificationRepository stores per-user push preferences and destinations.
// Preferences are read fresh at send time, never cached across sends.
type NotificationRepository interface {
	GetPreference(ctx context.Context, userID int) (models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref models.NotificationPreference) (models.NotificationPreference, error)
	ActiveDestinations(ctx context.Context, userIDs []int) ([]models.PushDestination, error)
	RegisterDestination(ctx context.Context, userID int, token string, platform string) (models.PushDestination, error)
	DeactivateDestination(ctx context.Context, token string) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// GetPreference returns the user's preference row, or the default when the
// user never saved one.
func (r *NotificationRepo) GetPreference(ctx context.Context, userID int) (models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.GetContext(ctx, &pref,
		`SELECT user_id, push_enabled, direct_messages, room_messages, mentions, announcements,
            quiet_start, quiet_end, updated_at
         FROM notification_preferences WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPreference(userID), nil
	}
	return pref, err
}

// UpsertPreference saves the user's preference row.
func (r *NotificationRepo) UpsertPreference(ctx context.Context, pref models.NotificationPreference) (models.NotificationPreference, error) {
	var stored models.NotificationPreference
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notification_preferences
            (user_id, push_enabled, direct_messages, room_messages, mentions, announcements, quiet_start, quiet_end, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
         ON CONFLICT (user_id) DO UPDATE SET
            push_enabled = EXCLUDED.push_enabled,
            direct_messages = EXCLUDED.direct_messages,
            room_messages = EXCLUDED.room_messages,
            mentions = EXCLUDED.mentions,
            announcements = EXCLUDED.announcements,
            quiet_start = EXCLUDED.quiet_start,
            quiet_end = EXCLUDED.quiet_end,
            updated_at = NOW()
         RETURNING user_id, push_enabled, direct_messages, room_messages, mentions, announcements, quiet_start, quiet_end, updated_at`,
		pref.UserID, pref.PushEnabled, pref.DirectMessages, pref.RoomMessages, pref.Mentions,
		pref.Announcements, pref.QuietStart, pref.QuietEnd).StructScan(&stored)
	return stored, err
}

// ActiveDestinations returns all active push destinations for the given users.
func (r *NotificationRepo) ActiveDestinations(ctx context.Context, userIDs []int) ([]models.PushDestination, error) {
	if len(userIDs) == 0 {
		return []models.PushDestination{}, nil
	}
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, int64(id))
	}
	dests := []models.PushDestination{}
	err := r.db.SelectContext(ctx, &dests,
		`SELECT id, user_id, token, platform, active, created_at
         FROM push_destinations WHERE active AND user_id = ANY($1)`, pq.Int64Array(ids))
	return dests, err
}

// RegisterDestination records a device token for a user, reactivating it if
// the same token was registered before.
func (r *NotificationRepo) RegisterDestination(ctx context.Context, userID int, token string, platform string) (models.PushDestination, error) {
	var dest models.PushDestination
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO push_destinations (user_id, token, platform) VALUES ($1, $2, $3)
         ON CONFLICT (user_id, token) DO UPDATE SET active = TRUE, platform = EXCLUDED.platform
         RETURNING id, user_id, token, platform, active, created_at`,
		userID, token, platform).StructScan(&dest)
	return dest, err
}

// DeactivateDestination marks a token inactive after the provider reports it
// invalid. The row is kept for audit.
func (r *NotificationRepo) DeactivateDestination(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE push_destinations SET active = FALSE WHERE token=$1`, token)
	return err
}
