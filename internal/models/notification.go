package models

import "time"

// Notification categories used for preference toggles and push payloads.
const (
	CategoryDirectMessage = "direct_message"
	CategoryRoomMessage   = "room_message"
	CategoryMention       = "mention"
	CategoryAnnouncement  = "announcement"
)

// NotificationPreference holds per-user push flags. QuietStart/QuietEnd are
// "HH:MM" times of day; a window whose start equals its end is never quiet.
type NotificationPreference struct {
	UserID         int       `db:"user_id" json:"user_id"`
	PushEnabled    bool      `db:"push_enabled" json:"push_enabled"`
	DirectMessages bool      `db:"direct_messages" json:"direct_messages"`
	RoomMessages   bool      `db:"room_messages" json:"room_messages"`
	Mentions       bool      `db:"mentions" json:"mentions"`
	Announcements  bool      `db:"announcements" json:"announcements"`
	QuietStart     *string   `db:"quiet_start" json:"quiet_start,omitempty"`
	QuietEnd       *string   `db:"quiet_end" json:"quiet_end,omitempty"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultPreference is used when a user has never saved a preference row.
func DefaultPreference(userID int) NotificationPreference {
	return NotificationPreference{
		UserID:         userID,
		PushEnabled:    true,
		DirectMessages: true,
		RoomMessages:   true,
		Mentions:       true,
		Announcements:  true,
	}
}

// CategoryEnabled reports whether the given category toggle is on.
func (p NotificationPreference) CategoryEnabled(category string) bool {
	switch category {
	case CategoryDirectMessage:
		return p.DirectMessages
	case CategoryRoomMessage:
		return p.RoomMessages
	case CategoryMention:
		return p.Mentions
	case CategoryAnnouncement:
		return p.Announcements
	default:
		return false
	}
}

// PushDestination is one device token for a user. Invalid tokens are
// deactivated, never deleted.
type PushDestination struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	Platform  string    `db:"platform" json:"platform"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
