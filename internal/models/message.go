package models

import (
	"time"

	"github.com/lib/pq"
)

// Rooms is the closed set of group-chat channels. Room names outside this set
// are rejected at the API boundary.
var Rooms = []string{"general", "announcements", "training", "matchday", "parents"}

const (
	// MaxBodyLength is the message body ceiling in runes.
	MaxBodyLength = 2000
	// MaxImageBytes is the attachment ceiling, checked before storage is touched.
	MaxImageBytes = 5 << 20
)

// ValidRoom reports whether room belongs to the fixed room set.
func ValidRoom(room string) bool {
	for _, r := range Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// Message is an immutable room message.
type Message struct {
	ID         int           `db:"id" json:"id"`
	Room       string        `db:"room" json:"room"`
	SenderID   int           `db:"sender_id" json:"sender_id"`
	SenderName string        `db:"sender_name" json:"sender_name"`
	Body       string        `db:"body" json:"body"`
	ImageURL   *string       `db:"image_url" json:"image_url,omitempty"`
	ImageKey   *string       `db:"image_key" json:"image_key,omitempty"`
	Mentions   pq.Int64Array `db:"mentions" json:"mentions,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}
