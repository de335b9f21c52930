package models

import "time"

// Conversation is a two-party direct-message thread, created lazily on first
// contact and never deleted.
type Conversation struct {
	ID        int       `db:"id" json:"id"`
	User1ID   int       `db:"user1_id" json:"user1_id"`
	User2ID   int       `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant reports whether userID belongs to the conversation.
func (c Conversation) Participant(userID int) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID int) int {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// DirectMessage is an immutable message inside a conversation.
type DirectMessage struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	SenderName     string    `db:"sender_name" json:"sender_name"`
	Body           string    `db:"body" json:"body"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ConversationSummary is the API view of a conversation for one user.
type ConversationSummary struct {
	ConversationID int       `db:"id" json:"conversation_id"`
	FriendID       int       `json:"friend_id"`
	UnreadCount    int       `db:"unread_count" json:"unread_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
