package models

import "time"

// User is a directory entry synced from the identity provider.
type User struct {
	ID          int       `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
