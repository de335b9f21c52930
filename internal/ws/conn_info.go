package ws

import "time"

// ConnInfo identifies the owner of a socket connection.
type ConnInfo struct {
	ConnID      string
	UserID      int
	Username    string
	DeviceID    string
	IP          string
	ConnectedAt time.Time
}
