// Package audit records authentication activity. Every registration and
// login attempt (successful or not) is captured as an Entry and persisted
// to the auth_activity table. Recording is fire-and-forget: a failure to
// write an entry never blocks or fails the auth operation it describes.
package audit

import "time"

// Entry represents a single recorded authentication event.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email"`
	Action    string    `json:"action"`
	RemoteIP  string    `json:"remoteIp,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
