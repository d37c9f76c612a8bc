package models

import (
	"strings"
	"time"
)

// FallbackDisplayName is used when a sender has neither a username nor a first name.
const FallbackDisplayName = "participant"

// MessageEvent is one inbound chat message as delivered by the messaging webhook.
type MessageEvent struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id" binding:"required"`
	UserID     string    `json:"user_id" binding:"required"`
	Username   *string   `json:"username"`
	FirstName  *string   `json:"first_name"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// DisplayName derives the participant label: "@username", else the first
// name, else FallbackDisplayName.
func (e MessageEvent) DisplayName() string {
	if e.Username != nil {
		if u := strings.TrimSpace(*e.Username); u != "" {
			return "@" + strings.TrimPrefix(u, "@")
		}
	}
	if e.FirstName != nil {
		if f := strings.TrimSpace(*e.FirstName); f != "" {
			return f
		}
	}
	return FallbackDisplayName
}
