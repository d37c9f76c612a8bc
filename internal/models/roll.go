package models

import "time"

// SessionStatus is the lifecycle state of a group's roll session.
type SessionStatus string

const (
	StatusStopped SessionStatus = "stopped"
	StatusActive  SessionStatus = "active"
	StatusPaused  SessionStatus = "paused"
	StatusBreak   SessionStatus = "break"
	StatusLocked  SessionStatus = "locked"
)

// Participant is the activity record of one user within one group.
type Participant struct {
	// UserID is the platform identifier, unique within a group.
	UserID string
	// DisplayName is the best-available label, last write wins.
	DisplayName string
	// MessageCount grows by one for every admitted message.
	MessageCount int
	// LastActiveAt is refreshed on every admitted message and on break/resume.
	LastActiveAt time.Time
	// Seq is the session-wide insertion order, used to break ranking ties.
	Seq uint64
}

// Round is a numbered snapshot of participants frozen at finalization time.
// Membership is fixed; counters of members keep growing.
type Round struct {
	Number       int
	Participants map[string]*Participant
}

// NewRound creates an empty round with the given number.
func NewRound(number int) *Round {
	return &Round{
		Number:       number,
		Participants: make(map[string]*Participant),
	}
}

// ParticipantView is a read-only copy of a Participant used in reports.
type ParticipantView struct {
	Rank         int       `json:"rank"`
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	MessageCount int       `json:"message_count"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// RoundView is a ranked, read-only copy of a round or of the pending pool.
type RoundView struct {
	Number       int               `json:"number"`
	Pending      bool              `json:"pending"`
	Participants []ParticipantView `json:"participants"`
}

// SessionSnapshot is a consistent copy of a whole session taken under its lock.
type SessionSnapshot struct {
	GroupID            string        `json:"group_id"`
	Status             SessionStatus `json:"status"`
	WindowMinutes      int           `json:"window_minutes"`
	CurrentRoundNumber int           `json:"current_round_number"`
	Rounds             []RoundView   `json:"rounds"`
	Pending            RoundView     `json:"pending"`
	TakenAt            time.Time     `json:"taken_at"`
}
