// Package tracker implements the group activity roll: a per-group, in-memory
// state machine that counts chat activity, evicts silent participants and
// freezes the active roster into numbered rounds on operator request.
package tracker

import (
	"sync"
	"time"

	"rollcall/backend/internal/config"
	"rollcall/backend/internal/models"
)

// pendingSlot marks a participant that lives in the pending pool rather than a round.
const pendingSlot = 0

// Session is the roll state of a single group. All methods are safe for
// concurrent use; mutations of one session are serialized by its mutex.
type Session struct {
	mu sync.Mutex

	groupID        string
	status         models.SessionStatus
	previousStatus models.SessionStatus
	window         time.Duration
	currentRound   int
	rounds         map[int]*models.Round
	pending        map[string]*models.Participant
	// location maps userID to the round holding it, pendingSlot for the pool.
	location map[string]int
	seq      uint64
}

// NewSession creates a stopped, empty session for groupID.
func NewSession(groupID string) *Session {
	s := &Session{
		groupID: groupID,
		status:  models.StatusStopped,
	}
	s.reset()
	return s
}

// GroupID returns the group the session belongs to.
func (s *Session) GroupID() string {
	return s.groupID
}

// CurrentStatus returns the session status.
func (s *Session) CurrentStatus() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) reset() {
	s.rounds = make(map[int]*models.Round)
	s.pending = make(map[string]*models.Participant)
	s.location = make(map[string]int)
}

// Start opens a new roll with the given inactivity window. Previous rounds,
// the pending pool and the round counter are discarded. Only a stopped
// session can be started; otherwise Start is a no-op.
func (s *Session) Start(minutes int) (bool, error) {
	if minutes < config.MinWindowMinutes {
		return false, ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusStopped {
		return false, nil
	}
	s.reset()
	s.currentRound = 0
	s.seq = 0
	s.window = time.Duration(minutes) * time.Minute
	s.previousStatus = ""
	s.status = models.StatusActive
	return true, nil
}

// Pause moves an active session to paused.
func (s *Session) Pause() (bool, error) {
	return s.transition(models.StatusActive, models.StatusPaused)
}

// Lock freezes the roster of an active session.
func (s *Session) Lock() (bool, error) {
	return s.transition(models.StatusActive, models.StatusLocked)
}

// Unlock reopens a locked session to new participants.
func (s *Session) Unlock() (bool, error) {
	return s.transition(models.StatusLocked, models.StatusActive)
}

func (s *Session) transition(from, to models.SessionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.StatusStopped {
		return false, ErrNotRunning
	}
	if s.status != from {
		return false, nil
	}
	s.status = to
	return true, nil
}

// StartBreak suspends an active or paused session. Every live record is
// re-stamped with now so the break does not count as silence.
func (s *Session) StartBreak(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case models.StatusStopped:
		return false, ErrNotRunning
	case models.StatusActive, models.StatusPaused:
	default:
		return false, nil
	}
	s.previousStatus = s.status
	s.status = models.StatusBreak
	s.touchAll(now)
	return true, nil
}

// Resume ends a break (restoring the status held before it) or reopens a
// paused session. Every live record is re-stamped with now.
func (s *Session) Resume(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case models.StatusStopped:
		return false, ErrNotRunning
	case models.StatusBreak:
		s.status = s.previousStatus
		if s.status == "" {
			s.status = models.StatusActive
		}
		s.previousStatus = ""
	case models.StatusPaused:
		s.status = models.StatusActive
	default:
		return false, nil
	}
	s.touchAll(now)
	return true, nil
}

// Stop ends the roll. Data stays readable until the next Start.
func (s *Session) Stop() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.StatusStopped {
		return false, ErrNotRunning
	}
	s.status = models.StatusStopped
	s.previousStatus = ""
	return true, nil
}

// ClearRollData wipes rounds and the pending pool but keeps the status and
// the round counter, so round numbers are never handed out twice.
func (s *Session) ClearRollData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) touchAll(now time.Time) {
	for _, p := range s.pending {
		p.LastActiveAt = now
	}
	for _, r := range s.rounds {
		for _, p := range r.Participants {
			p.LastActiveAt = now
		}
	}
}

// lookup returns the live record for userID, wherever it is held.
func (s *Session) lookup(userID string) (*models.Participant, bool) {
	slot, ok := s.location[userID]
	if !ok {
		return nil, false
	}
	if slot == pendingSlot {
		p, ok := s.pending[userID]
		return p, ok
	}
	r, ok := s.rounds[slot]
	if !ok {
		return nil, false
	}
	p, ok := r.Participants[userID]
	return p, ok
}
