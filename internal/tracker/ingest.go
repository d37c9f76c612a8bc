package tracker

import (
	"time"

	"rollcall/backend/internal/models"
)

// RecordMessage attributes one chat message to userID. It reports whether
// the message was admitted.
//
// While active, an existing record (in any round or the pending pool) is
// updated and an unknown user gets a new pending record. While locked only
// existing records are updated. Stopped, paused and break ignore messages.
func (s *Session) RecordMessage(userID, displayName string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusActive && s.status != models.StatusLocked {
		return false
	}

	if p, ok := s.lookup(userID); ok {
		p.MessageCount++
		p.LastActiveAt = now
		p.DisplayName = displayName
		return true
	}

	if s.status == models.StatusLocked {
		return false
	}

	s.seq++
	s.pending[userID] = &models.Participant{
		UserID:       userID,
		DisplayName:  displayName,
		MessageCount: 1,
		LastActiveAt: now,
		Seq:          s.seq,
	}
	s.location[userID] = pendingSlot
	return true
}
