package tracker

import (
	"time"

	"rollcall/backend/internal/models"
)

// evictInactive drops every record whose last activity is older than the
// session window, from the pending pool and from every round. Rounds left
// empty are removed; remaining rounds keep their numbers. The caller must
// hold s.mu. It returns the number of evicted records.
func evictInactive(s *Session, now time.Time) int {
	cutoff := now.Add(-s.window)
	evicted := evictFrom(s, s.pending, cutoff)

	for number, r := range s.rounds {
		evicted += evictFrom(s, r.Participants, cutoff)
		if len(r.Participants) == 0 {
			delete(s.rounds, number)
		}
	}
	return evicted
}

func evictFrom(s *Session, records map[string]*models.Participant, cutoff time.Time) int {
	n := 0
	for userID, p := range records {
		if p.LastActiveAt.Before(cutoff) {
			delete(records, userID)
			delete(s.location, userID)
			n++
		}
	}
	return n
}

// EvictInactive runs the eviction sweep if the session is active. Paused,
// locked and break states suspend the decay clock.
func (s *Session) EvictInactive(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusActive {
		return 0
	}
	return evictInactive(s, now)
}
