package tracker

import (
	"fmt"
	"time"

	"rollcall/backend/internal/models"
)

// FinalizeResult is the outcome of FinalizeStep as shown to the operator.
type FinalizeResult struct {
	Success      bool   `json:"success"`
	RoundNumber  int    `json:"round_number,omitempty"`
	Participants int    `json:"participants,omitempty"`
	Message      string `json:"message"`
}

// FinalizeStep moves the whole pending pool into a new round numbered
// currentRound+1 and pauses the session. An active session is swept first;
// other states are finalized as-is so the operator sees what they inspected.
func (s *Session) FinalizeStep(now time.Time) (FinalizeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.StatusStopped {
		return FinalizeResult{Message: ErrNotRunning.Error()}, ErrNotRunning
	}
	if s.status == models.StatusActive {
		evictInactive(s, now)
	}
	if len(s.pending) == 0 {
		return FinalizeResult{Message: ErrNothingToSave.Error()}, ErrNothingToSave
	}

	number := s.currentRound + 1
	round := models.NewRound(number)
	for userID, p := range s.pending {
		round.Participants[userID] = p
		s.location[userID] = number
	}
	s.rounds[number] = round
	s.pending = make(map[string]*models.Participant)
	s.currentRound = number
	s.status = models.StatusPaused
	s.previousStatus = ""

	return FinalizeResult{
		Success:      true,
		RoundNumber:  number,
		Participants: len(round.Participants),
		Message:      fmt.Sprintf("round %d saved with %d participants", number, len(round.Participants)),
	}, nil
}
