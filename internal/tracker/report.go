package tracker

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"rollcall/backend/internal/models"
)

// Snapshot copies the session without sweeping. Safe to call in any state.
func (s *Session) Snapshot(now time.Time) models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(now)
}

// StatusSnapshot sweeps an active session before copying it, so the result
// reflects current activity.
func (s *Session) StatusSnapshot(now time.Time) models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.StatusActive {
		evictInactive(s, now)
	}
	return s.snapshot(now)
}

// StatusReport renders the swept snapshot as ranked text.
func (s *Session) StatusReport(now time.Time) string {
	return RenderReport(s.StatusSnapshot(now))
}

// RoundReport renders the unswept snapshot; used to export final results after stop.
func (s *Session) RoundReport(now time.Time) string {
	return RenderReport(s.Snapshot(now))
}

func (s *Session) snapshot(now time.Time) models.SessionSnapshot {
	numbers := lo.Keys(s.rounds)
	slices.Sort(numbers)

	return models.SessionSnapshot{
		GroupID:            s.groupID,
		Status:             s.status,
		WindowMinutes:      int(s.window / time.Minute),
		CurrentRoundNumber: s.currentRound,
		Rounds: lo.Map(numbers, func(n int, _ int) models.RoundView {
			return models.RoundView{Number: n, Participants: rank(s.rounds[n].Participants)}
		}),
		Pending: models.RoundView{
			Number:       s.currentRound + 1,
			Pending:      true,
			Participants: rank(s.pending),
		},
		TakenAt: now,
	}
}

// rank orders records by message count, highest first; ties keep insertion order.
func rank(records map[string]*models.Participant) []models.ParticipantView {
	ordered := lo.Values(records)
	slices.SortFunc(ordered, func(a, b *models.Participant) int {
		if c := cmp.Compare(b.MessageCount, a.MessageCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	return lo.Map(ordered, func(p *models.Participant, i int) models.ParticipantView {
		return models.ParticipantView{
			Rank:         i + 1,
			UserID:       p.UserID,
			DisplayName:  p.DisplayName,
			MessageCount: p.MessageCount,
			LastActiveAt: p.LastActiveAt,
		}
	})
}

// RenderReport formats a snapshot as the multi-round ranked text sent to the chat.
func RenderReport(snap models.SessionSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Roll status: %s", snap.Status)
	if snap.WindowMinutes > 0 {
		fmt.Fprintf(&b, " (inactivity window %d min)", snap.WindowMinutes)
	}
	b.WriteString("\n")

	for _, r := range snap.Rounds {
		fmt.Fprintf(&b, "\nRound %d:\n", r.Number)
		writeParticipants(&b, r.Participants)
	}

	fmt.Fprintf(&b, "\nRound %d (pending):\n", snap.Pending.Number)
	writeParticipants(&b, snap.Pending.Participants)
	return b.String()
}

func writeParticipants(b *strings.Builder, participants []models.ParticipantView) {
	if len(participants) == 0 {
		b.WriteString("  (empty)\n")
		return
	}
	for _, p := range participants {
		fmt.Fprintf(b, "  %d. %s: %d\n", p.Rank, p.DisplayName, p.MessageCount)
	}
}
