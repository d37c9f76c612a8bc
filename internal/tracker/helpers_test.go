package tracker_test

import (
	"sync"
	"time"

	"rollcall/backend/internal/models"
	"rollcall/backend/internal/tracker"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry() (*tracker.Registry, *fakeClock) {
	clk := newFakeClock()
	return tracker.NewRegistry(clk), clk
}

// placements counts how many places (pending pool or rounds) hold each user.
func placements(snap models.SessionSnapshot) map[string]int {
	seen := make(map[string]int)
	for _, p := range snap.Pending.Participants {
		seen[p.UserID]++
	}
	for _, r := range snap.Rounds {
		for _, p := range r.Participants {
			seen[p.UserID]++
		}
	}
	return seen
}

func userIDs(views []models.ParticipantView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.UserID)
	}
	return ids
}
