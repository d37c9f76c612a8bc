package tracker

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"rollcall/backend/internal/clock"
	"rollcall/backend/internal/models"
)

// Ingestor accepts inbound chat message events.
type Ingestor interface {
	Ingest(ctx context.Context, ev models.MessageEvent) error
}

// Registry maps group IDs to sessions. The registry lock only guards the
// map itself; each session carries its own lock, so groups never contend
// with each other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	Clock    clock.Clock
}

// NewRegistry creates an empty registry. A nil clock means the system clock.
func NewRegistry(c clock.Clock) *Registry {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Registry{
		sessions: make(map[string]*Session),
		Clock:    c,
	}
}

// Session returns the session of groupID, creating a stopped one on first use.
func (r *Registry) Session(groupID string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[groupID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[groupID]; ok {
		return s
	}
	s = NewSession(groupID)
	r.sessions[groupID] = s
	return s
}

// Groups lists every group that has a session, sorted.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	ids := lo.Keys(r.sessions)
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (r *Registry) Start(groupID string, minutes int) (bool, error) {
	return r.Session(groupID).Start(minutes)
}

func (r *Registry) Pause(groupID string) (bool, error) {
	return r.Session(groupID).Pause()
}

func (r *Registry) Lock(groupID string) (bool, error) {
	return r.Session(groupID).Lock()
}

func (r *Registry) Unlock(groupID string) (bool, error) {
	return r.Session(groupID).Unlock()
}

func (r *Registry) StartBreak(groupID string) (bool, error) {
	return r.Session(groupID).StartBreak(r.Clock.Now())
}

func (r *Registry) Resume(groupID string) (bool, error) {
	return r.Session(groupID).Resume(r.Clock.Now())
}

func (r *Registry) Stop(groupID string) (bool, error) {
	return r.Session(groupID).Stop()
}

func (r *Registry) FinalizeStep(groupID string) (FinalizeResult, error) {
	return r.Session(groupID).FinalizeStep(r.Clock.Now())
}

func (r *Registry) ClearRollData(groupID string) {
	r.Session(groupID).ClearRollData()
}

func (r *Registry) Status(groupID string) models.SessionStatus {
	return r.Session(groupID).CurrentStatus()
}

func (r *Registry) RecordMessage(groupID, userID, displayName string) bool {
	return r.Session(groupID).RecordMessage(userID, displayName, r.Clock.Now())
}

func (r *Registry) StatusReport(groupID string) string {
	return r.Session(groupID).StatusReport(r.Clock.Now())
}

func (r *Registry) RoundReport(groupID string) string {
	return r.Session(groupID).RoundReport(r.Clock.Now())
}

func (r *Registry) StatusSnapshot(groupID string) models.SessionSnapshot {
	return r.Session(groupID).StatusSnapshot(r.Clock.Now())
}

func (r *Registry) Snapshot(groupID string) models.SessionSnapshot {
	return r.Session(groupID).Snapshot(r.Clock.Now())
}

// Ingest records a webhook event. Events for groups that never had a
// session are dropped without creating one.
func (r *Registry) Ingest(_ context.Context, ev models.MessageEvent) error {
	r.mu.RLock()
	s, ok := r.sessions[ev.GroupID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	s.RecordMessage(ev.UserID, ev.DisplayName(), r.Clock.Now())
	return nil
}

// SweepActive runs the eviction sweep over every active session and
// returns the total number of evicted records.
func (r *Registry) SweepActive() int {
	r.mu.RLock()
	sessions := lo.Values(r.sessions)
	r.mu.RUnlock()

	now := r.Clock.Now()
	total := 0
	for _, s := range sessions {
		total += s.EvictInactive(now)
	}
	return total
}
