package tracker

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically evicts inactive participants so that eviction is
// visible without an explicit status read. A zero Interval disables it.
type Sweeper struct {
	Registry *Registry
	Interval time.Duration
}

// NewSweeper creates a Sweeper for the registry.
func NewSweeper(r *Registry, interval time.Duration) *Sweeper {
	return &Sweeper{Registry: r, Interval: interval}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval <= 0 {
		return
	}
	log.Printf("INFO: background sweep every %s", s.Interval)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Registry.SweepActive(); n > 0 {
				log.Printf("INFO: background sweep evicted %d participants", n)
			}
		}
	}
}
