package eventbus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"rollcall/backend/internal/config"
)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease elects the single instance that owns the tracker. The holder is
// the only process allowed to poll Telegram and consume relayed events.
type Lease struct {
	Redis  *redis.Client
	Key    string
	Holder string
	TTL    time.Duration
}

// NewLease creates a lease on the default owner key.
func NewLease(rdb *redis.Client, holder string, ttl time.Duration) *Lease {
	return &Lease{
		Redis:  rdb,
		Key:    config.OwnerLeaseKey,
		Holder: holder,
		TTL:    ttl,
	}
}

// Acquire takes the lease if it is free. Holding it already counts as success.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.Redis.SetNX(ctx, l.Key, l.Holder, l.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", l.Key, err)
	}
	if ok {
		return true, nil
	}
	return l.Renew(ctx)
}

// Renew extends the lease only if this instance still holds it.
func (l *Lease) Renew(ctx context.Context) (bool, error) {
	n, err := renewScript.Run(ctx, l.Redis, []string{l.Key}, l.Holder, l.TTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to renew lease %s: %w", l.Key, err)
	}
	return n == 1, nil
}

// Release gives the lease up if this instance holds it.
func (l *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.Redis, []string{l.Key}, l.Holder).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", l.Key, err)
	}
	return nil
}

// Hold keeps trying to acquire the lease until ctx is done. While held,
// owned runs with a context that is cancelled as soon as the lease is lost.
func (l *Lease) Hold(ctx context.Context, owned func(ctx context.Context)) {
	tick := l.TTL / 3
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var (
		cancelOwned context.CancelFunc
		ownedDone   chan struct{}
	)
	stopOwned := func() {
		if cancelOwned == nil {
			return
		}
		cancelOwned()
		<-ownedDone
		cancelOwned = nil
	}
	defer func() {
		stopOwned()
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil {
			log.Printf("WARN: %v", err)
		}
	}()

	for {
		held, err := l.Acquire(ctx)
		if err != nil && ctx.Err() == nil {
			log.Printf("ERROR: %v", err)
		}

		switch {
		case held && cancelOwned == nil:
			log.Printf("INFO: instance %s now owns the tracker", l.Holder)
			var ownedCtx context.Context
			ownedCtx, cancelOwned = context.WithCancel(ctx)
			ownedDone = make(chan struct{})
			go func() {
				defer close(ownedDone)
				owned(ownedCtx)
			}()
		case !held && cancelOwned != nil:
			log.Printf("WARN: instance %s lost tracker ownership", l.Holder)
			stopOwned()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
