package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"rollcall/backend/internal/config"
	"rollcall/backend/internal/eventbus"
	"rollcall/backend/internal/models"
)

type captureIngestor struct {
	events chan models.MessageEvent
}

func (c *captureIngestor) Ingest(_ context.Context, ev models.MessageEvent) error {
	c.events <- ev
	return nil
}

type EventBusTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	ctx    context.Context
}

func (s *EventBusTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.ctx = context.Background()
}

func (s *EventBusTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestEventBusTestSuite(t *testing.T) {
	suite.Run(t, new(EventBusTestSuite))
}

func (s *EventBusTestSuite) waitForSubscriber(channel string) {
	s.Require().Eventually(func() bool {
		n, err := s.client.PubSubNumSub(s.ctx, channel).Result()
		return err == nil && n[channel] > 0
	}, time.Second, 5*time.Millisecond)
}

func (s *EventBusTestSuite) TestRelay_DeliversEventsToSink() {
	// Arrange
	relay := eventbus.NewRelay(s.client)
	sink := &captureIngestor{events: make(chan models.MessageEvent, 1)}
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- relay.Consume(ctx, sink) }()
	s.waitForSubscriber(config.EventsChannel)

	// Act
	err := relay.Ingest(s.ctx, models.MessageEvent{
		GroupID:  "-100",
		UserID:   "42",
		Username: lo.ToPtr("alice"),
	})

	// Assert
	s.Require().NoError(err)
	select {
	case ev := <-sink.events:
		s.Equal("-100", ev.GroupID)
		s.Equal("42", ev.UserID)
		s.Equal("@alice", ev.DisplayName())
		s.NotEmpty(ev.ID, "publish assigns an event id")
	case <-time.After(time.Second):
		s.Fail("event was not relayed")
	}

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("consumer did not stop")
	}
}

func (s *EventBusTestSuite) TestRelay_SkipsMalformedPayloads() {
	relay := eventbus.NewRelay(s.client)
	sink := &captureIngestor{events: make(chan models.MessageEvent, 2)}
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	go relay.Consume(ctx, sink)
	s.waitForSubscriber(config.EventsChannel)

	s.Require().NoError(s.client.Publish(s.ctx, config.EventsChannel, "{not json").Err())
	s.Require().NoError(relay.Publish(s.ctx, models.MessageEvent{ID: "fixed", GroupID: "g", UserID: "u"}))

	select {
	case ev := <-sink.events:
		s.Equal("fixed", ev.ID)
	case <-time.After(time.Second):
		s.Fail("valid event after a malformed one was not relayed")
	}
}

func (s *EventBusTestSuite) TestLease_SingleHolder() {
	a := eventbus.NewLease(s.client, "instance-a", 10*time.Second)
	b := eventbus.NewLease(s.client, "instance-b", 10*time.Second)

	gotA, errA := a.Acquire(s.ctx)
	gotB, errB := b.Acquire(s.ctx)
	againA, errAgain := a.Acquire(s.ctx)

	s.NoError(errA)
	s.NoError(errB)
	s.NoError(errAgain)
	s.True(gotA)
	s.False(gotB)
	s.True(againA, "re-acquiring a held lease renews it")
	holder, err := s.mr.Get(config.OwnerLeaseKey)
	s.Require().NoError(err)
	s.Equal("instance-a", holder)
}

func (s *EventBusTestSuite) TestLease_ExpiresAndCanBeTakenOver() {
	a := eventbus.NewLease(s.client, "instance-a", 2*time.Second)
	b := eventbus.NewLease(s.client, "instance-b", 2*time.Second)
	_, err := a.Acquire(s.ctx)
	s.Require().NoError(err)

	s.mr.FastForward(3 * time.Second)
	gotB, err := b.Acquire(s.ctx)
	renewedA, renewErr := a.Renew(s.ctx)

	s.NoError(err)
	s.NoError(renewErr)
	s.True(gotB)
	s.False(renewedA, "an expired holder cannot renew someone else's lease")
}

func (s *EventBusTestSuite) TestLease_ReleaseOnlyByHolder() {
	a := eventbus.NewLease(s.client, "instance-a", 10*time.Second)
	b := eventbus.NewLease(s.client, "instance-b", 10*time.Second)
	_, err := a.Acquire(s.ctx)
	s.Require().NoError(err)

	s.NoError(b.Release(s.ctx))
	s.True(s.mr.Exists(config.OwnerLeaseKey))

	s.NoError(a.Release(s.ctx))
	s.False(s.mr.Exists(config.OwnerLeaseKey))
}

func (s *EventBusTestSuite) TestLease_HoldRunsOwnedWorkAndReleases() {
	lease := eventbus.NewLease(s.client, "instance-a", 300*time.Millisecond)
	ctx, cancel := context.WithCancel(s.ctx)

	started := make(chan struct{})
	stopped := make(chan struct{})
	holdDone := make(chan struct{})
	go func() {
		defer close(holdDone)
		lease.Hold(ctx, func(owned context.Context) {
			close(started)
			<-owned.Done()
			close(stopped)
		})
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		s.FailNow("owned work never started")
	}

	cancel()
	select {
	case <-holdDone:
	case <-time.After(time.Second):
		s.FailNow("Hold did not return")
	}
	select {
	case <-stopped:
	default:
		s.Fail("owned work was not stopped before Hold returned")
	}
	s.False(s.mr.Exists(config.OwnerLeaseKey))
}
