// Package coord shares refresh cadence across replicas and browser
// sessions. Last-refresh timestamps live in Redis keys and every completed
// refresh is announced on a pub/sub channel, so independent schedulers
// converge instead of each hammering the data service on its own timer.
package coord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Coordinator provides scope-namespaced Redis operations. The scope
// (deployment environment) prefixes every key and channel. Safe for
// concurrent use.
type Coordinator struct {
	rdb   *redis.Client
	scope string
}

func New(opts *redis.Options, scope string) (*Coordinator, error) {
	if scope == "" {
		return nil, fmt.Errorf("coordination scope cannot be empty")
	}
	return &Coordinator{
		rdb:   redis.NewClient(opts),
		scope: scope,
	}, nil
}

func (c *Coordinator) Close() error {
	return c.rdb.Close()
}

func (c *Coordinator) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Coordinator) refreshKey(uid, stream string) string {
	return fmt.Sprintf("dash:%s:last_refresh:%s:%s", c.scope, uid, stream)
}

func (c *Coordinator) eventsChannel(uid string) string {
	return fmt.Sprintf("dash:%s:refresh_events:%s", c.scope, uid)
}

// RefreshEvent is published after every completed refresh.
type RefreshEvent struct {
	UID    string    `json:"uid"`
	Stream string    `json:"stream"`
	At     time.Time `json:"at"`
}

// LastRefresh returns the shared last-refresh timestamp for a stream, or
// the zero time when no refresh has been recorded.
func (c *Coordinator) LastRefresh(ctx context.Context, uid, stream string) (time.Time, error) {
	val, err := c.rdb.Get(ctx, c.refreshKey(uid, stream)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last refresh: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last refresh timestamp: %w", err)
	}
	return ts, nil
}

// RecordRefresh stores the timestamp and announces the refresh. The key
// expires after a day; a session idle longer than that refreshes anyway.
func (c *Coordinator) RecordRefresh(ctx context.Context, uid, stream string, at time.Time) error {
	key := c.refreshKey(uid, stream)
	if err := c.rdb.Set(ctx, key, at.Format(time.RFC3339Nano), 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to record refresh: %w", err)
	}

	payload, err := json.Marshal(RefreshEvent{UID: uid, Stream: stream, At: at})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}
	if err := c.rdb.Publish(ctx, c.eventsChannel(uid), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}
	return nil
}

// Subscription is an active subscription to a user's refresh events.
// Callers must Close it when done.
type Subscription struct {
	events chan RefreshEvent
	errors chan error
	cancel context.CancelFunc
}

func (s *Subscription) Events() <-chan RefreshEvent { return s.events }
func (s *Subscription) Errors() <-chan error        { return s.errors }

func (s *Subscription) Close() error {
	s.cancel()
	return nil
}

// Subscribe delivers refresh events for one user scope until the context
// is cancelled or the subscription is closed.
func (c *Coordinator) Subscribe(ctx context.Context, uid string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, c.eventsChannel(uid))

	// Wait for the subscribe confirmation so no event published right
	// after this call returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to refresh events: %w", err)
	}

	eventsChan := make(chan RefreshEvent, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt RefreshEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal refresh event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				select {
				case eventsChan <- evt:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancel,
	}, nil
}
