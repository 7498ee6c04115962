package status

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStatusPublisher publishes events on a per-session Redis channel so UIs
// attached to other processes can follow a session.
type RedisStatusPublisher struct {
	client goredis.UniversalClient
}

func NewRedisStatusPublisher(client goredis.UniversalClient) *RedisStatusPublisher {
	return &RedisStatusPublisher{client: client}
}

func (p *RedisStatusPublisher) Publish(ctx context.Context, event SessionStatusEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	if err := p.client.Publish(ctx, channelName(event.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

type RedisStatusSubscriber struct {
	client goredis.UniversalClient
}

func NewRedisStatusSubscriber(client goredis.UniversalClient) *RedisStatusSubscriber {
	return &RedisStatusSubscriber{client: client}
}

func (s *RedisStatusSubscriber) Subscribe(ctx context.Context, sessionID string) (StatusStream, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}

	pubsub := s.client.Subscribe(ctx, channelName(sessionID))
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream := &redisStatusStream{
		pubsub:    pubsub,
		events:    make(chan SessionStatusEvent, 8),
		errors:    make(chan error, 1),
		sessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go stream.run(streamCtx)
	return stream, nil
}

type redisStatusStream struct {
	pubsub    *goredis.PubSub
	events    chan SessionStatusEvent
	errors    chan error
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisStatusStream) Events() <-chan SessionStatusEvent {
	return s.events
}

func (s *redisStatusStream) Errors() <-chan error {
	return s.errors
}

func (s *redisStatusStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

func (s *redisStatusStream) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)
	defer close(s.errors)

	messages := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event SessionStatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.reportError(fmt.Errorf("decode status event: %w", err))
				continue
			}
			if event.SessionID == "" {
				event.SessionID = s.sessionID
			}
			select {
			case s.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *redisStatusStream) reportError(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
