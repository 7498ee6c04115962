package status

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) goredis.UniversalClient {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStatusRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	subscriber := NewRedisStatusSubscriber(client)
	stream, err := subscriber.Subscribe(ctx, "session-42")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	publisher := NewRedisStatusPublisher(client)
	event := SessionStatusEvent{
		SessionID: "session-42",
		Stage:     StageSynthesis,
		State:     StateCompleted,
		Detail:    "spoke 12 words",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-stream.Events():
		if got.Stage != event.Stage || got.State != event.State || got.Detail != event.Detail {
			t.Fatalf("unexpected event %+v", got)
		}
		if !got.Timestamp.Equal(event.Timestamp) {
			t.Fatalf("timestamp mismatch: %v", got.Timestamp)
		}
	case err := <-stream.Errors():
		t.Fatalf("stream error: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestRedisStatusPublisherRequiresSessionID(t *testing.T) {
	client := newTestRedis(t)
	publisher := NewRedisStatusPublisher(client)
	if err := publisher.Publish(context.Background(), SessionStatusEvent{Stage: StageListening}); err == nil {
		t.Fatal("expected error")
	}
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	if got := channelName("abc"); got != "agrivoice:session:abc:status" {
		t.Fatalf("unexpected channel %q", got)
	}
}
