package status

import (
	"context"
	"fmt"
	"sync"
)

// Hub is an in-process Publisher and Subscriber. Slow subscribers drop events
// rather than block the pipeline.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*hubStream]struct{}
	buffer int
}

// NewHub creates a hub whose streams buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[string]map[*hubStream]struct{}), buffer: buffer}
}

// Publish fans the event out to every stream subscribed to its session.
func (h *Hub) Publish(ctx context.Context, event SessionStatusEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("session id required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for stream := range h.subs[event.SessionID] {
		select {
		case stream.events <- event:
		default:
			select {
			case stream.errors <- fmt.Errorf("subscriber lagging, dropped %s/%s", event.Stage, event.State):
			default:
			}
		}
	}
	return nil
}

// Subscribe opens a stream for sessionID. The stream closes when ctx is done
// or Close is called.
func (h *Hub) Subscribe(ctx context.Context, sessionID string) (StatusStream, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}

	stream := &hubStream{
		hub:       h,
		sessionID: sessionID,
		events:    make(chan SessionStatusEvent, h.buffer),
		errors:    make(chan error, 1),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*hubStream]struct{})
	}
	h.subs[sessionID][stream] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-stream.done:
		}
	}()

	return stream, nil
}

// Subscribers returns the number of open streams for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

func (h *Hub) remove(stream *hubStream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[stream.sessionID]; ok {
		delete(subs, stream)
		if len(subs) == 0 {
			delete(h.subs, stream.sessionID)
		}
	}
	close(stream.events)
	close(stream.errors)
}

type hubStream struct {
	hub       *Hub
	sessionID string
	events    chan SessionStatusEvent
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *hubStream) Events() <-chan SessionStatusEvent {
	return s.events
}

func (s *hubStream) Errors() <-chan error {
	return s.errors
}

func (s *hubStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.remove(s)
	})
	return nil
}
