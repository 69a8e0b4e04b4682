package api

import "sync"

// StreamEvent is what the SSE endpoint and the websocket sync push to the
// display layer after every mutation or run.
type StreamEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type eventStream struct {
	mu       sync.RWMutex
	nextID   int
	watchers map[int]chan StreamEvent
}

func newEventStream() *eventStream {
	return &eventStream{watchers: map[int]chan StreamEvent{}}
}

func (s *eventStream) subscribe(buffer int) (int, <-chan StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buffer <= 0 {
		buffer = 64
	}
	id := s.nextID
	s.nextID++
	ch := make(chan StreamEvent, buffer)
	s.watchers[id] = ch
	return id, ch
}

func (s *eventStream) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.watchers[id]; ok {
		delete(s.watchers, id)
		close(ch)
	}
}

func (s *eventStream) publish(event StreamEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}
