package sse

import (
	"sync"
)

const (
	EventCorrectionSubmitted = "correction.submitted"
	EventAttendanceRefreshed = "attendance.refreshed"
)

// Event is one message for an employee's open streams
type Event struct {
	EmployeeID string
	Event      string
	Data       interface{}
}

// Hub fans events out to every stream an employee has open.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for employeeID and returns its channel and a cleanup function
func (h *Hub) Subscribe(employeeID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[employeeID][ch]; !ok {
				return
			}
			delete(h.subscribers[employeeID], ch)
			close(ch)
			if len(h.subscribers[employeeID]) == 0 {
				delete(h.subscribers, employeeID)
			}
		})
	}

	return ch, cleanup
}

// Publish delivers event to every subscriber of employeeID. Full channels are
// skipped rather than blocking the publisher.
func (h *Hub) Publish(employeeID string, name string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := Event{EmployeeID: employeeID, Event: name, Data: data}
	for ch := range h.subscribers[employeeID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[employeeID])
}

// Close ends every open stream. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, chans := range h.subscribers {
		for ch := range chans {
			close(ch)
		}
	}
	h.subscribers = make(map[string]map[chan Event]struct{})
	h.closed = true
}
