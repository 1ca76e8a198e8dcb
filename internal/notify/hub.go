// Package notify fans job state changes out to in-process observers. It is
// a routing aid for the SSE endpoint, never authoritative state: a dropped
// event costs an observer one update, the job record itself stays correct.
package notify

import (
	"sync"
	"time"

	"brandforge/internal/domain"
)

// JobEvent is the payload pushed to observers on every job status write.
type JobEvent struct {
	JobID    string           `json:"job_id"`
	Status   domain.JobStatus `json:"status"`
	Progress int              `json:"progress"`
	Stage    string           `json:"stage,omitempty"`
	Message  string           `json:"message,omitempty"`
	At       time.Time        `json:"at"`
}

const subscriberBuffer = 16

// Hub is a minimal in-process publish/subscribe fan-out keyed by job ID.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan JobEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan JobEvent]struct{})}
}

// Subscribe registers an observer for one job. The returned cancel func
// must be called when the observer disconnects.
func (h *Hub) Subscribe(jobID string) (<-chan JobEvent, func()) {
	ch := make(chan JobEvent, subscriberBuffer)
	h.mu.Lock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[chan JobEvent]struct{})
	}
	h.subs[jobID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[jobID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, jobID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every observer of the job. Delivery never
// blocks; observers that fell behind miss the event.
func (h *Hub) Publish(event JobEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[event.JobID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many observers watch the given job.
func (h *Hub) SubscriberCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[jobID])
}
