package pipeline

import (
	"sync"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/classify"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// Event names published on the hub.
const (
	EventRunStarted       = "run_started"
	EventProgress         = "progress"
	EventProblemExtracted = "problem_extracted"
	EventSolutionReady    = "solution_ready"
	EventDebugReady       = "debug_ready"
	EventRunFailed        = "run_failed"
	EventReset            = "reset"
	EventViewChanged      = "view_changed"
)

// Event is one item on the subscriber stream. Payload contents depend on the
// event name: types.ProblemInfo for problem_extracted, types.SolutionResult
// for solution_ready, types.DebugResult for debug_ready, and the payload
// structs below for the rest.
type Event struct {
	Name    string      `json:"name"`
	RunID   string      `json:"run_id,omitempty"`
	Mode    types.Mode  `json:"mode,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// ProgressPayload reports pipeline progress from 0 to 100.
type ProgressPayload struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// FailurePayload describes a terminal failure. Canceled runs never produce
// one; they surface as a reset instead.
type FailurePayload struct {
	Kind      classify.Kind `json:"kind"`
	Message   string        `json:"message"`
	Retryable bool          `json:"retryable"`
}

// ViewPayload mirrors the presentation state.
type ViewPayload struct {
	View        types.View `json:"view"`
	HasDebugged bool       `json:"has_debugged"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber that
// stops draining its channel loses events rather than stalling a run. Order
// is preserved per subscriber.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned func removes it and closes the
// channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 64)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
