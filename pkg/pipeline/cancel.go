package pipeline

import (
	"context"
	"sync"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// runHandle identifies one live run and its cancel function.
type runHandle struct {
	id     string
	cancel context.CancelFunc
}

// runRegistry serializes runs per mode. The previous run for a mode is
// canceled before the replacement handle becomes visible, so at most one run
// per mode ever observes an uncanceled context.
type runRegistry struct {
	mu     sync.Mutex
	live   map[types.Mode]runHandle
	latest map[types.Mode]string
}

func newRunRegistry() *runRegistry {
	return &runRegistry{
		live:   make(map[types.Mode]runHandle),
		latest: make(map[types.Mode]string),
	}
}

// begin cancels any live run for mode and registers a fresh one derived from
// parent, returning its context.
func (r *runRegistry) begin(parent context.Context, mode types.Mode, id string) context.Context {
	ctx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.live[mode]; ok {
		prev.cancel()
	}
	r.live[mode] = runHandle{id: id, cancel: cancel}
	r.latest[mode] = id
	return ctx
}

// finish releases the handle if it still belongs to run id. A handle already
// replaced by a newer run is left alone.
func (r *runRegistry) finish(mode types.Mode, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.live[mode]; ok && h.id == id {
		h.cancel()
		delete(r.live, mode)
	}
}

// stillCurrent reports whether run id is the newest run begun for its mode.
// Unlike the live handle, the begun id survives finish, so a superseded run
// observes its replacement even after that replacement completed.
func (r *runRegistry) stillCurrent(mode types.Mode, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest, ok := r.latest[mode]
	return !ok || latest == id
}

// cancel interrupts the live run for mode, reporting whether one existed.
func (r *runRegistry) cancel(mode types.Mode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.live[mode]
	if !ok {
		return false
	}
	h.cancel()
	delete(r.live, mode)
	return true
}

// cancelAll interrupts every live run, reporting whether any existed.
func (r *runRegistry) cancelAll() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	any := false
	for mode, h := range r.live {
		h.cancel()
		delete(r.live, mode)
		any = true
	}
	return any
}
