package server

import (
	"sync"

	"github.com/daygrid/daygrid/internal/remote"
)

// hub fans collection snapshots out to websocket subscribers. Each
// subscriber owns a buffered channel; a subscriber that cannot keep up
// misses intermediate snapshots but always receives the latest one next.
type hub struct {
	mu   sync.Mutex
	subs map[remote.Collection]map[*subscriber]struct{}
}

type subscriber struct {
	events chan remote.Event
}

func newHub() *hub {
	return &hub{subs: make(map[remote.Collection]map[*subscriber]struct{})}
}

func (h *hub) subscribe(c remote.Collection) *subscriber {
	sub := &subscriber{events: make(chan remote.Event, 8)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[c] == nil {
		h.subs[c] = make(map[*subscriber]struct{})
	}
	h.subs[c][sub] = struct{}{}
	return sub
}

func (h *hub) unsubscribe(c remote.Collection, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[c]; ok {
		delete(set, sub)
	}
}

func (h *hub) broadcast(ev remote.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ev.Collection] {
		select {
		case sub.events <- ev:
		default:
			// Evict the oldest queued snapshot so a lagging subscriber
			// still converges on the latest state.
			select {
			case <-sub.events:
			default:
			}
			select {
			case sub.events <- ev:
			default:
			}
		}
	}
}
