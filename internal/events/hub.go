package events

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	defaultReplayBuffer     = 50
	defaultSubscriberBuffer = 16
)

// Hub keeps per-branch event streams for in-process subscribers such as KDS
// bridges or the expo screen feed. Each stream retains a short replay buffer
// so a reconnecting subscriber can catch up on recent transitions.
type Hub struct {
	mu               sync.RWMutex
	streams          map[snowflake.ID]*stream
	replayBuffer     int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

type Subscription struct {
	hub      *Hub
	branchID snowflake.ID
	id       uint64
	ch       chan Event
	once     sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[snowflake.ID]*stream),
		replayBuffer:     defaultReplayBuffer,
		subscriberBuffer: defaultSubscriberBuffer,
	}
}

// Publish appends the event to the branch replay buffer and offers it to
// every live subscriber. Slow subscribers are skipped, never waited on.
func (h *Hub) Publish(event Event) {
	if h == nil || event.BranchID == 0 {
		return
	}
	h.mu.RLock()
	st := h.streams[event.BranchID]
	h.mu.RUnlock()
	if st == nil {
		return
	}

	st.mu.Lock()
	st.buffer = append(st.buffer, event)
	if len(st.buffer) > h.replayBuffer {
		st.buffer = st.buffer[len(st.buffer)-h.replayBuffer:]
	}
	subs := make([]chan Event, 0, len(st.subs))
	for _, ch := range st.subs {
		subs = append(subs, ch)
	}
	st.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener for one branch and returns the retained
// replay buffer alongside the live channel.
func (h *Hub) Subscribe(branchID snowflake.ID) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	if branchID == 0 {
		return nil, nil, errors.New("invalid_branch_id")
	}

	st := h.ensureStream(branchID)
	st.mu.Lock()
	if st.subs == nil {
		st.subs = make(map[uint64]chan Event)
	}
	id := st.nextID
	st.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	st.subs[id] = ch
	buffer := append([]Event(nil), st.buffer...)
	st.mu.Unlock()

	return &Subscription{
		hub:      h,
		branchID: branchID,
		id:       id,
		ch:       ch,
	}, buffer, nil
}

func (h *Hub) ensureStream(branchID snowflake.ID) *stream {
	h.mu.RLock()
	current := h.streams[branchID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[branchID]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Event)}
		h.streams[branchID] = current
	}
	return current
}

func (h *Hub) unsubscribe(branchID snowflake.ID, id uint64) {
	if h == nil {
		return
	}
	h.mu.RLock()
	st := h.streams[branchID]
	h.mu.RUnlock()
	if st == nil {
		return
	}

	st.mu.Lock()
	delete(st.subs, id)
	remaining := len(st.subs)
	st.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.streams[branchID]
	if current != st {
		h.mu.Unlock()
		return
	}
	st.mu.Lock()
	empty := len(st.subs) == 0
	st.mu.Unlock()
	if empty {
		delete(h.streams, branchID)
	}
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.branchID, s.id)
	})
}
