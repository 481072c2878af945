package modalurl

import (
	"net/url"
	"slices"
	"sync"
)

// Navigator is the slice of browser-style navigation the synchronizer needs
type Navigator interface {
	// Query returns a copy of the current query parameters
	Query() url.Values
	// Push adds a history entry with query
	Push(query url.Values)
	// Replace swaps the current entry's query without adding an entry
	Replace(query url.Values)
	// Back moves to the previous entry, if any
	Back()
	// Subscribe calls fn with the new query after every navigation
	Subscribe(fn func(url.Values)) (unsubscribe func())
}

// History is an in-memory Navigator with a back/forward stack. Listeners
// run synchronously after the lock is released, so they may navigate.
type History struct {
	mu        sync.Mutex
	entries   []url.Values
	index     int
	listeners map[int]func(url.Values)
	nextID    int
}

var _ Navigator = (*History)(nil)

// NewHistory starts a history at initial, which may be nil
func NewHistory(initial url.Values) *History {
	return &History{
		entries:   []url.Values{cloneValues(initial)},
		listeners: make(map[int]func(url.Values)),
	}
}

// ParseHistory starts a history from a raw query string such as "modal=task"
func ParseHistory(rawQuery string) (*History, error) {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return NewHistory(q), nil
}

// Query returns a copy of the current query
func (h *History) Query() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneValues(h.entries[h.index])
}

// Len returns the number of entries up to and including the current one
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index + 1
}

// CanGoBack reports whether Back would move
func (h *History) CanGoBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// Push drops any forward entries and appends query
func (h *History) Push(query url.Values) {
	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], cloneValues(query))
	h.index++
	h.mu.Unlock()
	h.emit()
}

// Replace overwrites the current entry
func (h *History) Replace(query url.Values) {
	h.mu.Lock()
	h.entries[h.index] = cloneValues(query)
	h.mu.Unlock()
	h.emit()
}

// Back moves one entry back. At the first entry it does nothing.
func (h *History) Back() {
	h.mu.Lock()
	if h.index == 0 {
		h.mu.Unlock()
		return
	}
	h.index--
	h.mu.Unlock()
	h.emit()
}

// Forward moves one entry forward, if a forward entry exists
func (h *History) Forward() {
	h.mu.Lock()
	if h.index >= len(h.entries)-1 {
		h.mu.Unlock()
		return
	}
	h.index++
	h.mu.Unlock()
	h.emit()
}

// Subscribe registers fn for navigation events
func (h *History) Subscribe(fn func(url.Values)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.listeners[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

func (h *History) emit() {
	h.mu.Lock()
	q := h.entries[h.index]
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	// Deliver in subscription order.
	slices.Sort(ids)
	for _, id := range ids {
		h.mu.Lock()
		fn, ok := h.listeners[id]
		h.mu.Unlock()
		if ok {
			fn(cloneValues(q))
		}
	}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
