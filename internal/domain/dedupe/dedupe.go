// Package dedupe tracks join request ids so a retried request is applied once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen request ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the request can be retried, e.g. after the
	// queue refused it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type entry struct {
	id         string
	prev, next *entry
}

// window is a bounded set of ids. When full, the oldest id is evicted.
// With maxSize <= 0 it never evicts.
type window struct {
	mu      sync.Mutex
	seen    map[string]*entry
	oldest  *entry
	newest  *entry
	maxSize int
	free    *entry // recycled entries, linked through next
}

// NewInMemoryDeduper creates a deduper holding at most 50,000 ids by default.
func NewInMemoryDeduper(opts ...Option) Deduper {
	w := &window{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.seen = make(map[string]*entry)
	return w
}

func (w *window) SeenAndRecord(_ context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return true
	}
	if w.maxSize > 0 && len(w.seen) >= w.maxSize {
		w.remove(w.oldest)
	}

	e := w.alloc()
	e.id = id
	e.prev = w.newest
	if w.newest != nil {
		w.newest.next = e
	} else {
		w.oldest = e
	}
	w.newest = e
	w.seen[id] = e
	return false
}

func (w *window) Unrecord(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.seen[id]; ok {
		w.remove(e)
	}
}

func (w *window) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(len(w.seen))
}

// remove unlinks e and recycles it. w.mu must be held.
func (w *window) remove(e *entry) {
	if e == nil {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		w.oldest = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		w.newest = e.prev
	}
	delete(w.seen, e.id)

	*e = entry{next: w.free}
	w.free = e
}

func (w *window) alloc() *entry {
	if w.free == nil {
		return &entry{}
	}
	e := w.free
	w.free = e.next
	e.next = nil
	return e
}
