// Package toast keeps the short-lived feedback notices shown to an operator.
package toast

import (
	"sync"
	"time"
)

// Type is the severity of a toast
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
)

// Toast is one notice; ids increase monotonically within a queue
type Toast struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Queue holds visible toasts in creation order. Each toast is removed by
// its own timer or by Dismiss, whichever comes first.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	next   uint64
	items  []Toast
	timers map[uint64]*time.Timer
	onPush func(Type)
	closed bool
}

// Option configures a Queue
type Option func(*Queue)

// OnPush registers a hook called for every pushed toast
func OnPush(fn func(Type)) Option {
	return func(q *Queue) { q.onPush = fn }
}

// New creates a queue whose toasts expire after ttl
func New(ttl time.Duration, opts ...Option) *Queue {
	q := &Queue{ttl: ttl, timers: make(map[uint64]*time.Timer)}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a toast and arms its expiry timer
func (q *Queue) Push(t Type, message string) Toast {
	q.mu.Lock()
	id := q.next
	q.next++
	toast := Toast{ID: id, Message: message, Type: t, CreatedAt: time.Now()}
	if !q.closed {
		q.items = append(q.items, toast)
		q.timers[id] = time.AfterFunc(q.ttl, func() { q.Dismiss(id) })
	}
	hook := q.onPush
	q.mu.Unlock()

	if hook != nil {
		hook(t)
	}
	return toast
}

// Success pushes a success toast
func (q *Queue) Success(message string) Toast {
	return q.Push(Success, message)
}

// Error pushes an error toast
func (q *Queue) Error(message string) Toast {
	return q.Push(Error, message)
}

// Dismiss removes a toast; it reports false when the toast is already gone
func (q *Queue) Dismiss(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i, t := range q.items {
		if t.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the visible toasts, oldest first
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.items))
	copy(out, q.items)
	return out
}

// Close stops all timers and drops the visible toasts; later pushes are
// counted but never shown.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}
