// Package auth broadcasts sign-in and sign-out events to interested observers.
package auth

import "sync"

type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
)

type Event struct {
	Kind   EventKind
	UserID string
}

// Notifier is a minimal observer registry. Delivery is synchronous and
// in-order per subscriber; each event reaches a subscriber at most once.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: map[int]func(Event){}}
}

// Subscribe registers a callback and returns a handle whose Unsubscribe
// is idempotent. Callbacks must not block.
func (n *Notifier) Subscribe(fn func(Event)) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.subs[id] = fn

	return &Subscription{notifier: n, id: id}
}

func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

type Subscription struct {
	notifier *Notifier
	id       int
	once     sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.notifier.mu.Lock()
		delete(s.notifier.subs, s.id)
		s.notifier.mu.Unlock()
	})
}
