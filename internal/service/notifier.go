package service

import (
	"sync"

	"github.com/rs/zerolog"
)

// Notifier fans out a "data changed" signal to any number of listeners. The
// signal carries no payload; listeners reread the aggregate.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	logger zerolog.Logger
}

func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		subs:   make(map[int]chan struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener. The returned channel has a buffer of one;
// coalescing bursts into a single pending signal is fine since the signal has
// no payload.
func (n *Notifier) Subscribe() (int, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return id, ch
}

func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// Broadcast signals every listener without blocking on slow ones.
func (n *Notifier) Broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	n.logger.Debug().Int("listeners", len(n.subs)).Msg("change broadcast")
}
