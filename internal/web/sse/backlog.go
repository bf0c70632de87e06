package sse

import (
	"bytes"
	"sync"
)

// backlog holds the newest message per event name, in first-seen order.
// Every event the hub sends is a full snapshot, so a newer message of the
// same name supersedes the older one.
type backlog struct {
	mu     sync.Mutex
	order  []string
	latest map[string][]byte
	ready  chan struct{}
}

func newBacklog() *backlog {
	return &backlog{
		latest: make(map[string][]byte),
		ready:  make(chan struct{}, 1),
	}
}

// offer hands message to out unless out is full or older messages are still
// backlogged, in which case it is merged into the backlog. It never blocks.
// It reports whether the message had to be backlogged.
func (b *backlog) offer(out chan<- []byte, message []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.order) == 0 {
		select {
		case out <- message:
			return false
		default:
		}
	}

	name := eventName(message)
	if _, ok := b.latest[name]; !ok {
		b.order = append(b.order, name)
	}
	b.latest[name] = message

	select {
	case b.ready <- struct{}{}:
	default:
	}
	return true
}

// take empties the backlog. Callers drain the channel first so the
// backlogged messages, which are newer, are delivered last.
func (b *backlog) take() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	messages := make([][]byte, 0, len(b.order))
	for _, name := range b.order {
		messages = append(messages, b.latest[name])
	}
	b.order = b.order[:0]
	clear(b.latest)
	return messages
}

// len reports how many distinct events are backlogged
func (b *backlog) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// eventName extracts the name from a formatted SSE message. Messages without
// an event line are keyed by their full content.
func eventName(message []byte) string {
	line, _, _ := bytes.Cut(message, []byte("\n"))
	if name, ok := bytes.CutPrefix(line, []byte("event: ")); ok {
		return string(name)
	}
	return string(message)
}
