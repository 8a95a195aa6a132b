package device

import "sync"

// subscriberBuffer is the channel capacity of each subscription
const subscriberBuffer = 16

// Broadcaster fans change events out to subscribers. Backends embed it to
// implement EventSubscriber. Publish never blocks: events that do not fit a
// subscriber's channel wait in a per-subscriber backlog, where a newer event
// for the same handle replaces the older one. A slow subscriber therefore
// skips intermediate states but always receives the latest one.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers []*subscription
}

type subscription struct {
	ch chan ChangeEvent

	mu      sync.Mutex
	backlog []ChangeEvent
	sending bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// Subscribe registers a new buffered subscription.
func (b *Broadcaster) Subscribe() chan ChangeEvent {
	sub := &subscription{
		ch:      make(chan ChangeEvent, subscriberBuffer),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go sub.pump()

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Broadcaster) Unsubscribe(ch chan ChangeEvent) {
	b.mu.Lock()
	var sub *subscription
	for i, s := range b.subscribers {
		if s.ch == ch {
			sub = s
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if sub == nil {
		return
	}
	close(sub.done)
	<-sub.stopped
	close(sub.ch)
}

// Publish hands evt to every subscriber without blocking.
func (b *Broadcaster) Publish(evt ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		sub.offer(evt)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// offer delivers evt directly when nothing is queued ahead of it, and
// otherwise coalesces it into the backlog.
func (s *subscription) offer(evt ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sending && len(s.backlog) == 0 {
		select {
		case s.ch <- evt:
			return
		default:
		}
	}

	for i, queued := range s.backlog {
		if queued.Handle == evt.Handle {
			s.backlog = append(s.backlog[:i], s.backlog[i+1:]...)
			break
		}
	}
	s.backlog = append(s.backlog, evt)

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves the backlog into the channel as the subscriber drains it
func (s *subscription) pump() {
	defer close(s.stopped)

	for {
		select {
		case <-s.wake:
		case <-s.done:
			return
		}

		for {
			s.mu.Lock()
			batch := s.backlog
			s.backlog = nil
			s.sending = len(batch) > 0
			s.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, evt := range batch {
				select {
				case s.ch <- evt:
				case <-s.done:
					return
				}
			}
		}
	}
}
