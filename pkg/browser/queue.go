package browser

import "sync"

// eventQueue decouples the driver's event dispatch from consumers. push
// never blocks; events are delivered on out in push order until close.
type eventQueue struct {
	mu        sync.Mutex
	items     []NetworkEvent
	signal    chan struct{}
	out       chan NetworkEvent
	done      chan struct{}
	closeOnce sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		signal: make(chan struct{}, 1),
		out:    make(chan NetworkEvent),
		done:   make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *eventQueue) push(ev NetworkEvent) {
	select {
	case <-q.done:
		return
	default:
	}

	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.signal:
				continue
			case <-q.done:
				return
			}
		}
		ev := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- ev:
		case <-q.done:
			return
		}
	}
}

func (q *eventQueue) events() <-chan NetworkEvent {
	return q.out
}

func (q *eventQueue) close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
