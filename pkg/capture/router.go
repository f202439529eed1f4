package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/punch/pkg/logging"
)

// Router classifies records from a Broadcaster into named streams.
type Router struct {
	mu          sync.Mutex
	streams     map[string]*routedStream
	closed      bool
	closeErr    error
	timeout     time.Duration
	unsubscribe func()
	logger      *logging.Logger
}

type routedStream struct {
	stream  Stream
	lastID  TransportID
	seen    bool
	waiters map[*Waiter]struct{}
	subs    map[int]func(ResponseRecord)
	nextSub int
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTimeout bounds every wait; zero (the default) waits until a record
// arrives or the session ends.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		r.timeout = d
	}
}

// WithLogger sets the router's logger.
func WithLogger(l *logging.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// NewRouter creates a router fed by source and registers the given
// streams.
func NewRouter(source *Broadcaster, streams []Stream, opts ...RouterOption) (*Router, error) {
	r := &Router{streams: make(map[string]*routedStream)}
	for _, opt := range opts {
		opt(r)
	}
	for _, s := range streams {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	r.unsubscribe = source.Subscribe(r.dispatch)
	return r, nil
}

// Register adds a stream. Names must be unique.
func (r *Router) Register(s Stream) error {
	if s.Name == "" {
		return fmt.Errorf("stream name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.streams[s.Name]; exists {
		return fmt.Errorf("stream %q already registered", s.Name)
	}
	r.streams[s.Name] = &routedStream{
		stream:  s,
		waiters: make(map[*Waiter]struct{}),
		subs:    make(map[int]func(ResponseRecord)),
	}
	return nil
}

func (r *Router) dispatch(rec ResponseRecord) {
	var deliver []func(ResponseRecord)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	for _, rs := range r.streams {
		if !rs.stream.Match(rec) {
			continue
		}
		if rs.seen && rs.lastID == rec.TransportID {
			r.logger.Debugf("stream %s: duplicate %s collapsed", rs.stream.Name, rec.TransportID)
			continue
		}
		rs.lastID, rs.seen = rec.TransportID, true

		for w := range rs.waiters {
			w.resolve(rec)
			delete(rs.waiters, w)
		}
		for _, fn := range rs.subs {
			deliver = append(deliver, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range deliver {
		fn(rec)
	}
}

// Expect arms a single-shot wait for the next record on stream. Arm it
// before triggering the action whose response is awaited.
func (r *Router) Expect(stream string) *Waiter {
	w := newWaiter(r, stream, r.timeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.streams[stream]
	switch {
	case r.closed:
		w.reject(r.closeErr)
	case !ok:
		w.reject(fmt.Errorf("%w: %s", ErrUnknownStream, stream))
	default:
		rs.waiters[w] = struct{}{}
	}
	return w
}

// AwaitFirst waits for the next record on stream.
func (r *Router) AwaitFirst(ctx context.Context, stream string) (ResponseRecord, error) {
	return r.Expect(stream).Wait(ctx)
}

// Subscribe registers fn for every record routed to stream until the
// returned function is called or the router closes.
func (r *Router) Subscribe(stream string, fn func(ResponseRecord)) (unsubscribe func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.streams[stream]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStream, stream)
	}
	if r.closed {
		return func() {}, nil
	}

	id := rs.nextSub
	rs.nextSub++
	rs.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(rs.subs, id)
	}, nil
}

// Waiting returns the number of armed waiters on stream.
func (r *Router) Waiting(stream string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.streams[stream]; ok {
		return len(rs.waiters)
	}
	return 0
}

// Close detaches the router from its source and rejects every outstanding
// waiter with ErrSessionClosed. cause, when non-nil, is included in the
// error. Safe to call more than once.
func (r *Router) Close(cause error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.closeErr = ErrSessionClosed
	if cause != nil {
		r.closeErr = fmt.Errorf("%w: %v", ErrSessionClosed, cause)
	}
	for _, rs := range r.streams {
		for w := range rs.waiters {
			w.reject(r.closeErr)
		}
		rs.waiters = make(map[*Waiter]struct{})
		rs.subs = make(map[int]func(ResponseRecord))
	}
	unsubscribe := r.unsubscribe
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (r *Router) cancel(w *Waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.streams[w.stream]; ok {
		delete(rs.waiters, w)
	}
}

// Waiter is a single-shot wait for one stream record.
type Waiter struct {
	router  *Router
	stream  string
	timeout time.Duration

	once   sync.Once
	record chan ResponseRecord
	done   chan struct{}
	err    error
}

func newWaiter(r *Router, stream string, timeout time.Duration) *Waiter {
	return &Waiter{
		router:  r,
		stream:  stream,
		timeout: timeout,
		record:  make(chan ResponseRecord, 1),
		done:    make(chan struct{}),
	}
}

// resolve and reject are called with the router lock held.
func (w *Waiter) resolve(rec ResponseRecord) {
	w.once.Do(func() {
		w.record <- rec
	})
}

func (w *Waiter) reject(err error) {
	w.once.Do(func() {
		w.err = err
		close(w.done)
	})
}

// Stream returns the name of the awaited stream.
func (w *Waiter) Stream() string {
	return w.stream
}

// Wait blocks until the record arrives, the session closes, ctx is done
// or the router's timeout elapses.
func (w *Waiter) Wait(ctx context.Context) (ResponseRecord, error) {
	var timeout <-chan time.Time
	if w.timeout > 0 {
		timer := time.NewTimer(w.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case rec := <-w.record:
		return rec, nil
	case <-w.done:
		return ResponseRecord{}, w.err
	case <-ctx.Done():
		w.Cancel()
		return ResponseRecord{}, ctx.Err()
	case <-timeout:
		w.Cancel()
		return ResponseRecord{}, fmt.Errorf("%w: no %s record within %s", ErrStreamStarved, w.stream, w.timeout)
	}
}

// Cancel disarms the waiter. A record that already arrived is discarded.
func (w *Waiter) Cancel() {
	w.router.cancel(w)
}
