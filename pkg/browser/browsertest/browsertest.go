// Package browsertest provides an in-memory browser.Driver for tests.
//
// Windows record every script they are asked to evaluate and answer
// through a hook; their debugging channels deliver whatever network
// exchanges the test (or the hook) injects with Respond.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/entrhq/punch/pkg/browser"
)

// EvaluateFunc answers a script evaluated in w.
type EvaluateFunc func(w *Window, script string) (any, error)

// Driver is a fake browser.Driver.
type Driver struct {
	// OnEvaluate answers every script; nil returns (nil, nil)
	OnEvaluate EvaluateFunc

	// OpenErr and AttachErr, when set, fail the next Open/Attach
	OpenErr   error
	AttachErr error

	mu      sync.Mutex
	windows []*Window
	closed  bool
}

// NewDriver creates a fake driver answering scripts with onEvaluate.
func NewDriver(onEvaluate EvaluateFunc) *Driver {
	return &Driver{OnEvaluate: onEvaluate}
}

// Open creates a new fake window.
func (d *Driver) Open(ctx context.Context, url string, opts browser.WindowOptions) (browser.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, browser.ErrDriverClosed
	}
	if d.OpenErr != nil {
		err := d.OpenErr
		d.OpenErr = nil
		return nil, err
	}

	w := &Window{
		id:     browser.WindowID("fake-" + strconv.Itoa(len(d.windows)+1)),
		URL:    url,
		driver: d,
		closed: make(chan struct{}),
	}
	d.windows = append(d.windows, w)
	return w, nil
}

// Close marks the driver closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Windows returns every window opened so far.
func (d *Driver) Windows() []*Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Window(nil), d.windows...)
}

// Last returns the most recently opened window, or nil.
func (d *Driver) Last() *Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.windows) == 0 {
		return nil
	}
	return d.windows[len(d.windows)-1]
}

// Window is a fake controlled window.
type Window struct {
	URL string

	id        browser.WindowID
	driver    *Driver
	mu        sync.Mutex
	scripts   []string
	lifecycle []string
	channel   *Channel
	closed    chan struct{}
	closeOnce sync.Once
}

func (w *Window) record(step string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lifecycle = append(w.lifecycle, step)
}

// ID returns the fake window id.
func (w *Window) ID() browser.WindowID {
	return w.id
}

// Evaluate records script and answers through the driver's hook.
func (w *Window) Evaluate(ctx context.Context, script string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-w.closed:
		return nil, browser.ErrTargetUnavailable
	default:
	}

	w.mu.Lock()
	w.scripts = append(w.scripts, script)
	w.mu.Unlock()

	if w.driver.OnEvaluate == nil {
		return nil, nil
	}
	return w.driver.OnEvaluate(w, script)
}

// Attach opens the fake debugging channel.
func (w *Window) Attach(ctx context.Context) (browser.DebugChannel, error) {
	w.driver.mu.Lock()
	attachErr := w.driver.AttachErr
	w.driver.AttachErr = nil
	w.driver.mu.Unlock()

	if attachErr != nil {
		return nil, fmt.Errorf("%w: %v", browser.ErrAttachFailure, attachErr)
	}

	w.record("attach")
	ch := &Channel{
		window: w,
		events: make(chan browser.NetworkEvent, 256),
		bodies: make(map[string]string),
	}
	w.mu.Lock()
	w.channel = ch
	w.mu.Unlock()
	return ch, nil
}

// Closed is closed when the window goes away.
func (w *Window) Closed() <-chan struct{} {
	return w.closed
}

// Close closes the window.
func (w *Window) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.record("close")
		close(w.closed)
	})
	return nil
}

// CloseByUser simulates the user closing the window by hand.
func (w *Window) CloseByUser() {
	w.closeOnce.Do(func() {
		w.record("user-close")
		close(w.closed)
	})
}

// Channel returns the attached debugging channel, or nil.
func (w *Window) Channel() *Channel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.channel
}

// Scripts returns every evaluated script in order.
func (w *Window) Scripts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.scripts...)
}

// Lifecycle returns attach/detach/close steps in order.
func (w *Window) Lifecycle() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.lifecycle...)
}

// Channel is a fake debugging channel.
type Channel struct {
	window   *Window
	mu       sync.Mutex
	events   chan browser.NetworkEvent
	bodies   map[string]string
	nextID   int
	detached bool
}

// Events delivers injected network events.
func (c *Channel) Events() <-chan browser.NetworkEvent {
	return c.events
}

// Emit injects a raw event. Dropped after Detach.
func (c *Channel) Emit(ev browser.NetworkEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.events <- ev
}

// Respond injects one complete exchange (headers, then finish) and returns
// its request id.
func (c *Channel) Respond(mimeType, url, body string) string {
	c.mu.Lock()
	c.nextID++
	id := strconv.Itoa(c.nextID)
	c.bodies[id] = body
	c.mu.Unlock()

	c.Emit(browser.NetworkEvent{Kind: browser.EventResponseReceived, RequestID: id, MimeType: mimeType, URL: url})
	c.Emit(browser.NetworkEvent{Kind: browser.EventLoadingFinished, RequestID: id})
	return id
}

// ResponseBody returns the body registered by Respond.
func (c *Channel) ResponseBody(ctx context.Context, requestID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.bodies[requestID]
	if !ok {
		return "", errors.New("no resource with given identifier found")
	}
	return body, nil
}

// Detach closes the event stream.
func (c *Channel) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return nil
	}
	c.detached = true
	close(c.events)
	c.window.record("detach")
	return nil
}
