package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/entrhq/punch/pkg/logging"
)

// ChromedpDriver drives a local Chrome through chromedp. Every window is a
// tab of one browser process that uses the profile directory.
type ChromedpDriver struct {
	mu            sync.Mutex
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closed        bool
	logger        *logging.Logger
}

// NewChromedpDriver creates a new chromedp driver.
func NewChromedpDriver(opts Options) *ChromedpDriver {
	return &ChromedpDriver{
		opts:   opts,
		logger: opts.Logger.With("chromedp"),
	}
}

// browser returns the browser context, launching Chrome when needed.
// Callers must hold d.mu.
func (d *ChromedpDriver) browser(vp *Viewport) (context.Context, error) {
	if d.browserCtx != nil && d.browserCtx.Err() == nil {
		return d.browserCtx, nil
	}
	d.release()

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.UserDataDir(d.opts.ProfileDir),
		chromedp.WindowSize(vp.Width, vp.Height),
		chromedp.Flag("headless", d.opts.Headless),
	)
	if d.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(d.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(d.logger.Debugf),
		chromedp.WithErrorf(d.logger.Warnf),
	)

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	d.logger.Infof("launched chrome with profile %s (headless=%t)", d.opts.ProfileDir, d.opts.Headless)
	d.allocCancel = allocCancel
	d.browserCtx = browserCtx
	d.browserCancel = browserCancel
	return browserCtx, nil
}

func (d *ChromedpDriver) release() {
	if d.browserCancel != nil {
		d.browserCancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
	d.browserCtx, d.browserCancel, d.allocCancel = nil, nil, nil
}

// Open creates a new tab in the browser.
func (d *ChromedpDriver) Open(ctx context.Context, url string, opts WindowOptions) (Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vp := d.opts.viewport(opts)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDriverClosed
	}
	browserCtx, err := d.browser(vp)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := newChromedpWindow(tabCtx, tabCancel, d.logger)

	actions := []chromedp.Action{chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height))}
	if url != "" {
		actions = append(actions, chromedp.Navigate(url))
	}
	if err := w.run(ctx, actions...); err != nil {
		_ = w.Close(context.Background())
		return nil, fmt.Errorf("failed to load %q: %w", url, err)
	}

	if url == "" {
		if _, err := NewExecutor(w, d.logger).Execute(ctx, SetTitle{Title: opts.title()}); err != nil {
			d.logger.Warnf("failed to label control page: %v", err)
		}
	}

	d.logger.Debugf("opened window %s", w.ID())
	return w, nil
}

// Close closes the browser and every tab.
func (d *ChromedpDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.release()
	return nil
}

type chromedpWindow struct {
	id        WindowID
	tabCtx    context.Context
	tabCancel context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once
	logger    *logging.Logger
}

func newChromedpWindow(tabCtx context.Context, tabCancel context.CancelFunc, logger *logging.Logger) *chromedpWindow {
	c := chromedp.FromContext(tabCtx)
	w := &chromedpWindow{
		id:        WindowID(c.Target.TargetID),
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
		closed:    make(chan struct{}),
		logger:    logger,
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev.(type) {
		case *inspector.EventDetached, *inspector.EventTargetCrashed:
			w.markClosed()
		}
	})
	chromedp.ListenBrowser(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*target.EventTargetDestroyed); ok && WindowID(e.TargetID) == w.id {
			w.markClosed()
		}
	})
	go func() {
		select {
		case <-tabCtx.Done():
			w.markClosed()
		case <-w.closed:
		}
	}()
	return w
}

func (w *chromedpWindow) markClosed() {
	w.closeOnce.Do(func() {
		close(w.closed)
	})
}

func (w *chromedpWindow) ID() WindowID {
	return w.id
}

func (w *chromedpWindow) Closed() <-chan struct{} {
	return w.closed
}

// run executes actions on the tab, aborting when ctx is done or the
// window goes away.
func (w *chromedpWindow) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(w.tabCtx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	go func() {
		select {
		case <-w.closed:
			cancel()
		case <-runCtx.Done():
		}
	}()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}

	select {
	case <-w.closed:
		return fmt.Errorf("%w: %v", ErrTargetUnavailable, err)
	default:
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (w *chromedpWindow) Evaluate(ctx context.Context, script string) (any, error) {
	var res interface{}
	err := w.run(ctx, chromedp.Evaluate(script, &res))
	if err == nil {
		return res, nil
	}

	var exc *runtime.ExceptionDetails
	switch {
	case errors.As(err, &exc):
		return nil, fmt.Errorf("%w: %s", ErrScriptExecution, exc.Error())
	case errors.Is(err, ErrTargetUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", ErrTargetUnavailable, err)
	}
}

func (w *chromedpWindow) Attach(ctx context.Context) (DebugChannel, error) {
	listenCtx, cancel := context.WithCancel(w.tabCtx)
	ch := &chromedpChannel{
		window: w,
		queue:  newEventQueue(),
		cancel: cancel,
	}

	// Listeners run on chromedp's event loop and must not block.
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Response == nil {
				return
			}
			ch.queue.push(NetworkEvent{
				Kind:      EventResponseReceived,
				RequestID: string(e.RequestID),
				MimeType:  e.Response.MimeType,
				URL:       e.Response.URL,
			})
		case *network.EventLoadingFinished:
			ch.queue.push(NetworkEvent{
				Kind:      EventLoadingFinished,
				RequestID: string(e.RequestID),
			})
		}
	})

	if err := w.run(ctx, network.Enable()); err != nil {
		_ = ch.Detach()
		return nil, fmt.Errorf("%w: enable network domain: %v", ErrAttachFailure, err)
	}
	return ch, nil
}

func (w *chromedpWindow) Close(ctx context.Context) error {
	select {
	case <-w.closed:
		w.tabCancel()
		return nil
	default:
	}

	err := chromedp.Cancel(w.tabCtx)
	w.tabCancel()
	w.markClosed()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close window: %w", err)
	}
	return nil
}

type chromedpChannel struct {
	window     *chromedpWindow
	queue      *eventQueue
	cancel     context.CancelFunc
	detachOnce sync.Once
}

func (c *chromedpChannel) Events() <-chan NetworkEvent {
	return c.queue.events()
}

func (c *chromedpChannel) ResponseBody(ctx context.Context, requestID string) (string, error) {
	var body []byte
	err := c.window.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(network.RequestID(requestID)).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("failed to get response body for %s: %w", requestID, err)
	}
	return string(body), nil
}

func (c *chromedpChannel) Detach() error {
	c.detachOnce.Do(func() {
		c.cancel()
		c.queue.close()
	})
	return nil
}
