package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/punch/pkg/logging"
)

// PlaywrightDriver drives Chromium through playwright-go using a persistent
// browser context rooted at the profile directory.
type PlaywrightDriver struct {
	mu          sync.Mutex
	opts        Options
	playwright  *playwright.Playwright
	context     playwright.BrowserContext
	initialized bool
	closed      bool
	logger      *logging.Logger
}

// NewPlaywrightDriver creates a new playwright driver.
func NewPlaywrightDriver(opts Options) *PlaywrightDriver {
	return &PlaywrightDriver{
		opts:   opts,
		logger: opts.Logger.With("playwright"),
	}
}

// initialize installs (when enabled) and starts the playwright driver.
// Callers must hold d.mu.
func (d *PlaywrightDriver) initialize() error {
	if d.initialized {
		return nil
	}

	// Discard driver output so it cannot interfere with the TUI
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if d.opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	d.playwright = pw
	d.initialized = true
	return nil
}

// browserContext returns the persistent context, launching it when needed.
// Callers must hold d.mu.
func (d *PlaywrightDriver) browserContext(vp *Viewport) (playwright.BrowserContext, error) {
	if d.context != nil {
		return d.context, nil
	}

	if err := d.initialize(); err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(d.opts.Headless),
		Viewport: &playwright.Size{Width: vp.Width, Height: vp.Height},
		Args:     []string{fmt.Sprintf("--window-size=%d,%d", vp.Width, vp.Height)},
	}
	if d.opts.ExecPath != "" {
		launchOpts.ExecutablePath = playwright.String(d.opts.ExecPath)
	}

	bc, err := d.playwright.Chromium.LaunchPersistentContext(d.opts.ProfileDir, launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// The user may quit the browser; the next Open relaunches it. The
	// handler runs on the dispatch goroutine, which must never wait on d.mu.
	bc.OnClose(func(playwright.BrowserContext) {
		go func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if d.context == bc {
				d.context = nil
			}
		}()
	})

	d.logger.Infof("launched chromium with profile %s (headless=%t)", d.opts.ProfileDir, d.opts.Headless)
	d.context = bc
	return bc, nil
}

// Open creates a new page in the persistent context.
func (d *PlaywrightDriver) Open(ctx context.Context, url string, opts WindowOptions) (Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vp := d.opts.viewport(opts)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDriverClosed
	}
	bc, err := d.browserContext(vp)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	page, err := bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(DefaultTimeout)

	if err := page.SetViewportSize(vp.Width, vp.Height); err != nil {
		d.logger.Warnf("failed to size window: %v", err)
	}

	if url == "" {
		err = page.SetContent(controlPage(opts.title()))
	} else {
		_, err = page.Goto(url)
	}
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to load %q: %w", url, err)
	}

	w := newPlaywrightWindow(bc, page, d.logger)
	d.logger.Debugf("opened window %s", w.ID())
	return w, nil
}

// Close closes the browser context and stops playwright.
func (d *PlaywrightDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	bc, pw := d.context, d.playwright
	d.context, d.playwright = nil, nil
	d.initialized = false
	d.mu.Unlock()

	if bc != nil {
		_ = bc.Close() // Ignore errors, continue cleanup
	}

	if pw != nil {
		if err := pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return nil
}

type playwrightWindow struct {
	id        WindowID
	context   playwright.BrowserContext
	page      playwright.Page
	closed    chan struct{}
	closeOnce sync.Once
	logger    *logging.Logger
}

func newPlaywrightWindow(bc playwright.BrowserContext, page playwright.Page, logger *logging.Logger) *playwrightWindow {
	w := &playwrightWindow{
		id:      WindowID("pw-" + uuid.New().String()[:8]),
		context: bc,
		page:    page,
		closed:  make(chan struct{}),
		logger:  logger,
	}
	page.OnClose(func(playwright.Page) {
		w.markClosed()
	})
	if page.IsClosed() {
		w.markClosed()
	}
	return w
}

func (w *playwrightWindow) markClosed() {
	w.closeOnce.Do(func() {
		close(w.closed)
	})
}

func (w *playwrightWindow) ID() WindowID {
	return w.id
}

func (w *playwrightWindow) Closed() <-chan struct{} {
	return w.closed
}

func (w *playwrightWindow) Evaluate(ctx context.Context, script string) (any, error) {
	v, err := await(ctx, w.closed, func() (any, error) {
		return w.page.Evaluate(script)
	})
	if err != nil {
		return nil, w.classify(err)
	}
	return v, nil
}

func (w *playwrightWindow) classify(err error) error {
	switch {
	case errors.Is(err, ErrTargetUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, playwright.ErrTargetClosed), isContextDestroyed(err):
		return fmt.Errorf("%w: %v", ErrTargetUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrScriptExecution, err)
	}
}

func (w *playwrightWindow) Attach(ctx context.Context) (DebugChannel, error) {
	session, err := await(ctx, w.closed, func() (playwright.CDPSession, error) {
		return w.context.NewCDPSession(w.page)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttachFailure, err)
	}

	ch := &playwrightChannel{
		session: session,
		closed:  w.closed,
		queue:   newEventQueue(),
		logger:  w.logger,
	}

	// Handlers run on the driver's dispatch goroutine and must not block.
	session.On("Network.responseReceived", ch.onResponseReceived)
	session.On("Network.loadingFinished", ch.onLoadingFinished)

	if _, err := await(ctx, w.closed, func() (any, error) {
		return session.Send("Network.enable", map[string]interface{}{})
	}); err != nil {
		_ = ch.Detach()
		return nil, fmt.Errorf("%w: enable network domain: %v", ErrAttachFailure, err)
	}

	return ch, nil
}

func (w *playwrightWindow) Close(ctx context.Context) error {
	select {
	case <-w.closed:
		return nil
	default:
	}

	_, err := await(ctx, w.closed, func() (struct{}, error) {
		return struct{}{}, w.page.Close()
	})
	if err != nil && !errors.Is(err, ErrTargetUnavailable) && !errors.Is(err, playwright.ErrTargetClosed) {
		return fmt.Errorf("failed to close window: %w", err)
	}
	w.markClosed()
	return nil
}

type playwrightChannel struct {
	session    playwright.CDPSession
	closed     <-chan struct{}
	queue      *eventQueue
	detachOnce sync.Once
	logger     *logging.Logger
}

func (c *playwrightChannel) onResponseReceived(params map[string]interface{}) {
	id, _ := params["requestId"].(string)
	response, _ := params["response"].(map[string]interface{})
	if id == "" || response == nil {
		return
	}
	mimeType, _ := response["mimeType"].(string)
	url, _ := response["url"].(string)
	c.queue.push(NetworkEvent{
		Kind:      EventResponseReceived,
		RequestID: id,
		MimeType:  mimeType,
		URL:       url,
	})
}

func (c *playwrightChannel) onLoadingFinished(params map[string]interface{}) {
	id, _ := params["requestId"].(string)
	if id == "" {
		return
	}
	c.queue.push(NetworkEvent{Kind: EventLoadingFinished, RequestID: id})
}

func (c *playwrightChannel) Events() <-chan NetworkEvent {
	return c.queue.events()
}

func (c *playwrightChannel) ResponseBody(ctx context.Context, requestID string) (string, error) {
	raw, err := await(ctx, c.closed, func() (interface{}, error) {
		return c.session.Send("Network.getResponseBody", map[string]interface{}{
			"requestId": requestID,
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to get response body for %s: %w", requestID, err)
	}

	result, ok := raw.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected getResponseBody result %T", raw)
	}
	body, _ := result["body"].(string)
	if encoded, _ := result["base64Encoded"].(bool); encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", fmt.Errorf("failed to decode response body: %w", err)
		}
		return string(decoded), nil
	}
	return body, nil
}

func (c *playwrightChannel) Detach() error {
	var err error
	c.detachOnce.Do(func() {
		c.queue.close()
		c.session.RemoveListeners("Network.responseReceived")
		c.session.RemoveListeners("Network.loadingFinished")

		select {
		case <-c.closed:
			// the target is gone and took the session with it
			return
		default:
		}
		if detachErr := c.session.Detach(); detachErr != nil && !errors.Is(detachErr, playwright.ErrTargetClosed) {
			err = fmt.Errorf("failed to detach debugger: %w", detachErr)
		}
	})
	return err
}

// await runs fn, which cannot be cancelled, and stops waiting for it when
// ctx is done or the window closes.
func await[T any](ctx context.Context, closed <-chan struct{}, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case <-closed:
		return zero, ErrTargetUnavailable
	default:
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-closed:
		return zero, ErrTargetUnavailable
	}
}

func isContextDestroyed(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Execution context was destroyed") ||
		strings.Contains(msg, "Target page, context or browser has been closed")
}

func controlPage(title string) string {
	t := html.EscapeString(title)
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>` + t +
		`</title></head><body><p>` + t + `</p></body></html>`
}
