package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/punch/pkg/config"
	"github.com/entrhq/punch/pkg/logging"
)

// Driver launches the browser and opens controlled windows in it.
type Driver interface {
	// Open creates a new controlled window navigated to url, or to the
	// control page when url is empty.
	Open(ctx context.Context, url string, opts WindowOptions) (Window, error)

	// Close shuts down the browser and every window it opened.
	Close() error
}

// Window is one controlled top-level page.
type Window interface {
	// ID returns the window/tab identity.
	ID() WindowID

	// Evaluate runs script in the page and returns its JSON value. Errors
	// wrap ErrTargetUnavailable or ErrScriptExecution.
	Evaluate(ctx context.Context, script string) (any, error)

	// Attach opens the debugging channel for this window. Errors wrap
	// ErrAttachFailure.
	Attach(ctx context.Context) (DebugChannel, error)

	// Closed is closed once the window is gone, by any means.
	Closed() <-chan struct{}

	// Close closes the window. Closing an already closed window is not an
	// error.
	Close(ctx context.Context) error
}

// DebugChannel is an attached debugging session of one window.
type DebugChannel interface {
	// Events delivers network events in arrival order. The channel is
	// closed by Detach. Delivery never blocks the driver.
	Events() <-chan NetworkEvent

	// ResponseBody fetches the body of a finished response.
	ResponseBody(ctx context.Context, requestID string) (string, error)

	// Detach releases the attachment. Safe to call more than once.
	Detach() error
}

// Options configures a Driver.
type Options struct {
	Headless   bool
	ProfileDir string
	ExecPath   string
	Install    bool
	Viewport   *Viewport
	Logger     *logging.Logger
}

// OptionsFromConfig maps the browser section of the config onto Options.
func OptionsFromConfig(cfg config.BrowserConfig, logger *logging.Logger) Options {
	return Options{
		Headless:   cfg.Headless,
		ProfileDir: cfg.ProfileDir,
		ExecPath:   cfg.ExecPath,
		Install:    cfg.Install,
		Viewport:   &Viewport{Width: cfg.WindowWidth, Height: cfg.WindowHeight},
		Logger:     logger,
	}
}

// NewDriver returns the driver selected by cfg.Driver. The browser itself
// is launched lazily by the first Open.
func NewDriver(cfg config.BrowserConfig, logger *logging.Logger) (Driver, error) {
	opts := OptionsFromConfig(cfg, logger)
	switch cfg.Driver {
	case config.DriverPlaywright, "":
		return NewPlaywrightDriver(opts), nil
	case config.DriverChromedp:
		return NewChromedpDriver(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser driver: %s", cfg.Driver)
	}
}

func (o Options) viewport(w WindowOptions) *Viewport {
	if w.Viewport != nil {
		return w.Viewport
	}
	if o.Viewport != nil && o.Viewport.Width > 0 && o.Viewport.Height > 0 {
		return o.Viewport
	}
	return DefaultViewport()
}

func (w WindowOptions) title() string {
	if w.Title == "" {
		return DefaultTitle
	}
	return w.Title
}
