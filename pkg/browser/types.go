package browser

import (
	"errors"
	"fmt"
)

// WindowID identifies a controlled window for logs and events.
type WindowID string

// Viewport represents the controlled window dimensions.
type Viewport struct {
	Width  int
	Height int
}

// WindowOptions configures a new controlled window.
type WindowOptions struct {
	// Viewport sets the window size; nil means DefaultViewport
	Viewport *Viewport

	// Title is shown on the control page when no URL is given
	Title string
}

// Default values for controlled windows
const (
	DefaultWindowWidth  = 300
	DefaultWindowHeight = 300
	DefaultTitle        = "punch"
	// DefaultTimeout bounds driver calls that have no context (milliseconds)
	DefaultTimeout = 30000.0
)

// DefaultViewport returns the minimal window size used for controlled windows.
func DefaultViewport() *Viewport {
	return &Viewport{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
}

// EventKind is the debugging-channel event a NetworkEvent was built from.
type EventKind int

const (
	// EventResponseReceived is Network.responseReceived: headers are known
	EventResponseReceived EventKind = iota
	// EventLoadingFinished is Network.loadingFinished: the body is available
	EventLoadingFinished
)

func (k EventKind) String() string {
	switch k {
	case EventResponseReceived:
		return "Network.responseReceived"
	case EventLoadingFinished:
		return "Network.loadingFinished"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NetworkEvent is one network lifecycle event of the controlled window.
// MimeType and URL are only set for EventResponseReceived.
type NetworkEvent struct {
	Kind      EventKind
	RequestID string
	MimeType  string
	URL       string
}

var (
	// ErrTargetUnavailable means the controlled document closed or navigated
	// away while an operation ran in it.
	ErrTargetUnavailable = errors.New("target unavailable")

	// ErrScriptExecution means an operation's script threw inside the page.
	ErrScriptExecution = errors.New("script execution failed")

	// ErrAttachFailure means the debugging channel could not be attached.
	ErrAttachFailure = errors.New("debugger attach failed")

	// ErrDriverClosed is returned by a Driver used after Close.
	ErrDriverClosed = errors.New("browser driver closed")
)
