// Package session binds one controlled window, its debugging attachment,
// a correlator and a stream router into the scope of one automation run.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrhq/punch/pkg/browser"
	"github.com/entrhq/punch/pkg/capture"
	"github.com/entrhq/punch/pkg/logging"
)

// ErrWindowClosed is the cause recorded when the controlled window went
// away before the session was closed.
var ErrWindowClosed = errors.New("controlled window closed")

// closeTimeout bounds window teardown.
const closeTimeout = 10 * time.Second

// Options configures a Session.
type Options struct {
	// URL is loaded when the window opens; empty opens the control page
	URL string

	Window browser.WindowOptions

	// StreamTimeout bounds every stream wait; zero means unbounded
	StreamTimeout time.Duration

	// Streams defaults to the summary and edit-committed streams
	Streams []capture.Stream

	// OnRecord, when set, sees every record routed to a stream
	OnRecord func(stream string, rec capture.ResponseRecord)

	Logger *logging.Logger
}

// Session is the ownership scope of one run: window, attachment, pending
// map and streams are created together and torn down together.
type Session struct {
	window  browser.Window
	channel browser.DebugChannel
	exec    *browser.Executor
	source  *capture.Broadcaster
	router  *capture.Router
	logger  *logging.Logger

	cancel     context.CancelCauseFunc
	ctx        context.Context
	correlated chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	closeErr   error
	userClosed atomic.Bool
}

// Open creates the window, attaches the debugging channel and starts
// routing its traffic.
func Open(ctx context.Context, driver browser.Driver, opts Options) (*Session, error) {
	logger := opts.Logger.With("session")

	window, err := driver.Open(ctx, opts.URL, opts.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to open controlled window: %w", err)
	}

	channel, err := window.Attach(ctx)
	if err != nil {
		_ = window.Close(context.Background())
		return nil, fmt.Errorf("failed to attach to window %s: %w", window.ID(), err)
	}

	streams := opts.Streams
	if len(streams) == 0 {
		streams = []capture.Stream{capture.SummaryStream, capture.EditCommittedStream}
	}

	source := capture.NewBroadcaster()
	router, err := capture.NewRouter(source, streams,
		capture.WithTimeout(opts.StreamTimeout),
		capture.WithLogger(logger),
	)
	if err != nil {
		_ = channel.Detach()
		_ = window.Close(context.Background())
		return nil, err
	}

	if opts.OnRecord != nil {
		for _, st := range streams {
			name := st.Name
			if _, err := router.Subscribe(name, func(rec capture.ResponseRecord) {
				opts.OnRecord(name, rec)
			}); err != nil {
				logger.Warnf("failed to observe stream %s: %v", name, err)
			}
		}
	}

	sctx, cancel := context.WithCancelCause(context.Background())
	s := &Session{
		window:     window,
		channel:    channel,
		exec:       browser.NewExecutor(window, logger),
		source:     source,
		router:     router,
		logger:     logger,
		cancel:     cancel,
		ctx:        sctx,
		correlated: make(chan struct{}),
		done:       make(chan struct{}),
	}

	correlator := capture.NewCorrelator(channel, source, logger)
	go func() {
		defer close(s.correlated)
		if err := correlator.Run(sctx, channel.Events()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("correlator stopped: %v", err)
		}
	}()
	go s.watch()

	logger.Infof("session open on window %s", window.ID())
	return s, nil
}

func (s *Session) watch() {
	select {
	case <-s.window.Closed():
		s.userClosed.Store(true)
		s.logger.Warnf("window %s closed while the session was active", s.window.ID())
		_ = s.shutdown(ErrWindowClosed)
	case <-s.ctx.Done():
	}
}

// ID returns the controlled window identity.
func (s *Session) ID() browser.WindowID {
	return s.window.ID()
}

// Execute runs op in the controlled window.
func (s *Session) Execute(ctx context.Context, op browser.Operation) (browser.Result, error) {
	select {
	case <-s.done:
		return browser.Result{}, fmt.Errorf("%s: %w: %w", op.Name(), browser.ErrTargetUnavailable, capture.ErrSessionClosed)
	default:
	}
	return s.exec.Execute(ctx, op)
}

// Expect arms a single-shot wait on stream; see capture.Router.Expect.
func (s *Session) Expect(stream string) *capture.Waiter {
	return s.router.Expect(stream)
}

// AwaitFirst waits for the next record on stream.
func (s *Session) AwaitFirst(ctx context.Context, stream string) (capture.ResponseRecord, error) {
	return s.router.AwaitFirst(ctx, stream)
}

// Router exposes the session's stream router.
func (s *Session) Router() *capture.Router {
	return s.router
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended, or nil while it is active or after
// a regular Close.
func (s *Session) Err() error {
	select {
	case <-s.done:
	default:
		return nil
	}
	if cause := context.Cause(s.ctx); !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// ClosedByUser reports whether the window went away on its own.
func (s *Session) ClosedByUser() bool {
	return s.userClosed.Load()
}

// Close tears the session down: listeners are dropped, outstanding waits
// fail with capture.ErrSessionClosed, the debugger is detached and only
// then is the window closed. Safe to call more than once.
func (s *Session) Close() error {
	return s.shutdown(nil)
}

func (s *Session) shutdown(cause error) error {
	s.closeOnce.Do(func() {
		if cause != nil {
			s.cancel(cause)
		} else {
			s.cancel(context.Canceled)
		}

		s.router.Close(cause)
		s.source.Close()

		var errs []error
		if err := s.channel.Detach(); err != nil {
			errs = append(errs, err)
		}
		<-s.correlated

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := s.window.Close(ctx); err != nil {
			errs = append(errs, err)
		}

		s.closeErr = errors.Join(errs...)
		close(s.done)
		s.logger.Infof("session on window %s closed", s.window.ID())
	})
	<-s.done
	return s.closeErr
}
