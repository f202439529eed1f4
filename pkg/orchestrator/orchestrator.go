// Package orchestrator drives dates through the edit page of the portal:
// navigate, wait for the page's summary fetch, read the log table, decide,
// then submit each punch and wait for the portal to acknowledge it.
//
// Dates are processed strictly one after another in a single controlled
// window. Batch runs pace themselves with a randomized delay before each
// date.
package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/browser"
	"github.com/entrhq/punch/pkg/capture"
	"github.com/entrhq/punch/pkg/config"
	"github.com/entrhq/punch/pkg/logging"
	"github.com/entrhq/punch/pkg/session"
	"github.com/entrhq/punch/pkg/types"
)

// Edit page selectors.
const (
	SelectorLogTable  = "#" + attendance.LogTableID
	SelectorPunchKind = "#adit_item_change > select"
	SelectorTime      = "#ter_time"
	SelectorSubmit    = "#insert_button"
)

// Target is the controlled session a run drives. *session.Session
// satisfies it.
type Target interface {
	ID() browser.WindowID
	Execute(ctx context.Context, op browser.Operation) (browser.Result, error)
	Expect(stream string) *capture.Waiter
	Done() <-chan struct{}
	ClosedByUser() bool
	Close() error
}

// RecordObserver sees every response routed to a stream.
type RecordObserver func(stream string, rec capture.ResponseRecord)

// Opener opens a fresh Target. observe may be nil.
type Opener func(ctx context.Context, observe RecordObserver) (Target, error)

// SessionOpener opens sessions on driver with opts.
func SessionOpener(driver browser.Driver, opts session.Options) Opener {
	return func(ctx context.Context, observe RecordObserver) (Target, error) {
		o := opts
		if observe != nil {
			o.OnRecord = observe
		}
		s, err := session.Open(ctx, driver, o)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Config holds the portal and pacing settings of a run.
type Config struct {
	BaseURL      string
	ClockInTime  string
	ClockOutTime string
	BaseDelay    time.Duration
	MaxJitter    time.Duration
}

// ConfigFrom extracts the orchestrator settings from cfg.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BaseURL:      cfg.Portal.BaseURL,
		ClockInTime:  cfg.Portal.ClockInTime,
		ClockOutTime: cfg.Portal.ClockOutTime,
		BaseDelay:    cfg.Batch.BaseDelay,
		MaxJitter:    cfg.Batch.MaxJitter,
	}
}

// Orchestrator runs batch and single-action jobs.
type Orchestrator struct {
	cfg    Config
	open   Opener
	emit   types.EventEmitter
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(n time.Duration) time.Duration
	newID  func() string
	logger *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEmitter sets the receiver of run events.
func WithEmitter(emit types.EventEmitter) Option {
	return func(o *Orchestrator) {
		o.emit = emit
	}
}

// WithSleep replaces the context-aware sleep used for pacing.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithJitter replaces the random source of the pacing jitter. fn must
// return a value in [0, n).
func WithJitter(fn func(n time.Duration) time.Duration) Option {
	return func(o *Orchestrator) {
		o.jitter = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an Orchestrator opening sessions through open.
func New(open Opener, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:   cfg,
		open:  open,
		emit:  func(*types.JobEvent) {},
		sleep: sleepContext,
		jitter: func(n time.Duration) time.Duration {
			return rand.N(n)
		},
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("orchestrator")
	return o
}

// Delay returns the pause before the next batch date: the base delay plus
// a uniform jitter in [0, MaxJitter).
func (o *Orchestrator) Delay() time.Duration {
	d := o.cfg.BaseDelay
	if o.cfg.MaxJitter > 0 {
		d += o.jitter(o.cfg.MaxJitter)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) punchTime(p attendance.Punch) string {
	if p == attendance.ClockOut {
		return o.cfg.ClockOutTime
	}
	return o.cfg.ClockInTime
}
