package capture

import (
	"context"
	"sync"

	"github.com/entrhq/punch/pkg/browser"
	"github.com/entrhq/punch/pkg/logging"
)

// BodyFetcher retrieves the body of a finished response.
// browser.DebugChannel satisfies it.
type BodyFetcher interface {
	ResponseBody(ctx context.Context, requestID string) (string, error)
}

// Correlator joins header and body availability into ResponseRecords.
type Correlator struct {
	mu      sync.Mutex
	pending map[TransportID]ResponseHeader
	bodies  BodyFetcher
	out     *Broadcaster
	logger  *logging.Logger
}

// NewCorrelator creates a correlator that fetches bodies through bodies
// and publishes records on out.
func NewCorrelator(bodies BodyFetcher, out *Broadcaster, logger *logging.Logger) *Correlator {
	return &Correlator{
		pending: make(map[TransportID]ResponseHeader),
		bodies:  bodies,
		out:     out,
		logger:  logger,
	}
}

// ResponseReceived records the header of id until its body is ready.
func (c *Correlator) ResponseReceived(id TransportID, header ResponseHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[id] = header
}

// LoadingFinished completes id: the pending entry is removed, the body is
// fetched and one record is published. A finish for an id that is not
// pending is dropped, as is a record whose body cannot be fetched.
func (c *Correlator) LoadingFinished(ctx context.Context, id TransportID) {
	c.mu.Lock()
	header, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok {
		c.logger.Debugf("loadingFinished for unknown request %s dropped", id)
		return
	}

	body, err := c.bodies.ResponseBody(ctx, string(id))
	if err != nil {
		c.logger.Warnf("dropping %s (%s): %v", id, header.URL, err)
		return
	}

	c.out.Publish(ResponseRecord{
		ResponseHeader: header,
		Body:           body,
		TransportID:    id,
	})
}

// Pending returns the number of exchanges waiting for their body.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Run handles events in order until events is closed or ctx is done.
// Body fetches happen here, never on the driver's dispatch goroutine.
func (c *Correlator) Run(ctx context.Context, events <-chan browser.NetworkEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case browser.EventResponseReceived:
				c.ResponseReceived(TransportID(ev.RequestID), ResponseHeader{
					MimeType: ev.MimeType,
					URL:      ev.URL,
				})
			case browser.EventLoadingFinished:
				c.LoadingFinished(ctx, TransportID(ev.RequestID))
			}
		}
	}
}
