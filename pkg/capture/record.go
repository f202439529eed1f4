package capture

import "errors"

// TransportID identifies one request/response exchange within a single
// debugging attachment.
type TransportID string

// ResponseHeader is what is known once response headers arrive.
type ResponseHeader struct {
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// ResponseRecord is one fully realized exchange. Treat it as immutable.
type ResponseRecord struct {
	ResponseHeader
	Body        string      `json:"body"`
	TransportID TransportID `json:"transport_id"`
}

var (
	// ErrSessionClosed is returned by waits that can no longer be satisfied
	// because the owning session ended.
	ErrSessionClosed = errors.New("session closed")

	// ErrStreamStarved is returned when a bounded wait elapses without a
	// matching record.
	ErrStreamStarved = errors.New("stream starved")

	// ErrUnknownStream is returned for waits on a stream that was never
	// registered.
	ErrUnknownStream = errors.New("unknown stream")
)
