package capture

import "strings"

// MimeJSON is the MIME type of the portal's XHR responses.
const MimeJSON = "application/json"

// Stream selects records by exact MIME type and URL substring.
type Stream struct {
	Name      string
	MimeType  string
	Substring string
}

// Standard stream names.
const (
	StreamSummary       = "summary"
	StreamEditCommitted = "edit-committed"
)

// SummaryStream fires when the edit page has fetched its day summary,
// which means the page is ready.
var SummaryStream = Stream{
	Name:      StreamSummary,
	MimeType:  MimeJSON,
	Substring: "/adit/get-summary/",
}

// EditCommittedStream fires when a punch correction has been accepted.
var EditCommittedStream = Stream{
	Name:      StreamEditCommitted,
	MimeType:  MimeJSON,
	Substring: "/adit/insert/",
}

// Match reports whether rec belongs to the stream.
func (s Stream) Match(rec ResponseRecord) bool {
	return rec.MimeType == s.MimeType && strings.Contains(rec.URL, s.Substring)
}
