package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/punch/pkg/browser"
)

// MockBodyFetcher is a mock implementation of BodyFetcher for testing
type MockBodyFetcher struct {
	mock.Mock
}

func (m *MockBodyFetcher) ResponseBody(ctx context.Context, requestID string) (string, error) {
	args := m.Called(ctx, requestID)
	return args.String(0), args.Error(1)
}

type recorder struct {
	mu      sync.Mutex
	records []ResponseRecord
}

func (r *recorder) add(rec ResponseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorder) all() []ResponseRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ResponseRecord(nil), r.records...)
}

func newTestCorrelator(t *testing.T, bodies BodyFetcher) (*Correlator, *recorder) {
	t.Helper()
	out := NewBroadcaster()
	rec := &recorder{}
	out.Subscribe(rec.add)
	return NewCorrelator(bodies, out, nil), rec
}

func TestCorrelator_OneRecordPerExchange(t *testing.T) {
	bodies := new(MockBodyFetcher)
	bodies.On("ResponseBody", mock.Anything, "42").Return(`{"ok":true}`, nil).Once()

	c, rec := newTestCorrelator(t, bodies)
	ctx := context.Background()

	c.ResponseReceived("42", ResponseHeader{MimeType: MimeJSON, URL: "https://ssl.jobcan.jp/employee/adit/get-summary/"})
	assert.Equal(t, 1, c.Pending())

	c.LoadingFinished(ctx, "42")
	c.LoadingFinished(ctx, "42") // second finish: no longer pending

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, TransportID("42"), records[0].TransportID)
	assert.Equal(t, `{"ok":true}`, records[0].Body)
	assert.Equal(t, MimeJSON, records[0].MimeType)
	assert.Equal(t, 0, c.Pending())
	bodies.AssertNumberOfCalls(t, "ResponseBody", 1)
}

func TestCorrelator_UnknownFinishIsDropped(t *testing.T) {
	bodies := new(MockBodyFetcher)
	c, rec := newTestCorrelator(t, bodies)

	c.LoadingFinished(context.Background(), "never-seen")

	assert.Empty(t, rec.all())
	bodies.AssertNotCalled(t, "ResponseBody", mock.Anything, mock.Anything)
}

func TestCorrelator_BodyFailureIsDropped(t *testing.T) {
	bodies := new(MockBodyFetcher)
	bodies.On("ResponseBody", mock.Anything, "7").Return("", errors.New("No resource with given identifier found"))

	c, rec := newTestCorrelator(t, bodies)
	c.ResponseReceived("7", ResponseHeader{MimeType: "text/html", URL: "https://ssl.jobcan.jp/"})
	c.LoadingFinished(context.Background(), "7")

	assert.Empty(t, rec.all())
	assert.Equal(t, 0, c.Pending())
}

func TestCorrelator_RunInterleaved(t *testing.T) {
	bodies := new(MockBodyFetcher)
	bodies.On("ResponseBody", mock.Anything, "a").Return("body-a", nil)
	bodies.On("ResponseBody", mock.Anything, "b").Return("body-b", nil)
	bodies.On("ResponseBody", mock.Anything, "c").Return("body-c", nil)

	c, rec := newTestCorrelator(t, bodies)

	events := make(chan browser.NetworkEvent)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), events)
	}()

	for _, ev := range []browser.NetworkEvent{
		{Kind: browser.EventResponseReceived, RequestID: "a", MimeType: MimeJSON, URL: "/a"},
		{Kind: browser.EventResponseReceived, RequestID: "b", MimeType: MimeJSON, URL: "/b"},
		{Kind: browser.EventLoadingFinished, RequestID: "b"},
		{Kind: browser.EventLoadingFinished, RequestID: "zzz"},
		{Kind: browser.EventResponseReceived, RequestID: "c", MimeType: MimeJSON, URL: "/c"},
		{Kind: browser.EventLoadingFinished, RequestID: "a"},
		{Kind: browser.EventLoadingFinished, RequestID: "c"},
	} {
		events <- ev
	}
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after events closed")
	}

	records := rec.all()
	require.Len(t, records, 3)
	assert.Equal(t, []TransportID{"b", "a", "c"}, []TransportID{records[0].TransportID, records[1].TransportID, records[2].TransportID})
	assert.Equal(t, "/a", records[1].URL)
	assert.Equal(t, "body-a", records[1].Body)
}

func TestCorrelator_RunStopsOnContext(t *testing.T) {
	c, _ := newTestCorrelator(t, new(MockBodyFetcher))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, make(chan browser.NetworkEvent))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	var got []string
	unsubA := b.Subscribe(func(r ResponseRecord) { got = append(got, "a:"+string(r.TransportID)) })
	b.Subscribe(func(r ResponseRecord) { got = append(got, "b:"+string(r.TransportID)) })
	assert.Equal(t, 2, b.Len())

	b.Publish(ResponseRecord{TransportID: "1"})
	unsubA()
	unsubA()
	b.Publish(ResponseRecord{TransportID: "2"})
	b.Close()
	b.Publish(ResponseRecord{TransportID: "3"})
	b.Subscribe(func(ResponseRecord) { t.Fatal("subscribed after close") })
	b.Publish(ResponseRecord{TransportID: "4"})

	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)
	assert.Equal(t, 0, b.Len())
}
