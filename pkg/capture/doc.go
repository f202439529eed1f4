// Package capture turns the debugging channel's raw network events into
// complete response records and routes them into named logical streams.
//
// The Correlator pairs Network.responseReceived (headers) with
// Network.loadingFinished (body ready) for the same transport id, fetches
// the body and publishes one ResponseRecord on a Broadcaster. The Router
// filters those records into Streams by MIME type and URL substring,
// collapsing consecutive repeats of a transport id, and offers single-shot
// Waiters that the orchestrator arms before each triggering action.
//
// Everything here is owned by one session; nothing is package-global.
package capture
