// Package browser owns the controlled window and everything that talks to
// it directly.
//
// # Architecture
//
// A Driver launches a browser against a persistent profile directory (the
// portal login lives there) and opens Windows on demand. A Window is one
// small top-level page the automation fully owns:
//
//  1. Open: Driver.Open creates the page, navigated to a URL or to the
//     built-in control page
//  2. Attach: Window.Attach enables the Network domain over the Chrome
//     DevTools Protocol and returns a DebugChannel that queues
//     responseReceived/loadingFinished events
//  3. Execute: an Executor runs typed Operations (navigate, select an
//     option, set a field, click, scan a table) inside the page
//  4. Close: the DebugChannel is detached, then the window is closed
//
// Window.Closed fires however the window goes away, including the user
// closing it by hand.
//
// # Drivers
//
// Two drivers are available: playwright (default, playwright-go CDP
// sessions) and chromedp (typed cdproto events). Both satisfy the same
// interfaces so the rest of punch never imports either library.
//
// # Remote operations
//
// Operations are a closed catalog. The JavaScript payload for an operation
// is built only inside this package, with every parameter JSON-encoded, so
// callers never assemble script text.
package browser
