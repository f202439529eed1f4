// Package attendance holds the portal domain: job states scraped from the
// daily log table, the punch decision policy, day records exchanged with
// companion surfaces, and the selectable date window.
//
// Everything in this package is pure. Browser access lives in pkg/browser
// and sequencing lives in pkg/orchestrator.
package attendance
