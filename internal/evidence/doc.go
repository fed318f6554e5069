// Package evidence provides Evidence Source implementations: an HTTP
// fetcher for live APIs and an in-memory stub for tests and fixtures.
//
// Every source honors the same contract: Get returns the response body, or
// the empty string when no data is available for any reason.
package evidence
