// Package tests holds end-to-end tests that need a real redis server.
//
// They are behind the integration build tag:
//
//	go test -tags integration ./internal/tests/...
package tests
