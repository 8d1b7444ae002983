// Package tlsroots builds client TLS configurations for redis connections.
//
//   - roots.go: trust roots from the system pool plus custom CA files
//   - watcher.go: a client key pair that reloads when its files change
package tlsroots
