// Package repl implements the interactive pipeline shell of redpipectl.
//
// Every line the user types is queued on one root pipeline. "exec" sends
// the queue in a single round trip per connection and prints each reply:
//
//   - repl.go: read loop, meta commands and reply formatting
//   - completer.go: prefix completion over meta and redis commands
//   - history.go: command history persisted across sessions
package repl
