// Package command provides the redpipectl command tree.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags and the per-run Env
//   - ping.go: PING and DBSIZE on every connection in one pipeline
//   - structs.go: struct show, set, incr and delete
//   - scan.go: rate-limited keyspace scans
//   - script.go: script load
//   - shell.go: interactive pipeline shell
//   - monitor.go: periodic health checks with /metrics and config reload
//   - config.go: config show and validate
//   - version.go: build information
//
// Commands parse flags, run against the connections in the configuration
// and render results with the output package.
package command
