// Package confloader loads redpipectl configuration.
//
// It wraps koanf and merges sources in this order, later overriding earlier:
//
//  1. Default values (already present in the target struct)
//  2. Configuration file (YAML)
//  3. Environment variables (REDPIPE_ prefix)
//  4. Command-line flags (LoadMap)
//
// Watcher reports writes to the configuration file so long-running commands
// can reload settings such as the log level.
package confloader
