// Package output renders redpipectl results.
//
//   - formatter.go: Format selection and the Formatter interface
//   - table.go: aligned text tables built from structs, slices and maps
//   - json.go, yaml.go: machine-readable output
//   - progress.go: key counter for long scans
package output
