// Package connection builds go-redis clients from redpipectl configuration
// and binds them in a redpipe.Registry.
package connection
