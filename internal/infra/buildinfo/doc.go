// Package buildinfo reports the redpipectl build.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/redpipe-go/internal/infra/buildinfo.Version=v1.0.0"
//
// GoVersion and the go-redis client version are read at runtime.
package buildinfo
