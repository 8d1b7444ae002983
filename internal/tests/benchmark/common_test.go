package benchmark

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// KeyCounts defines how many keys each benchmark touches per iteration.
var KeyCounts = []int{10, 100, 1000}

// newBenchRegistry starts an in-process redis bound to the default connection.
func newBenchRegistry(b *testing.B) (*redpipe.Registry, *miniredis.Miniredis) {
	b.Helper()
	mr := miniredis.RunT(b)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b.Cleanup(func() { _ = rdb.Close() })

	reg := redpipe.NewRegistry()
	if err := reg.ConnectRedis(rdb, "", false); err != nil {
		b.Fatalf("ConnectRedis() error = %v", err)
	}
	return reg, mr
}

func keyName(i int) string {
	return fmt.Sprintf("k%06d", i)
}
